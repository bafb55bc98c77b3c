package buffer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := New(0)
	b.WriteByte(0x01)
	b.WriteBytes([]byte("hello"))
	b.WriteUint16BE(0xABCD)
	b.WriteUint32BE(0xDEADBEEF)
	b.WriteUint64BE(0x0102030405060708)
	b.WriteFloat64BE(1.0)

	got, ok := b.ReadBytes(1)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01}, got)

	str, ok := b.ReadBytes(5)
	require.True(t, ok)
	assert.Equal(t, "hello", string(str))

	u16, ok := b.ReadUint16BE()
	require.True(t, ok)
	assert.Equal(t, uint16(0xABCD), u16)

	u32, ok := b.ReadUint32BE()
	require.True(t, ok)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, ok := b.ReadUint64BE()
	require.True(t, ok)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	f, ok := b.ReadFloat64BE()
	require.True(t, ok)
	assert.Equal(t, 1.0, f)

	assert.Equal(t, 0, b.Available())
}

func TestReadBytesShortReturnsFalseWithoutConsuming(t *testing.T) {
	b := New(0)
	b.WriteBytes([]byte("ab"))

	_, ok := b.ReadBytes(3)
	assert.False(t, ok)
	assert.Equal(t, 2, b.Available(), "a short read must not consume any bytes")

	data, ok := b.ReadBytes(2)
	require.True(t, ok)
	assert.Equal(t, "ab", string(data))
}

func TestPeekByteDoesNotConsume(t *testing.T) {
	b := New(0)
	b.WriteBytes([]byte("xy"))

	peeked, ok := b.PeekByte()
	require.True(t, ok)
	assert.Equal(t, byte('x'), peeked)

	read, err := b.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, peeked, read, "ReadByte after PeekByte of the same byte must return the same value")
}

func TestReadBytesAcrossSegments(t *testing.T) {
	b := New(4) // tiny threshold forces separate segments quickly
	b.WriteBytes([]byte("abcd"))
	b.WriteBytes(bytes.Repeat([]byte("Z"), 600)) // exceeds threshold: own segment
	b.WriteBytes([]byte("efgh"))

	out, ok := b.ReadBytes(4 + 600 + 2)
	require.True(t, ok)
	assert.Equal(t, "abcd", string(out[:4]))
	assert.Equal(t, bytes.Repeat([]byte("Z"), 600), out[4:604])
	assert.Equal(t, "ef", string(out[604:606]))
}

func TestSaveRestorePosition(t *testing.T) {
	b := New(0)
	b.WriteBytes([]byte("0123456789"))

	_, _ = b.ReadBytes(3)
	pos := b.SavePosition()

	_, ok := b.ReadBytes(100)
	assert.False(t, ok)

	b.RestorePosition(pos)
	rest, ok := b.ReadBytes(7)
	require.True(t, ok)
	assert.Equal(t, "3456789", string(rest))
}

func TestCoalescingBelowThreshold(t *testing.T) {
	b := New(512)
	for i := 0; i < 10; i++ {
		b.WriteByte(byte(i))
	}
	assert.Len(t, b.segments, 1, "small writes below the coalesce threshold should share one segment")
}

func TestCoalescingDoesNotAffectReadSemantics(t *testing.T) {
	small := New(512)
	large := New(1) // force a new segment per write
	var want []byte
	for i := 0; i < 20; i++ {
		chunk := []byte{byte(i), byte(i + 1)}
		want = append(want, chunk...)
		small.WriteBytes(chunk)
		large.WriteBytes(chunk)
	}

	gotSmall, ok := small.ReadBytes(len(want))
	require.True(t, ok)
	gotLarge, ok := large.ReadBytes(len(want))
	require.True(t, ok)

	assert.Equal(t, want, gotSmall)
	assert.Equal(t, want, gotLarge)
}

func TestFeedAppendsReadableData(t *testing.T) {
	b := New(0)
	b.Feed([]byte("part1"))
	b.Feed([]byte("part2"))

	out := b.Bytes()
	assert.Equal(t, "part1part2", string(out))
}

func TestFlushTo(t *testing.T) {
	b := New(0)
	b.WriteBytes([]byte("flush-me"))

	var out bytes.Buffer
	require.NoError(t, b.FlushTo(&out))
	assert.Equal(t, "flush-me", out.String())
	assert.Equal(t, 0, b.Available())
}

func TestResetClearsState(t *testing.T) {
	b := New(0)
	b.WriteBytes([]byte("data"))
	_, _ = b.ReadBytes(2)
	b.Reset()

	assert.Equal(t, 0, b.Available())
	assert.Nil(t, b.Bytes())
}

func TestBytesIsRemainingNotWhole(t *testing.T) {
	b := New(0)
	b.WriteBytes([]byte("0123456789"))
	_, _ = b.ReadBytes(4)
	assert.Equal(t, "456789", string(b.Bytes()))
}
