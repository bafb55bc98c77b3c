package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packstream/msgpack/errs"
	"github.com/packstream/msgpack/value"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.Write(v))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := NewDecoder()
	require.NoError(t, err)
	dec.Feed(data)
	got, ok, err := dec.Read()
	require.NoError(t, err)
	require.True(t, ok)
	return got
}

func TestDecoderScalarRoundTrip(t *testing.T) {
	assert.True(t, value.Nil.Equal(roundTrip(t, nil).(value.Value)))
	assert.True(t, value.Int(42).Equal(roundTrip(t, 42).(value.Value)))
	assert.True(t, value.Bool(true).Equal(roundTrip(t, true).(value.Value)))
	assert.True(t, value.String("hello").Equal(roundTrip(t, "hello").(value.Value)))
}

func TestDecoderNestedArrayAndMap(t *testing.T) {
	in := value.Array([]value.Value{
		value.Int(1),
		value.Array([]value.Value{value.Int(2), value.Int(3)}),
		value.Map([]value.KeyValue{{Key: value.String("k"), Val: value.Int(9)}}),
	})
	got := roundTrip(t, in).(value.Value)
	assert.True(t, in.Equal(got))
}

func TestDecoderStreamingExample(t *testing.T) {
	// {1:1} fed one byte at a time: 0x81 0x01 0x01
	dec, err := NewDecoder()
	require.NoError(t, err)

	dec.Feed([]byte{0x81})
	_, ok, err := dec.Read()
	require.NoError(t, err)
	require.False(t, ok)

	dec.Feed([]byte{0x01})
	_, ok, err = dec.Read()
	require.NoError(t, err)
	require.False(t, ok)

	dec.Feed([]byte{0x01})
	v, ok, err := dec.Read()
	require.NoError(t, err)
	require.True(t, ok)

	want := value.Map([]value.KeyValue{{Key: value.Int(1), Val: value.Int(1)}})
	assert.True(t, want.Equal(v.(value.Value)))
}

func TestDecoderArbitraryChunkPartitionsAgree(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	in := value.Array([]value.Value{
		value.String("a long enough string to cross a partial-read boundary"),
		value.Binary([]byte{1, 2, 3, 4, 5}),
		value.Int(-12345),
	})
	require.NoError(t, enc.Write(in))
	data, err := enc.Finalize()
	require.NoError(t, err)

	oneShot, err := NewDecoder()
	require.NoError(t, err)
	oneShot.Feed(data)
	want, ok, err := oneShot.Read()
	require.NoError(t, err)
	require.True(t, ok)

	for chunkSize := 1; chunkSize <= len(data); chunkSize++ {
		dec, err := NewDecoder()
		require.NoError(t, err)

		var got any
		for i := 0; i < len(data); i += chunkSize {
			end := i + chunkSize
			if end > len(data) {
				end = len(data)
			}
			dec.Feed(data[i:end])
			v, ok, err := dec.Read()
			require.NoError(t, err)
			if ok {
				got = v
			}
		}
		require.NotNil(t, got, "chunkSize=%d", chunkSize)
		assert.True(t, want.(value.Value).Equal(got.(value.Value)), "chunkSize=%d", chunkSize)
	}
}

func TestDecoderSkipEquivalence(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.Write("skip me"))
	require.NoError(t, enc.Write(value.Int(7)))
	data, err := enc.Finalize()
	require.NoError(t, err)

	decA, err := NewDecoder()
	require.NoError(t, err)
	decA.Feed(data)
	ok, err := decA.Skip()
	require.NoError(t, err)
	require.True(t, ok)

	decB, err := NewDecoder()
	require.NoError(t, err)
	decB.Feed(data)
	_, ok, err = decB.Read()
	require.NoError(t, err)
	require.True(t, ok)

	// Both decoders must agree on the remaining value after skip/read.
	va, ok, err := decA.Read()
	require.NoError(t, err)
	require.True(t, ok)
	vb, ok, err := decB.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, va.(value.Value).Equal(vb.(value.Value)))
}

func TestDecoderReservedTagIsMalformed(t *testing.T) {
	dec, err := NewDecoder()
	require.NoError(t, err)
	dec.Feed([]byte{0xc1})
	_, _, err = dec.Read()
	assert.ErrorIs(t, err, errs.ErrMalformedFormat)
}

func TestDecoderFullDecodeRejectsTrailingBytes(t *testing.T) {
	dec, err := NewDecoder()
	require.NoError(t, err)
	dec.Feed([]byte{0x01, 0x02})
	_, err = dec.FullDecode()
	assert.ErrorIs(t, err, errs.ErrMalformedFormat)
}

func TestDecoderFullDecodeFromSource(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.Write("from a reader"))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := NewDecoder(WithSource(bytes.NewReader(data)))
	require.NoError(t, err)
	v, err := dec.FullDecode()
	require.NoError(t, err)
	s, ok := v.(value.Value).AsString()
	require.True(t, ok)
	assert.Equal(t, "from a reader", s)
}

func TestDecoderSymbolizeKeysInterns(t *testing.T) {
	in := value.Map([]value.KeyValue{
		{Key: value.String("shared"), Val: value.Int(1)},
	})
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.Write(in))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := NewDecoder(WithSymbolizeKeys(true))
	require.NoError(t, err)
	dec.Feed(data)
	v, ok, err := dec.Read()
	require.NoError(t, err)
	require.True(t, ok)

	pairs, ok := v.(value.Value).AsMap()
	require.True(t, ok)
	k, ok := pairs[0].Key.AsString()
	require.True(t, ok)
	assert.Equal(t, "shared", k)
}

func TestDecoderUnknownExtensionWithoutAllowFails(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.WriteExtension(42, []byte{1}))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := NewDecoder()
	require.NoError(t, err)
	dec.Feed(data)
	_, _, err = dec.Read()
	assert.ErrorIs(t, err, errs.ErrUnknownExtType)
}

func TestDecoderUnknownExtensionAllowed(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.WriteExtension(42, []byte{1, 2, 3}))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := NewDecoder(WithAllowUnknownExt(true))
	require.NoError(t, err)
	dec.Feed(data)
	v, ok, err := dec.Read()
	require.NoError(t, err)
	require.True(t, ok)

	x, ok := v.(value.Value).AsExtension()
	require.True(t, ok)
	assert.Equal(t, int8(42), x.Type)
	assert.Equal(t, []byte{1, 2, 3}, x.Payload)
}

func TestDecoderRegisteredExtensionRoundTrip(t *testing.T) {
	type point struct{ X, Y int }

	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.RegisterType(10, point{}, 0, func(v any) ([]byte, error) {
		p := v.(point)
		return []byte{byte(p.X), byte(p.Y)}, nil
	}, nil))
	require.NoError(t, enc.Write(point{X: 10, Y: 20}))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := NewDecoder()
	require.NoError(t, err)
	require.NoError(t, dec.RegisterType(10, 0, func(payload []byte) (any, error) {
		return point{X: int(payload[0]), Y: int(payload[1])}, nil
	}, nil))
	dec.Feed(data)
	v, ok, err := dec.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, point{X: 10, Y: 20}, v)
}

func TestDecoderStackDepthLimit(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	for i := 0; i <= maxStackDepth; i++ {
		require.NoError(t, enc.WriteArrayHeader(1))
	}
	require.NoError(t, enc.WriteInt(1))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := NewDecoder()
	require.NoError(t, err)
	dec.Feed(data)
	_, _, err = dec.Read()
	assert.ErrorIs(t, err, errs.ErrStackDepth)
}

func TestDecoderEachDecodesAllAvailable(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	require.NoError(t, enc.Write(1))
	require.NoError(t, enc.Write(2))
	require.NoError(t, enc.Write(3))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := NewDecoder()
	require.NoError(t, err)
	dec.Feed(data)

	var got []int64
	require.NoError(t, dec.Each(func(v any) error {
		i, _ := v.(value.Value).AsInt()
		got = append(got, i)
		return nil
	}))
	assert.Equal(t, []int64{1, 2, 3}, got)
}
