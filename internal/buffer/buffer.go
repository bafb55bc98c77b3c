// Package buffer implements the chunked byte buffer that backs every Encoder
// and Decoder (spec §4.2): an ordered sequence of byte segments plus a linear
// read cursor, with big-endian primitive reads/writes. The buffer has no
// streaming source of its own: reads see only data already written or fed,
// and codec.Decoder.FullDecode is what pulls more bytes from a bound source.
//
// The segment-coalescing growth strategy is grounded on mebo's
// internal/pool.ByteBuffer.Grow, adapted from "grow one big slice" to
// "coalesce adjacent small segments" so that many small tag-and-length
// writes don't each force a reallocation, while large payloads still land in
// their own segment untouched.
package buffer

import (
	"encoding/binary"
	"io"
	"math"
)

// DefaultCoalesceThreshold is the design-target segment size (spec §4.2)
// below which two adjacent small writes are merged into one segment instead
// of allocating a new one.
const DefaultCoalesceThreshold = 512

// Position is an opaque snapshot of the read cursor, taken by SavePosition
// and restored by RestorePosition so a tentative multi-byte read (e.g. a
// container header whose full length isn't yet present) can be rolled back
// without losing already-consumed bytes from prior values.
type Position struct {
	seg int
	off int
}

// Buffer is the chunked byte store. The zero Buffer is usable but has a
// threshold of 0 and so never coalesces; New applies a threshold (the
// default one for 0).
type Buffer struct {
	segments  [][]byte
	readSeg   int
	readOff   int
	threshold int
}

// New constructs a Buffer with the given coalesce threshold. A threshold of
// 0 selects DefaultCoalesceThreshold.
func New(threshold int) *Buffer {
	if threshold <= 0 {
		threshold = DefaultCoalesceThreshold
	}
	return &Buffer{threshold: threshold}
}

// Reset clears all buffered data and the read cursor, retaining the segment
// slice's capacity for reuse (mirrors ByteBuffer.Reset in the teacher: keep
// the backing array, drop the contents).
func (b *Buffer) Reset() {
	b.segments = b.segments[:0]
	b.readSeg = 0
	b.readOff = 0
}

// appendChunk appends data to the buffer, coalescing into the last segment
// when both it and the incoming chunk are below the coalesce threshold.
func (b *Buffer) appendChunk(data []byte) {
	if len(data) == 0 {
		return
	}
	if n := len(b.segments); n > 0 {
		last := b.segments[n-1]
		if len(last) < b.threshold && len(data) < b.threshold {
			b.segments[n-1] = append(last, data...)
			return
		}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.segments = append(b.segments, cp)
}

// Write appends data to the buffer. It always succeeds, implementing io.Writer.
func (b *Buffer) Write(data []byte) (int, error) {
	b.appendChunk(data)
	return len(data), nil
}

// WriteByte appends a single byte to the buffer, implementing io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	b.appendChunk([]byte{c})
	return nil
}

// WriteBytes appends data to the buffer.
func (b *Buffer) WriteBytes(data []byte) { b.appendChunk(data) }

// Feed appends newly-arrived stream data to the buffer for later reading.
// It is the decoder-facing name for the same append operation Write performs
// on the encoder side.
func (b *Buffer) Feed(data []byte) { b.appendChunk(data) }

// WriteUint16BE appends v in big-endian order.
func (b *Buffer) WriteUint16BE(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.appendChunk(tmp[:])
}

// WriteUint32BE appends v in big-endian order.
func (b *Buffer) WriteUint32BE(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.appendChunk(tmp[:])
}

// WriteUint64BE appends v in big-endian order.
func (b *Buffer) WriteUint64BE(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.appendChunk(tmp[:])
}

// WriteInt64BE appends v in big-endian two's-complement order.
func (b *Buffer) WriteInt64BE(v int64) { b.WriteUint64BE(uint64(v)) }

// WriteFloat32BE appends the IEEE 754 bits of f in big-endian order.
func (b *Buffer) WriteFloat32BE(f float32) { b.WriteUint32BE(math.Float32bits(f)) }

// WriteFloat64BE appends the IEEE 754 bits of f in big-endian order.
func (b *Buffer) WriteFloat64BE(f float64) { b.WriteUint64BE(math.Float64bits(f)) }

// Available returns the number of unread bytes currently buffered, without
// attempting to pull from any external source.
func (b *Buffer) Available() int {
	total := 0
	if b.readSeg < len(b.segments) {
		total += len(b.segments[b.readSeg]) - b.readOff
		for i := b.readSeg + 1; i < len(b.segments); i++ {
			total += len(b.segments[i])
		}
	}
	return total
}

// advance moves the read cursor forward by n bytes, which must not exceed
// Available().
func (b *Buffer) advance(n int) {
	for n > 0 {
		if b.readSeg >= len(b.segments) {
			return
		}
		remain := len(b.segments[b.readSeg]) - b.readOff
		if n < remain {
			b.readOff += n
			return
		}
		n -= remain
		b.readSeg++
		b.readOff = 0
	}
}

// PeekByte returns the next unread byte without consuming it.
func (b *Buffer) PeekByte() (byte, bool) {
	for b.readSeg < len(b.segments) && b.readOff >= len(b.segments[b.readSeg]) {
		b.readSeg++
		b.readOff = 0
	}
	if b.readSeg >= len(b.segments) {
		return 0, false
	}
	return b.segments[b.readSeg][b.readOff], true
}

// ReadByte consumes and returns the next unread byte, implementing io.ByteReader.
func (b *Buffer) ReadByte() (byte, error) {
	c, ok := b.PeekByte()
	if !ok {
		return 0, io.EOF
	}
	b.advance(1)
	return c, nil
}

// ReadBytes returns the next n unread bytes and advances the cursor past
// them. If fewer than n bytes are currently available, it returns ok=false
// and consumes nothing, preserving the "no partial consumption" invariant
// (spec §3) so the caller can retry once more data has been fed.
//
// The returned slice aliases the buffer's internal storage when n bytes lie
// within a single segment, and is a fresh copy when they span segments; in
// neither case may the caller retain it past the buffer's next mutation.
func (b *Buffer) ReadBytes(n int) ([]byte, bool) {
	if n == 0 {
		return nil, true
	}
	if b.Available() < n {
		return nil, false
	}

	for b.readSeg < len(b.segments) && b.readOff >= len(b.segments[b.readSeg]) {
		b.readSeg++
		b.readOff = 0
	}

	seg := b.segments[b.readSeg]
	if n <= len(seg)-b.readOff {
		out := seg[b.readOff : b.readOff+n]
		b.advance(n)
		return out, true
	}

	out := make([]byte, n)
	pos := 0
	remaining := n
	seg2, off2 := b.readSeg, b.readOff
	for remaining > 0 {
		s := b.segments[seg2]
		avail := len(s) - off2
		take := avail
		if take > remaining {
			take = remaining
		}
		copy(out[pos:], s[off2:off2+take])
		pos += take
		remaining -= take
		off2 += take
		if off2 >= len(s) {
			seg2++
			off2 = 0
		}
	}
	b.advance(n)
	return out, true
}

// ReadUint16BE reads a big-endian uint16.
func (b *Buffer) ReadUint16BE() (uint16, bool) {
	data, ok := b.ReadBytes(2)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint16(data), true
}

// ReadUint32BE reads a big-endian uint32.
func (b *Buffer) ReadUint32BE() (uint32, bool) {
	data, ok := b.ReadBytes(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(data), true
}

// ReadUint64BE reads a big-endian uint64.
func (b *Buffer) ReadUint64BE() (uint64, bool) {
	data, ok := b.ReadBytes(8)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint64(data), true
}

// ReadInt64BE reads a big-endian two's-complement int64.
func (b *Buffer) ReadInt64BE() (int64, bool) {
	u, ok := b.ReadUint64BE()
	return int64(u), ok
}

// ReadFloat32BE reads a big-endian IEEE 754 single-precision float.
func (b *Buffer) ReadFloat32BE() (float32, bool) {
	u, ok := b.ReadUint32BE()
	if !ok {
		return 0, false
	}
	return math.Float32frombits(u), true
}

// ReadFloat64BE reads a big-endian IEEE 754 double-precision float.
func (b *Buffer) ReadFloat64BE() (float64, bool) {
	u, ok := b.ReadUint64BE()
	if !ok {
		return 0, false
	}
	return math.Float64frombits(u), true
}

// SavePosition snapshots the read cursor.
func (b *Buffer) SavePosition() Position {
	return Position{seg: b.readSeg, off: b.readOff}
}

// RestorePosition rewinds the read cursor to a previously saved position.
func (b *Buffer) RestorePosition(p Position) {
	b.readSeg = p.seg
	b.readOff = p.off
}

// Bytes returns the logical remaining (unread) bytes as a single contiguous
// slice. It is O(total size) and intended for finalization, matching
// to_contiguous_bytes in spec §4.2.
func (b *Buffer) Bytes() []byte {
	n := b.Available()
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	pos := 0
	seg, off := b.readSeg, b.readOff
	for pos < n {
		s := b.segments[seg]
		take := len(s) - off
		copy(out[pos:], s[off:])
		pos += take
		seg++
		off = 0
	}
	return out
}

// FlushTo writes all unread bytes to w and then resets the buffer. Flushing
// is all-or-nothing: the read cursor only advances once every segment has
// been written successfully, so a failing w leaves the buffer exactly as it
// was and the caller may retry.
func (b *Buffer) FlushTo(w io.Writer) error {
	seg, off := b.readSeg, b.readOff
	for seg < len(b.segments) {
		s := b.segments[seg][off:]
		if len(s) > 0 {
			if _, err := w.Write(s); err != nil {
				return err
			}
		}
		seg++
		off = 0
	}
	b.Reset()
	return nil
}
