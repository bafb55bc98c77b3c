package codec

import (
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/packstream/msgpack/errs"
	"github.com/packstream/msgpack/ext"
	"github.com/packstream/msgpack/format"
	"github.com/packstream/msgpack/internal/buffer"
	"github.com/packstream/msgpack/value"
)

// Decoder is the resumable decoder state machine from spec §4.4: a byte
// buffer acting as a sliding window over fed data, a nested-container frame
// stack standing in for recursion, and a partial-read record for payloads
// that haven't fully arrived yet. The zero Decoder is not usable; construct
// with NewDecoder.
type Decoder struct {
	buf     *buffer.Buffer
	source  io.Reader
	unpackers *ext.UnpackerRegistry

	stack   []frame
	partial *partialRead

	symbolizeKeys           bool
	freeze                  bool
	allowUnknownExt         bool
	optimizedSymbolsParsing bool

	borrowed bool
}

// NewDecoder constructs a Decoder with its own private unpacker registry.
// Decoders minted by a Factory instead clone the factory's registry; see
// pool.Factory.MintDecoder.
func NewDecoder(opts ...DecoderOption) (*Decoder, error) {
	d := &Decoder{
		buf:       buffer.New(0),
		unpackers: ext.NewUnpackerRegistry(),
	}
	if err := applyDecoderOptions(d, opts); err != nil {
		return nil, err
	}
	return d, nil
}

// newNestedDecoder builds a private Decoder over an extension payload for a
// recursive unpacker (spec §4.3's "fresh encoder" has a decode-side mirror):
// it shares the parent's unpacker registry (read-only from here) so nested
// custom types resolve the same way they would at the top level.
func newNestedDecoder(payload []byte, unpackers *ext.UnpackerRegistry) *Decoder {
	d := &Decoder{buf: buffer.New(0), unpackers: unpackers}
	d.buf.Feed(payload)
	return d
}

// RegisterType registers an unpacker directly on this Decoder's own
// registry. Most callers register types once on a pool.Factory instead.
func (d *Decoder) RegisterType(typeID int8, flags ext.Flags, unpack ext.UnpackerFunc, unpackRecursive ext.RecursiveUnpackerFunc) error {
	if d.borrowed {
		return errs.ErrFrozen
	}
	return d.unpackers.Register(typeID, flags, unpack, unpackRecursive)
}

// Feed appends newly-arrived bytes for later reads.
func (d *Decoder) Feed(data []byte) { d.buf.Feed(data) }

// SetBorrowed marks whether this Decoder is currently checked out of a
// pool.DecoderPool; a borrowed Decoder rejects RegisterType (spec §4.6).
func (d *Decoder) SetBorrowed(b bool) { d.borrowed = b }

// Reset clears all decoder state (buffer, stack, partial-read record) so the
// instance may be reused for an unrelated stream.
func (d *Decoder) Reset() {
	d.buf.Reset()
	d.stack = d.stack[:0]
	d.partial = nil
}

// Read attempts to decode the next top-level value from currently fed data.
// It returns ok=false, err=nil (the "need more" sentinel, spec §7) when the
// data available so far doesn't complete a value; no bytes are consumed in
// that case beyond whatever had already been durably parsed before this
// call. Registered extension types decode to the application object their
// unpacker produced; everything else decodes to a value.Value.
func (d *Decoder) Read() (any, bool, error) {
	for {
		v, ready, err := d.step()
		if err != nil {
			return nil, false, err
		}
		if !ready {
			return nil, false, nil
		}
		if v == nil {
			// A frame was pushed (container header consumed); loop to read
			// its first element tag.
			continue
		}

		final, done := d.deliverValue(*v)
		if !done {
			continue
		}
		return d.finish(final), true, nil
	}
}

// step decodes exactly one "unit of progress": finishing a pending partial
// read, or consuming one fresh tag. It returns (nil, true, nil) when a
// container header was consumed and a frame pushed (the caller should loop
// rather than deliver anything), a non-nil value when one was completed,
// or ready=false for "need more".
func (d *Decoder) step() (*value.Value, bool, error) {
	if d.partial != nil {
		v, ready, err := d.completePartial()
		if err != nil || !ready {
			return nil, ready, err
		}
		return &v, true, nil
	}

	tagByte, ok := d.buf.PeekByte()
	if !ok {
		return nil, false, nil
	}
	tag := format.Tag(tagByte)
	if tag == format.Reserved {
		return nil, false, fmt.Errorf("%w: reserved tag 0xc1", errs.ErrMalformedFormat)
	}

	v, immediate, needMore, err := d.consumeOne(tag)
	if err != nil {
		return nil, false, err
	}
	if needMore {
		return nil, false, nil
	}
	if !immediate {
		return nil, true, nil
	}
	return &v, true, nil
}

// finish applies the symbolize-keys and freeze options and, for a
// top-level Native value (a registered extension's decode result), unwraps
// it so callers receive the application object directly rather than a
// value.Value wrapper.
func (d *Decoder) finish(v value.Value) any {
	if d.symbolizeKeys {
		v = symbolizeValue(v)
	}
	// Freeze: decode never aliases caller-visible memory into a container's
	// backing slices, so there is nothing further to copy-on-write here;
	// the option exists for interface parity with spec §4.4 and is
	// documented as a no-op beyond that guarantee (see DESIGN.md).
	if native, ok := v.AsNative(); ok {
		return native
	}
	return v
}

var symbolInterner sync.Map

func internString(s string) string {
	if v, ok := symbolInterner.Load(s); ok {
		return v.(string)
	}
	actual, _ := symbolInterner.LoadOrStore(s, s)
	return actual.(string)
}

func symbolizeValue(v value.Value) value.Value {
	switch v.Kind() {
	case format.KindArray:
		elems, _ := v.AsArray()
		out := make([]value.Value, len(elems))
		for i, el := range elems {
			out[i] = symbolizeValue(el)
		}
		return value.Array(out)
	case format.KindMap:
		pairs, _ := v.AsMap()
		out := make([]value.KeyValue, len(pairs))
		for i, kv := range pairs {
			key := kv.Key
			if s, ok := key.AsString(); ok {
				key = value.String(internString(s))
			}
			out[i] = value.KeyValue{Key: key, Val: symbolizeValue(kv.Val)}
		}
		return value.Map(out)
	default:
		return v
	}
}

// deliverValue pushes v into the top frame, popping and re-delivering
// completed containers up the stack as needed (spec §4.4 step 5). It
// returns (v, true) once the stack has fully unwound — v was the outermost
// value — or (zero, false) if more tags must be read first.
func (d *Decoder) deliverValue(v value.Value) (value.Value, bool) {
	for {
		if len(d.stack) == 0 {
			return v, true
		}
		top := &d.stack[len(d.stack)-1]
		switch top.kind {
		case frameArray:
			top.arrElems = append(top.arrElems, v)
			top.remaining--
			if top.remaining > 0 {
				return value.Value{}, false
			}
			v = value.Array(top.arrElems)
			d.stack = d.stack[:len(d.stack)-1]
		case frameMapKey:
			top.pendingKey = v
			top.kind = frameMapValue
			return value.Value{}, false
		case frameMapValue:
			top.mapPairs = append(top.mapPairs, value.KeyValue{Key: top.pendingKey, Val: v})
			top.remaining--
			if top.remaining > 0 {
				top.kind = frameMapKey
				return value.Value{}, false
			}
			v = value.Map(top.mapPairs)
			d.stack = d.stack[:len(d.stack)-1]
		}
	}
}

// haveAtLeast reports whether at least n bytes are currently buffered,
// counting the not-yet-consumed tag byte itself.
func (d *Decoder) haveAtLeast(n int) bool { return d.buf.Available() >= n }

// consumeOne consumes exactly one tag's worth of progress: a scalar, an
// empty container, a partial-read handoff, or a pushed frame for a
// nonempty container. See spec §4.4 steps 3-4 for the width-by-tag table.
func (d *Decoder) consumeOne(tag format.Tag) (v value.Value, immediate bool, needMore bool, err error) {
	switch {
	case tag.IsPositiveFixInt():
		if !d.haveAtLeast(1) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		return value.Int(tag.PositiveFixIntValue()), true, false, nil

	case tag.IsNegativeFixInt():
		if !d.haveAtLeast(1) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		return value.Int(tag.NegativeFixIntValue()), true, false, nil

	case tag.IsFixStr():
		n := tag.FixStrLen()
		if !d.haveAtLeast(1) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		return d.readStringPayload(n)

	case tag.IsFixArray():
		if !d.haveAtLeast(1) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		return d.pushArrayOrEmpty(tag.FixArrayLen())

	case tag.IsFixMap():
		if !d.haveAtLeast(1) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		return d.pushMapOrEmpty(tag.FixMapLen())
	}

	switch tag {
	case format.Nil:
		if !d.haveAtLeast(1) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		return value.Nil, true, false, nil

	case format.False:
		if !d.haveAtLeast(1) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		return value.Bool(false), true, false, nil

	case format.True:
		if !d.haveAtLeast(1) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		return value.Bool(true), true, false, nil

	case format.Uint8:
		if !d.haveAtLeast(2) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		b, _ := d.buf.ReadBytes(1)
		return value.Uint(uint64(b[0])), true, false, nil

	case format.Uint16:
		if !d.haveAtLeast(3) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		u, _ := d.buf.ReadUint16BE()
		return value.Uint(uint64(u)), true, false, nil

	case format.Uint32:
		if !d.haveAtLeast(5) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		u, _ := d.buf.ReadUint32BE()
		return value.Uint(uint64(u)), true, false, nil

	case format.Uint64:
		if !d.haveAtLeast(9) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		u, _ := d.buf.ReadUint64BE()
		return value.Uint(u), true, false, nil

	case format.Int8:
		if !d.haveAtLeast(2) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		b, _ := d.buf.ReadBytes(1)
		return value.Int(int64(int8(b[0]))), true, false, nil

	case format.Int16:
		if !d.haveAtLeast(3) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		u, _ := d.buf.ReadUint16BE()
		return value.Int(int64(int16(u))), true, false, nil

	case format.Int32:
		if !d.haveAtLeast(5) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		u, _ := d.buf.ReadUint32BE()
		return value.Int(int64(int32(u))), true, false, nil

	case format.Int64:
		if !d.haveAtLeast(9) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		i, _ := d.buf.ReadInt64BE()
		return value.Int(i), true, false, nil

	case format.Float32:
		if !d.haveAtLeast(5) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		f, _ := d.buf.ReadFloat32BE()
		return value.Float(float64(f)), true, false, nil

	case format.Float64:
		if !d.haveAtLeast(9) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		f, _ := d.buf.ReadFloat64BE()
		return value.Float(f), true, false, nil

	case format.Bin8:
		if !d.haveAtLeast(2) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		lb, _ := d.buf.ReadBytes(1)
		return d.readBinaryPayload(int(lb[0]))

	case format.Bin16:
		if !d.haveAtLeast(3) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint16BE()
		return d.readBinaryPayload(int(n))

	case format.Bin32:
		if !d.haveAtLeast(5) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint32BE()
		return d.readBinaryPayload(int(n))

	case format.Str8:
		if !d.haveAtLeast(2) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		lb, _ := d.buf.ReadBytes(1)
		return d.readStringPayload(int(lb[0]))

	case format.Str16:
		if !d.haveAtLeast(3) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint16BE()
		return d.readStringPayload(int(n))

	case format.Str32:
		if !d.haveAtLeast(5) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint32BE()
		return d.readStringPayload(int(n))

	case format.Array16:
		if !d.haveAtLeast(3) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint16BE()
		return d.pushArrayOrEmpty(int(n))

	case format.Array32:
		if !d.haveAtLeast(5) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint32BE()
		return d.pushArrayOrEmpty(int(n))

	case format.Map16:
		if !d.haveAtLeast(3) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint16BE()
		return d.pushMapOrEmpty(int(n))

	case format.Map32:
		if !d.haveAtLeast(5) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint32BE()
		return d.pushMapOrEmpty(int(n))

	case format.FixExt1:
		return d.consumeFixExt(1)
	case format.FixExt2:
		return d.consumeFixExt(2)
	case format.FixExt4:
		return d.consumeFixExt(4)
	case format.FixExt8:
		return d.consumeFixExt(8)
	case format.FixExt16:
		return d.consumeFixExt(16)

	case format.Ext8:
		if !d.haveAtLeast(3) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		lb, _ := d.buf.ReadBytes(1)
		tb, _ := d.buf.ReadBytes(1)
		return d.readExtensionPayload(int8(tb[0]), int(lb[0]))

	case format.Ext16:
		if !d.haveAtLeast(4) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint16BE()
		tb, _ := d.buf.ReadBytes(1)
		return d.readExtensionPayload(int8(tb[0]), int(n))

	case format.Ext32:
		if !d.haveAtLeast(6) {
			return value.Value{}, false, true, nil
		}
		_, _ = d.buf.ReadByte()
		n, _ := d.buf.ReadUint32BE()
		tb, _ := d.buf.ReadBytes(1)
		return d.readExtensionPayload(int8(tb[0]), int(n))
	}

	return value.Value{}, false, false, fmt.Errorf("%w: tag 0x%02x", errs.ErrMalformedFormat, byte(tag))
}

// consumeFixExt handles fixext1/2/4/8/16: since the whole record (tag, type
// id, payload) is at most 18 bytes, it is treated like a fixed-size scalar
// per spec §4.4 step 3 rather than spun off as a partial read.
func (d *Decoder) consumeFixExt(n int) (value.Value, bool, bool, error) {
	if !d.haveAtLeast(2 + n) {
		return value.Value{}, false, true, nil
	}
	_, _ = d.buf.ReadByte()
	tb, _ := d.buf.ReadBytes(1)
	payload, _ := d.buf.ReadBytes(n)
	v, err := d.decodeExtensionValue(int8(tb[0]), payload)
	if err != nil {
		return value.Value{}, false, false, err
	}
	return v, true, false, nil
}

func (d *Decoder) readStringPayload(n int) (value.Value, bool, bool, error) {
	data, ok := d.buf.ReadBytes(n)
	if !ok {
		d.partial = &partialRead{kind: partialString, length: n}
		return value.Value{}, false, true, nil
	}
	if !utf8.Valid(data) {
		return value.Value{}, false, false, fmt.Errorf("%w: string payload is not valid UTF-8", errs.ErrEncoding)
	}
	return value.String(string(data)), true, false, nil
}

func (d *Decoder) readBinaryPayload(n int) (value.Value, bool, bool, error) {
	data, ok := d.buf.ReadBytes(n)
	if !ok {
		d.partial = &partialRead{kind: partialBinary, length: n}
		return value.Value{}, false, true, nil
	}
	cp := append([]byte(nil), data...)
	return value.Binary(cp), true, false, nil
}

func (d *Decoder) readExtensionPayload(typeID int8, n int) (value.Value, bool, bool, error) {
	data, ok := d.buf.ReadBytes(n)
	if !ok {
		d.partial = &partialRead{kind: partialExtension, length: n, extTypeID: typeID}
		return value.Value{}, false, true, nil
	}
	v, err := d.decodeExtensionValue(typeID, data)
	if err != nil {
		return value.Value{}, false, false, err
	}
	return v, true, false, nil
}

// decodeExtensionValue resolves a fully-arrived extension payload through
// the unpacker registry (spec §4.5): a registered type decodes to the
// application object its unpacker produced (wrapped in a Native value so it
// can sit inside an array/map element uniformly); an unregistered type
// either decodes to the raw record or fails, per AllowUnknownExt.
func (d *Decoder) decodeExtensionValue(typeID int8, payload []byte) (value.Value, error) {
	entry, ok := d.unpackers.Lookup(typeID)
	if !ok {
		if !d.allowUnknownExt {
			return value.Value{}, fmt.Errorf("%w: type id %d", errs.ErrUnknownExtType, typeID)
		}
		cp := append([]byte(nil), payload...)
		return value.Ext(typeID, cp), nil
	}

	if entry.IsRecursive() {
		nested := newNestedDecoder(payload, d.unpackers)
		native, err := entry.UnpackRecursive(nested)
		if err != nil {
			return value.Value{}, err
		}
		return value.Native(native), nil
	}

	cp := append([]byte(nil), payload...)
	native, err := entry.Unpack(cp)
	if err != nil {
		return value.Value{}, err
	}
	return value.Native(native), nil
}

func (d *Decoder) completePartial() (value.Value, bool, error) {
	p := d.partial
	data, ok := d.buf.ReadBytes(p.length)
	if !ok {
		return value.Value{}, false, nil
	}
	d.partial = nil

	switch p.kind {
	case partialString:
		if !utf8.Valid(data) {
			return value.Value{}, false, fmt.Errorf("%w: string payload is not valid UTF-8", errs.ErrEncoding)
		}
		return value.String(string(data)), true, nil
	case partialBinary:
		cp := append([]byte(nil), data...)
		return value.Binary(cp), true, nil
	case partialExtension:
		v, err := d.decodeExtensionValue(p.extTypeID, data)
		if err != nil {
			return value.Value{}, false, err
		}
		return v, true, nil
	default:
		return value.Value{}, false, fmt.Errorf("%w: unknown partial-read kind", errs.ErrMalformedFormat)
	}
}

func (d *Decoder) pushArrayOrEmpty(n int) (value.Value, bool, bool, error) {
	if n == 0 {
		return value.Array(nil), true, false, nil
	}
	if len(d.stack) >= maxStackDepth {
		return value.Value{}, false, false, errs.ErrStackDepth
	}
	d.stack = append(d.stack, frame{kind: frameArray, remaining: n, arrElems: make([]value.Value, 0, n)})
	return value.Value{}, false, false, nil
}

func (d *Decoder) pushMapOrEmpty(n int) (value.Value, bool, bool, error) {
	if n == 0 {
		return value.Map(nil), true, false, nil
	}
	if len(d.stack) >= maxStackDepth {
		return value.Value{}, false, false, errs.ErrStackDepth
	}
	d.stack = append(d.stack, frame{kind: frameMapKey, remaining: n, mapPairs: make([]value.KeyValue, 0, n)})
	return value.Value{}, false, false, nil
}

// Skip advances past exactly one complete value without materializing it.
// It is implemented directly atop Read/deliverValue so that, per spec §8's
// skip-equivalence property, the decoder's position after Skip is exactly
// its position after an equivalent Read on the same input — trading the
// spec's suggested separate counter-stack for a guaranteed match by
// construction. It returns ok=false for "need more", exactly like Read.
func (d *Decoder) Skip() (bool, error) {
	_, ok, err := d.Read()
	return ok, err
}

// Each decodes every complete top-level value currently available, invoking
// fn for each in wire order, and returns nil once decoding would need more
// data. It stops and returns fn's error immediately if fn fails.
func (d *Decoder) Each(fn func(v any) error) error {
	for {
		v, ok, err := d.Read()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// FullDecode reads exactly one top-level value, pulling from a bound
// stream source (WithSource) as needed. It fails with ErrUnexpectedEOF if
// the source is exhausted before a value completes, and with
// ErrMalformedFormat if bytes remain buffered after the value completes.
func (d *Decoder) FullDecode() (any, error) {
	for {
		v, ok, err := d.Read()
		if err != nil {
			return nil, err
		}
		if ok {
			if d.buf.Available() > 0 {
				return nil, fmt.Errorf("%w: extra bytes after full decode", errs.ErrMalformedFormat)
			}
			return v, nil
		}

		if d.source == nil {
			return nil, fmt.Errorf("%w: no data source bound and no more fed data", errs.ErrUnexpectedEOF)
		}

		chunk := make([]byte, 4096)
		n, rerr := d.source.Read(chunk)
		if n > 0 {
			d.buf.Feed(chunk[:n])
		}
		if rerr != nil {
			if n == 0 {
				return nil, fmt.Errorf("%w: %v", errs.ErrUnexpectedEOF, rerr)
			}
		}
	}
}
