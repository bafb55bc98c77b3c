// Package codec implements the Encoder and Decoder (spec §4.3, §4.4): the
// only two types that turn a value.Value (or an arbitrary registered Go
// type) into MessagePack bytes and back.
//
// The split mirrors mebo's blob package, which keeps NumericEncoder and
// NumericDecoder in separate files each paired with its own
// functional-options config file.
package codec

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/packstream/msgpack/errs"
	"github.com/packstream/msgpack/ext"
	"github.com/packstream/msgpack/format"
	"github.com/packstream/msgpack/internal/buffer"
	"github.com/packstream/msgpack/value"
)

// Encoder writes MessagePack-encoded values into an internal byte buffer,
// which Finalize returns or flushes to a bound sink (spec §4.3). The zero Encoder is not
// usable; construct with NewEncoder.
type Encoder struct {
	buf               *buffer.Buffer
	packers           *ext.PackerRegistry
	sink              writer
	compatibilityMode bool
	borrowed          bool
}

// writer is the subset of io.Writer the Encoder needs; declared locally so
// this file doesn't need to import io just for the interface.
type writer interface {
	Write(p []byte) (int, error)
}

// NewEncoder constructs an Encoder with its own private packer registry.
// Encoders minted by a Factory instead clone the factory's registry; see
// pool.Factory.MintEncoder.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	e := &Encoder{
		buf:     buffer.New(0),
		packers: ext.NewPackerRegistry(),
	}
	if err := applyEncoderOptions(e, opts); err != nil {
		return nil, err
	}
	return e, nil
}

// RegisterType registers a packer directly on this Encoder's own registry.
// Most callers register types once on a pool.Factory instead; this exists
// for ad hoc encoders built without one. It fails with ErrFrozen if the
// encoder is borrowed from a pool or was minted from a frozen factory.
func (e *Encoder) RegisterType(typeID int8, sample any, flags ext.Flags, pack ext.PackerFunc, packRecursive ext.RecursivePackerFunc) error {
	if e.borrowed {
		return errs.ErrFrozen
	}
	return e.packers.Register(typeID, reflect.TypeOf(sample), flags, pack, packRecursive)
}

// Reset discards any buffered, unflushed bytes so the Encoder may be reused
// for an unrelated value. It does not affect the registry or sink binding.
func (e *Encoder) Reset() { e.buf.Reset() }

// SetBorrowed marks whether this Encoder is currently checked out of a
// pool.EncoderPool; a borrowed Encoder rejects RegisterType (spec §4.6).
func (e *Encoder) SetBorrowed(b bool) { e.borrowed = b }

// Write encodes v, dispatching on its runtime type: the packer registry is
// consulted first so registered extension types take priority over the
// built-in tags they might otherwise fall under (spec §4.3).
func (e *Encoder) Write(v any) error {
	if entry, ok := e.packers.Lookup(v); ok {
		if shouldUseExtension(entry, v) {
			return e.writeExtensionEntry(entry, v)
		}
	}

	if vv, ok := v.(value.Value); ok {
		return e.writeValue(vv)
	}

	vv, err := convertNative(v)
	if err != nil {
		return err
	}
	return e.writeValue(vv)
}

// shouldUseExtension decides whether a registry hit should actually be used,
// resolving spec §9's open question about oversized-integer registrations:
// a packer flagged OversizedInteger only applies once v's magnitude no
// longer fits the native int64/uint64 range; any other packer registered
// against an integer-shaped type (one satisfying IsInt64/IsUint64, the
// method pair math/big.Int happens to already expose) is otherwise ignored
// at encode time, letting native tags win.
func shouldUseExtension(entry ext.PackerEntry, v any) bool {
	rc, integerShaped := v.(interface {
		IsInt64() bool
		IsUint64() bool
	})
	if !integerShaped {
		return true
	}
	if entry.Flags&ext.OversizedInteger == 0 {
		return false
	}
	return !rc.IsInt64() && !rc.IsUint64()
}

func (e *Encoder) writeExtensionEntry(entry ext.PackerEntry, v any) error {
	if entry.IsRecursive() {
		nested, err := NewEncoder()
		if err != nil {
			return err
		}
		nested.packers = e.packers
		if err := entry.PackRecursive(v, nested); err != nil {
			return err
		}
		payload, err := nested.Finalize()
		if err != nil {
			return err
		}
		return e.WriteExtension(entry.TypeID, payload)
	}

	payload, err := entry.Pack(v)
	if err != nil {
		return err
	}
	return e.WriteExtension(entry.TypeID, payload)
}

func (e *Encoder) writeValue(v value.Value) error {
	switch v.Kind() {
	case format.KindNil:
		return e.WriteNil()
	case format.KindBool:
		b, _ := v.AsBool()
		return e.WriteBool(b)
	case format.KindInt:
		if v.IsUnsigned() {
			u, _ := v.AsUint()
			return e.WriteUint(u)
		}
		i, _ := v.AsInt()
		return e.WriteInt(i)
	case format.KindFloat:
		f, _ := v.AsFloat()
		return e.WriteFloat(f)
	case format.KindString:
		s, _ := v.AsString()
		return e.WriteString(s)
	case format.KindBinary:
		b, _ := v.AsBinary()
		return e.WriteBinary(b)
	case format.KindArray:
		elems, _ := v.AsArray()
		if err := e.WriteArrayHeader(len(elems)); err != nil {
			return err
		}
		for _, el := range elems {
			if err := e.writeValue(el); err != nil {
				return err
			}
		}
		return nil
	case format.KindMap:
		pairs, _ := v.AsMap()
		if err := e.WriteMapHeader(len(pairs)); err != nil {
			return err
		}
		for _, kv := range pairs {
			if err := e.writeValue(kv.Key); err != nil {
				return err
			}
			if err := e.writeValue(kv.Val); err != nil {
				return err
			}
		}
		return nil
	case format.KindExtension:
		x, _ := v.AsExtension()
		return e.WriteExtension(x.Type, x.Payload)
	case format.KindNative:
		native, _ := v.AsNative()
		return e.Write(native)
	default:
		return fmt.Errorf("%w: value has invalid kind %v", errs.ErrEncoding, v.Kind())
	}
}

// WriteNil encodes nil.
func (e *Encoder) WriteNil() error {
	e.buf.WriteByte(byte(format.Nil))
	return nil
}

// WriteBool encodes a boolean.
func (e *Encoder) WriteBool(b bool) error {
	if b {
		e.buf.WriteByte(byte(format.True))
	} else {
		e.buf.WriteByte(byte(format.False))
	}
	return nil
}

// WriteInt encodes a signed integer using the narrowest tag that fits (spec
// §4.3's width-selection rules): non-negative values take the unsigned tag
// family (fixint or uN), negative values take the signed family (negative
// fixint or iN).
func (e *Encoder) WriteInt(v int64) error {
	if v >= 0 {
		return e.writeUintTag(uint64(v))
	}
	return e.writeNegativeIntTag(v)
}

// WriteUint encodes an unsigned integer using the narrowest unsigned tag
// that fits, including magnitudes beyond what int64 can represent.
func (e *Encoder) WriteUint(v uint64) error {
	return e.writeUintTag(v)
}

func (e *Encoder) writeUintTag(v uint64) error {
	switch {
	case v <= 0x7f:
		e.buf.WriteByte(byte(v))
	case v <= math.MaxUint8:
		e.buf.WriteByte(byte(format.Uint8))
		e.buf.WriteByte(byte(v))
	case v <= math.MaxUint16:
		e.buf.WriteByte(byte(format.Uint16))
		e.buf.WriteUint16BE(uint16(v))
	case v <= math.MaxUint32:
		e.buf.WriteByte(byte(format.Uint32))
		e.buf.WriteUint32BE(uint32(v))
	default:
		e.buf.WriteByte(byte(format.Uint64))
		e.buf.WriteUint64BE(v)
	}
	return nil
}

func (e *Encoder) writeNegativeIntTag(v int64) error {
	switch {
	case v >= -32:
		e.buf.WriteByte(byte(int8(v)))
	case v >= math.MinInt8:
		e.buf.WriteByte(byte(format.Int8))
		e.buf.WriteByte(byte(int8(v)))
	case v >= math.MinInt16:
		e.buf.WriteByte(byte(format.Int16))
		e.buf.WriteUint16BE(uint16(int16(v)))
	case v >= math.MinInt32:
		e.buf.WriteByte(byte(format.Int32))
		e.buf.WriteUint32BE(uint32(int32(v)))
	default:
		e.buf.WriteByte(byte(format.Int64))
		e.buf.WriteInt64BE(v)
	}
	return nil
}

// WriteFloat encodes f at double precision (the float64 tag). Value always
// stores floats as float64 (spec §3); use WriteFloat32 directly when single
// precision on the wire is actually wanted.
func (e *Encoder) WriteFloat(f float64) error {
	e.buf.WriteByte(byte(format.Float64))
	e.buf.WriteFloat64BE(f)
	return nil
}

// WriteFloat32 encodes f at single precision (the float32 tag).
func (e *Encoder) WriteFloat32(f float32) error {
	e.buf.WriteByte(byte(format.Float32))
	e.buf.WriteFloat32BE(f)
	return nil
}

// WriteString encodes s, validating it is UTF-8 and selecting the narrowest
// string tag that fits (str8 is skipped in compatibility mode, promoting
// straight to str16).
func (e *Encoder) WriteString(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string is not valid UTF-8", errs.ErrEncoding)
	}
	return e.writeRaw([]byte(s), format.FixStrMin)
}

// WriteBinary encodes data as opaque bytes. In compatibility mode there are
// no bin* tags on the wire, so binary data is emitted using the string tag
// family instead (spec §4.3), without UTF-8 validation.
func (e *Encoder) WriteBinary(data []byte) error {
	if e.compatibilityMode {
		return e.writeRaw(data, format.FixStrMin)
	}
	return e.writeBin(data)
}

func (e *Encoder) writeRaw(data []byte, fixMin format.Tag) error {
	n := len(data)
	switch {
	case n < 32:
		e.buf.WriteByte(byte(fixMin) | byte(n))
	case n < 256 && !e.compatibilityMode:
		e.buf.WriteByte(byte(format.Str8))
		e.buf.WriteByte(byte(n))
	case n < 65536:
		e.buf.WriteByte(byte(format.Str16))
		e.buf.WriteUint16BE(uint16(n))
	case uint64(n) <= math.MaxUint32:
		e.buf.WriteByte(byte(format.Str32))
		e.buf.WriteUint32BE(uint32(n))
	default:
		return fmt.Errorf("%w: raw payload too long (%d bytes)", errs.ErrRange, n)
	}
	e.buf.WriteBytes(data)
	return nil
}

func (e *Encoder) writeBin(data []byte) error {
	n := len(data)
	switch {
	case n < 256:
		e.buf.WriteByte(byte(format.Bin8))
		e.buf.WriteByte(byte(n))
	case n < 65536:
		e.buf.WriteByte(byte(format.Bin16))
		e.buf.WriteUint16BE(uint16(n))
	case uint64(n) <= math.MaxUint32:
		e.buf.WriteByte(byte(format.Bin32))
		e.buf.WriteUint32BE(uint32(n))
	default:
		return fmt.Errorf("%w: binary payload too long (%d bytes)", errs.ErrRange, n)
	}
	e.buf.WriteBytes(data)
	return nil
}

// WriteArrayHeader encodes an array header of n elements. The caller must
// follow it with exactly n values written in order.
func (e *Encoder) WriteArrayHeader(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative array length %d", errs.ErrRange, n)
	}
	switch {
	case n < 16:
		e.buf.WriteByte(byte(format.FixArrayMin) | byte(n))
	case n < 65536:
		e.buf.WriteByte(byte(format.Array16))
		e.buf.WriteUint16BE(uint16(n))
	case uint64(n) <= math.MaxUint32:
		e.buf.WriteByte(byte(format.Array32))
		e.buf.WriteUint32BE(uint32(n))
	default:
		return fmt.Errorf("%w: array too long (%d elements)", errs.ErrRange, n)
	}
	return nil
}

// WriteMapHeader encodes a map header of n key-value pairs. The caller must
// follow it with exactly n (key, value) writes in order.
func (e *Encoder) WriteMapHeader(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative map length %d", errs.ErrRange, n)
	}
	switch {
	case n < 16:
		e.buf.WriteByte(byte(format.FixMapMin) | byte(n))
	case n < 65536:
		e.buf.WriteByte(byte(format.Map16))
		e.buf.WriteUint16BE(uint16(n))
	case uint64(n) <= math.MaxUint32:
		e.buf.WriteByte(byte(format.Map32))
		e.buf.WriteUint32BE(uint32(n))
	default:
		return fmt.Errorf("%w: map too long (%d pairs)", errs.ErrRange, n)
	}
	return nil
}

// WriteExtension encodes an extension record: a fix-extension tag when
// payload is exactly 1/2/4/8/16 bytes, otherwise ext8/16/32.
func (e *Encoder) WriteExtension(typeID int8, payload []byte) error {
	n := len(payload)
	switch n {
	case 1:
		e.buf.WriteByte(byte(format.FixExt1))
	case 2:
		e.buf.WriteByte(byte(format.FixExt2))
	case 4:
		e.buf.WriteByte(byte(format.FixExt4))
	case 8:
		e.buf.WriteByte(byte(format.FixExt8))
	case 16:
		e.buf.WriteByte(byte(format.FixExt16))
	default:
		switch {
		case n < 256:
			e.buf.WriteByte(byte(format.Ext8))
			e.buf.WriteByte(byte(n))
		case n < 65536:
			e.buf.WriteByte(byte(format.Ext16))
			e.buf.WriteUint16BE(uint16(n))
		case uint64(n) <= math.MaxUint32:
			e.buf.WriteByte(byte(format.Ext32))
			e.buf.WriteUint32BE(uint32(n))
		default:
			return fmt.Errorf("%w: extension payload too long (%d bytes)", errs.ErrRange, n)
		}
	}
	e.buf.WriteByte(byte(typeID))
	e.buf.WriteBytes(payload)
	return nil
}

// Finalize returns the accumulated bytes and resets the Encoder for reuse.
// If a sink was bound via WithSink, the bytes are flushed to it instead and
// Finalize returns a nil slice.
func (e *Encoder) Finalize() ([]byte, error) {
	if e.sink != nil {
		if err := e.buf.FlushTo(e.sink); err != nil {
			return nil, err
		}
		return nil, nil
	}
	out := e.buf.Bytes()
	e.buf.Reset()
	return out, nil
}

