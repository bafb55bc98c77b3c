// Package value defines the MessagePack data model: the Value sum type and
// its Extension and Timestamp payloads (spec §3).
//
// Value plays the same role for this codec that mebo's typed data points
// (blob.DataPoint) play for metric samples: a single, addressable struct
// that every encoder/decoder path reads from and writes into, rather than a
// constellation of concrete types behind an interface.
package value

import (
	"fmt"
	"math"
	"reflect"

	"github.com/packstream/msgpack/format"
)

// KeyValue is one entry of a Map value. Map preserves insertion order and
// tolerates duplicate keys, per spec §3; it is therefore a slice of pairs
// rather than a Go map.
type KeyValue struct {
	Key Value
	Val Value
}

// Extension is the payload of an Extension value: an application- or
// format-defined type id in -128..127 plus an opaque byte payload (spec §3).
type Extension struct {
	Type    int8
	Payload []byte
}

// Value is the MessagePack sum type. The zero Value is Nil. Exactly one of
// the typed fields is meaningful for a given Kind; use the constructors below
// rather than populating fields directly, and the As* accessors rather than
// reading them directly.
type Value struct {
	kind     format.Kind
	boolVal  bool
	intVal   int64
	uintVal  uint64
	unsigned bool
	floatVal float64
	strVal   string
	binVal   []byte
	arrVal   []Value
	mapVal   []KeyValue
	extVal   Extension
	native   any
}

// Nil is the canonical nil Value; it is also the zero Value.
var Nil = Value{kind: format.KindNil}

// Bool returns a Value holding b.
func Bool(b bool) Value { return Value{kind: format.KindBool, boolVal: b} }

// Int returns a Value holding the signed integer i.
func Int(i int64) Value { return Value{kind: format.KindInt, intVal: i} }

// Uint returns a Value holding the unsigned integer u.
//
// Values that also fit in int64 may round-trip through either Int or Uint;
// decode always produces the narrowest faithful representation for the tag
// that was actually read (see codec.Decoder).
func Uint(u uint64) Value { return Value{kind: format.KindInt, uintVal: u, unsigned: true} }

// Float returns a Value holding f. MessagePack preserves single- vs
// double-precision only on the wire (spec §3); once decoded, a Value always
// carries a float64.
func Float(f float64) Value { return Value{kind: format.KindFloat, floatVal: f} }

// String returns a Value holding UTF-8 text s.
func String(s string) Value { return Value{kind: format.KindString, strVal: s} }

// Binary returns a Value holding opaque bytes b. b is retained, not copied.
func Binary(b []byte) Value { return Value{kind: format.KindBinary, binVal: b} }

// Array returns a Value holding an ordered sequence of elements. elems is
// retained, not copied.
func Array(elems []Value) Value { return Value{kind: format.KindArray, arrVal: elems} }

// Map returns a Value holding an ordered sequence of key-value pairs. pairs
// is retained, not copied.
func Map(pairs []KeyValue) Value { return Value{kind: format.KindMap, mapVal: pairs} }

// Ext returns a Value holding an extension record.
func Ext(typeID int8, payload []byte) Value {
	return Value{kind: format.KindExtension, extVal: Extension{Type: typeID, Payload: payload}}
}

// Native returns a Value wrapping an arbitrary application object, as
// produced by a registered extension's unpacker (spec §4.5). It is the one
// variant with no wire tag of its own: encoding a Native Value re-dispatches
// on the wrapped object's runtime type exactly as if that object had been
// passed to Encoder.Write directly.
func Native(v any) Value { return Value{kind: format.KindNative, native: v} }

// Kind reports which variant v holds.
func (v Value) Kind() format.Kind { return v.kind }

// IsNil reports whether v is the Nil variant.
func (v Value) IsNil() bool { return v.kind == format.KindNil }

// IsUnsigned reports whether v is an integer that was constructed or decoded
// via the unsigned family of tags. Integers that fit in both signed and
// unsigned wire forms still report the form actually produced by Uint or by
// decoding an unsigned tag.
func (v Value) IsUnsigned() bool { return v.kind == format.KindInt && v.unsigned }

// AsBool returns v's boolean value and whether v is a Bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != format.KindBool {
		return false, false
	}
	return v.boolVal, true
}

// AsInt returns v's integer value as an int64 and whether v is an Int.
// An unsigned value outside the int64 range is truncated by conversion;
// callers that need the full uint64 range should use AsUint.
func (v Value) AsInt() (int64, bool) {
	if v.kind != format.KindInt {
		return 0, false
	}
	if v.unsigned {
		return int64(v.uintVal), true
	}
	return v.intVal, true
}

// AsUint returns v's integer value as a uint64 and whether v is a
// non-negative Int.
func (v Value) AsUint() (uint64, bool) {
	if v.kind != format.KindInt {
		return 0, false
	}
	if v.unsigned {
		return v.uintVal, true
	}
	if v.intVal < 0 {
		return 0, false
	}
	return uint64(v.intVal), true
}

// AsFloat returns v's float value and whether v is a Float.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != format.KindFloat {
		return 0, false
	}
	return v.floatVal, true
}

// AsString returns v's string and whether v is a String.
func (v Value) AsString() (string, bool) {
	if v.kind != format.KindString {
		return "", false
	}
	return v.strVal, true
}

// AsBinary returns v's bytes and whether v is Binary.
func (v Value) AsBinary() ([]byte, bool) {
	if v.kind != format.KindBinary {
		return nil, false
	}
	return v.binVal, true
}

// AsArray returns v's elements and whether v is an Array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != format.KindArray {
		return nil, false
	}
	return v.arrVal, true
}

// AsMap returns v's pairs and whether v is a Map.
func (v Value) AsMap() ([]KeyValue, bool) {
	if v.kind != format.KindMap {
		return nil, false
	}
	return v.mapVal, true
}

// AsExtension returns v's extension record and whether v is an Extension.
func (v Value) AsExtension() (Extension, bool) {
	if v.kind != format.KindExtension {
		return Extension{}, false
	}
	return v.extVal, true
}

// AsNative returns v's wrapped application object and whether v is Native.
func (v Value) AsNative() (any, bool) {
	if v.kind != format.KindNative {
		return nil, false
	}
	return v.native, true
}

// Equal reports whether v and other hold the same Kind and the same value.
// Per spec §8, Equal does not consider an Int equal to a Float holding the
// same magnitude, nor a signed encoding equal to an unsigned one holding a
// different bit pattern; it compares by Kind and value, not by interchange.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case format.KindNil:
		return true
	case format.KindBool:
		return v.boolVal == other.boolVal
	case format.KindInt:
		if v.unsigned != other.unsigned {
			// A non-negative signed value and an unsigned value can still
			// represent the same magnitude; compare via AsUint when both
			// are representable that way.
			a, aok := v.AsUint()
			b, bok := other.AsUint()
			return aok && bok && a == b
		}
		if v.unsigned {
			return v.uintVal == other.uintVal
		}
		return v.intVal == other.intVal
	case format.KindFloat:
		if math.IsNaN(v.floatVal) && math.IsNaN(other.floatVal) {
			return true
		}
		return v.floatVal == other.floatVal
	case format.KindString:
		return v.strVal == other.strVal
	case format.KindBinary:
		return bytesEqual(v.binVal, other.binVal)
	case format.KindArray:
		if len(v.arrVal) != len(other.arrVal) {
			return false
		}
		for i := range v.arrVal {
			if !v.arrVal[i].Equal(other.arrVal[i]) {
				return false
			}
		}
		return true
	case format.KindMap:
		if len(v.mapVal) != len(other.mapVal) {
			return false
		}
		for i := range v.mapVal {
			if !v.mapVal[i].Key.Equal(other.mapVal[i].Key) || !v.mapVal[i].Val.Equal(other.mapVal[i].Val) {
				return false
			}
		}
		return true
	case format.KindExtension:
		return v.extVal.Type == other.extVal.Type && bytesEqual(v.extVal.Payload, other.extVal.Payload)
	case format.KindNative:
		return reflect.DeepEqual(v.native, other.native)
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer for debugging; it is not the wire format.
func (v Value) String() string {
	switch v.kind {
	case format.KindNil:
		return "nil"
	case format.KindBool:
		return fmt.Sprintf("%v", v.boolVal)
	case format.KindInt:
		if v.unsigned {
			return fmt.Sprintf("%d", v.uintVal)
		}
		return fmt.Sprintf("%d", v.intVal)
	case format.KindFloat:
		return fmt.Sprintf("%g", v.floatVal)
	case format.KindString:
		return fmt.Sprintf("%q", v.strVal)
	case format.KindBinary:
		return fmt.Sprintf("bin(%d)", len(v.binVal))
	case format.KindArray:
		return fmt.Sprintf("array(%d)", len(v.arrVal))
	case format.KindMap:
		return fmt.Sprintf("map(%d)", len(v.mapVal))
	case format.KindExtension:
		return fmt.Sprintf("ext(%d, %d bytes)", v.extVal.Type, len(v.extVal.Payload))
	case format.KindNative:
		return fmt.Sprintf("native(%T)", v.native)
	default:
		return "<invalid>"
	}
}
