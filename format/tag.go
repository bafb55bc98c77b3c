// Package format defines the MessagePack wire tags and the Kind enum used to
// classify decoded values, mirroring how mebo's format package centralizes its
// own wire-constant enums in one place.
package format

// Tag is a one-byte wire format marker. Fixed-range families (PositiveFixInt,
// NegativeFixInt, FixMap, FixArray, FixStr) are not enumerated individually;
// callers test membership with the Is* helpers below.
type Tag byte

const (
	// PositiveFixIntMin and PositiveFixIntMax bound the 0x00..0x7f fix-int range.
	PositiveFixIntMin Tag = 0x00
	PositiveFixIntMax Tag = 0x7f

	// FixMapMin and FixMapMax bound the 0x80..0x8f fix-map range.
	FixMapMin Tag = 0x80
	FixMapMax Tag = 0x8f

	// FixArrayMin and FixArrayMax bound the 0x90..0x9f fix-array range.
	FixArrayMin Tag = 0x90
	FixArrayMax Tag = 0x9f

	// FixStrMin and FixStrMax bound the 0xa0..0xbf fix-string range.
	FixStrMin Tag = 0xa0
	FixStrMax Tag = 0xbf

	Nil         Tag = 0xc0
	reservedTag Tag = 0xc1 // reserved; decoding it is ErrMalformedFormat.
	False       Tag = 0xc2
	True        Tag = 0xc3

	Bin8  Tag = 0xc4
	Bin16 Tag = 0xc5
	Bin32 Tag = 0xc6

	Ext8  Tag = 0xc7
	Ext16 Tag = 0xc8
	Ext32 Tag = 0xc9

	Float32 Tag = 0xca
	Float64 Tag = 0xcb

	Uint8  Tag = 0xcc
	Uint16 Tag = 0xcd
	Uint32 Tag = 0xce
	Uint64 Tag = 0xcf

	Int8  Tag = 0xd0
	Int16 Tag = 0xd1
	Int32 Tag = 0xd2
	Int64 Tag = 0xd3

	FixExt1  Tag = 0xd4
	FixExt2  Tag = 0xd5
	FixExt4  Tag = 0xd6
	FixExt8  Tag = 0xd7
	FixExt16 Tag = 0xd8

	Str8  Tag = 0xd9
	Str16 Tag = 0xda
	Str32 Tag = 0xdb

	Array16 Tag = 0xdc
	Array32 Tag = 0xdd

	Map16 Tag = 0xde
	Map32 Tag = 0xdf

	// NegativeFixIntMin and NegativeFixIntMax bound the 0xe0..0xff fix-int range.
	NegativeFixIntMin Tag = 0xe0
	NegativeFixIntMax Tag = 0xff
)

// Reserved is the one tag byte (0xc1) that has no defined meaning on the wire.
const Reserved = reservedTag

// IsPositiveFixInt reports whether t encodes a positive fixint (value == byte(t)).
func (t Tag) IsPositiveFixInt() bool { return t <= PositiveFixIntMax }

// IsNegativeFixInt reports whether t encodes a negative fixint (value == int8(t)).
func (t Tag) IsNegativeFixInt() bool { return t >= NegativeFixIntMin }

// IsFixMap reports whether t is in the fix-map range.
func (t Tag) IsFixMap() bool { return t >= FixMapMin && t <= FixMapMax }

// IsFixArray reports whether t is in the fix-array range.
func (t Tag) IsFixArray() bool { return t >= FixArrayMin && t <= FixArrayMax }

// IsFixStr reports whether t is in the fix-string range.
func (t Tag) IsFixStr() bool { return t >= FixStrMin && t <= FixStrMax }

// FixMapLen returns the key-value pair count embedded in a fix-map tag.
func (t Tag) FixMapLen() int { return int(t & 0x0f) }

// FixArrayLen returns the element count embedded in a fix-array tag.
func (t Tag) FixArrayLen() int { return int(t & 0x0f) }

// FixStrLen returns the byte length embedded in a fix-string tag.
func (t Tag) FixStrLen() int { return int(t & 0x1f) }

// PositiveFixIntValue returns the integer value embedded in a positive fixint tag.
func (t Tag) PositiveFixIntValue() int64 { return int64(t) }

// NegativeFixIntValue returns the integer value embedded in a negative fixint tag.
func (t Tag) NegativeFixIntValue() int64 { return int64(int8(t)) }

// String implements fmt.Stringer for debugging and error messages.
func (t Tag) String() string {
	switch {
	case t.IsPositiveFixInt():
		return "positive-fixint"
	case t.IsNegativeFixInt():
		return "negative-fixint"
	case t.IsFixMap():
		return "fixmap"
	case t.IsFixArray():
		return "fixarray"
	case t.IsFixStr():
		return "fixstr"
	}
	switch t {
	case Nil:
		return "nil"
	case False:
		return "false"
	case True:
		return "true"
	case Bin8, Bin16, Bin32:
		return "bin"
	case Ext8, Ext16, Ext32:
		return "ext"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Uint8, Uint16, Uint32, Uint64:
		return "uint"
	case Int8, Int16, Int32, Int64:
		return "int"
	case FixExt1, FixExt2, FixExt4, FixExt8, FixExt16:
		return "fixext"
	case Str8, Str16, Str32:
		return "str"
	case Array16, Array32:
		return "array"
	case Map16, Map32:
		return "map"
	case reservedTag:
		return "reserved"
	default:
		return "unknown"
	}
}
