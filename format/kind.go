package format

// Kind identifies which variant of the Value sum type a decoded value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindArray
	KindMap
	KindExtension
	// KindNative holds an arbitrary Go value produced by a registered
	// extension unpacker. It has no wire tag of its own: it exists only on
	// the decode side, standing in for whatever the unpacker returned, since
	// that type is closed over by application code rather than by this
	// package's Kind enumeration.
	KindNative
)

// String implements fmt.Stringer, following the same switch-based rendering
// mebo's format package uses for its own wire-constant enums.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindExtension:
		return "extension"
	case KindNative:
		return "native"
	default:
		return "unknown"
	}
}
