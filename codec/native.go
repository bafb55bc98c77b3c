package codec

import (
	"fmt"
	"math/big"

	"github.com/packstream/msgpack/errs"
	"github.com/packstream/msgpack/value"
)

// convertNative maps a native Go value with no registered packer onto the
// closed Value sum type, the way Write's built-in fallback dispatch
// requires (spec §4.3). Slices/maps of Value (or KeyValue) are accepted
// directly as a convenience for callers assembling containers by hand;
// anything else unrecognized fails with ErrEncoding rather than being
// silently dropped.
func convertNative(v any) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.Nil, nil
	case bool:
		return value.Bool(t), nil
	case int:
		return value.Int(int64(t)), nil
	case int8:
		return value.Int(int64(t)), nil
	case int16:
		return value.Int(int64(t)), nil
	case int32:
		return value.Int(int64(t)), nil
	case int64:
		return value.Int(t), nil
	case uint:
		return value.Uint(uint64(t)), nil
	case uint8:
		return value.Uint(uint64(t)), nil
	case uint16:
		return value.Uint(uint64(t)), nil
	case uint32:
		return value.Uint(uint64(t)), nil
	case uint64:
		return value.Uint(t), nil
	case float32:
		return value.Float(float64(t)), nil
	case float64:
		return value.Float(t), nil
	case string:
		return value.String(t), nil
	case []byte:
		return value.Binary(t), nil
	case []value.Value:
		return value.Array(t), nil
	case []value.KeyValue:
		return value.Map(t), nil
	case *big.Int:
		return bigIntToValue(t)
	default:
		return value.Value{}, fmt.Errorf("%w: cannot encode unregistered type %T", errs.ErrEncoding, v)
	}
}

// bigIntToValue handles an unregistered *big.Int: it is only representable
// on the wire as a native integer tag, so it must fit int64 or uint64 or
// encoding fails with RangeError (spec §4.3's "Integer outside i64 range"
// rule, for the case where no oversized-integer extension is registered).
func bigIntToValue(z *big.Int) (value.Value, error) {
	if z.IsInt64() {
		return value.Int(z.Int64()), nil
	}
	if z.IsUint64() {
		return value.Uint(z.Uint64()), nil
	}
	return value.Value{}, fmt.Errorf("%w: *big.Int %s does not fit int64/uint64 and no oversized-integer extension is registered", errs.ErrRange, z)
}
