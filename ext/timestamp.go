package ext

import (
	"encoding/binary"
	"fmt"

	"github.com/packstream/msgpack/errs"
	"github.com/packstream/msgpack/value"
)

// TimestampTypeID is the reserved extension type id for the standard
// timestamp extension (spec §3, §4.6).
const TimestampTypeID int8 = -1

// EncodeTimestamp renders ts as the narrowest of the three wire widths (4, 8,
// or 12 bytes) that losslessly represents it, per spec §3.
func EncodeTimestamp(ts value.Timestamp) []byte {
	switch ts.WireWidth() {
	case 4:
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, uint32(ts.Seconds))
		return out
	case 8:
		packed := (uint64(ts.Nanoseconds) << 34) | uint64(ts.Seconds)
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, packed)
		return out
	default:
		out := make([]byte, 12)
		binary.BigEndian.PutUint32(out[0:4], ts.Nanoseconds)
		binary.BigEndian.PutUint64(out[4:12], uint64(ts.Seconds))
		return out
	}
}

// DecodeTimestamp parses one of the three standard timestamp payload widths.
// Any other length is a malformed extension (spec §7).
func DecodeTimestamp(payload []byte) (value.Timestamp, error) {
	switch len(payload) {
	case 4:
		sec := binary.BigEndian.Uint32(payload)
		return value.Timestamp{Seconds: int64(sec)}, nil
	case 8:
		packed := binary.BigEndian.Uint64(payload)
		nsec := uint32(packed >> 34)
		sec := int64(packed & 0x3ffffffff)
		return value.NewTimestamp(sec, nsec)
	case 12:
		nsec := binary.BigEndian.Uint32(payload[0:4])
		sec := int64(binary.BigEndian.Uint64(payload[4:12]))
		return value.NewTimestamp(sec, nsec)
	default:
		return value.Timestamp{}, fmt.Errorf("%w: timestamp payload length %d", errs.ErrMalformedFormat, len(payload))
	}
}
