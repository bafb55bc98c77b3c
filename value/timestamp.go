package value

import (
	"fmt"
	"time"
)

// Timestamp is the standard MessagePack timestamp extension payload
// (spec §3): a signed seconds count plus a nanosecond fraction in [0, 1e9).
type Timestamp struct {
	Seconds     int64
	Nanoseconds uint32
}

// NewTimestamp validates nsec and returns a Timestamp.
func NewTimestamp(sec int64, nsec uint32) (Timestamp, error) {
	if nsec >= 1e9 {
		return Timestamp{}, fmt.Errorf("msgpack: timestamp nanoseconds %d out of range [0, 1e9)", nsec)
	}
	return Timestamp{Seconds: sec, Nanoseconds: nsec}, nil
}

// FromTime converts a time.Time to a Timestamp, the one interop shim spec §1
// calls out explicitly: the wire format for type -1 is fixed, so every
// implementation must agree on how it maps to a host time value.
func FromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanoseconds: uint32(t.Nanosecond())} //nolint:gosec // Nanosecond() is always < 1e9
}

// Time converts ts back to a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanoseconds)).UTC()
}

// WireWidth reports the narrowest of the three on-wire timestamp widths (4,
// 8, or 12 bytes) that losslessly represents ts, per spec §3's "narrowest
// width that losslessly represents the value must be chosen on encode" rule.
func (ts Timestamp) WireWidth() int {
	if ts.Nanoseconds == 0 && ts.Seconds >= 0 && ts.Seconds <= 0xffffffff {
		return 4
	}
	if ts.Seconds >= 0 && ts.Seconds < (1<<34) {
		return 8
	}
	return 12
}
