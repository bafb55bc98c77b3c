package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimestampRejectsOutOfRangeNanoseconds(t *testing.T) {
	_, err := NewTimestamp(0, 1e9)
	assert.Error(t, err)
}

func TestTimestampTimeRoundTrip(t *testing.T) {
	ts, err := NewTimestamp(1700000000, 123456789)
	require.NoError(t, err)
	got := FromTime(ts.Time())
	assert.Equal(t, ts, got)
}

func TestTimestampWireWidthSelection(t *testing.T) {
	cases := []struct {
		name string
		ts   Timestamp
		want int
	}{
		{"fits 32-bit seconds, no nanos", Timestamp{Seconds: 1700000000}, 4},
		{"nanoseconds present", Timestamp{Seconds: 1700000000, Nanoseconds: 1}, 8},
		{"seconds at the 32-bit boundary", Timestamp{Seconds: 0xffffffff}, 4},
		{"seconds past the 32-bit boundary", Timestamp{Seconds: 0x100000000}, 8},
		{"negative seconds always take the widest form", Timestamp{Seconds: -1}, 12},
		{"seconds past the 34-bit range", Timestamp{Seconds: 1 << 34}, 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.ts.WireWidth())
		})
	}
}

func TestFromTimeKeepsNanoseconds(t *testing.T) {
	tm := time.Date(2024, time.January, 2, 3, 4, 5, 6000, time.UTC)
	ts := FromTime(tm)
	assert.Equal(t, tm.Unix(), ts.Seconds)
	assert.Equal(t, uint32(6000), ts.Nanoseconds)
}
