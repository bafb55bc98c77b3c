package ext

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigIntRoundTrip(t *testing.T) {
	cases := []string{
		"0",
		"18446744073709551616",  // 2^64, outside uint64
		"-9223372036854775809",  // one past math.MinInt64
		"123456789012345678901234567890",
	}
	for _, c := range cases {
		z, ok := new(big.Int).SetString(c, 10)
		require.True(t, ok)

		encoded := EncodeBigInt(z)
		decoded, err := DecodeBigInt(encoded)
		require.NoError(t, err)
		assert.Equal(t, 0, z.Cmp(decoded), "want %s got %s", z, decoded)
	}
}

func TestRegisterBigIntRequiresOversizedFlag(t *testing.T) {
	packers := NewPackerRegistry()
	unpackers := NewUnpackerRegistry()
	require.NoError(t, RegisterBigInt(packers, unpackers, BigIntTypeID))

	z, _ := new(big.Int).SetString("18446744073709551616", 10)
	entry, ok := packers.Lookup(z)
	require.True(t, ok)
	assert.NotZero(t, entry.Flags&OversizedInteger, "big.Int registration must carry the OversizedInteger flag")
}
