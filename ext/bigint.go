package ext

import (
	"math/big"
	"reflect"
)

func reflectTypeOfBigInt() reflect.Type {
	return reflect.TypeOf((*big.Int)(nil))
}

// BigIntTypeID is the suggested extension type id for arbitrary-precision
// integers. Spec §2 calls this handling "negotiable": unlike the timestamp
// extension, no default Factory registers it automatically; callers opt in
// with RegisterBigInt and may pick a different type id if -1..-2 are
// already spoken for by another convention.
const BigIntTypeID int8 = -2

// EncodeBigInt renders z as a sign byte (0x00 non-negative, 0x01 negative)
// followed by the big-endian bytes of its absolute value.
func EncodeBigInt(z *big.Int) []byte {
	sign := byte(0)
	if z.Sign() < 0 {
		sign = 1
	}
	mag := new(big.Int).Abs(z).Bytes()
	out := make([]byte, 1+len(mag))
	out[0] = sign
	copy(out[1:], mag)
	return out
}

// DecodeBigInt parses a payload produced by EncodeBigInt.
func DecodeBigInt(payload []byte) (*big.Int, error) {
	if len(payload) == 0 {
		return new(big.Int), nil
	}
	z := new(big.Int).SetBytes(payload[1:])
	if payload[0] == 1 {
		z.Neg(z)
	}
	return z, nil
}

// RegisterBigInt wires the arbitrary-precision integer extension into p and
// u under typeID, gated by the OversizedInteger flag as spec §4.5 requires
// for any registration against the integer type: codec.Encoder only
// consults this entry once a *big.Int's magnitude no longer fits in an
// int64/uint64, and a registration lacking OversizedInteger is ignored at
// encode time regardless (spec §9's open question).
func RegisterBigInt(p *PackerRegistry, u *UnpackerRegistry, typeID int8) error {
	bigIntType := reflectTypeOfBigInt()

	pack := func(v any) ([]byte, error) {
		return EncodeBigInt(v.(*big.Int)), nil
	}
	if err := p.Register(typeID, bigIntType, OversizedInteger, pack, nil); err != nil {
		return err
	}

	unpack := func(payload []byte) (any, error) {
		return DecodeBigInt(payload)
	}
	return u.Register(typeID, OversizedInteger, unpack, nil)
}
