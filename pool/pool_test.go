package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packstream/msgpack/codec"
	"github.com/packstream/msgpack/errs"
	"github.com/packstream/msgpack/value"
)

func TestDefaultFactoryTimestampRoundTrip(t *testing.T) {
	f := DefaultFactory()

	enc, err := f.MintEncoder()
	require.NoError(t, err)
	ts := value.FromTime(time.Unix(1700000000, 123456789).UTC())
	require.NoError(t, enc.Write(ts))
	data, err := enc.Finalize()
	require.NoError(t, err)

	dec, err := f.MintDecoder()
	require.NoError(t, err)
	dec.Feed(data)
	v, ok, err := dec.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ts, v)
}

func TestFactoryRegistrationsAfterMintDoNotAffectMintedInstance(t *testing.T) {
	f := NewFactory()
	enc, err := f.MintEncoder()
	require.NoError(t, err)

	type tag struct{}
	require.NoError(t, f.RegisterType(5, tag{}, 0,
		func(v any) ([]byte, error) { return nil, nil }, nil,
		func(payload []byte) (any, error) { return tag{}, nil }, nil,
	))

	err = enc.Write(tag{})
	assert.ErrorIs(t, err, errs.ErrEncoding, "enc has its own cloned registry, unaffected by the factory's later registration")
}

func TestFactoryFreezeRejectsFurtherRegistration(t *testing.T) {
	f := NewFactory()
	f.Freeze()
	type tag struct{}
	err := f.RegisterType(5, tag{}, 0,
		func(v any) ([]byte, error) { return nil, nil }, nil,
		func(payload []byte) (any, error) { return tag{}, nil }, nil,
	)
	assert.ErrorIs(t, err, errs.ErrFrozen)
}

func TestEncoderPoolReusesAndBoundsCapacity(t *testing.T) {
	f := DefaultFactory()
	p := f.NewEncoderPool(1)

	e1, err := p.Get()
	require.NoError(t, err)
	p.Put(e1)

	e2, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, e1, e2, "a returned encoder should be reused by the next Get")

	e3, err := p.Get()
	require.NoError(t, err)
	assert.NotSame(t, e2, e3, "pool was empty, so a fresh encoder is minted")

	p.Put(e2)
	p.Put(e3) // capacity 1: second Put should be silently discarded
}

func TestEncoderPoolMarksBorrowedDuringCheckout(t *testing.T) {
	f := NewFactory()
	p := f.NewEncoderPool(2)

	enc, err := p.Get()
	require.NoError(t, err)

	err = enc.RegisterType(1, struct{}{}, 0, func(v any) ([]byte, error) { return nil, nil }, nil)
	assert.ErrorIs(t, err, errs.ErrFrozen, "a checked-out encoder must reject registration")

	p.Put(enc)
	err = enc.RegisterType(1, struct{}{}, 0, func(v any) ([]byte, error) { return nil, nil }, nil)
	assert.NoError(t, err, "a returned encoder is no longer borrowed")
}

func TestWithEncoderRunsAndReturns(t *testing.T) {
	f := DefaultFactory()
	p := f.NewEncoderPool(1)

	var out []byte
	err := p.WithEncoder(func(enc *codec.Encoder) error {
		if werr := enc.Write(42); werr != nil {
			return werr
		}
		var ferr error
		out, ferr = enc.Finalize()
		return ferr
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{42}, out)
}

func TestDecoderPoolReuses(t *testing.T) {
	f := DefaultFactory()
	p := f.NewDecoderPool(1)

	d1, err := p.Get()
	require.NoError(t, err)
	p.Put(d1)

	d2, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, d1, d2)
}
