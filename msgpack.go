// Package msgpack implements the MessagePack binary serialization format:
// a compact, self-describing, schema-less encoding for nested scalar,
// string, binary, array, map, and extension data.
//
// # Core Features
//
//   - Narrowest-tag encoding: every integer, string, array, and map picks
//     the smallest wire representation that fits (fixint/fixstr/fixarray/
//     fixmap through the 8/16/32-bit families).
//   - A resumable, streaming Decoder: bytes may arrive in arbitrary chunks
//     and decoding picks up exactly where it left off, with no re-parsing.
//   - An extension registry for round-tripping application types through
//     the -128..127 extension type id space, including the standard
//     timestamp extension (type -1).
//   - A factory-backed pool for reusing Encoder/Decoder instances across
//     requests without paying registry-setup cost on every use.
//
// # Basic Usage
//
//	data, err := msgpack.Pack([]value.KeyValue{
//		{Key: value.String("id"), Val: value.Int(7)},
//		{Key: value.String("name"), Val: value.String("widget")},
//	})
//
//	v, err := msgpack.Unpack(data)
//	m, _ := v.(msgpack.Value).AsMap()
//
// This package provides convenient top-level wrappers around the codec and
// pool packages, covering the common one-shot case. For streaming decode,
// custom extension types, or pooled reuse, use those packages directly.
package msgpack

import (
	"io"

	"github.com/packstream/msgpack/codec"
	"github.com/packstream/msgpack/pool"
	"github.com/packstream/msgpack/value"
)

var defaultFactory = pool.DefaultFactory()

func init() {
	defaultFactory.Freeze()
}

// Pack encodes v into a new byte slice using a private, short-lived
// Encoder minted from the package default factory (so the standard
// timestamp extension is available). Use a pool.Factory and
// pool.EncoderPool directly for repeated encoding of many values, or to
// register custom extension types.
func Pack(v any, opts ...codec.EncoderOption) ([]byte, error) {
	enc, err := defaultFactory.MintEncoder(opts...)
	if err != nil {
		return nil, err
	}
	if err := enc.Write(v); err != nil {
		return nil, err
	}
	return enc.Finalize()
}

// PackTo encodes v and writes the result to w. The whole encoding is
// buffered in memory and flushed to w once v has been written.
func PackTo(w io.Writer, v any, opts ...codec.EncoderOption) error {
	all := append([]codec.EncoderOption{codec.WithSink(w)}, opts...)
	enc, err := defaultFactory.MintEncoder(all...)
	if err != nil {
		return err
	}
	if err := enc.Write(v); err != nil {
		return err
	}
	_, err = enc.Finalize()
	return err
}

// Unpack decodes exactly one top-level value out of data, failing if
// trailing bytes remain or the data is incomplete.
func Unpack(data []byte, opts ...codec.DecoderOption) (any, error) {
	dec, err := defaultFactory.MintDecoder(opts...)
	if err != nil {
		return nil, err
	}
	dec.Feed(data)
	return dec.FullDecode()
}

// UnpackFrom decodes exactly one top-level value, pulling bytes from r as
// needed.
func UnpackFrom(r io.Reader, opts ...codec.DecoderOption) (any, error) {
	all := append([]codec.DecoderOption{codec.WithSource(r)}, opts...)
	dec, err := defaultFactory.MintDecoder(all...)
	if err != nil {
		return nil, err
	}
	return dec.FullDecode()
}

// NewEncoder constructs an Encoder backed by the package's default,
// frozen extension registry (the standard timestamp extension only).
// Register custom extension types on a pool.Factory instead.
func NewEncoder(opts ...codec.EncoderOption) (*codec.Encoder, error) {
	return defaultFactory.MintEncoder(opts...)
}

// NewDecoder constructs a Decoder backed by the package's default, frozen
// extension registry.
func NewDecoder(opts ...codec.DecoderOption) (*codec.Decoder, error) {
	return defaultFactory.MintDecoder(opts...)
}

// NewFactory constructs an empty, mutable pool.Factory for registering
// application-specific extension types, separate from the package default.
func NewFactory() *pool.Factory { return pool.NewFactory() }

// Value re-exports value.Value so common call sites don't need a second
// import for the result of Unpack.
type Value = value.Value
