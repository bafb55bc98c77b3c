// Package pool implements the factory and instance pool from spec §4.6: a
// Factory holds the packer/unpacker registries that every minted Encoder or
// Decoder clones, and EncoderPool/DecoderPool recycle instances behind a
// bounded LIFO.
package pool

import (
	"reflect"

	"github.com/packstream/msgpack/codec"
	"github.com/packstream/msgpack/errs"
	"github.com/packstream/msgpack/ext"
	"github.com/packstream/msgpack/value"
)

// Factory holds one packer registry and one unpacker registry and mints
// Encoder/Decoder instances that each clone them, so registrations made
// after a mint never affect instances already handed out (spec §4.6).
type Factory struct {
	packers   *ext.PackerRegistry
	unpackers *ext.UnpackerRegistry
	frozen    bool
}

// NewFactory constructs an empty, mutable Factory with no extension types
// registered. Use DefaultFactory for one pre-wired with the standard
// timestamp extension.
func NewFactory() *Factory {
	return &Factory{
		packers:   ext.NewPackerRegistry(),
		unpackers: ext.NewUnpackerRegistry(),
	}
}

// DefaultFactory constructs a Factory with the built-in registration spec
// §4.6 names: extension type −1 for the standard timestamp.
func DefaultFactory() *Factory {
	f := NewFactory()
	if err := registerTimestamp(f); err != nil {
		panic(err) // unreachable: fixed, in-range type id
	}
	return f
}

func registerTimestamp(f *Factory) error {
	sample := value.Timestamp{}
	pack := func(v any) ([]byte, error) {
		return ext.EncodeTimestamp(v.(value.Timestamp)), nil
	}
	if err := f.packers.Register(ext.TimestampTypeID, reflect.TypeOf(sample), 0, pack, nil); err != nil {
		return err
	}
	unpack := func(payload []byte) (any, error) {
		return ext.DecodeTimestamp(payload)
	}
	return f.unpackers.Register(ext.TimestampTypeID, 0, unpack, nil)
}

// RegisterType wires a new extension type into the Factory, per spec §6's
// Factory.register_type. Exactly one of (pack, packRecursive) and one of
// (unpack, unpackRecursive) should be non-nil; flags carries Recursive and
// OversizedInteger. It fails with ErrFrozen once the Factory is frozen.
func (f *Factory) RegisterType(typeID int8, sample any, flags ext.Flags, pack ext.PackerFunc, packRecursive ext.RecursivePackerFunc, unpack ext.UnpackerFunc, unpackRecursive ext.RecursiveUnpackerFunc) error {
	if f.frozen {
		return errs.ErrFrozen
	}
	if err := f.packers.Register(typeID, reflect.TypeOf(sample), flags, pack, packRecursive); err != nil {
		return err
	}
	return f.unpackers.Register(typeID, flags, unpack, unpackRecursive)
}

// Freeze seals the Factory against further registration. A frozen Factory
// may be shared across goroutines and minted from concurrently.
func (f *Factory) Freeze() {
	f.frozen = true
	f.packers.Freeze()
	f.unpackers.Freeze()
}

// MintEncoder returns a fresh Encoder bound to a clone of this Factory's
// packer registry.
func (f *Factory) MintEncoder(opts ...codec.EncoderOption) (*codec.Encoder, error) {
	all := append([]codec.EncoderOption{codec.WithPackerRegistry(f.packers.Clone())}, opts...)
	return codec.NewEncoder(all...)
}

// MintDecoder returns a fresh Decoder bound to a clone of this Factory's
// unpacker registry.
func (f *Factory) MintDecoder(opts ...codec.DecoderOption) (*codec.Decoder, error) {
	all := append([]codec.DecoderOption{codec.WithUnpackerRegistry(f.unpackers.Clone())}, opts...)
	return codec.NewDecoder(all...)
}

// NewEncoderPool builds a bounded pool of encoders minted from f.
func (f *Factory) NewEncoderPool(capacity int, opts ...codec.EncoderOption) *EncoderPool {
	return newEncoderPool(f, capacity, opts)
}

// NewDecoderPool builds a bounded pool of decoders minted from f.
func (f *Factory) NewDecoderPool(capacity int, opts ...codec.DecoderOption) *DecoderPool {
	return newDecoderPool(f, capacity, opts)
}
