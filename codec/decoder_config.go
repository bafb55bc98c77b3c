package codec

import (
	"io"

	"github.com/packstream/msgpack/ext"
	"github.com/packstream/msgpack/internal/buffer"
	"github.com/packstream/msgpack/internal/options"
)

// DecoderOption configures a Decoder at construction (spec §4.4's
// enumerated options), following the same pattern as EncoderOption.
type DecoderOption = options.Option[*Decoder]

func applyDecoderOptions(d *Decoder, opts []DecoderOption) error {
	return options.Apply(d, opts...)
}

// WithSymbolizeKeys interns map keys that arrive as strings, deduplicating
// their backing memory. Go has no symbol type distinct from string, so this
// is a memory-sharing optimization rather than a type change (spec §4.4's
// symbolize_keys, adapted — see DESIGN.md).
func WithSymbolizeKeys(enabled bool) DecoderOption {
	return options.NoError(func(d *Decoder) { d.symbolizeKeys = enabled })
}

// WithFreeze requests that decoded values and their substructure be treated
// as immutable. Value already never aliases decoder-owned memory into a
// result's container fields, so this option is accepted for interface
// parity with spec §4.4 and otherwise has no further effect.
func WithFreeze(enabled bool) DecoderOption {
	return options.NoError(func(d *Decoder) { d.freeze = enabled })
}

// WithAllowUnknownExt controls whether an unregistered extension type id
// decodes to the raw {type_id, payload} record (true) or fails with
// ErrUnknownExtType (false, the default).
func WithAllowUnknownExt(enabled bool) DecoderOption {
	return options.NoError(func(d *Decoder) { d.allowUnknownExt = enabled })
}

// WithOptimizedSymbolsParsing is advisory only (spec §4.4): it has no
// wire-format effect and is stored purely so callers configuring a Decoder
// to match another implementation's options don't need a special case.
func WithOptimizedSymbolsParsing(enabled bool) DecoderOption {
	return options.NoError(func(d *Decoder) { d.optimizedSymbolsParsing = enabled })
}

// WithSource binds r as the Decoder's stream source for FullDecode, which
// pulls from it automatically when fed data runs short.
func WithSource(r io.Reader) DecoderOption {
	return options.NoError(func(d *Decoder) { d.source = r })
}

// WithDecoderCoalesceThreshold overrides the byte buffer's segment-coalesce
// threshold (spec §4.2); most callers never need this.
func WithDecoderCoalesceThreshold(n int) DecoderOption {
	return options.NoError(func(d *Decoder) { d.buf = buffer.New(n) })
}

// WithUnpackerRegistry binds r as the Decoder's unpacker registry in place
// of its own private one. pool.Factory uses this to hand a minted Decoder a
// clone of the factory's registry (spec §4.6).
func WithUnpackerRegistry(r *ext.UnpackerRegistry) DecoderOption {
	return options.NoError(func(d *Decoder) { d.unpackers = r })
}
