package codec

import (
	"github.com/packstream/msgpack/ext"
	"github.com/packstream/msgpack/internal/buffer"
	"github.com/packstream/msgpack/internal/options"
)

// EncoderOption configures an Encoder at construction, following the same
// generic functional-options pattern the teacher uses for
// blob.NumericEncoderOption.
type EncoderOption = options.Option[*Encoder]

func applyEncoderOptions(e *Encoder, opts []EncoderOption) error {
	return options.Apply(e, opts...)
}

// WithCompatibilityMode enables MessagePack's "compatibility mode": str8 is
// never emitted (strings in [32,256) bytes are promoted to str16) and
// binary values are emitted using string tags instead of bin8/16/32, for
// interop with decoders predating the bin/str split (spec §4.3).
func WithCompatibilityMode(enabled bool) EncoderOption {
	return options.NoError(func(e *Encoder) { e.compatibilityMode = enabled })
}

// WithSink binds w as the Encoder's output: Finalize flushes to w instead of
// returning a byte slice.
func WithSink(w writer) EncoderOption {
	return options.NoError(func(e *Encoder) { e.sink = w })
}

// WithEncoderCoalesceThreshold overrides the byte buffer's segment-coalesce
// threshold (spec §4.2); most callers never need this.
func WithEncoderCoalesceThreshold(n int) EncoderOption {
	return options.NoError(func(e *Encoder) { e.buf = buffer.New(n) })
}

// WithPackerRegistry binds r as the Encoder's packer registry in place of its
// own private one. pool.Factory uses this to hand a minted Encoder a clone
// of the factory's registry (spec §4.6).
func WithPackerRegistry(r *ext.PackerRegistry) EncoderOption {
	return options.NoError(func(e *Encoder) { e.packers = r })
}
