package pool

import (
	"sync"

	"github.com/packstream/msgpack/codec"
)

// EncoderPool is a bounded LIFO of Encoders minted from one Factory (spec
// §4.6). Unlike internal/pool.ByteBufferPool's sync.Pool, instances here are
// never silently dropped by the runtime between calls: capacity is a hard
// cap enforced under a mutex, and a checked-out instance is flagged
// "borrowed" so a caller cannot mutate its registry while another Get is
// still holding it indirectly through a stale reference.
type EncoderPool struct {
	mu       sync.Mutex
	factory  *Factory
	opts     []codec.EncoderOption
	free     []*codec.Encoder
	capacity int
}

func newEncoderPool(f *Factory, capacity int, opts []codec.EncoderOption) *EncoderPool {
	return &EncoderPool{factory: f, opts: opts, capacity: capacity}
}

// Get returns an Encoder, minting a fresh one if the pool is empty (spec
// §4.6: "Minting occurs lazily on checkout when the pool is empty").
func (p *EncoderPool) Get() (*codec.Encoder, error) {
	p.mu.Lock()
	n := len(p.free)
	if n > 0 {
		enc := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		enc.SetBorrowed(true)
		return enc, nil
	}
	p.mu.Unlock()

	enc, err := p.factory.MintEncoder(p.opts...)
	if err != nil {
		return nil, err
	}
	enc.SetBorrowed(true)
	return enc, nil
}

// Put returns enc to the pool, resetting its buffered bytes first. If the
// pool is already at capacity, enc is discarded rather than retained, the
// same overflow policy internal/pool.ByteBufferPool applies to
// oversized buffers.
func (p *EncoderPool) Put(enc *codec.Encoder) {
	if enc == nil {
		return
	}
	enc.Reset()
	enc.SetBorrowed(false)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= p.capacity {
		return
	}
	p.free = append(p.free, enc)
}

// WithEncoder checks out an Encoder, runs fn, and always returns the
// Encoder to the pool afterward, mirroring spec §6's with_encoder block API
// in Go's closure-callback idiom.
func (p *EncoderPool) WithEncoder(fn func(enc *codec.Encoder) error) error {
	enc, err := p.Get()
	if err != nil {
		return err
	}
	defer p.Put(enc)
	return fn(enc)
}

// DecoderPool is a bounded LIFO of Decoders minted from one Factory,
// mirroring EncoderPool.
type DecoderPool struct {
	mu       sync.Mutex
	factory  *Factory
	opts     []codec.DecoderOption
	free     []*codec.Decoder
	capacity int
}

func newDecoderPool(f *Factory, capacity int, opts []codec.DecoderOption) *DecoderPool {
	return &DecoderPool{factory: f, opts: opts, capacity: capacity}
}

// Get returns a Decoder, minting a fresh one if the pool is empty.
func (p *DecoderPool) Get() (*codec.Decoder, error) {
	p.mu.Lock()
	n := len(p.free)
	if n > 0 {
		dec := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		dec.SetBorrowed(true)
		return dec, nil
	}
	p.mu.Unlock()

	dec, err := p.factory.MintDecoder(p.opts...)
	if err != nil {
		return nil, err
	}
	dec.SetBorrowed(true)
	return dec, nil
}

// Put returns dec to the pool, clearing its buffer and stack state first.
// If the pool is already at capacity, dec is discarded.
func (p *DecoderPool) Put(dec *codec.Decoder) {
	if dec == nil {
		return
	}
	dec.Reset()
	dec.SetBorrowed(false)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= p.capacity {
		return
	}
	p.free = append(p.free, dec)
}

// WithDecoder checks out a Decoder, runs fn, and always returns the Decoder
// to the pool afterward.
func (p *DecoderPool) WithDecoder(fn func(dec *codec.Decoder) error) error {
	dec, err := p.Get()
	if err != nil {
		return err
	}
	defer p.Put(dec)
	return fn(dec)
}
