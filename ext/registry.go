// Package ext implements the extension registry (spec §4.5): the bidirectional
// mapping between application types and the -128..127 extension type id space,
// with ancestor-chain caching on the encode side.
//
// Go has no runtime class hierarchy to walk, so the "ancestor chain" from
// spec §4.5 is modeled the way spec §9's design notes prescribe: an
// interface capability a concrete type may satisfy. Registering a packer
// against an interface type lets every concrete type that implements it
// share one entry, the same way mebo's internal/collision.Tracker treats a
// hash-to-name map as the single source of truth and invalidates derived
// state (here, the ancestor cache) on every mutation.
package ext

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"

	"github.com/packstream/msgpack/errs"
)

// Flags carries the per-registration options from spec §4.5/§6.
type Flags uint8

const (
	// Recursive marks a packer/unpacker whose callback receives an Encoder or
	// Decoder rather than producing/consuming raw bytes directly, so the
	// extension payload may itself contain encoded MessagePack values.
	Recursive Flags = 1 << iota

	// OversizedInteger marks an integer packer that only applies to integers
	// outside the int64/uint64 native range (spec §4.5's "Integer type
	// registration is special").
	OversizedInteger
)

// Encoder is the capability a recursive packer needs: enough of
// codec.Encoder to write nested values into the extension payload. It exists
// so this package does not import codec, which imports ext for dispatch.
type Encoder interface {
	Write(v any) error
}

// Decoder is the capability a recursive unpacker needs.
type Decoder interface {
	Read() (any, bool, error)
}

// PackerFunc produces the opaque payload for a non-recursive extension.
type PackerFunc func(v any) ([]byte, error)

// RecursivePackerFunc writes v's representation into enc directly, for
// extensions whose payload is itself MessagePack-encoded data.
type RecursivePackerFunc func(v any, enc Encoder) error

// UnpackerFunc reconstructs an application value from a non-recursive
// extension's raw payload.
type UnpackerFunc func(payload []byte) (any, error)

// RecursiveUnpackerFunc reconstructs an application value by reading nested
// MessagePack values from dec.
type RecursiveUnpackerFunc func(dec Decoder) (any, error)

// PackerEntry is what Lookup returns on a hit: the type id to tag the
// extension with, the registered callback (exactly one of Pack/PackRecursive
// is non-nil), and the registration's flags.
type PackerEntry struct {
	TypeID        int8
	Pack          PackerFunc
	PackRecursive RecursivePackerFunc
	Flags         Flags
}

// IsRecursive reports whether e's callback is the recursive form.
func (e PackerEntry) IsRecursive() bool { return e.Flags&Recursive != 0 }

// UnpackerEntry is what decode-side lookup by type id returns.
type UnpackerEntry struct {
	Type            reflect.Type // not set by UnpackerRegistry.Register; always nil
	Unpack          UnpackerFunc
	UnpackRecursive RecursiveUnpackerFunc
	Flags           Flags
}

// IsRecursive reports whether e's callback is the recursive form.
func (e UnpackerEntry) IsRecursive() bool { return e.Flags&Recursive != 0 }

type packerReg struct {
	typ   reflect.Type // concrete type, or an interface type for capability registrations
	iface bool
	entry PackerEntry
}

// PackerRegistry is the packer side of spec §4.5: direct-indexed lookup by
// concrete runtime type, falling back to an ordered walk of interface
// ("capability") registrations, with the first match cached.
//
// The zero value is not usable; construct with NewPackerRegistry.
type PackerRegistry struct {
	mu        sync.RWMutex
	byType    map[reflect.Type]PackerEntry
	ifaceRegs []packerReg
	cache     *lru.Cache
	frozen    bool
}

const ancestorCacheSize = 256

type cacheEntry struct {
	typ   reflect.Type
	entry PackerEntry
	found bool
}

// NewPackerRegistry constructs an empty, mutable packer registry.
func NewPackerRegistry() *PackerRegistry {
	cache, _ := lru.New(ancestorCacheSize)
	return &PackerRegistry{
		byType: make(map[reflect.Type]PackerEntry),
		cache:  cache,
	}
}

// Clone returns a deep-enough copy suitable for a newly minted encoder: the
// registrations are copied so later registrations on the source registry do
// not affect instances already minted from it (spec §4.6).
func (r *PackerRegistry) Clone() *PackerRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cache, _ := lru.New(ancestorCacheSize)
	out := &PackerRegistry{
		byType:    make(map[reflect.Type]PackerEntry, len(r.byType)),
		ifaceRegs: append([]packerReg(nil), r.ifaceRegs...),
		cache:     cache,
		frozen:    r.frozen,
	}
	for k, v := range r.byType {
		out.byType[k] = v
	}
	return out
}

// Freeze seals the registry against further registration; frozen registries
// may be shared across threads (spec §5).
func (r *PackerRegistry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Register associates typ with typeID and the given
// packer. Exactly one of pack/packRecursive should be non-nil; the other
// selects recursive dispatch via flags.
//
// If typ is an interface type (obtained via reflect.TypeOf((*Iface)(nil)).Elem()),
// the registration instead acts as a capability: any concrete type whose
// method set implements typ will share this entry once the ancestor walk
// finds it.
func (r *PackerRegistry) Register(typeID int8, typ reflect.Type, flags Flags, pack PackerFunc, packRecursive RecursivePackerFunc) error {
	if typeID < -128 || typeID > 127 {
		return fmt.Errorf("%w: extension type id %d outside -128..127", errs.ErrRange, typeID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errs.ErrFrozen
	}

	entry := PackerEntry{TypeID: typeID, Pack: pack, PackRecursive: packRecursive, Flags: flags}
	if typ.Kind() == reflect.Interface {
		r.ifaceRegs = append(r.ifaceRegs, packerReg{typ: typ, iface: true, entry: entry})
	} else {
		r.byType[typ] = entry
	}

	// Any mutation invalidates cached ancestor lookups (spec §3).
	r.cache.Purge()

	return nil
}

// Lookup returns the packer entry registered for v's runtime type, if any.
// Direct registrations are checked first; failing that, the interface
// ("ancestor") registrations are walked in registration order and the first
// match is cached keyed by v's concrete type, guarded against hash
// collisions by verifying the cached type still matches.
func (r *PackerRegistry) Lookup(v any) (PackerEntry, bool) {
	t := reflect.TypeOf(v)
	if t == nil {
		return PackerEntry{}, false
	}

	r.mu.RLock()
	if entry, ok := r.byType[t]; ok {
		r.mu.RUnlock()
		return entry, true
	}

	key := xxhash.Sum64String(t.String())
	if cached, ok := r.cache.Get(key); ok {
		ce := cached.(cacheEntry)
		if ce.typ == t {
			r.mu.RUnlock()
			return ce.entry, ce.found
		}
	}

	var (
		match PackerEntry
		found bool
	)
	for _, reg := range r.ifaceRegs {
		if t.Implements(reg.typ) {
			match = reg.entry
			found = true
			break
		}
	}
	r.mu.RUnlock()

	r.cache.Add(key, cacheEntry{typ: t, entry: match, found: found})

	return match, found
}
