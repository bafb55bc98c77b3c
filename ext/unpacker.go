package ext

import (
	"fmt"

	"github.com/packstream/msgpack/errs"
)

// UnpackerRegistry is the decode side of spec §4.5: extension type ids are
// stored in a 256-slot table indexed by typeID+128, giving O(1) lookup with
// no ancestor walk (the wire already names the type id exactly).
type UnpackerRegistry struct {
	slots  [256]*UnpackerEntry
	frozen bool
}

// NewUnpackerRegistry constructs an empty, mutable unpacker registry.
func NewUnpackerRegistry() *UnpackerRegistry {
	return &UnpackerRegistry{}
}

// Clone returns a copy suitable for a newly minted decoder.
func (r *UnpackerRegistry) Clone() *UnpackerRegistry {
	out := &UnpackerRegistry{}
	out.slots = r.slots
	out.frozen = r.frozen
	return out
}

// Freeze seals the registry against further registration.
func (r *UnpackerRegistry) Freeze() { r.frozen = true }

// Register associates typeID with the given unpacker. Exactly one of
// unpack/unpackRecursive should be non-nil.
func (r *UnpackerRegistry) Register(typeID int8, flags Flags, unpack UnpackerFunc, unpackRecursive RecursiveUnpackerFunc) error {
	if typeID < -128 || typeID > 127 {
		return fmt.Errorf("%w: extension type id %d outside -128..127", errs.ErrRange, typeID)
	}
	if r.frozen {
		return errs.ErrFrozen
	}

	r.slots[int(typeID)+128] = &UnpackerEntry{
		Unpack:          unpack,
		UnpackRecursive: unpackRecursive,
		Flags:           flags,
	}

	return nil
}

// Lookup returns the unpacker registered for typeID, if any.
func (r *UnpackerRegistry) Lookup(typeID int8) (UnpackerEntry, bool) {
	slot := r.slots[int(typeID)+128]
	if slot == nil {
		return UnpackerEntry{}, false
	}
	return *slot, true
}
