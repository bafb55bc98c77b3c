package codec

import "github.com/packstream/msgpack/value"

// maxStackDepth is the decoder's nested-container frame cap (spec §4.4).
const maxStackDepth = 128

type frameKind uint8

const (
	frameArray frameKind = iota
	frameMapKey
	frameMapValue
)

// frame is the reification of one level of container recursion (spec §4.4's
// Frame): the decoder's stack stands in for what would otherwise be native
// recursion, which is what lets the 128-depth cap be enforced cheaply and
// what lets decoding resume across arbitrary feed boundaries.
type frame struct {
	kind       frameKind
	remaining  int
	arrElems   []value.Value
	mapPairs   []value.KeyValue
	pendingKey value.Value
}

// partialKind identifies which payload a partialRead is waiting on.
type partialKind uint8

const (
	partialString partialKind = iota
	partialBinary
	partialExtension
)

// partialRead records that a header has been fully consumed and a payload
// length is known, but the payload itself has not fully arrived (spec
// §4.4). It never tracks a partial byte count: buffer.ReadBytes is
// all-or-nothing, so each retry either completes the payload or consumes
// nothing at all.
type partialRead struct {
	kind      partialKind
	length    int
	extTypeID int8
}
