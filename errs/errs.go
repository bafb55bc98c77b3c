// Package errs defines the sentinel errors returned by the msgpack codec.
//
// Call sites wrap these with additional context using fmt.Errorf("%w: ...", errs.ErrXxx)
// rather than constructing ad hoc error strings, so callers can test for a specific
// failure with errors.Is regardless of the surrounding message.
package errs

import "errors"

var (
	// ErrMalformedFormat is returned when the decoder encounters a tag byte it
	// cannot interpret, the reserved 0xc1 tag, or trailing bytes after a full decode.
	ErrMalformedFormat = errors.New("msgpack: malformed format")

	// ErrStackDepth is returned when nested container entry would exceed the
	// decoder's maximum frame-stack depth.
	ErrStackDepth = errors.New("msgpack: container nesting exceeds stack depth limit")

	// ErrUnexpectedType reports a tag that is not of the family a typed header
	// read expects. The codec has no typed header readers, and no function in
	// this module returns it.
	ErrUnexpectedType = errors.New("msgpack: unexpected type for requested header")

	// ErrUnknownExtType is returned when a decoded extension type id has no
	// registered unpacker and AllowUnknownExt is false.
	ErrUnknownExtType = errors.New("msgpack: unknown extension type")

	// ErrUnexpectedEOF is returned by FullDecode when the stream source reports
	// end-of-data before a value completed.
	ErrUnexpectedEOF = errors.New("msgpack: unexpected end of stream")

	// ErrRange is returned when an integer is outside the range representable
	// on the wire, or an extension type id falls outside -128..127.
	ErrRange = errors.New("msgpack: value out of range")

	// ErrEncoding is returned when a string fails UTF-8 transcoding on encode.
	ErrEncoding = errors.New("msgpack: invalid UTF-8 encoding")

	// ErrFrozen is returned when registration is attempted on a borrowed, pooled,
	// or frozen Encoder, Decoder, or Factory.
	ErrFrozen = errors.New("msgpack: instance is frozen or borrowed")

	// ErrShortBuffer reports that fewer bytes are buffered than a read needs.
	// Buffer reads signal that case with ok=false instead, and no function in
	// this module returns it.
	ErrShortBuffer = errors.New("msgpack: not enough data available")
)
