package tcplsframe

import "errors"

// Wire-level error taxonomy (spec.md §7). All of these indicate protocol
// corruption or programmer error and are fatal to the owning session.
var (
	// ErrBadSliceLength is returned by the DecodeUintN helpers when the
	// input slice width does not match the target integer size.
	ErrBadSliceLength = errors.New("tcplsframe: slice length does not match integer width")

	// ErrUnknownType is raised by the frame dispatcher when it finds a
	// tag that is neither a known frame type nor a reserved one.
	ErrUnknownType = errors.New("tcplsframe: unknown frame type")

	// ErrReservedType is raised when a reserved-but-unimplemented frame
	// type (NEW_TOKEN..STREAM_CHANGE) is received.
	ErrReservedType = errors.New("tcplsframe: reserved frame type is not implemented")

	// ErrRecordTooLarge indicates record assembly produced a payload
	// outside [1, MaxRecordSize] — a programmer error, never a function
	// of untrusted input.
	ErrRecordTooLarge = errors.New("tcplsframe: assembled record exceeds MaxRecordSize")
)
