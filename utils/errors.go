package utils

import (
	"errors"
	"fmt"
)

// ErrMalformedInput marks input bytes that violate the bitstream grammar: a missing start code,
// an unknown NAL unit type, an out-of-range syntax element or a truncated structure.
var ErrMalformedInput = errors.New("malformed input")

// ErrUnsupported marks an in-memory record that lacks data its profile requires.
// The input bytes may be valid while the record built from them is incomplete.
var ErrUnsupported = errors.New("unsupported configuration")

// IOError wraps a failure of the byte source or sink behind a bit reader or writer.
type IOError struct {
	Op  string
	Err error
}

// Error returns the error message for IOError.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// NoCodecDataError represents an error indicating that the no codec data was provided.
type NoCodecDataError struct {
}

// Error returns the error message for NoCodecDataError.
func (NoCodecDataError) Error() string {
	return "No codec data"
}
