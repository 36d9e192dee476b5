package bstream

import (
	"fmt"
	"io"
)

// EndOfStreamError reports that the underlying source ran out of bytes
// before a requested value could be fully read. It unwraps to io.EOF so
// callers can test for it with errors.Is(err, io.EOF).
type EndOfStreamError struct {
	// Wanted is the number of bits the caller was trying to read when EOF
	// was hit.
	Wanted int
}

func (e *EndOfStreamError) Error() string {
	return fmt.Sprintf("bstream: end of stream reading %d bit(s)", e.Wanted)
}

func (e *EndOfStreamError) Unwrap() error {
	return io.EOF
}
