package dlt

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by the decoders.
var (
	// ErrIndexOutOfRange is returned when a read goes past the end of its byte range.
	ErrIndexOutOfRange = errors.New("dlt: index out of range")
	// ErrMalformedHeader is returned when a span is too short for a header field
	// its flags declare present.
	ErrMalformedHeader = errors.New("dlt: malformed header")
	// ErrUnsupported128Bit is returned for UINT/SINT arguments with a 128-bit TYLE.
	ErrUnsupported128Bit = errors.New("dlt: 128-bit integers are not supported")
)

// IOError reports a failure opening or reading the capture source.
// It always aborts the whole run.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("dlt: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("dlt: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// isPayloadError reports whether err came out of argument decoding, where the
// message headers are intact and a partial argument list exists.
func isPayloadError(err error) bool {
	return errors.Is(err, ErrUnsupported128Bit) || errors.Is(err, ErrIndexOutOfRange)
}
