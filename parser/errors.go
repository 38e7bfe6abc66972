package parser

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/security"
)

var (
	// ErrEndOfInput is returned when no further object can be read.
	ErrEndOfInput = errors.New("end of input")
	// ErrDepthExceeded guards against runaway nesting. It is fatal in both
	// strict and recovery mode.
	ErrDepthExceeded = errors.Wrap(security.ErrLimitExceeded, "nesting depth exceeded")
	// ErrStreamLength is returned when a stream Length cannot be determined.
	ErrStreamLength = errors.New("cannot resolve stream length")
)

// SyntaxError is a structural violation found in strict mode.
type SyntaxError struct {
	Msg    string
	Offset int64
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
}
