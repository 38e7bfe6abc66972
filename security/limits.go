// Package security holds the resource limits that bound parsing of untrusted
// input. Exceeding any of them is fatal in both strict and recovery mode.
package security

import "github.com/pkg/errors"

// Limits defines resource boundaries for parsing and decoding.
type Limits struct {
	// Maximum container nesting depth of a single object. Default: 256.
	MaxNestingDepth int

	// Maximum chain of references followed while resolving one value,
	// e.g. a stream Length stored in another object. Default: 32.
	MaxIndirectDepth int

	// Maximum XRef chain depth (Prev entries). Default: 50.
	MaxXRefDepth int

	// Maximum array size (number of elements). Default: 100,000.
	MaxArraySize int

	// Maximum dictionary size (number of entries). Default: 10,000.
	MaxDictSize int

	// Maximum string length (bytes). Default: 10 MB.
	MaxStringLength int64

	// Maximum raw stream length (bytes). Default: 50 MB.
	MaxStreamLength int64

	// Maximum decompressed stream size (prevent zip bombs). Default: 100 MB.
	MaxDecompressedSize int64

	// Maximum objects declared by one object stream. Default: 100,000.
	MaxObjectStreamSize int
}

// ErrLimitExceeded is wrapped by every limit violation.
var ErrLimitExceeded = errors.New("resource limit exceeded")

// DefaultLimits returns a Limits struct with safe default values.
func DefaultLimits() Limits {
	return Limits{
		MaxNestingDepth:     256,
		MaxIndirectDepth:    32,
		MaxXRefDepth:        50,
		MaxArraySize:        100000,
		MaxDictSize:         10000,
		MaxStringLength:     10 * 1024 * 1024, // 10 MB
		MaxStreamLength:     50 * 1024 * 1024, // 50 MB
		MaxDecompressedSize: 100 * 1024 * 1024,
		MaxObjectStreamSize: 100000,
	}
}

// WithDefaults returns l with every zero field replaced by its default.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxNestingDepth <= 0 {
		l.MaxNestingDepth = d.MaxNestingDepth
	}
	if l.MaxIndirectDepth <= 0 {
		l.MaxIndirectDepth = d.MaxIndirectDepth
	}
	if l.MaxXRefDepth <= 0 {
		l.MaxXRefDepth = d.MaxXRefDepth
	}
	if l.MaxArraySize <= 0 {
		l.MaxArraySize = d.MaxArraySize
	}
	if l.MaxDictSize <= 0 {
		l.MaxDictSize = d.MaxDictSize
	}
	if l.MaxStringLength <= 0 {
		l.MaxStringLength = d.MaxStringLength
	}
	if l.MaxStreamLength <= 0 {
		l.MaxStreamLength = d.MaxStreamLength
	}
	if l.MaxDecompressedSize <= 0 {
		l.MaxDecompressedSize = d.MaxDecompressedSize
	}
	if l.MaxObjectStreamSize <= 0 {
		l.MaxObjectStreamSize = d.MaxObjectStreamSize
	}
	return l
}

// Exceeded builds a limit violation error for what at offset.
func Exceeded(what string, limit int64, offset int64) error {
	return errors.Wrapf(ErrLimitExceeded, "%s exceeds %d at offset %d", what, limit, offset)
}
