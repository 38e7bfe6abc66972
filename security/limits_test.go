package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	l := Limits{MaxXRefDepth: 3}.WithDefaults()
	d := DefaultLimits()
	assert.Equal(t, 3, l.MaxXRefDepth)
	assert.Equal(t, d.MaxNestingDepth, l.MaxNestingDepth)
	assert.Equal(t, d.MaxStreamLength, l.MaxStreamLength)
	assert.Equal(t, d.MaxObjectStreamSize, l.MaxObjectStreamSize)
}

func TestExceededWrapsSentinel(t *testing.T) {
	err := Exceeded("nesting depth", 256, 1024)
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.Contains(t, err.Error(), "nesting depth exceeds 256 at offset 1024")
}
