// Package recovery carries the plumbing for lenient parsing: a warning record,
// the callback parsers report violations through, and a collector that keeps
// them for the caller.
package recovery

import (
	"fmt"
	"sync"

	"github.com/wudi/pdfcore/observability"
)

// WarningFunc receives one call per structural violation a lenient parser
// tolerated. offset is the byte position the violation was detected at.
type WarningFunc func(msg string, offset int64)

// Location identifies where a warning was raised.
type Location struct {
	ByteOffset int64
	ObjectNum  int
	ObjectGen  int
	Component  string
}

type Warning struct {
	Message  string
	Location Location
}

func (w Warning) String() string {
	if w.Location.ObjectNum > 0 {
		return fmt.Sprintf("[%s] object %d %d offset %d: %s", w.Location.Component, w.Location.ObjectNum, w.Location.ObjectGen, w.Location.ByteOffset, w.Message)
	}
	return fmt.Sprintf("[%s] offset %d: %s", w.Location.Component, w.Location.ByteOffset, w.Message)
}

// Collector accumulates warnings and mirrors them to a logger.
// It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	logger   observability.Logger
	warnings []Warning
}

func NewCollector(logger observability.Logger) *Collector {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Collector{logger: logger}
}

// Add records a warning.
func (c *Collector) Add(msg string, loc Location) {
	c.mu.Lock()
	c.warnings = append(c.warnings, Warning{Message: msg, Location: loc})
	c.mu.Unlock()
	fields := []observability.Field{
		observability.String("component", loc.Component),
		observability.Int64("offset", loc.ByteOffset),
	}
	if loc.ObjectNum > 0 {
		fields = append(fields, observability.Int("object", loc.ObjectNum))
	}
	c.logger.Warn(msg, fields...)
}

// Func returns a WarningFunc bound to component.
func (c *Collector) Func(component string) WarningFunc {
	return func(msg string, offset int64) {
		c.Add(msg, Location{ByteOffset: offset, Component: component})
	}
}

// ObjectFunc is like Func but tags warnings with an object identity.
func (c *Collector) ObjectFunc(component string, num, gen int) WarningFunc {
	return func(msg string, offset int64) {
		c.Add(msg, Location{ByteOffset: offset, ObjectNum: num, ObjectGen: gen, Component: component})
	}
}

// Warnings returns a copy of everything recorded so far.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.warnings)
}

// Reset drops all recorded warnings.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.warnings = nil
	c.mu.Unlock()
}

// Discard is a WarningFunc that drops every warning.
func Discard(string, int64) {}
