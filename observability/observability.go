// Package observability is the logging and tracing seam of pdfcore. Every
// component takes a Logger and a Tracer and falls back to the no-op ones;
// NewZapLogger plugs in go.uber.org/zap.
package observability

import "context"

// Logger receives structured events. Warn carries recovery warnings; Debug
// traces xref walking and writer output.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one key/value pair attached to an event. Value holds a string,
// int, int64, bool or error.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field      { return Field{key, value} }
func Int(key string, value int) Field     { return Field{key, value} }
func Int64(key string, value int64) Field { return Field{key, value} }
func Error(key string, err error) Field   { return Field{key, err} }
func Bool(key string, value bool) Field   { return Field{key, value} }

// NopLogger drops everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger { return NopLogger{} }

// Tracer opens a span around document.Open, writer.WriteFile and
// writer.AppendUpdate.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

type Span interface {
	SetTag(key string, value any)
	SetError(err error)
	Finish()
}

// NopTracer returns a Tracer whose spans record nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) SetTag(string, any) {}
func (nopSpan) SetError(error)     {}
func (nopSpan) Finish()            {}

// Span tags set by document and writer.
const (
	TagObjectCount  = "pdf.objects.count"
	TagXRefSections = "pdf.xref.sections"
	TagRepaired     = "pdf.xref.repaired"
	TagWarnings     = "pdf.warnings.count"
	TagBytesWritten = "pdf.write.bytes"
)
