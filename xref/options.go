package xref

import (
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/observability"
	"github.com/wudi/pdfcore/parser"
	"github.com/wudi/pdfcore/recovery"
	"github.com/wudi/pdfcore/security"
)

type options struct {
	recovery bool
	warn     recovery.WarningFunc
	limits   security.Limits
	names    *raw.NameCache
	refs     *raw.RefCache
	logger   observability.Logger
	length   parser.LengthResolver
}

// Option configures a Parser, Resolve or Repair.
type Option func(*options)

// WithRecovery accepts damaged tables where possible.
func WithRecovery(on bool) Option { return func(o *options) { o.recovery = on } }

func WithWarnings(fn recovery.WarningFunc) Option { return func(o *options) { o.warn = fn } }

// WithLimits sets resource limits; MaxXRefDepth bounds the Prev chain.
func WithLimits(l security.Limits) Option { return func(o *options) { o.limits = l } }

func WithNameCache(c *raw.NameCache) Option { return func(o *options) { o.names = c } }

func WithRefCache(c *raw.RefCache) Option { return func(o *options) { o.refs = c } }

func WithLogger(l observability.Logger) Option { return func(o *options) { o.logger = l } }

// WithLengthResolver supplies indirect /Length values of xref streams. By
// default they are found by scanning for the referenced object header.
func WithLengthResolver(fn parser.LengthResolver) Option { return func(o *options) { o.length = fn } }

func buildOptions(opts []Option) options {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.warn == nil {
		o.warn = recovery.Discard
	}
	if o.logger == nil {
		o.logger = observability.NopLogger{}
	}
	o.limits = o.limits.WithDefaults()
	return o
}

func (o options) parserOptions() []parser.Option {
	return []parser.Option{
		parser.WithRecovery(o.recovery),
		parser.WithWarnings(o.warn),
		parser.WithLimits(o.limits),
		parser.WithNameCache(o.names),
		parser.WithRefCache(o.refs),
	}
}
