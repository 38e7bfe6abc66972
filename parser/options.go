package parser

import (
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/recovery"
	"github.com/wudi/pdfcore/security"
)

type options struct {
	recovery bool
	warn     recovery.WarningFunc
	names    *raw.NameCache
	refs     *raw.RefCache
	limits   security.Limits
}

// Option configures a Parser or IndirectParser.
type Option func(*options)

// WithRecovery turns lenient parsing on or off.
func WithRecovery(on bool) Option { return func(o *options) { o.recovery = on } }

// WithWarnings sets the callback that receives recovery warnings.
func WithWarnings(fn recovery.WarningFunc) Option { return func(o *options) { o.warn = fn } }

func WithNameCache(c *raw.NameCache) Option { return func(o *options) { o.names = c } }

func WithRefCache(c *raw.RefCache) Option { return func(o *options) { o.refs = c } }

// WithLimits sets resource limits. Zero fields keep their defaults.
func WithLimits(l security.Limits) Option { return func(o *options) { o.limits = l } }

// WithMaxDepth bounds container nesting.
func WithMaxDepth(n int) Option { return func(o *options) { o.limits.MaxNestingDepth = n } }

func buildOptions(opts []Option) options {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.warn == nil {
		o.warn = recovery.Discard
	}
	if o.names == nil {
		o.names = raw.DefaultNames
	}
	if o.refs == nil {
		o.refs = raw.DefaultRefs
	}
	o.limits = o.limits.WithDefaults()
	return o
}
