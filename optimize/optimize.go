// Package optimize shrinks a document's object set: it folds structurally
// identical objects together and compresses unfiltered streams.
package optimize

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/document"
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/observability"
	"github.com/wudi/pdfcore/writer"
)

type Config struct {
	CombineIdenticalIndirectObjects bool
	// CombineDuplicateStreams folds identical streams only. It is implied by
	// CombineIdenticalIndirectObjects.
	CombineDuplicateStreams bool
	CompressStreams         bool
	Logger                  observability.Logger
}

type Optimizer struct {
	config Config
}

func New(config Config) *Optimizer {
	if config.Logger == nil {
		config.Logger = observability.NopLogger{}
	}
	return &Optimizer{config: config}
}

// Set is an editable copy of a document's objects.
type Set struct {
	Objects map[raw.ObjectRef]raw.Object
	Root    raw.ObjectRef
	Info    *raw.ObjectRef
}

// Collect loads every object in use in doc.
func Collect(doc *document.Document) (*Set, error) {
	tr := doc.Trailer()
	if tr.Root == nil {
		return nil, errors.New("optimize: document has no /Root")
	}
	s := &Set{Objects: make(map[raw.ObjectRef]raw.Object), Root: tr.Root.Ref()}
	if tr.Info != nil {
		r := tr.Info.Ref()
		s.Info = &r
	}
	for _, ref := range doc.Objects() {
		v, err := doc.Object(ref)
		if err != nil {
			return nil, errors.Wrapf(err, "load %v", ref)
		}
		if st, ok := v.(*raw.Stream); ok && isXRefOrObjStm(st) {
			continue
		}
		s.Objects[ref] = v
	}
	return s, nil
}

func isXRefOrObjStm(s *raw.Stream) bool {
	return s.Dict.IsType("XRef") || s.Dict.IsType("ObjStm")
}

// WriterObjects lists the set in ascending object order.
func (s *Set) WriterObjects() []writer.Object {
	out := make([]writer.Object, 0, len(s.Objects))
	for _, ref := range s.refs() {
		out = append(out, writer.Object{Ref: ref, Value: s.Objects[ref]})
	}
	return out
}

// Trailer returns the writer trailer for the set.
func (s *Set) Trailer() writer.Trailer { return writer.Trailer{Root: s.Root, Info: s.Info} }

func (s *Set) refs() []raw.ObjectRef {
	refs := make([]raw.ObjectRef, 0, len(s.Objects))
	for ref := range s.Objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Num != refs[j].Num {
			return refs[i].Num < refs[j].Num
		}
		return refs[i].Gen < refs[j].Gen
	})
	return refs
}

// Stats reports what Optimize changed.
type Stats struct {
	Combined   int
	Compressed int
}

// Optimize rewrites s in place.
func (o *Optimizer) Optimize(ctx context.Context, s *Set) (Stats, error) {
	var st Stats
	switch {
	case o.config.CombineIdenticalIndirectObjects:
		n, err := Deduplicate(ctx, s, true)
		if err != nil {
			return st, errors.Wrap(err, "combine identical indirect objects")
		}
		st.Combined = n
	case o.config.CombineDuplicateStreams:
		n, err := Deduplicate(ctx, s, false)
		if err != nil {
			return st, errors.Wrap(err, "combine duplicate streams")
		}
		st.Combined = n
	}
	if o.config.CompressStreams {
		n, err := compressStreams(ctx, s)
		if err != nil {
			return st, errors.Wrap(err, "compress streams")
		}
		st.Compressed = n
	}
	o.config.Logger.Info("optimized",
		observability.Int("combined", st.Combined),
		observability.Int("compressed", st.Compressed),
		observability.Int("objects", len(s.Objects)))
	return st, nil
}
