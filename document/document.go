// Package document opens a PDF held in memory: it merges the xref chain into
// an index and materializes indirect objects on demand, including objects
// stored in object streams.
package document

import (
	"bytes"
	"context"
	"os"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/filters"
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/observability"
	"github.com/wudi/pdfcore/parser"
	"github.com/wudi/pdfcore/recovery"
	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/security"
	"github.com/wudi/pdfcore/xref"
)

// ErrNotFound is returned for object numbers the index does not define.
var ErrNotFound = errors.New("object not found")

// Config controls how a document is opened. The zero value parses strictly
// with default limits.
type Config struct {
	Recovery bool
	Limits   security.Limits
	Logger   observability.Logger
	Tracer   observability.Tracer
	Names    *raw.NameCache
	Refs     *raw.RefCache
}

// Document is an opened file. Loads are serialized; a Document may be shared
// between goroutines.
type Document struct {
	data     []byte
	version  string
	cfg      Config
	index    *xref.Index
	repaired *xref.Index
	warnings *recovery.Collector
	pipeline *filters.Pipeline

	mu      sync.Mutex
	cache   map[raw.ObjectRef]raw.Object
	objstm  map[int]*parser.ObjectStream
	loading *bitset.BitSet
}

// OpenFile reads path and opens it.
func OpenFile(ctx context.Context, path string, cfg Config) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	return Open(ctx, data, cfg)
}

// Open builds the object index for data. In recovery mode an unusable xref
// chain is replaced by an index rebuilt from the object headers.
func Open(ctx context.Context, data []byte, cfg Config) (doc *Document, err error) {
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NopTracer()
	}
	cfg.Limits = cfg.Limits.WithDefaults()

	_, span := cfg.Tracer.StartSpan(ctx, "document.open")
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	d := &Document{
		data:     data,
		cfg:      cfg,
		warnings: recovery.NewCollector(cfg.Logger),
		pipeline: filters.NewPipeline(filters.Limits{MaxDecompressedSize: cfg.Limits.MaxDecompressedSize}),
		cache:    make(map[raw.ObjectRef]raw.Object),
		objstm:   make(map[int]*parser.ObjectStream),
		loading:  bitset.New(0),
	}
	if err := d.readHeader(); err != nil {
		return nil, err
	}

	c := scanner.NewCursor(data)
	ix, err := xref.Resolve(c, d.xrefOptions()...)
	switch {
	case err != nil && !cfg.Recovery:
		return nil, errors.Wrap(err, "open document")
	case err != nil:
		d.warnings.Add("xref unusable: "+err.Error(), recovery.Location{Component: "xref"})
		if ix, err = d.repair(); err != nil {
			return nil, errors.Wrap(err, "open document")
		}
	case ix.Trailer.Root == nil && cfg.Recovery:
		d.warnings.Add("trailer has no /Root", recovery.Location{Component: "xref"})
		if rix, rerr := d.repair(); rerr == nil && rix.Trailer.Root != nil {
			ix = rix
		}
	}
	d.index = ix

	span.SetTag(observability.TagObjectCount, ix.Len())
	span.SetTag(observability.TagXRefSections, len(ix.Sections))
	span.SetTag(observability.TagRepaired, ix.Repaired)
	span.SetTag(observability.TagWarnings, d.warnings.Len())
	cfg.Logger.Debug("document opened",
		observability.String("version", d.version),
		observability.Int("objects", ix.Len()),
		observability.String("xref", ix.Type()))
	return d, nil
}

func (d *Document) readHeader() error {
	head := d.data
	if len(head) > 1024 {
		head = head[:1024]
	}
	i := bytes.Index(head, []byte("%PDF-"))
	if i < 0 {
		if !d.cfg.Recovery {
			return errors.New("missing %PDF header")
		}
		d.warnings.Add("missing %PDF header", recovery.Location{Component: "document"})
		return nil
	}
	if i > 0 {
		d.warnings.Add("data before %PDF header", recovery.Location{Component: "document", ByteOffset: int64(i)})
	}
	v := head[i+5:]
	end := 0
	for end < len(v) && (v[end] == '.' || (v[end] >= '0' && v[end] <= '9')) {
		end++
	}
	d.version = string(v[:end])
	return nil
}

func (d *Document) xrefOptions() []xref.Option {
	return []xref.Option{
		xref.WithRecovery(d.cfg.Recovery),
		xref.WithWarnings(d.warnings.Func("xref")),
		xref.WithLimits(d.cfg.Limits),
		xref.WithNameCache(d.cfg.Names),
		xref.WithRefCache(d.cfg.Refs),
		xref.WithLogger(d.cfg.Logger),
	}
}

func (d *Document) parserOptions(num, gen int) []parser.Option {
	return []parser.Option{
		parser.WithRecovery(d.cfg.Recovery),
		parser.WithWarnings(d.warnings.ObjectFunc("parser", num, gen)),
		parser.WithLimits(d.cfg.Limits),
		parser.WithNameCache(d.cfg.Names),
		parser.WithRefCache(d.cfg.Refs),
	}
}

// repair builds the brute-force index once.
func (d *Document) repair() (*xref.Index, error) {
	if d.repaired == nil {
		ix, err := xref.Repair(scanner.NewCursor(d.data), d.xrefOptions()...)
		if err != nil {
			return nil, err
		}
		d.repaired = ix
	}
	return d.repaired, nil
}

func (d *Document) Data() []byte                 { return d.data }
func (d *Document) Version() string              { return d.version }
func (d *Document) Index() *xref.Index           { return d.index }
func (d *Document) Trailer() xref.Trailer        { return d.index.Trailer }
func (d *Document) Warnings() []recovery.Warning { return d.warnings.Warnings() }

// Objects lists the references of every object that is not free.
func (d *Document) Objects() []raw.ObjectRef {
	var out []raw.ObjectRef
	for _, num := range d.index.Objects() {
		e, _ := d.index.Lookup(num)
		switch e := e.(type) {
		case xref.InUseEntry:
			out = append(out, raw.ObjectRef{Num: num, Gen: e.Gen})
		case xref.CompressedEntry:
			out = append(out, raw.ObjectRef{Num: num})
		}
	}
	return out
}

// Object returns the value of the indirect object ref. References to free or
// undefined objects yield null.
func (d *Document) Object(ref raw.ObjectRef) (raw.Object, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(ref)
}

// Resolve follows references until a direct value is reached.
func (d *Document) Resolve(obj raw.Object) (raw.Object, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolve(obj)
}

func (d *Document) resolve(obj raw.Object) (raw.Object, error) {
	limit := d.cfg.Limits.MaxIndirectDepth
	for depth := 0; ; depth++ {
		ref, ok := obj.(*raw.Reference)
		if !ok {
			return obj, nil
		}
		if depth >= limit {
			return nil, security.Exceeded("indirect reference depth", int64(limit), 0)
		}
		v, err := d.load(ref.Ref())
		if err != nil {
			return nil, err
		}
		obj = v
	}
}

// Catalog returns the document catalog named by the trailer /Root.
func (d *Document) Catalog() (*raw.Dict, error) {
	root := d.index.Trailer.Root
	if root == nil {
		return nil, errors.New("trailer has no /Root")
	}
	v, err := d.Resolve(root)
	if err != nil {
		return nil, errors.Wrap(err, "catalog")
	}
	dict, ok := v.(*raw.Dict)
	if !ok {
		return nil, errors.Errorf("catalog %s is a %s", root.Ref(), v.Type())
	}
	return dict, nil
}

// DecodeStream applies the filters of s.
func (d *Document) DecodeStream(ctx context.Context, s *raw.Stream) ([]byte, error) {
	return d.pipeline.DecodeStream(ctx, s)
}

// load expects d.mu to be held.
func (d *Document) load(ref raw.ObjectRef) (raw.Object, error) {
	if v, ok := d.cache[ref]; ok {
		return v, nil
	}
	if ref.Num < 0 {
		return raw.Null, nil
	}
	entry, ok := d.index.Lookup(ref.Num)
	if !ok {
		return raw.Null, nil
	}

	var (
		v   raw.Object
		err error
	)
	switch e := entry.(type) {
	case xref.InUseEntry:
		if e.Gen != ref.Gen {
			return raw.Null, nil
		}
		v, err = d.loadAt(ref, e.Offset)
	case xref.CompressedEntry:
		if ref.Gen != 0 {
			return raw.Null, nil
		}
		v, err = d.loadCompressed(ref.Num, e)
	default:
		return raw.Null, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "object %d %d", ref.Num, ref.Gen)
	}
	d.cache[ref] = v
	return v, nil
}

func (d *Document) loadAt(ref raw.ObjectRef, offset int64) (raw.Object, error) {
	if d.loading.Test(uint(ref.Num)) {
		return nil, errors.Errorf("object %s refers to itself while loading", ref)
	}
	d.loading.Set(uint(ref.Num))
	defer d.loading.Clear(uint(ref.Num))

	obj, err := d.parseAt(ref, offset)
	if err == nil && obj.Num == ref.Num && obj.Gen == ref.Gen {
		return obj.Value, nil
	}
	if !d.cfg.Recovery {
		if err != nil {
			return nil, err
		}
		return nil, &parser.SyntaxError{Msg: "object header does not match xref", Offset: offset}
	}
	if errors.Is(err, security.ErrLimitExceeded) || errors.Is(err, parser.ErrStreamLength) {
		return nil, err
	}

	// The xref offset is stale; look the object up by scanning.
	d.warnings.Add("xref offset does not point at the object", recovery.Location{
		ByteOffset: offset, ObjectNum: ref.Num, ObjectGen: ref.Gen, Component: "document",
	})
	rix, rerr := d.repair()
	if rerr != nil {
		return nil, rerr
	}
	if e, ok := rix.Lookup(ref.Num); ok {
		if in, ok := e.(xref.InUseEntry); ok && in.Offset != offset && in.Gen == ref.Gen {
			if obj, err := d.parseAt(ref, in.Offset); err == nil {
				return obj.Value, nil
			}
		}
	}
	if err == nil {
		// Wrong header but a readable object; keep it.
		return obj.Value, nil
	}
	return nil, err
}

func (d *Document) parseAt(ref raw.ObjectRef, offset int64) (*parser.IndirectObject, error) {
	ip := parser.NewIndirect(scanner.NewCursor(d.data), d.length, d.parserOptions(ref.Num, ref.Gen)...)
	return ip.ParseObjectAt(offset)
}

// length resolves an indirect stream /Length. The object currently being
// parsed cannot supply its own length.
func (d *Document) length(ref raw.ObjectRef) (int64, bool) {
	if ref.Num < 0 || d.loading.Test(uint(ref.Num)) {
		return 0, false
	}
	v, err := d.load(ref)
	if err != nil {
		return 0, false
	}
	n, ok := v.(raw.Number)
	if !ok || !n.IsInteger() {
		return 0, false
	}
	return n.Int(), true
}

func (d *Document) loadCompressed(num int, e xref.CompressedEntry) (raw.Object, error) {
	st, err := d.objectStream(e.Container)
	if err != nil {
		return nil, err
	}
	idx := e.Index
	if idx >= st.Len() || st.Nums[idx] != num {
		if idx = st.Find(num); idx < 0 {
			if !d.cfg.Recovery {
				return nil, errors.Wrapf(ErrNotFound, "object %d in object stream %d", num, e.Container)
			}
			d.warnings.Add("object missing from its object stream", recovery.Location{ObjectNum: num, Component: "document"})
			return raw.Null, nil
		}
	}
	return st.Object(idx)
}

func (d *Document) objectStream(num int) (*parser.ObjectStream, error) {
	if st, ok := d.objstm[num]; ok {
		return st, nil
	}
	entry, ok := d.index.Lookup(num)
	in, isDirect := entry.(xref.InUseEntry)
	if !ok || !isDirect {
		return nil, errors.Errorf("object stream %d is not a direct object", num)
	}
	ref := raw.ObjectRef{Num: num, Gen: in.Gen}
	v, err := d.load(ref)
	if err != nil {
		return nil, err
	}
	stm, ok := v.(*raw.Stream)
	if !ok {
		return nil, errors.Errorf("object stream %d is a %s", num, v.Type())
	}
	if !stm.Dict.IsType("ObjStm") {
		d.warnings.Add("object stream without /Type /ObjStm", recovery.Location{ObjectNum: num, Component: "document"})
	}
	data, err := d.pipeline.DecodeStream(context.Background(), stm)
	if err != nil {
		return nil, errors.Wrapf(err, "object stream %d", num)
	}
	st, err := parser.NewObjectStream(stm.Dict, data, d.parserOptions(num, in.Gen)...)
	if err != nil {
		return nil, errors.Wrapf(err, "object stream %d", num)
	}
	d.objstm[num] = st
	return st, nil
}
