package writer

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/bytebuf"
	"github.com/wudi/pdfcore/document"
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/observability"
	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/xref"
)

// ErrRepaired is returned when an update is requested for a document whose
// xref was rebuilt: there is no trustworthy section for /Prev to point at.
var ErrRepaired = errors.New("writer: cannot append to a document with a repaired xref")

// Update lists the changes of one incremental update.
type Update struct {
	// Objects are new or replaced objects.
	Objects []Object
	// Delete frees objects; each ref must name an object in use with that
	// generation.
	Delete []raw.ObjectRef
	// Root and Info default to the previous trailer's.
	Root *raw.ObjectRef
	Info *raw.ObjectRef
}

// NextNumber returns the first object number the document has never used.
func NextNumber(doc *document.Document) int { return doc.Index().Size() }

// AppendUpdate writes doc's original bytes followed by an update section
// holding upd. The section's xref links back through /Prev, and its free
// list covers both earlier free entries and the objects deleted now.
func AppendUpdate(ctx context.Context, w io.Writer, doc *document.Document, upd Update, cfg Config) (err error) {
	cfg = cfg.withDefaults()
	ctx, span := cfg.Tracer.StartSpan(ctx, "writer.append_update")
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	ix := doc.Index()
	if ix.Repaired {
		return ErrRepaired
	}
	prev, err := xref.LocateStartXRef(scanner.NewCursor(doc.Data()))
	if err != nil {
		return errors.Wrap(err, "previous startxref")
	}
	sorted, err := sortObjects(upd.Objects)
	if err != nil {
		return err
	}

	gens, free, err := freeAfter(ix, sorted, upd.Delete)
	if err != nil {
		return err
	}

	out := bytebuf.NewWriter(w)
	data := doc.Data()
	out.Write(data)
	if n := len(data); n > 0 && data[n-1] != '\n' && data[n-1] != '\r' {
		out.WriteString("\n")
	}

	h := idHash()
	table := make(map[int]tableEntry, len(sorted)+len(free)+1)
	if err := writeObjects(ctx, out, h, sorted, table, cfg); err != nil {
		return err
	}
	chainFree(table, free, gens)

	size := ix.Size()
	for num := range table {
		if num+1 > size {
			size = num + 1
		}
	}
	old := ix.Trailer
	tr := Trailer{Encrypt: old.Encrypt}
	switch {
	case upd.Root != nil:
		tr.Root = *upd.Root
	case old.Root != nil:
		tr.Root = old.Root.Ref()
	default:
		return errors.New("writer: update has no /Root")
	}
	if upd.Info != nil {
		tr.Info = upd.Info
	} else if old.Info != nil {
		r := old.Info.Ref()
		tr.Info = &r
	}
	if len(old.ID) == 2 {
		tr.ID[0] = old.ID[0].Bytes
	}

	trailer := trailerDict(size, tr, h, cfg)
	trailer.Set("Prev", raw.Int(prev))
	if err := finish(out, table, trailer); err != nil {
		return err
	}
	span.SetTag(observability.TagObjectCount, len(sorted))
	span.SetTag(observability.TagBytesWritten, out.Offset())
	cfg.Logger.Debug("appended update",
		observability.Int("objects", len(sorted)),
		observability.Int("deleted", len(upd.Delete)),
		observability.Int64("prev", prev))
	return nil
}

// freeAfter computes the free numbers after the update and the generation
// each one will carry. Deleting bumps the generation; numbers reused by
// objs leave the list.
func freeAfter(ix *xref.Index, objs []Object, del []raw.ObjectRef) (map[int]int, []int, error) {
	gens := make(map[int]int)
	for num, e := range ix.Entries() {
		if f, ok := e.(xref.FreeEntry); ok && num != 0 {
			gens[num] = f.Gen
		}
	}
	for _, ref := range del {
		e, ok := ix.Lookup(ref.Num)
		if !ok || ref.Num == 0 {
			return nil, nil, errors.Errorf("writer: cannot delete unknown object %v", ref)
		}
		if _, isFree := e.(xref.FreeEntry); isFree || e.Generation() != ref.Gen {
			return nil, nil, errors.Errorf("writer: object %v is not in use", ref)
		}
		gen := ref.Gen + 1
		if gen > 65535 {
			gen = 65535
		}
		gens[ref.Num] = gen
	}
	for _, o := range objs {
		delete(gens, o.Ref.Num)
	}
	free := make([]int, 0, len(gens))
	for num := range gens {
		free = append(free, num)
	}
	return gens, free, nil
}
