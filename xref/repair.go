package xref

import (
	"bytes"
	"context"

	"github.com/tdewolff/parse/v2/strconv"

	"github.com/wudi/pdfcore/bytebuf"
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/observability"
	"github.com/wudi/pdfcore/parser"
	"github.com/wudi/pdfcore/recovery"
	"github.com/wudi/pdfcore/scanner"
)

type header struct {
	num, gen int
	offset   int64
}

// scanHeaders finds every "num gen obj" header in data, in file order.
func scanHeaders(data []byte) []header {
	var out []header
	kw := []byte("obj")
	for i := 0; ; {
		j := bytes.Index(data[i:], kw)
		if j < 0 {
			return out
		}
		at := i + j
		i = at + len(kw)
		if i < len(data) && bytebuf.IsRegular(data[i]) {
			continue
		}
		if h, ok := headerBefore(data, at); ok {
			out = append(out, h)
		}
	}
}

// headerBefore parses "num gen " backwards from the obj keyword at kw.
func headerBefore(data []byte, kw int) (header, bool) {
	k := kw
	digits := func() (int, bool) {
		end := k
		for k > 0 && data[k-1] >= '0' && data[k-1] <= '9' {
			k--
		}
		if k == end || end-k > 10 {
			return 0, false
		}
		v, _ := strconv.ParseUint(data[k:end])
		return int(v), true
	}
	spaces := func() bool {
		end := k
		for k > 0 && bytebuf.IsWhitespace(data[k-1]) {
			k--
		}
		return k < end
	}

	if !spaces() {
		return header{}, false
	}
	gen, ok := digits()
	if !ok || gen > maxGeneration || !spaces() {
		return header{}, false
	}
	num, ok := digits()
	if !ok || num > maxObjectNumber {
		return header{}, false
	}
	if k > 0 && bytebuf.IsRegular(data[k-1]) {
		return header{}, false
	}
	return header{num: num, gen: gen, offset: int64(k)}, true
}

// Repair rebuilds an index by scanning the whole buffer for object headers
// and trailer dictionaries. Later definitions of an object win. Objects held
// in object streams are added unless a direct definition exists.
func Repair(c *scanner.Cursor, opts ...Option) (*Index, error) {
	p := NewParser(c, opts...)
	hdrs := scanHeaders(c.Data())
	if len(hdrs) == 0 {
		return nil, &FormatError{Msg: "no objects found", Offset: 0}
	}
	p.opts.warn("rebuilding xref from object headers", 0)

	sec := newSection(-1)
	for _, h := range hdrs {
		sec.Entries[h.num] = InUseEntry{Offset: h.offset, Gen: h.gen}
	}

	// Object bodies are parsed leniently and quietly: the point is to
	// salvage what is there.
	quiet := p.opts
	quiet.recovery = true
	quiet.warn = recovery.Discard
	var catalog, streamTrailer Trailer
	compressed := make(map[int]Entry)
	for _, h := range hdrs {
		ip := parser.NewIndirect(scanner.NewCursor(c.Data()), p.opts.length, quiet.parserOptions()...)
		obj, err := ip.ParseObjectAt(h.offset)
		if err != nil {
			continue
		}
		switch v := obj.Value.(type) {
		case *raw.Dict:
			if v.IsType("Catalog") {
				catalog.Root = raw.NewRef(h.num, h.gen)
			}
		case *raw.Stream:
			switch {
			case v.Dict.IsType("XRef"):
				t := trailerFrom(v.Dict)
				t.backfill(streamTrailer)
				streamTrailer = t
			case v.Dict.IsType("ObjStm"):
				if root := p.collectCompressed(h.num, v, quiet, compressed); root != nil {
					catalog.Root = root
				}
			}
		}
	}
	for num, e := range compressed {
		if _, ok := sec.Entries[num]; !ok {
			sec.Entries[num] = e
		}
	}

	t := p.lastTrailer(quiet)
	t.backfill(streamTrailer)
	if t.Root == nil || !rootExists(sec, t.Root) {
		if catalog.Root != nil {
			t.Root = catalog.Root
		}
	}
	if t.Dict == nil {
		t.Dict = raw.NewDict()
	}
	t.Prev = nil
	t.XRefStm = nil
	sec.Trailer = t

	ix := Merge(sec)
	ix.Repaired = true
	if ix.Trailer.Size < ix.Size() {
		ix.Trailer.Size = ix.Size()
	}
	p.opts.logger.Info("xref repaired",
		observability.Int(observability.TagObjectCount, ix.Len()),
		observability.Bool("root", ix.Trailer.Root != nil))
	return ix, nil
}

func rootExists(sec *Section, ref *raw.Reference) bool {
	e, ok := sec.Entries[ref.Num()]
	return ok && e.Generation() == ref.Gen()
}

// lastTrailer merges the trailer dictionaries found in the file, newest last.
func (p *Parser) lastTrailer(o options) Trailer {
	data := p.c.Data()
	cur := scanner.NewCursor(data)
	var t Trailer
	first := true
	kw := []byte("trailer")
	for end := int64(len(data)); ; {
		i := cur.LastIndexBefore(kw, end)
		if i < 0 {
			break
		}
		end = i
		if err := cur.Seek(i + int64(len(kw))); err != nil {
			continue
		}
		pp := parser.New(scanner.New(cur, scanner.Config{}), o.parserOptions()...)
		res, err := pp.ParseObject()
		if err != nil {
			continue
		}
		d, ok := res.Value.(*raw.Dict)
		if !ok {
			continue
		}
		if first {
			t = trailerFrom(d)
			first = false
		} else {
			t.backfill(trailerFrom(d))
		}
	}
	return t
}

// collectCompressed records the members of an object stream and returns a
// reference to the catalog if the stream holds one.
func (p *Parser) collectCompressed(container int, s *raw.Stream, o options, out map[int]Entry) *raw.Reference {
	data, err := p.pipeline.DecodeStream(context.Background(), s)
	if err != nil {
		return nil
	}
	st, err := parser.NewObjectStream(s.Dict, data, o.parserOptions()...)
	if err != nil {
		return nil
	}
	var root *raw.Reference
	for i, num := range st.Nums {
		if num < 0 || num > maxObjectNumber {
			continue
		}
		out[num] = CompressedEntry{Container: container, Index: i}
		if v, err := st.Object(i); err == nil {
			if d, ok := v.(*raw.Dict); ok && d.IsType("Catalog") {
				root = raw.NewRef(num, 0)
			}
		}
	}
	return root
}
