package xref

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/observability"
	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/security"
)

// Index is the merged view of every section reachable from startxref.
type Index struct {
	entries  map[int]Entry
	Trailer  Trailer
	Sections []*Section
	Repaired bool
}

// Lookup returns the authoritative entry for object num.
func (ix *Index) Lookup(num int) (Entry, bool) {
	e, ok := ix.entries[num]
	return e, ok
}

// Objects returns all known object numbers in ascending order.
func (ix *Index) Objects() []int {
	out := make([]int, 0, len(ix.entries))
	for num := range ix.entries {
		out = append(out, num)
	}
	sort.Ints(out)
	return out
}

func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns a copy of the merged entries.
func (ix *Index) Entries() map[int]Entry {
	out := make(map[int]Entry, len(ix.entries))
	for k, v := range ix.entries {
		out[k] = v
	}
	return out
}

// Size is one more than the highest object number, or the trailer Size when
// that is larger.
func (ix *Index) Size() int {
	size := ix.Trailer.Size
	for num := range ix.entries {
		if num+1 > size {
			size = num + 1
		}
	}
	return size
}

// Type describes the form of the newest section.
func (ix *Index) Type() string {
	switch {
	case ix.Repaired:
		return "repaired"
	case len(ix.Sections) == 0:
		return "empty"
	case ix.Sections[0].Stream:
		return "stream"
	case ix.Sections[0].Trailer.XRefStm != nil:
		return "hybrid"
	}
	return "table"
}

// FreeList walks the free list from object 0.
func (ix *Index) FreeList() ([]int, bool) { return FreeList(ix.entries, 0) }

// Merge builds an index from sections ordered newest first. An entry from an
// earlier section always wins over later ones.
func Merge(sections ...*Section) *Index {
	ix := &Index{entries: make(map[int]Entry), Sections: sections}
	for i, s := range sections {
		for num, e := range s.Entries {
			if _, seen := ix.entries[num]; !seen {
				ix.entries[num] = e
			}
		}
		if i == 0 {
			ix.Trailer = s.Trailer
		} else {
			ix.Trailer.backfill(s.Trailer)
		}
	}
	return ix
}

// Resolve locates startxref and merges the chain of sections it leads to.
func Resolve(c *scanner.Cursor, opts ...Option) (*Index, error) {
	start, err := LocateStartXRef(c)
	if err != nil {
		return nil, err
	}
	return NewParser(c, opts...).ResolveFrom(start)
}

// ResolveFrom follows /Prev links from the section at offset. A section with
// /XRefStm contributes the referenced stream directly beneath itself.
func (p *Parser) ResolveFrom(offset int64) (*Index, error) {
	limit := p.opts.limits.MaxXRefDepth
	visited := make(map[int64]bool)
	var sections []*Section

	for next := &offset; next != nil; {
		off := *next
		if visited[off] {
			if err := p.violation("xref chain loops", off); err != nil {
				return nil, err
			}
			break
		}
		if len(visited) >= limit {
			return nil, security.Exceeded("xref chain depth", int64(limit), off)
		}
		visited[off] = true

		sec, err := p.ParseAt(off)
		if err != nil {
			if p.opts.recovery && len(sections) > 0 {
				p.opts.warn("unreadable previous xref section", off)
				break
			}
			return nil, errors.Wrapf(err, "xref section at offset %d", off)
		}
		p.opts.logger.Debug("xref section",
			observability.Int64("offset", off),
			observability.Int("entries", len(sec.Entries)),
			observability.Bool("stream", sec.Stream))
		sections = append(sections, sec)

		if stm := sec.Trailer.XRefStm; stm != nil && !sec.Stream && !visited[*stm] {
			visited[*stm] = true
			hs, err := p.ParseAt(*stm)
			switch {
			case err != nil:
				if !p.opts.recovery {
					return nil, errors.Wrapf(err, "/XRefStm at offset %d", *stm)
				}
				p.opts.warn("unreadable /XRefStm section", *stm)
			case !hs.Stream:
				if err := p.violation("/XRefStm does not point to an xref stream", *stm); err != nil {
					return nil, err
				}
			default:
				sections = append(sections, hs)
			}
		}
		next = sec.Prev
	}
	return Merge(sections...), nil
}
