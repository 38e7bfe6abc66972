package xref

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tdewolff/parse/v2/strconv"

	"github.com/wudi/pdfcore/filters"
	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/parser"
	"github.com/wudi/pdfcore/scanner"
)

// Parser reads xref sections from a buffer.
type Parser struct {
	c        *scanner.Cursor
	opts     options
	pipeline *filters.Pipeline
	headers  map[raw.ObjectRef]int64
}

func NewParser(c *scanner.Cursor, opts ...Option) *Parser {
	o := buildOptions(opts)
	p := &Parser{
		c:        c,
		opts:     o,
		pipeline: filters.NewPipeline(filters.Limits{MaxDecompressedSize: o.limits.MaxDecompressedSize}),
	}
	if p.opts.length == nil {
		p.opts.length = p.scanLength
	}
	return p
}

func (p *Parser) violation(msg string, off int64) error {
	if !p.opts.recovery {
		return &FormatError{Msg: msg, Offset: off}
	}
	p.opts.warn(msg, off)
	return nil
}

// LocateStartXRef returns the offset recorded after the last startxref
// keyword that is followed by an integer. The cursor position is kept.
func LocateStartXRef(c *scanner.Cursor) (int64, error) {
	m := c.Mark()
	defer c.Reset(m)

	kw := []byte("startxref")
	end := c.Len()
	for {
		i := c.LastIndexBefore(kw, end)
		if i < 0 {
			return 0, ErrStartXRefNotFound
		}
		if err := c.Seek(i + int64(len(kw))); err != nil {
			return 0, ErrStartXRefNotFound
		}
		c.SkipWhitespaceAndComments()
		if v, n := strconv.ParseUint(c.Rest()); n > 0 {
			return int64(v), nil
		}
		end = i
	}
}

// ParseAt parses the section at offset, which is either a classic table
// starting with the xref keyword or an xref stream object.
func (p *Parser) ParseAt(offset int64) (*Section, error) {
	if err := p.c.Seek(offset); err != nil {
		return nil, &FormatError{Msg: "xref offset out of range", Offset: offset}
	}
	p.c.SkipWhitespaceAndComments()
	if p.c.PeekKeyword("xref") {
		return p.ParseTable()
	}
	return p.ParseStream()
}

// ParseTable reads "xref", its subsections and the trailer dictionary.
func (p *Parser) ParseTable() (*Section, error) {
	c := p.c
	c.SkipWhitespaceAndComments()
	start := c.Pos()
	if !c.PeekKeyword("xref") {
		return nil, &FormatError{Msg: "missing xref keyword", Offset: start}
	}
	c.Advance(len("xref"))

	sec := newSection(start)
	for {
		c.SkipWhitespaceAndComments()
		if c.AtEOF() {
			if err := p.violation("missing trailer", c.Pos()); err != nil {
				return nil, err
			}
			sec.setTrailer(nil)
			return sec, nil
		}
		if c.PeekKeyword("trailer") {
			break
		}
		ok, err := p.subsection(sec)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Unreadable subsection header; continue at the trailer.
			i := c.Index([]byte("trailer"))
			if i < 0 {
				sec.setTrailer(nil)
				return sec, nil
			}
			_ = c.Seek(i)
			break
		}
	}

	c.SkipWhitespaceAndComments()
	c.Advance(len("trailer"))
	return sec, p.trailer(sec)
}

func (p *Parser) trailer(sec *Section) error {
	off := p.c.Pos()
	pp := parser.New(scanner.New(p.c, scanner.Config{}), p.opts.parserOptions()...)
	res, err := pp.ParseObject()
	if err != nil && !errors.Is(err, parser.ErrEndOfInput) {
		return errors.Wrap(err, "trailer")
	}
	d, ok := res.Value.(*raw.Dict)
	if !ok {
		if err := p.violation("trailer is not a dictionary", off); err != nil {
			return err
		}
	}
	sec.setTrailer(d)
	return nil
}

// subsection reads "first count" and its entries. It returns false when the
// header itself could not be read in recovery mode.
func (p *Parser) subsection(sec *Section) (bool, error) {
	c := p.c
	pos := c.Pos()
	first, n := strconv.ParseUint(c.Rest())
	if n == 0 {
		return false, p.violation("invalid subsection header", pos)
	}
	c.Advance(n)
	c.SkipSpaces()
	count, n := strconv.ParseUint(c.Rest())
	if n == 0 {
		return false, p.violation("invalid subsection header", pos)
	}
	c.Advance(n)
	if first > maxObjectNumber || count > maxObjectNumber+1-first {
		return false, p.violation("subsection exceeds object number range", pos)
	}

	for i := uint64(0); i < count; i++ {
		c.SkipWhitespace()
		if c.PeekKeyword("trailer") || c.AtEOF() {
			return true, p.violation("subsection shorter than declared", c.Pos())
		}
		epos := c.Pos()
		e, ok := p.entry()
		if !ok {
			if err := p.violation("invalid xref entry", epos); err != nil {
				return false, err
			}
			skipLine(c)
			continue
		}
		num := int(first + i)
		// A common writer bug numbers the first subsection from 1 while
		// still listing the free head of object 0.
		if i == 0 && first == 1 && p.opts.recovery {
			if f, ok := e.(FreeEntry); ok && f.Gen == maxGeneration && f.Next == 0 {
				p.opts.warn("subsection numbered from 1 starts with the free list head", epos)
				first = 0
				num = 0
			}
		}
		sec.Entries[num] = e
	}
	return true, nil
}

// entry reads "oooooooooo ggggg n|f" with its line terminator. Separating
// spaces may be missing.
func (p *Parser) entry() (Entry, bool) {
	c := p.c
	rest := c.Rest()
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	var off, gen uint64
	switch {
	case digits == 15:
		// offset and generation run together
		off, _ = strconv.ParseUint(rest[:10])
		gen, _ = strconv.ParseUint(rest[10:15])
		c.Advance(15)
	case digits > 0 && digits <= 10:
		off, _ = strconv.ParseUint(rest[:digits])
		c.Advance(digits)
		c.SkipSpaces()
		var n int
		if gen, n = strconv.ParseUint(c.Rest()); n == 0 || n > 5 {
			return nil, false
		}
		c.Advance(n)
	default:
		return nil, false
	}
	c.SkipSpaces()
	kind := c.Peek(0)
	if (kind != 'n' && kind != 'f') || gen > maxGeneration {
		return nil, false
	}
	c.Advance(1)
	c.SkipSpaces()
	c.SkipEOL()

	if kind == 'f' {
		return FreeEntry{Next: int(off), Gen: int(gen)}, true
	}
	return InUseEntry{Offset: int64(off), Gen: int(gen)}, true
}

func skipLine(c *scanner.Cursor) {
	for !c.AtEOF() && c.Peek(0) != '\n' && c.Peek(0) != '\r' {
		c.Advance(1)
	}
	c.SkipEOL()
}

// ParseStream reads an xref stream object at the current position.
func (p *Parser) ParseStream() (*Section, error) {
	start := p.c.Pos()
	ip := parser.NewIndirect(p.c, p.opts.length, p.opts.parserOptions()...)
	obj, err := ip.ParseObject()
	if err != nil {
		return nil, errors.Wrapf(err, "xref stream at offset %d", start)
	}
	stm, ok := obj.Value.(*raw.Stream)
	if !ok {
		return nil, &FormatError{Msg: "expected xref stream", Offset: start}
	}
	if !stm.Dict.IsType("XRef") {
		if err := p.violation("xref stream without /Type /XRef", start); err != nil {
			return nil, err
		}
	}
	data, err := p.pipeline.DecodeStream(context.Background(), stm)
	if err != nil {
		return nil, errors.Wrapf(err, "xref stream at offset %d", start)
	}

	sec := newSection(start)
	sec.Stream = true
	sec.setTrailer(stm.Dict)
	if err := p.decodeRows(sec, stm.Dict, data); err != nil {
		return nil, err
	}
	return sec, nil
}

func (p *Parser) decodeRows(sec *Section, dict *raw.Dict, data []byte) error {
	var w [3]int
	var nums []float64
	if arr, ok := dict.Array("W"); ok {
		nums, _ = arr.Numbers()
	}
	if len(nums) < 3 {
		return &FormatError{Msg: "invalid /W", Offset: sec.Offset}
	}
	for i := range w {
		w[i] = int(nums[i])
		if w[i] < 0 || w[i] > 8 {
			return &FormatError{Msg: "invalid /W", Offset: sec.Offset}
		}
	}
	row := w[0] + w[1] + w[2]
	if row == 0 {
		return &FormatError{Msg: "invalid /W", Offset: sec.Offset}
	}
	if len(data)%row != 0 {
		if err := p.violation("xref stream length is not a multiple of the row width", sec.Offset); err != nil {
			return err
		}
	}

	index := []float64{0, float64(sec.Trailer.Size)}
	if arr, ok := dict.Array("Index"); ok {
		if v, ok := arr.Numbers(); ok && len(v)%2 == 0 {
			index = v
		} else if err := p.violation("invalid /Index", sec.Offset); err != nil {
			return err
		}
	}

	pos := 0
	for k := 0; k+1 < len(index); k += 2 {
		if index[k] < 0 || index[k] > maxObjectNumber || index[k+1] < 0 || index[k+1] > maxObjectNumber+1 {
			return &FormatError{Msg: "invalid /Index", Offset: sec.Offset}
		}
		first, count := int(index[k]), int(index[k+1])
		if count > maxObjectNumber+1-first {
			return &FormatError{Msg: "invalid /Index", Offset: sec.Offset}
		}
		for i := 0; i < count; i++ {
			if pos+row > len(data) {
				return p.violation("xref stream shorter than /Index", sec.Offset)
			}
			typ := int64(1)
			if w[0] > 0 {
				typ = field(data[pos : pos+w[0]])
			}
			f2 := field(data[pos+w[0] : pos+w[0]+w[1]])
			f3 := field(data[pos+w[0]+w[1] : pos+row])
			pos += row

			switch typ {
			case 0:
				sec.Entries[first+i] = FreeEntry{Next: int(f2), Gen: int(f3)}
			case 1:
				sec.Entries[first+i] = InUseEntry{Offset: f2, Gen: int(f3)}
			case 2:
				sec.Entries[first+i] = CompressedEntry{Container: int(f2), Index: int(f3)}
			default:
				// Unknown types are references to the null object.
			}
		}
	}
	return nil
}

// field decodes a big-endian unsigned integer.
func field(b []byte) int64 {
	var v int64
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	return v
}

// scanLength resolves an indirect /Length by locating the referenced object
// header in the buffer.
func (p *Parser) scanLength(ref raw.ObjectRef) (int64, bool) {
	if p.headers == nil {
		p.headers = make(map[raw.ObjectRef]int64)
		for _, h := range scanHeaders(p.c.Data()) {
			p.headers[raw.ObjectRef{Num: h.num, Gen: h.gen}] = h.offset
		}
	}
	off, ok := p.headers[ref]
	if !ok {
		return 0, false
	}
	ip := parser.NewIndirect(scanner.NewCursor(p.c.Data()), nil, parser.WithRecovery(p.opts.recovery))
	obj, err := ip.ParseObjectAt(off)
	if err != nil {
		return 0, false
	}
	n, ok := obj.Value.(raw.Number)
	if !ok || !n.IsInteger() {
		return 0, false
	}
	return n.Int(), true
}
