package parser

import (
	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/security"
)

// LengthResolver returns the integer value of the object ref points to. It
// is consulted for indirect stream lengths and must not resolve the object
// currently being parsed.
type LengthResolver func(ref raw.ObjectRef) (int64, bool)

// IndirectObject is one "n g obj ... endobj" block.
type IndirectObject struct {
	Num    int
	Gen    int
	Value  raw.Object
	Offset int64
}

func (o *IndirectObject) Ref() raw.ObjectRef { return raw.ObjectRef{Num: o.Num, Gen: o.Gen} }

// IndirectParser reads indirect objects, including stream payloads.
type IndirectParser struct {
	c       *scanner.Cursor
	p       *Parser
	resolve LengthResolver
}

// NewIndirect returns a parser over c. resolve may be nil, in which case
// indirect stream lengths cannot be resolved.
func NewIndirect(c *scanner.Cursor, resolve LengthResolver, opts ...Option) *IndirectParser {
	return &IndirectParser{
		c:       c,
		p:       New(scanner.New(c, scanner.Config{}), opts...),
		resolve: resolve,
	}
}

// Parser exposes the underlying object parser.
func (ip *IndirectParser) Parser() *Parser { return ip.p }

func (ip *IndirectParser) SetRecovery(on bool) { ip.p.SetRecovery(on) }

// ParseObjectAt seeks to offset and parses the object found there.
func (ip *IndirectParser) ParseObjectAt(offset int64) (*IndirectObject, error) {
	if err := ip.c.Seek(offset); err != nil {
		return nil, &SyntaxError{Msg: "object offset out of range", Offset: offset}
	}
	return ip.ParseObject()
}

// ParseObject parses the indirect object at the current position.
func (ip *IndirectParser) ParseObject() (*IndirectObject, error) {
	s := ip.p.s
	ip.c.SkipWhitespaceAndComments()
	start := ip.c.Pos()

	numTok, err := s.Next()
	if err != nil {
		return nil, err
	}
	if numTok.Type == scanner.TokenEOF {
		return nil, ErrEndOfInput
	}
	genTok, err := s.Next()
	if err != nil {
		return nil, err
	}
	// Fatal in both modes: without a number there is no object to recover.
	if numTok.Type != scanner.TokenNumber || !numTok.IsInt || genTok.Type != scanner.TokenNumber || !genTok.IsInt {
		return nil, &SyntaxError{Msg: "invalid object header", Offset: start}
	}
	if numTok.Int < 0 || genTok.Int < 0 || genTok.Int > maxGeneration {
		if err := ip.p.violation("invalid object number", start); err != nil {
			return nil, err
		}
	}
	m := ip.c.Mark()
	objTok, err := s.Next()
	if err != nil {
		return nil, err
	}
	if !objTok.Is("obj") {
		if err := ip.p.violation("missing obj keyword", objTok.Pos); err != nil {
			return nil, err
		}
		ip.c.Reset(m)
	}

	obj := &IndirectObject{Num: int(numTok.Int), Gen: int(genTok.Int), Offset: start}
	res, err := ip.p.ParseObject()
	switch {
	case errors.Is(err, ErrEndOfInput):
		if err := ip.p.violation("missing object value", ip.c.Pos()); err != nil {
			return nil, err
		}
		obj.Value = raw.Null
		return obj, nil
	case err != nil:
		return nil, err
	}
	obj.Value = res.Value
	if res.HasStream {
		stm, err := ip.readStream(res.Value.(*raw.Dict))
		if err != nil {
			return nil, errors.Wrapf(err, "object %d %d", obj.Num, obj.Gen)
		}
		obj.Value = stm
	}

	m = ip.c.Mark()
	endTok, err := s.Next()
	if err != nil {
		return nil, err
	}
	if !endTok.Is("endobj") {
		if err := ip.p.violation("missing endobj", endTok.Pos); err != nil {
			return nil, err
		}
		ip.c.Reset(m)
	}
	return obj, nil
}

// readStream consumes "stream EOL <Length bytes> endstream". The cursor sits
// before the stream keyword.
func (ip *IndirectParser) readStream(dict *raw.Dict) (*raw.Stream, error) {
	c := ip.c
	c.SkipWhitespaceAndComments()
	kwPos := c.Pos()
	c.Advance(len("stream"))

	switch {
	case c.Peek(0) == '\n':
		c.Advance(1)
	case c.Peek(0) == '\r' && c.Peek(1) == '\n':
		c.Advance(2)
	case c.Peek(0) == '\r':
		if err := ip.p.violation("invalid stream line terminator", c.Pos()); err != nil {
			return nil, err
		}
		c.Advance(1)
	default:
		if err := ip.p.violation("missing stream line terminator", c.Pos()); err != nil {
			return nil, err
		}
		c.SkipSpaces()
	}

	length, err := ip.streamLength(dict, kwPos)
	if err != nil {
		return nil, err
	}
	limit := ip.p.opts.limits.MaxStreamLength
	if length > limit {
		return nil, security.Exceeded("stream length", limit, kwPos)
	}
	dataStart := c.Pos()
	if dataStart+length > c.Len() {
		return nil, &SyntaxError{Msg: "stream payload exceeds input", Offset: dataStart}
	}
	data := c.Slice(dataStart, dataStart+length)
	c.Advance(int(length))

	if c.PeekKeyword("endstream") {
		c.SkipWhitespaceAndComments()
		c.Advance(len("endstream"))
		return raw.NewStream(dict, data), nil
	}
	if err := ip.p.violation("missing endstream", c.Pos()); err != nil {
		return nil, err
	}
	// The declared length is wrong; fall back to the endstream keyword.
	if end := scanEndstream(c, dataStart); end >= 0 {
		data = trimEOL(c.Slice(dataStart, end))
		_ = c.Seek(end + int64(len("endstream")))
	}
	return raw.NewStream(dict, data), nil
}

func (ip *IndirectParser) streamLength(dict *raw.Dict, off int64) (int64, error) {
	v, ok := dict.Get("Length")
	if !ok {
		if ip.p.opts.recovery {
			return ip.guessLength(off)
		}
		return 0, errors.Wrapf(ErrStreamLength, "missing Length at offset %d", off)
	}
	switch l := v.(type) {
	case raw.Number:
		if l.IsInteger() && l.Int() >= 0 {
			return l.Int(), nil
		}
	case *raw.Reference:
		if ip.resolve != nil {
			if n, ok := ip.resolve(l.Ref()); ok && n >= 0 {
				return n, nil
			}
		}
		return 0, errors.Wrapf(ErrStreamLength, "length %s at offset %d", l.Ref(), off)
	}
	if ip.p.opts.recovery {
		return ip.guessLength(off)
	}
	return 0, errors.Wrapf(ErrStreamLength, "invalid Length at offset %d", off)
}

// guessLength measures the payload up to endstream when no usable direct
// Length exists.
func (ip *IndirectParser) guessLength(off int64) (int64, error) {
	start := ip.c.Pos()
	end := scanEndstream(ip.c, start)
	if end < 0 {
		return 0, errors.Wrapf(ErrStreamLength, "no endstream after offset %d", off)
	}
	ip.p.opts.warn("stream length taken from endstream", off)
	return int64(len(trimEOL(ip.c.Slice(start, end)))), nil
}

func scanEndstream(c *scanner.Cursor, from int64) int64 {
	m := c.Mark()
	defer c.Reset(m)
	if err := c.Seek(from); err != nil {
		return -1
	}
	return c.Index([]byte("endstream"))
}

func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}
