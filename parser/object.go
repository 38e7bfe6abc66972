// Package parser builds raw objects from tokens. Parser reads one direct
// value at a time; IndirectParser handles "n g obj ... endobj" framing and
// stream payloads on top of it.
package parser

import (
	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/security"
)

const maxGeneration = 65535

// errSkipped reports that recovery mode dropped the token it was given.
var errSkipped = errors.New("token skipped")

// Result is one parsed value. HasStream is set when a dictionary is directly
// followed by the stream keyword, which is left unread.
type Result struct {
	Value     raw.Object
	HasStream bool
}

// Parser reads direct objects. It is not safe for concurrent use.
type Parser struct {
	s     *scanner.Scanner
	opts  options
	depth int
}

// New returns a parser reading from s. The scanner's recovery setting is
// aligned with the parser's.
func New(s *scanner.Scanner, opts ...Option) *Parser {
	o := buildOptions(opts)
	p := &Parser{s: s, opts: o}
	p.syncScanner()
	return p
}

// NewBytes returns a parser over data.
func NewBytes(data []byte, opts ...Option) *Parser {
	return New(scanner.NewBytes(data, scanner.Config{}), opts...)
}

func (p *Parser) syncScanner() {
	cfg := p.s.Config()
	cfg.Recovery = p.opts.recovery
	cfg.OnWarning = p.opts.warn
	cfg.MaxStringLength = p.opts.limits.MaxStringLength
	p.s.Reconfigure(cfg)
}

func (p *Parser) Scanner() *scanner.Scanner { return p.s }
func (p *Parser) Recovery() bool            { return p.opts.recovery }

// SetRecovery switches between strict and recovery mode.
func (p *Parser) SetRecovery(on bool) {
	p.opts.recovery = on
	p.s.SetRecovery(on)
}

// violation reports a structural problem: an error in strict mode, a warning
// otherwise.
func (p *Parser) violation(msg string, off int64) error {
	if !p.opts.recovery {
		return &SyntaxError{Msg: msg, Offset: off}
	}
	p.opts.warn(msg, off)
	return nil
}

// ParseObject returns the next value, or ErrEndOfInput.
func (p *Parser) ParseObject() (Result, error) {
	p.depth = 0
	for {
		m := p.s.Cursor().Mark()
		tok, err := p.s.Next()
		if err != nil {
			return Result{}, err
		}
		if tok.Type == scanner.TokenEOF {
			return Result{}, ErrEndOfInput
		}
		v, err := p.value(tok)
		if errors.Is(err, errSkipped) {
			if isTerminator(tok) {
				// Leave the keyword for the caller and hand back null.
				p.s.Cursor().Reset(m)
				return Result{Value: raw.Null}, nil
			}
			continue
		}
		if err != nil {
			return Result{}, err
		}
		res := Result{Value: v}
		if _, ok := v.(*raw.Dict); ok {
			res.HasStream = p.s.Cursor().PeekKeyword("stream")
		}
		return res, nil
	}
}

// isTerminator reports keywords that end an object body rather than start a
// value. Containers stop at them in recovery mode.
func isTerminator(tok scanner.Token) bool {
	if tok.Type != scanner.TokenKeyword {
		return false
	}
	switch string(tok.Bytes) {
	case "endobj", "stream", "endstream", "obj", "xref", "trailer", "startxref":
		return true
	}
	return false
}

func (p *Parser) value(tok scanner.Token) (raw.Object, error) {
	switch tok.Type {
	case scanner.TokenNumber:
		return p.number(tok)
	case scanner.TokenName:
		return p.opts.names.Intern(tok.Bytes), nil
	case scanner.TokenString:
		return raw.String{Bytes: tok.Bytes, Hex: tok.Hex}, nil
	case scanner.TokenArrayOpen:
		return p.array(tok.Pos)
	case scanner.TokenDictOpen:
		return p.dict(tok.Pos)
	case scanner.TokenKeyword:
		switch string(tok.Bytes) {
		case "null":
			return raw.Null, nil
		case "true":
			return raw.True, nil
		case "false":
			return raw.False, nil
		}
		if err := p.violation("unexpected keyword "+string(tok.Bytes), tok.Pos); err != nil {
			return nil, err
		}
		return nil, errSkipped
	case scanner.TokenArrayClose, scanner.TokenDictClose:
		if err := p.violation("unexpected "+tok.Type.String(), tok.Pos); err != nil {
			return nil, err
		}
		return nil, errSkipped
	}
	return nil, &SyntaxError{Msg: "unexpected token", Offset: tok.Pos}
}

// number returns a plain number or, when followed by "gen R", a reference.
// A failed lookahead leaves the cursor where it was.
func (p *Parser) number(tok scanner.Token) (raw.Object, error) {
	if !tok.IsInt {
		return raw.Number(tok.Float), nil
	}
	c := p.s.Cursor()
	m := c.Mark()
	c.SkipWhitespaceAndComments()
	if d := c.Peek(0); d < '0' || d > '9' {
		c.Reset(m)
		return raw.Int(tok.Int), nil
	}
	gen, err := p.s.Next()
	if err != nil || gen.Type != scanner.TokenNumber || !gen.IsInt {
		c.Reset(m)
		return raw.Int(tok.Int), nil
	}
	if !c.PeekKeyword("R") {
		c.Reset(m)
		return raw.Int(tok.Int), nil
	}
	c.SkipWhitespaceAndComments()
	c.Advance(1)
	if tok.Int < 0 || gen.Int < 0 || gen.Int > maxGeneration {
		if err := p.violation("invalid reference values", tok.Pos); err != nil {
			return nil, err
		}
	}
	return p.opts.refs.Get(int(tok.Int), int(gen.Int)), nil
}

func (p *Parser) enter(off int64) error {
	p.depth++
	if p.depth > p.opts.limits.MaxNestingDepth {
		return errors.Wrapf(ErrDepthExceeded, "at offset %d", off)
	}
	return nil
}

func (p *Parser) array(start int64) (raw.Object, error) {
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	arr := &raw.Array{}
	c := p.s.Cursor()
	for {
		m := c.Mark()
		tok, err := p.s.Next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Type == scanner.TokenArrayClose:
			return arr, nil
		case tok.Type == scanner.TokenEOF:
			if err := p.violation("unterminated array", start); err != nil {
				return nil, err
			}
			return arr, nil
		case tok.Type == scanner.TokenDictClose || isTerminator(tok):
			if err := p.violation("unterminated array", start); err != nil {
				return nil, err
			}
			c.Reset(m)
			return arr, nil
		}
		v, err := p.value(tok)
		if errors.Is(err, errSkipped) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(arr.Items) >= p.opts.limits.MaxArraySize {
			return nil, security.Exceeded("array size", int64(p.opts.limits.MaxArraySize), start)
		}
		arr.Items = append(arr.Items, v)
	}
}

func (p *Parser) dict(start int64) (raw.Object, error) {
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	d := raw.NewDict()
	c := p.s.Cursor()
	for {
		m := c.Mark()
		tok, err := p.s.Next()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Type == scanner.TokenDictClose:
			return d, nil
		case tok.Type == scanner.TokenEOF:
			if err := p.violation("unterminated dictionary", start); err != nil {
				return nil, err
			}
			return d, nil
		case isTerminator(tok):
			if err := p.violation("unterminated dictionary", start); err != nil {
				return nil, err
			}
			c.Reset(m)
			return d, nil
		case tok.Type == scanner.TokenArrayClose:
			if err := p.violation("unexpected ] in dictionary", tok.Pos); err != nil {
				return nil, err
			}
			continue
		case tok.Type != scanner.TokenName:
			if err := p.violation("invalid dictionary key", tok.Pos); err != nil {
				return nil, err
			}
			if err := p.skipPair(tok); err != nil {
				return nil, err
			}
			continue
		}
		key := p.opts.names.Intern(tok.Bytes)
		vm := c.Mark()
		vt, err := p.s.Next()
		if err != nil {
			return nil, err
		}
		if vt.Type == scanner.TokenDictClose || vt.Type == scanner.TokenEOF || isTerminator(vt) {
			// Key without a value.
			c.Reset(vm)
			if vt.Type == scanner.TokenDictClose {
				if err := p.violation("missing dictionary value", vt.Pos); err != nil {
					return nil, err
				}
			}
			continue
		}
		v, err := p.value(vt)
		if errors.Is(err, errSkipped) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if d.Len() >= p.opts.limits.MaxDictSize {
			return nil, security.Exceeded("dictionary size", int64(p.opts.limits.MaxDictSize), start)
		}
		d.Set(key, v)
	}
}

// skipPair discards a bad key, which may itself be a container, and the
// value that follows it. Nested problems inside the discarded pair are not
// reported separately.
func (p *Parser) skipPair(key scanner.Token) error {
	warn := p.opts.warn
	p.opts.warn = func(string, int64) {}
	defer func() { p.opts.warn = warn }()

	if key.Type == scanner.TokenArrayOpen || key.Type == scanner.TokenDictOpen {
		if _, err := p.value(key); err != nil && !errors.Is(err, errSkipped) {
			return err
		}
	}
	c := p.s.Cursor()
	m := c.Mark()
	tok, err := p.s.Next()
	if err != nil {
		return err
	}
	if tok.Type == scanner.TokenDictClose || tok.Type == scanner.TokenEOF || isTerminator(tok) {
		c.Reset(m)
		return nil
	}
	if tok.Type == scanner.TokenName {
		// The bad key had no value; this name starts the next pair.
		c.Reset(m)
		return nil
	}
	if _, err := p.value(tok); err != nil && !errors.Is(err, errSkipped) {
		return err
	}
	return nil
}

// ParseValue parses a single direct object from data.
func ParseValue(data []byte, opts ...Option) (raw.Object, error) {
	res, err := NewBytes(data, opts...).ParseObject()
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}
