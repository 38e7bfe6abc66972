// Package scanner turns PDF bytes into tokens. Cursor is the raw byte reader;
// Scanner layers the lexical rules on top of it and knows nothing about how
// tokens nest.
package scanner

import (
	"fmt"
	"strconv"

	pconv "github.com/tdewolff/parse/v2/strconv"

	"github.com/wudi/pdfcore/bytebuf"
	"github.com/wudi/pdfcore/recovery"
)

type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenDictOpen             // '<<'
	TokenDictClose            // '>>'
	TokenArrayOpen            // '['
	TokenArrayClose           // ']'
	TokenName                 // '/Name', #XX already decoded
	TokenString               // literal or hex string
	TokenNumber               // integer or real
	TokenKeyword              // any other bare run: obj, R, true, stream, ...
)

var tokenNames = [...]string{"EOF", "<<", ">>", "[", "]", "name", "string", "number", "keyword"}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "TokenType(" + strconv.Itoa(int(t)) + ")"
}

type Token struct {
	Type  TokenType
	Pos   int64
	Bytes []byte // name, string payload or keyword text
	Hex   bool   // string was written in hex form
	Int   int64
	Float float64
	IsInt bool
}

func (t Token) Str() string { return string(t.Bytes) }

// Is reports whether t is the keyword kw.
func (t Token) Is(kw string) bool {
	return t.Type == TokenKeyword && string(t.Bytes) == kw
}

func (t Token) String() string {
	switch t.Type {
	case TokenNumber:
		if t.IsInt {
			return strconv.FormatInt(t.Int, 10)
		}
		return bytebuf.FormatNumber(t.Float)
	case TokenName:
		return "/" + string(t.Bytes)
	case TokenString:
		if t.Hex {
			return string(bytebuf.AppendHexString(nil, t.Bytes))
		}
		return string(bytebuf.AppendLiteralString(nil, t.Bytes))
	case TokenKeyword:
		return string(t.Bytes)
	}
	return t.Type.String()
}

// Error is a lexical error at a byte offset.
type Error struct {
	Msg    string
	Offset int64
}

func (e *Error) Error() string { return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset) }

type Config struct {
	// MaxStringLength bounds decoded string payloads. Zero means unlimited.
	MaxStringLength int64
	// Recovery makes unterminated strings and bad hex digits warnings.
	Recovery  bool
	OnWarning recovery.WarningFunc
}

// Scanner reads tokens from a Cursor. It never returns io.EOF; the end of
// input is a TokenEOF.
type Scanner struct {
	c   *Cursor
	cfg Config
}

func New(c *Cursor, cfg Config) *Scanner {
	if cfg.OnWarning == nil {
		cfg.OnWarning = recovery.Discard
	}
	return &Scanner{c: c, cfg: cfg}
}

// NewBytes is shorthand for New(NewCursor(data), cfg).
func NewBytes(data []byte, cfg Config) *Scanner { return New(NewCursor(data), cfg) }

func (s *Scanner) Cursor() *Cursor { return s.c }
func (s *Scanner) Config() Config  { return s.cfg }

// Reconfigure replaces the configuration; the read position is kept.
func (s *Scanner) Reconfigure(cfg Config) {
	if cfg.OnWarning == nil {
		cfg.OnWarning = recovery.Discard
	}
	s.cfg = cfg
}

// SetRecovery switches lenient handling on or off.
func (s *Scanner) SetRecovery(on bool) { s.cfg.Recovery = on }

func (s *Scanner) warn(msg string, off int64) error {
	if !s.cfg.Recovery {
		return &Error{Msg: msg, Offset: off}
	}
	s.cfg.OnWarning(msg, off)
	return nil
}

// Next returns the next token.
func (s *Scanner) Next() (Token, error) {
	c := s.c
	c.SkipWhitespaceAndComments()
	start := c.Pos()
	ch := c.Peek(0)
	switch ch {
	case EOF:
		return Token{Type: TokenEOF, Pos: start}, nil
	case '<':
		if c.Peek(1) == '<' {
			c.Advance(2)
			return Token{Type: TokenDictOpen, Pos: start}, nil
		}
		return s.scanHexString()
	case '>':
		if c.Peek(1) == '>' {
			c.Advance(2)
			return Token{Type: TokenDictClose, Pos: start}, nil
		}
		c.Advance(1)
		return Token{Type: TokenKeyword, Pos: start, Bytes: []byte{'>'}}, nil
	case '[':
		c.Advance(1)
		return Token{Type: TokenArrayOpen, Pos: start}, nil
	case ']':
		c.Advance(1)
		return Token{Type: TokenArrayClose, Pos: start}, nil
	case '(':
		return s.scanLiteralString()
	case '/':
		return s.scanName(), nil
	case ')', '{', '}':
		c.Advance(1)
		return Token{Type: TokenKeyword, Pos: start, Bytes: []byte{byte(ch)}}, nil
	}
	run := c.ReadRegular()
	if isNumberStart(run[0]) {
		if tok, ok := classifyNumber(run); ok {
			tok.Pos = start
			return tok, nil
		}
	}
	return Token{Type: TokenKeyword, Pos: start, Bytes: run}, nil
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (Token, error) {
	m := s.c.Mark()
	tok, err := s.Next()
	s.c.Reset(m)
	return tok, err
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

// classifyNumber recognises [+-]digits[.digits] runs.
func classifyNumber(run []byte) (Token, bool) {
	i := 0
	if run[0] == '+' || run[0] == '-' {
		i++
	}
	digits, dots := 0, 0
	for ; i < len(run); i++ {
		switch {
		case run[i] >= '0' && run[i] <= '9':
			digits++
		case run[i] == '.':
			dots++
		default:
			return Token{}, false
		}
	}
	if digits == 0 || dots > 1 {
		return Token{}, false
	}
	if dots == 0 {
		if v, n := pconv.ParseInt(run); n == len(run) {
			return Token{Type: TokenNumber, Int: v, Float: float64(v), IsInt: true}, true
		}
	}
	f, n := pconv.ParseFloat(run)
	if n != len(run) {
		var err error
		if f, err = strconv.ParseFloat(string(run), 64); err != nil {
			return Token{}, false
		}
	}
	return Token{Type: TokenNumber, Float: f}, true
}

func (s *Scanner) scanName() Token {
	c := s.c
	start := c.Pos()
	c.Advance(1)
	run := c.ReadRegular()
	out := make([]byte, 0, len(run))
	for i := 0; i < len(run); i++ {
		if run[i] == '#' && i+2 < len(run) && isHex(run[i+1]) && isHex(run[i+2]) {
			out = append(out, fromHex(run[i+1])<<4|fromHex(run[i+2]))
			i += 2
			continue
		}
		out = append(out, run[i])
	}
	return Token{Type: TokenName, Pos: start, Bytes: out}
}

func (s *Scanner) scanLiteralString() (Token, error) {
	c := s.c
	start := c.Pos()
	c.Advance(1)
	var buf []byte
	depth := 1
	for depth > 0 {
		ch := c.Next()
		switch ch {
		case EOF:
			if err := s.warn("unterminated literal string", start); err != nil {
				return Token{}, err
			}
			return Token{Type: TokenString, Pos: start, Bytes: buf}, nil
		case '\\':
			esc := c.Next()
			switch {
			case esc == EOF:
				continue
			case esc == '\r':
				if c.Peek(0) == '\n' {
					c.Advance(1)
				}
				continue
			case esc == '\n':
				continue
			case esc >= '0' && esc <= '7':
				v := esc - '0'
				for k := 0; k < 2; k++ {
					d := c.Peek(0)
					if d < '0' || d > '7' {
						break
					}
					v = v<<3 + (d - '0')
					c.Advance(1)
				}
				buf = append(buf, byte(v))
			default:
				buf = append(buf, translateEscape(byte(esc)))
			}
		case '(':
			depth++
			buf = append(buf, '(')
		case ')':
			depth--
			if depth > 0 {
				buf = append(buf, ')')
			}
		case '\r':
			// An unescaped end of line is read as a single LF.
			if c.Peek(0) == '\n' {
				c.Advance(1)
			}
			buf = append(buf, '\n')
		default:
			buf = append(buf, byte(ch))
		}
		if s.cfg.MaxStringLength > 0 && int64(len(buf)) > s.cfg.MaxStringLength {
			return Token{}, &Error{Msg: "literal string too long", Offset: start}
		}
	}
	return Token{Type: TokenString, Pos: start, Bytes: buf}, nil
}

func translateEscape(b byte) byte {
	switch b {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	}
	return b
}

func (s *Scanner) scanHexString() (Token, error) {
	c := s.c
	start := c.Pos()
	c.Advance(1)
	var out []byte
	var hi byte
	half := false
	for {
		ch := c.Next()
		if ch == EOF {
			if err := s.warn("unterminated hex string", start); err != nil {
				return Token{}, err
			}
			break
		}
		if ch == '>' {
			break
		}
		b := byte(ch)
		if bytebuf.IsWhitespace(b) {
			continue
		}
		if !isHex(b) {
			if err := s.warn("invalid hex digit", c.Pos()-1); err != nil {
				return Token{}, err
			}
			continue
		}
		if !half {
			hi = fromHex(b)
			half = true
			continue
		}
		out = append(out, hi<<4|fromHex(b))
		half = false
		if s.cfg.MaxStringLength > 0 && int64(len(out)) > s.cfg.MaxStringLength {
			return Token{}, &Error{Msg: "hex string too long", Offset: start}
		}
	}
	if half {
		// A trailing odd digit is padded with 0.
		out = append(out, hi<<4)
	}
	return Token{Type: TokenString, Pos: start, Bytes: out, Hex: true}, nil
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func fromHex(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// InlineImageData reads the raw bytes of an inline image. The cursor must sit
// just after the ID keyword. It returns the data up to, but not including, the
// whitespace before EI and leaves the cursor after EI.
func (s *Scanner) InlineImageData() ([]byte, error) {
	c := s.c
	start := c.Pos()
	if b := c.Peek(0); b != EOF && bytebuf.IsWhitespace(byte(b)) {
		c.Advance(1)
	}
	from := c.Pos()
	data := c.Data()
	for i := int(from); i+1 < len(data); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		if i > int(from) && !bytebuf.IsWhitespace(data[i-1]) {
			continue
		}
		if i+2 < len(data) && !bytebuf.IsWhitespace(data[i+2]) && !bytebuf.IsDelimiter(data[i+2]) {
			continue
		}
		end := i
		if end > int(from) {
			end--
			if data[end] == '\n' && end > int(from) && data[end-1] == '\r' {
				end--
			}
		}
		_ = c.Seek(int64(i + 2))
		return data[from:end], nil
	}
	return nil, &Error{Msg: "inline image without EI", Offset: start}
}
