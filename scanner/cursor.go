package scanner

import (
	"bytes"
	"errors"

	"github.com/wudi/pdfcore/bytebuf"
)

// EOF is returned by Peek and Next once the cursor runs past the buffer.
const EOF = -1

// ErrSeekRange is returned when seeking outside the buffer.
var ErrSeekRange = errors.New("seek out of range")

// Cursor is a read position over an immutable byte buffer. Reads past either
// end yield EOF instead of failing.
type Cursor struct {
	data []byte
	pos  int
}

// Mark is a saved cursor position.
type Mark int

func NewCursor(data []byte) *Cursor { return &Cursor{data: data} }

func (c *Cursor) Pos() int64   { return int64(c.pos) }
func (c *Cursor) Len() int64   { return int64(len(c.data)) }
func (c *Cursor) Data() []byte { return c.data }
func (c *Cursor) AtEOF() bool  { return c.pos >= len(c.data) }

// Peek returns the byte k positions ahead without moving, or EOF.
func (c *Cursor) Peek(k int) int {
	i := c.pos + k
	if i < 0 || i >= len(c.data) {
		return EOF
	}
	return int(c.data[i])
}

// Next returns the current byte and moves past it, or EOF.
func (c *Cursor) Next() int {
	if c.pos >= len(c.data) {
		return EOF
	}
	b := c.data[c.pos]
	c.pos++
	return int(b)
}

// Advance moves forward n bytes, stopping at the end of the buffer.
func (c *Cursor) Advance(n int) {
	c.pos += n
	if c.pos > len(c.data) {
		c.pos = len(c.data)
	}
	if c.pos < 0 {
		c.pos = 0
	}
}

func (c *Cursor) Mark() Mark   { return Mark(c.pos) }
func (c *Cursor) Reset(m Mark) { c.pos = int(m) }

// Seek moves to an absolute offset. Offset len(data) is allowed.
func (c *Cursor) Seek(off int64) error {
	if off < 0 || off > int64(len(c.data)) {
		return ErrSeekRange
	}
	c.pos = int(off)
	return nil
}

// Slice returns data[from:to] clamped to the buffer.
func (c *Cursor) Slice(from, to int64) []byte {
	n := int64(len(c.data))
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from >= to {
		return nil
	}
	return c.data[from:to]
}

// Rest returns the unread part of the buffer.
func (c *Cursor) Rest() []byte { return c.data[c.pos:] }

// HasPrefix reports whether the unread data starts with kw.
func (c *Cursor) HasPrefix(kw []byte) bool {
	return bytes.HasPrefix(c.data[c.pos:], kw)
}

// Index searches forward from the current position and returns the absolute
// offset of kw, or -1.
func (c *Cursor) Index(kw []byte) int64 {
	i := bytes.Index(c.data[c.pos:], kw)
	if i < 0 {
		return -1
	}
	return int64(c.pos + i)
}

// IndexWithin is Index bounded to the next limit bytes.
func (c *Cursor) IndexWithin(kw []byte, limit int) int64 {
	end := c.pos + limit
	if end > len(c.data) || limit < 0 {
		end = len(c.data)
	}
	i := bytes.Index(c.data[c.pos:end], kw)
	if i < 0 {
		return -1
	}
	return int64(c.pos + i)
}

// LastIndex searches backward from the end of the buffer and returns the
// absolute offset of the last kw, or -1.
func (c *Cursor) LastIndex(kw []byte) int64 {
	return int64(bytes.LastIndex(c.data, kw))
}

// LastIndexBefore is LastIndex restricted to data[:end].
func (c *Cursor) LastIndexBefore(kw []byte, end int64) int64 {
	if end > int64(len(c.data)) {
		end = int64(len(c.data))
	}
	if end < 0 {
		return -1
	}
	return int64(bytes.LastIndex(c.data[:end], kw))
}

// SkipWhitespace moves past whitespace bytes.
func (c *Cursor) SkipWhitespace() {
	for c.pos < len(c.data) && bytebuf.IsWhitespace(c.data[c.pos]) {
		c.pos++
	}
}

// SkipWhitespaceAndComments moves past whitespace and %-comments.
func (c *Cursor) SkipWhitespaceAndComments() {
	for c.pos < len(c.data) {
		ch := c.data[c.pos]
		if bytebuf.IsWhitespace(ch) {
			c.pos++
			continue
		}
		if ch != '%' {
			return
		}
		for c.pos < len(c.data) && c.data[c.pos] != '\n' && c.data[c.pos] != '\r' {
			c.pos++
		}
	}
}

// SkipSpaces moves past spaces and tabs only, leaving line ends in place.
func (c *Cursor) SkipSpaces() {
	for c.pos < len(c.data) && (c.data[c.pos] == ' ' || c.data[c.pos] == '\t') {
		c.pos++
	}
}

// SkipEOL consumes a single LF, CRLF or CR and returns how many bytes it used.
func (c *Cursor) SkipEOL() int {
	switch c.Peek(0) {
	case '\n':
		c.pos++
		return 1
	case '\r':
		if c.Peek(1) == '\n' {
			c.pos += 2
			return 2
		}
		c.pos++
		return 1
	}
	return 0
}

// ReadRegular returns the run of regular (non-delimiter, non-whitespace)
// bytes at the current position and moves past it.
func (c *Cursor) ReadRegular() []byte {
	start := c.pos
	for c.pos < len(c.data) && bytebuf.IsRegular(c.data[c.pos]) {
		c.pos++
	}
	return c.data[start:c.pos]
}

// PeekKeyword reports whether the next token, after whitespace and comments,
// is exactly kw. The cursor does not move.
func (c *Cursor) PeekKeyword(kw string) bool {
	m := c.Mark()
	defer c.Reset(m)
	c.SkipWhitespaceAndComments()
	if !bytes.HasPrefix(c.data[c.pos:], []byte(kw)) {
		return false
	}
	next := c.Peek(len(kw))
	return next == EOF || !bytebuf.IsRegular(byte(next))
}
