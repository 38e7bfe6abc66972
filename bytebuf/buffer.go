// Package bytebuf holds the low-level byte writers shared by the serializers:
// a growable output buffer, a sticky-error counting writer and the textual
// encodings of numbers, strings and names.
package bytebuf

import (
	"io"
	"strconv"
)

// Buffer is a growable in-memory byte sink. The zero value is ready to use.
type Buffer struct {
	b []byte
}

// New returns a buffer with at least size bytes of capacity.
func New(size int) *Buffer {
	return &Buffer{b: make([]byte, 0, size)}
}

func (b *Buffer) Len() int      { return len(b.b) }
func (b *Buffer) Bytes() []byte { return b.b }
func (b *Buffer) String() string {
	return string(b.b)
}

func (b *Buffer) Reset() { b.b = b.b[:0] }

// Truncate discards all but the first n bytes.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.b) {
		return
	}
	b.b = b.b[:n]
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.b = append(b.b, p...)
	return len(p), nil
}

func (b *Buffer) WriteByte(c byte) error {
	b.b = append(b.b, c)
	return nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	b.b = append(b.b, s...)
	return len(s), nil
}

// WriteInt appends the decimal form of v.
func (b *Buffer) WriteInt(v int64) {
	b.b = strconv.AppendInt(b.b, v, 10)
}

// WriteNumber appends v using the canonical number format.
func (b *Buffer) WriteNumber(v float64) {
	b.b = AppendNumber(b.b, v)
}

// WritePadded appends v zero-padded to width digits, as used by xref entries.
func (b *Buffer) WritePadded(v int64, width int) {
	var tmp [20]byte
	d := strconv.AppendInt(tmp[:0], v, 10)
	for i := len(d); i < width; i++ {
		b.b = append(b.b, '0')
	}
	b.b = append(b.b, d...)
}

func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.b)
	return int64(n), err
}

// Writer wraps an io.Writer, counting bytes and keeping the first error.
// Once an error occurs every later write is a no-op.
type Writer struct {
	w   io.Writer
	n   int64
	err error
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Offset reports the number of bytes written so far.
func (w *Writer) Offset() int64 { return w.n }

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	w.err = err
	return n, err
}

func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	_, _ = w.Write([]byte(s))
}

// WriteBuffer flushes the contents of b and resets it.
func (w *Writer) WriteBuffer(b *Buffer) {
	if w.err != nil {
		return
	}
	_, _ = w.Write(b.Bytes())
	b.Reset()
}
