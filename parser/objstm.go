package parser

import (
	"github.com/pkg/errors"

	"github.com/wudi/pdfcore/ir/raw"
	"github.com/wudi/pdfcore/scanner"
	"github.com/wudi/pdfcore/security"
)

// ObjectStream is a decoded /Type /ObjStm: N pairs of "num offset" followed,
// from /First on, by the objects themselves.
type ObjectStream struct {
	Nums    []int
	Offsets []int64
	first   int64
	data    []byte
	opts    []Option
}

// NewObjectStream reads the header of an object stream whose payload has
// already been decoded.
func NewObjectStream(dict *raw.Dict, data []byte, opts ...Option) (*ObjectStream, error) {
	o := buildOptions(opts)
	n, ok := dict.Int("N")
	if !ok || n < 0 {
		return nil, &SyntaxError{Msg: "object stream without /N"}
	}
	if n > int64(o.limits.MaxObjectStreamSize) {
		return nil, security.Exceeded("object stream size", int64(o.limits.MaxObjectStreamSize), 0)
	}
	first, ok := dict.Int("First")
	if !ok || first < 0 || first > int64(len(data)) {
		return nil, &SyntaxError{Msg: "object stream without valid /First"}
	}

	st := &ObjectStream{first: first, data: data, opts: opts}
	s := scanner.New(scanner.NewCursor(data[:first]), scanner.Config{})
	for i := int64(0); i < n; i++ {
		num, err := s.Next()
		if err != nil {
			return nil, err
		}
		off, err := s.Next()
		if err != nil {
			return nil, err
		}
		if num.Type != scanner.TokenNumber || !num.IsInt || off.Type != scanner.TokenNumber || !off.IsInt ||
			num.Int < 0 || off.Int < 0 {
			if o.recovery && len(st.Nums) > 0 {
				o.warn("object stream header shorter than /N", num.Pos)
				break
			}
			return nil, &SyntaxError{Msg: "invalid object stream header", Offset: num.Pos}
		}
		st.Nums = append(st.Nums, int(num.Int))
		st.Offsets = append(st.Offsets, off.Int)
	}
	return st, nil
}

func (st *ObjectStream) Len() int { return len(st.Nums) }

// Object parses the i-th object. Streams cannot be nested in an object stream,
// so a dictionary followed by the stream keyword is returned as the bare
// dictionary.
func (st *ObjectStream) Object(i int) (raw.Object, error) {
	if i < 0 || i >= len(st.Nums) {
		return nil, errors.Errorf("object stream index %d out of range", i)
	}
	start := st.first + st.Offsets[i]
	if start > int64(len(st.data)) {
		return nil, &SyntaxError{Msg: "object stream offset out of range", Offset: start}
	}
	end := int64(len(st.data))
	if i+1 < len(st.Offsets) && st.first+st.Offsets[i+1] > start && st.first+st.Offsets[i+1] <= end {
		end = st.first + st.Offsets[i+1]
	}
	p := NewBytes(st.data[start:end], st.opts...)
	res, err := p.ParseObject()
	if errors.Is(err, ErrEndOfInput) {
		return raw.Null, nil
	}
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Find returns the index of object num, or -1.
func (st *ObjectStream) Find(num int) int {
	for i, n := range st.Nums {
		if n == num {
			return i
		}
	}
	return -1
}
