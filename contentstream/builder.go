package contentstream

import (
	"github.com/wudi/pdfcore/bytebuf"
	"github.com/wudi/pdfcore/coords"
	"github.com/wudi/pdfcore/ir/raw"
)

// Builder accumulates operators in order.
type Builder struct {
	ops []Operator
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Append(ops ...Operator) *Builder {
	b.ops = append(b.ops, ops...)
	return b
}

// AppendIf appends ops only when cond holds, so optional steps can stay in a
// call chain.
func (b *Builder) AppendIf(cond bool, ops ...Operator) *Builder {
	if cond {
		b.ops = append(b.ops, ops...)
	}
	return b
}

// AppendPath appends the construction operators of p followed by paint.
func (b *Builder) AppendPath(p Path, paint Operator) *Builder {
	b.ops = append(b.ops, p.Operators()...)
	b.ops = append(b.ops, paint)
	return b
}

func (b *Builder) Len() int { return len(b.ops) }

func (b *Builder) Operators() []Operator { return append([]Operator(nil), b.ops...) }

// Bytes renders the operators one per line.
func (b *Builder) Bytes() []byte {
	buf := bytebuf.New(32 * len(b.ops))
	for i, o := range b.ops {
		if i > 0 {
			buf.WriteByte('\n')
		}
		o.appendTo(buf)
	}
	return buf.Bytes()
}

func (b *Builder) String() string { return string(b.Bytes()) }

// ContentStream wraps the rendered operators in an unfiltered stream.
func (b *Builder) ContentStream() *raw.Stream {
	data := b.Bytes()
	d := raw.NewDict()
	d.Set("Length", raw.Int(int64(len(data))))
	return raw.NewStream(d, data)
}

// FormOptions carries the optional entries of a form XObject.
type FormOptions struct {
	Matrix    *coords.Matrix
	Resources *raw.Dict
	Group     *raw.Dict
}

// FormXObject wraps the operators as a reusable form with the given bounding
// box (llx, lly, urx, ury).
func (b *Builder) FormXObject(bbox [4]float64, opts FormOptions) *raw.Stream {
	s := b.ContentStream()
	d := s.Dict
	d.Set("Type", raw.Name("XObject"))
	d.Set("Subtype", raw.Name("Form"))
	d.Set("BBox", numberArray(bbox[:]))
	if opts.Matrix != nil && !opts.Matrix.IsIdentity() {
		d.Set("Matrix", numberArray(opts.Matrix[:]))
	}
	if opts.Resources != nil {
		d.Set("Resources", opts.Resources)
	}
	if opts.Group != nil {
		d.Set("Group", opts.Group)
	}
	return s
}

func numberArray(vs []float64) *raw.Array {
	a := raw.NewArray()
	for _, v := range vs {
		a.Append(raw.Real(v))
	}
	return a
}
