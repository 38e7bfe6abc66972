package contentstream

import (
	"fmt"
	"strings"

	"github.com/wudi/pdfcore/bytebuf"
	"github.com/wudi/pdfcore/coords"
	"github.com/wudi/pdfcore/ir/raw"
)

// Op is a content stream operator code.
type Op string

const (
	// General graphics state
	OpSave            Op = "q"
	OpRestore         Op = "Q"
	OpConcat          Op = "cm"
	OpLineWidth       Op = "w"
	OpLineCap         Op = "J"
	OpLineJoin        Op = "j"
	OpMiterLimit      Op = "M"
	OpDash            Op = "d"
	OpRenderingIntent Op = "ri"
	OpFlatness        Op = "i"
	OpExtGState       Op = "gs"

	// Path construction
	OpMoveTo    Op = "m"
	OpLineTo    Op = "l"
	OpCurveTo   Op = "c"
	OpCurveToV  Op = "v"
	OpCurveToY  Op = "y"
	OpClosePath Op = "h"
	OpRectangle Op = "re"

	// Path painting
	OpStroke            Op = "S"
	OpCloseStroke       Op = "s"
	OpFill              Op = "f"
	OpFillCompat        Op = "F"
	OpFillEvenOdd       Op = "f*"
	OpFillStroke        Op = "B"
	OpFillStrokeEvenOdd Op = "B*"
	OpCloseFillStroke   Op = "b"
	OpCloseFillStrokeEO Op = "b*"
	OpEndPath           Op = "n"
	OpClip              Op = "W"
	OpClipEvenOdd       Op = "W*"

	// Text
	OpBeginText      Op = "BT"
	OpEndText        Op = "ET"
	OpCharSpacing    Op = "Tc"
	OpWordSpacing    Op = "Tw"
	OpHorizScale     Op = "Tz"
	OpLeading        Op = "TL"
	OpFont           Op = "Tf"
	OpTextRender     Op = "Tr"
	OpTextRise       Op = "Ts"
	OpTextMove       Op = "Td"
	OpTextMoveLead   Op = "TD"
	OpTextMatrix     Op = "Tm"
	OpNextLine       Op = "T*"
	OpShowText       Op = "Tj"
	OpShowTextArray  Op = "TJ"
	OpNextLineShow   Op = "'"
	OpNextLineSpaced Op = "\""

	// Type 3 glyphs
	OpGlyphWidth Op = "d0"
	OpGlyphBBox  Op = "d1"

	// Color
	OpStrokeSpace  Op = "CS"
	OpFillSpace    Op = "cs"
	OpStrokeColor  Op = "SC"
	OpStrokeColorN Op = "SCN"
	OpFillColor    Op = "sc"
	OpFillColorN   Op = "scn"
	OpStrokeGray   Op = "G"
	OpFillGray     Op = "g"
	OpStrokeRGB    Op = "RG"
	OpFillRGB      Op = "rg"
	OpStrokeCMYK   Op = "K"
	OpFillCMYK     Op = "k"

	OpShade Op = "sh"

	// Inline images and external objects
	OpBeginInline Op = "BI"
	OpInlineData  Op = "ID"
	OpEndInline   Op = "EI"
	OpXObject     Op = "Do"

	// Marked content
	OpMarkPoint        Op = "MP"
	OpMarkPointProps   Op = "DP"
	OpBeginMarked      Op = "BMC"
	OpBeginMarkedProps Op = "BDC"
	OpEndMarked        Op = "EMC"

	// Compatibility sections
	OpBeginCompat Op = "BX"
	OpEndCompat   Op = "EX"
)

var knownOps = map[Op]struct{}{}

func init() {
	for _, op := range []Op{
		OpSave, OpRestore, OpConcat, OpLineWidth, OpLineCap, OpLineJoin, OpMiterLimit, OpDash,
		OpRenderingIntent, OpFlatness, OpExtGState,
		OpMoveTo, OpLineTo, OpCurveTo, OpCurveToV, OpCurveToY, OpClosePath, OpRectangle,
		OpStroke, OpCloseStroke, OpFill, OpFillCompat, OpFillEvenOdd, OpFillStroke,
		OpFillStrokeEvenOdd, OpCloseFillStroke, OpCloseFillStrokeEO, OpEndPath, OpClip, OpClipEvenOdd,
		OpBeginText, OpEndText, OpCharSpacing, OpWordSpacing, OpHorizScale, OpLeading, OpFont,
		OpTextRender, OpTextRise, OpTextMove, OpTextMoveLead, OpTextMatrix, OpNextLine, OpShowText,
		OpShowTextArray, OpNextLineShow, OpNextLineSpaced,
		OpGlyphWidth, OpGlyphBBox,
		OpStrokeSpace, OpFillSpace, OpStrokeColor, OpStrokeColorN, OpFillColor, OpFillColorN,
		OpStrokeGray, OpFillGray, OpStrokeRGB, OpFillRGB, OpStrokeCMYK, OpFillCMYK,
		OpShade,
		OpBeginInline, OpInlineData, OpEndInline, OpXObject,
		OpMarkPoint, OpMarkPointProps, OpBeginMarked, OpBeginMarkedProps, OpEndMarked,
		OpBeginCompat, OpEndCompat,
	} {
		knownOps[op] = struct{}{}
	}
}

// Valid reports whether op belongs to the PDF 1.7 operator set.
func (op Op) Valid() bool {
	_, ok := knownOps[op]
	return ok
}

// Operand is one value preceding an operator.
type Operand interface {
	appendTo(b *bytebuf.Buffer)
}

type Number float64

// Name is a name operand without its leading slash; it is written with '/'
// and #XX escapes. New and the helpers also accept the written form "/F1"
// and drop the one leading slash.
type Name string

type Bool bool

type String struct {
	Bytes []byte
	Hex   bool
}

type Array []Operand

// Dict wraps a dictionary operand such as a marked-content property list.
type Dict struct{ *raw.Dict }

// InlineImage is the dictionary and raw sample data of a BI/ID/EI block.
// Keys keep whatever abbreviations the stream used.
type InlineImage struct {
	Dict *raw.Dict
	Data []byte
}

func (n Number) appendTo(b *bytebuf.Buffer) { b.WriteNumber(float64(n)) }
func (n Name) appendTo(b *bytebuf.Buffer)   { b.WriteName(string(n)) }

func (v Bool) appendTo(b *bytebuf.Buffer) {
	if v {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
}

func (s String) appendTo(b *bytebuf.Buffer) {
	if s.Hex {
		b.WriteHexString(s.Bytes)
	} else {
		b.WriteLiteralString(s.Bytes)
	}
}

func (a Array) appendTo(b *bytebuf.Buffer) {
	b.WriteByte('[')
	for i, o := range a {
		if i > 0 {
			b.WriteByte(' ')
		}
		o.appendTo(b)
	}
	b.WriteByte(']')
}

func (d Dict) appendTo(b *bytebuf.Buffer) {
	if d.Dict == nil {
		b.WriteString("<<>>")
		return
	}
	raw.Append(b, d.Dict)
}

func (img InlineImage) appendTo(b *bytebuf.Buffer) {
	b.WriteString("BI")
	if img.Dict != nil {
		img.Dict.Range(func(k raw.Name, v raw.Object) bool {
			b.WriteByte(' ')
			b.WriteName(string(k))
			b.WriteByte(' ')
			raw.Append(b, v)
			return true
		})
	}
	b.WriteString(" ID\n")
	b.Write(img.Data)
	b.WriteString("\nEI")
}

// Operator is an operator code with its operands. It is immutable once
// built.
type Operator struct {
	op       Op
	operands []Operand
}

// New builds an operator, rejecting codes outside the PDF operator set.
func New(op Op, operands ...Operand) (Operator, error) {
	if !op.Valid() {
		return Operator{}, fmt.Errorf("unknown operator %q", string(op))
	}
	return Operator{op: op, operands: freeze(operands)}, nil
}

// MustNew is New for operator codes known at compile time.
func MustNew(op Op, operands ...Operand) Operator {
	o, err := New(op, operands...)
	if err != nil {
		panic(err)
	}
	return o
}

func (o Operator) Op() Op { return o.op }

// Operands returns a deep copy of the operand list.
func (o Operator) Operands() []Operand { return copyOperands(o.operands, false) }

// freeze deep-copies operands so later changes by the caller cannot reach
// an Operator. Name operands written with their leading slash lose it.
func freeze(operands []Operand) []Operand { return copyOperands(operands, true) }

func copyOperands(operands []Operand, trim bool) []Operand {
	if operands == nil {
		return nil
	}
	out := make([]Operand, len(operands))
	for i, x := range operands {
		out[i] = copyOperand(x, trim)
	}
	return out
}

func copyOperand(x Operand, trim bool) Operand {
	switch v := x.(type) {
	case Name:
		if trim {
			return Name(strings.TrimPrefix(string(v), "/"))
		}
	case String:
		return String{Bytes: append([]byte(nil), v.Bytes...), Hex: v.Hex}
	case Array:
		return Array(copyOperands(v, trim))
	case Dict:
		if v.Dict != nil {
			return Dict{raw.DeepCopy(v.Dict).(*raw.Dict)}
		}
	case InlineImage:
		img := InlineImage{Data: append([]byte(nil), v.Data...)}
		if v.Dict != nil {
			img.Dict = raw.DeepCopy(v.Dict).(*raw.Dict)
		}
		return img
	}
	return x
}

func (o Operator) appendTo(b *bytebuf.Buffer) {
	if o.op == OpBeginInline && len(o.operands) == 1 {
		if img, ok := o.operands[0].(InlineImage); ok {
			img.appendTo(b)
			return
		}
	}
	for _, x := range o.operands {
		x.appendTo(b)
		b.WriteByte(' ')
	}
	b.WriteString(string(o.op))
}

func (o Operator) Bytes() []byte {
	b := bytebuf.New(16 * (len(o.operands) + 1))
	o.appendTo(b)
	return b.Bytes()
}

func (o Operator) String() string { return string(o.Bytes()) }

func nums(vs ...float64) []Operand {
	out := make([]Operand, len(vs))
	for i, v := range vs {
		out[i] = Number(v)
	}
	return out
}

func mk(code Op, vs ...float64) Operator { return Operator{op: code, operands: nums(vs...)} }

func SaveState() Operator    { return mk(OpSave) }
func RestoreState() Operator { return mk(OpRestore) }
func ClosePath() Operator    { return mk(OpClosePath) }
func Stroke() Operator       { return mk(OpStroke) }
func Fill() Operator         { return mk(OpFill) }
func FillStroke() Operator   { return mk(OpFillStroke) }
func EndPath() Operator      { return mk(OpEndPath) }
func Clip() Operator         { return mk(OpClip) }
func BeginText() Operator    { return mk(OpBeginText) }
func EndText() Operator      { return mk(OpEndText) }
func NextLine() Operator     { return mk(OpNextLine) }

func MoveTo(x, y float64) Operator { return mk(OpMoveTo, x, y) }
func LineTo(x, y float64) Operator { return mk(OpLineTo, x, y) }

func CurveTo(x1, y1, x2, y2, x3, y3 float64) Operator {
	return mk(OpCurveTo, x1, y1, x2, y2, x3, y3)
}

func Rect(x, y, w, h float64) Operator { return mk(OpRectangle, x, y, w, h) }

// Transform concatenates m onto the current transformation matrix.
func Transform(m coords.Matrix) Operator { return mk(OpConcat, m[:]...) }

func SetLineWidth(w float64) Operator  { return mk(OpLineWidth, w) }
func SetLineCap(c LineCap) Operator    { return mk(OpLineCap, float64(c)) }
func SetLineJoin(j LineJoin) Operator  { return mk(OpLineJoin, float64(j)) }
func SetMiterLimit(m float64) Operator { return mk(OpMiterLimit, m) }

// SetDash sets the dash array and phase.
func SetDash(pattern []float64, phase float64) Operator {
	return Operator{op: OpDash, operands: []Operand{Array(nums(pattern...)), Number(phase)}}
}

func SetExtGState(name string) Operator {
	return Operator{op: OpExtGState, operands: freeze([]Operand{Name(name)})}
}

func SetGrayFill(g float64) Operator        { return mk(OpFillGray, g) }
func SetGrayStroke(g float64) Operator      { return mk(OpStrokeGray, g) }
func SetRGBFill(r, g, b float64) Operator   { return mk(OpFillRGB, r, g, b) }
func SetRGBStroke(r, g, b float64) Operator { return mk(OpStrokeRGB, r, g, b) }

func SetCMYKFill(c, m, y, k float64) Operator   { return mk(OpFillCMYK, c, m, y, k) }
func SetCMYKStroke(c, m, y, k float64) Operator { return mk(OpStrokeCMYK, c, m, y, k) }

func SetFont(name string, size float64) Operator {
	return Operator{op: OpFont, operands: freeze([]Operand{Name(name), Number(size)})}
}

func SetTextRenderMode(m TextRenderMode) Operator { return mk(OpTextRender, float64(m)) }
func SetLeading(l float64) Operator               { return mk(OpLeading, l) }
func MoveText(tx, ty float64) Operator            { return mk(OpTextMove, tx, ty) }

func SetTextMatrix(m coords.Matrix) Operator { return mk(OpTextMatrix, m[:]...) }

// ShowText shows s as a literal string; ShowTextHex as a hex string.
func ShowText(s string) Operator {
	return Operator{op: OpShowText, operands: []Operand{String{Bytes: []byte(s)}}}
}

func ShowTextHex(b []byte) Operator {
	return Operator{op: OpShowText, operands: freeze([]Operand{String{Bytes: b, Hex: true}})}
}

func DrawXObject(name string) Operator {
	return Operator{op: OpXObject, operands: freeze([]Operand{Name(name)})}
}

func BeginMarked(tag string) Operator {
	return Operator{op: OpBeginMarked, operands: freeze([]Operand{Name(tag)})}
}

// BeginMarkedProps opens a marked-content sequence with an inline property
// list.
func BeginMarkedProps(tag string, props *raw.Dict) Operator {
	return Operator{op: OpBeginMarkedProps, operands: freeze([]Operand{Name(tag), Dict{props}})}
}

func EndMarked() Operator { return mk(OpEndMarked) }

// InlineImageOp wraps an inline image as a single BI operator.
func InlineImageOp(dict *raw.Dict, data []byte) Operator {
	return Operator{op: OpBeginInline, operands: freeze([]Operand{InlineImage{Dict: dict, Data: data}})}
}
