package contentstream

import (
	"math"

	"github.com/wudi/pdfcore/coords"
)

// OpBBox is the device-space extent painted by the operator at OpIndex.
type OpBBox struct {
	OpIndex int
	Rect    coords.Rect
}

// Trace replays ops and returns the extent of every path painting, XObject
// and inline image operator. Text is not measured since that needs font
// metrics. Strokes are widened by half the line width.
func Trace(ops []Operator) ([]OpBBox, error) {
	gs := NewGraphicsState()
	var (
		out  []OpBBox
		path []coords.Point
	)
	add := func(pts ...coords.Point) {
		for _, p := range pts {
			path = append(path, gs.CTM.Transform(p))
		}
	}
	for i, o := range ops {
		v := o.numbers()
		switch o.op {
		case OpSave:
			gs.Save()
		case OpRestore:
			if err := gs.Restore(); err != nil {
				return nil, err
			}
		case OpConcat:
			if len(v) == 6 {
				gs.CTM = coords.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}.Multiply(gs.CTM)
			}
		case OpLineWidth:
			if len(v) == 1 {
				gs.LineWidth = v[0]
			}
		case OpMoveTo, OpLineTo:
			if len(v) == 2 {
				add(coords.Point{X: v[0], Y: v[1]})
			}
		case OpCurveTo:
			if len(v) == 6 {
				add(coords.Point{X: v[0], Y: v[1]}, coords.Point{X: v[2], Y: v[3]}, coords.Point{X: v[4], Y: v[5]})
			}
		case OpCurveToV, OpCurveToY:
			if len(v) == 4 {
				add(coords.Point{X: v[0], Y: v[1]}, coords.Point{X: v[2], Y: v[3]})
			}
		case OpRectangle:
			if len(v) == 4 {
				x, y, w, h := v[0], v[1], v[2], v[3]
				add(coords.Point{X: x, Y: y}, coords.Point{X: x + w, Y: y},
					coords.Point{X: x, Y: y + h}, coords.Point{X: x + w, Y: y + h})
			}
		case OpStroke, OpCloseStroke, OpFillStroke, OpFillStrokeEvenOdd, OpCloseFillStroke, OpCloseFillStrokeEO:
			if len(path) > 0 {
				r := coords.Bounds(path...)
				out = append(out, OpBBox{OpIndex: i, Rect: widen(r, gs)})
			}
			path = path[:0]
		case OpFill, OpFillCompat, OpFillEvenOdd:
			if len(path) > 0 {
				out = append(out, OpBBox{OpIndex: i, Rect: coords.Bounds(path...)})
			}
			path = path[:0]
		case OpEndPath:
			path = path[:0]
		case OpXObject, OpBeginInline:
			// Images and forms paint into the unit square mapped by the CTM.
			unit := coords.Rect{LLX: 0, LLY: 0, URX: 1, URY: 1}
			out = append(out, OpBBox{OpIndex: i, Rect: unit.Transform(gs.CTM)})
		}
	}
	return out, nil
}

// Bounds is the union of every extent Trace reports.
func Bounds(ops []Operator) (coords.Rect, error) {
	boxes, err := Trace(ops)
	if err != nil {
		return coords.Rect{}, err
	}
	var r coords.Rect
	for _, b := range boxes {
		r = r.Union(b.Rect)
	}
	return r, nil
}

func widen(r coords.Rect, gs *GraphicsState) coords.Rect {
	// Scale the half width by the CTM's larger axis factor.
	m := gs.CTM
	sx := math.Hypot(m[0], m[1])
	sy := math.Hypot(m[2], m[3])
	hw := gs.LineWidth / 2 * math.Max(sx, sy)
	return coords.Rect{LLX: r.LLX - hw, LLY: r.LLY - hw, URX: r.URX + hw, URY: r.URY + hw}
}

// numbers returns the operands as floats when all of them are numbers.
func (o Operator) numbers() []float64 {
	out := make([]float64, 0, len(o.operands))
	for _, x := range o.operands {
		n, ok := x.(Number)
		if !ok {
			return nil
		}
		out = append(out, float64(n))
	}
	return out
}
