package contentstream

// TextRenderMode is the Tr operand.
type TextRenderMode int

const (
	TextFill TextRenderMode = iota
	TextStroke
	TextFillStroke
	TextInvisible
	TextFillClip
	TextStrokeClip
	TextFillStrokeClip
	TextClip
)

// LineCap is the J operand.
type LineCap int

const (
	LineCapButt LineCap = iota
	LineCapRound
	LineCapSquare
)

// LineJoin is the j operand.
type LineJoin int

const (
	LineJoinMiter LineJoin = iota
	LineJoinRound
	LineJoinBevel
)

// Path is a sequence of subpaths in user space.
type Path struct {
	Subpaths []Subpath
}

type Subpath struct {
	Points []PathPoint
	Closed bool
}

// PathPoint is one segment. Control points are used by curves only.
type PathPoint struct {
	X, Y                 float64
	Type                 PathPointType
	Control1X, Control1Y float64
	Control2X, Control2Y float64
}

type PathPointType int

const (
	PathMoveTo PathPointType = iota
	PathLineTo
	PathCurveTo
	PathClose
)

// Operators returns the construction operators for p, without a painting
// operator.
func (p Path) Operators() []Operator {
	var ops []Operator
	for _, sp := range p.Subpaths {
		for _, pt := range sp.Points {
			switch pt.Type {
			case PathMoveTo:
				ops = append(ops, MoveTo(pt.X, pt.Y))
			case PathLineTo:
				ops = append(ops, LineTo(pt.X, pt.Y))
			case PathCurveTo:
				ops = append(ops, CurveTo(pt.Control1X, pt.Control1Y, pt.Control2X, pt.Control2Y, pt.X, pt.Y))
			case PathClose:
				ops = append(ops, ClosePath())
			}
		}
		if sp.Closed {
			ops = append(ops, ClosePath())
		}
	}
	return ops
}
