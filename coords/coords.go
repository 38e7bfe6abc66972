// Package coords holds the affine matrices and rectangles of PDF user space.
package coords

import (
	"errors"
	"math"
)

// Matrix is [a b c d e f], mapping (x, y) to (ax+cy+e, bx+dy+f).
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Multiply returns m followed by o, the order PDF uses when a cm operator
// concatenates m onto the current matrix o.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

type Point struct{ X, Y float64 }

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det, (m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

func (m Matrix) IsIdentity() bool { return m == Identity() }

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

// Rotate returns a counter-clockwise rotation by angle radians.
func Rotate(angle float64) Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix{c, s, -s, c, 0, 0}
}

// Rect is an axis-aligned rectangle given by its lower-left and upper-right
// corners.
type Rect struct {
	LLX, LLY, URX, URY float64
}

func (r Rect) Width() float64  { return r.URX - r.LLX }
func (r Rect) Height() float64 { return r.URY - r.LLY }
func (r Rect) Empty() bool     { return r.URX <= r.LLX || r.URY <= r.LLY }

// Bounds returns the smallest Rect holding every point.
func Bounds(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{LLX: pts[0].X, LLY: pts[0].Y, URX: pts[0].X, URY: pts[0].Y}
	for _, p := range pts[1:] {
		r.LLX = math.Min(r.LLX, p.X)
		r.LLY = math.Min(r.LLY, p.Y)
		r.URX = math.Max(r.URX, p.X)
		r.URY = math.Max(r.URY, p.Y)
	}
	return r
}

// Union returns the smallest Rect containing r and o. An empty operand is
// ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		LLX: math.Min(r.LLX, o.LLX), LLY: math.Min(r.LLY, o.LLY),
		URX: math.Max(r.URX, o.URX), URY: math.Max(r.URY, o.URY),
	}
}

// Transform maps the four corners of r through m and returns their bounds.
func (r Rect) Transform(m Matrix) Rect {
	return Bounds(
		m.Transform(Point{r.LLX, r.LLY}),
		m.Transform(Point{r.URX, r.LLY}),
		m.Transform(Point{r.LLX, r.URY}),
		m.Transform(Point{r.URX, r.URY}),
	)
}

// Intersects reports whether r and o share any point, edges included.
func (r Rect) Intersects(o Rect) bool {
	return o.LLX <= r.URX && o.URX >= r.LLX && o.LLY <= r.URY && o.URY >= r.LLY
}

func (r Rect) Contains(o Rect) bool {
	return o.LLX >= r.LLX && o.URX <= r.URX && o.LLY >= r.LLY && o.URY <= r.URY
}
