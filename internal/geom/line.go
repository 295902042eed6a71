package geom

import "math"

// Line is a straight line in normal form a*x + b*y + c = 0 with a² + b² = 1.
// The zero value is not a valid line; use NewLine or LineThrough.
type Line struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// NewLine normalizes the coefficients so that (A, B) is a unit normal.
// It reports false if a and b are both zero or any coefficient is not finite.
func NewLine(a, b, c float64) (Line, bool) {
	if !finite(a, b, c) {
		return Line{}, false
	}
	s := math.Hypot(a, b)
	if s < 1e-12 {
		return Line{}, false
	}
	return Line{A: a / s, B: b / s, C: c / s}, true
}

// LineThrough returns the line passing through p and q.
// It reports false if the points coincide.
func LineThrough(p, q Point) (Line, bool) {
	a := p.Y - q.Y
	b := q.X - p.X
	c := -a*p.X - b*p.Y
	return NewLine(a, b, c)
}

// Distance returns the signed perpendicular distance of p to the line.
// Points on the side the normal (A, B) points to are positive.
func (l Line) Distance(p Point) float64 {
	return l.A*p.X + l.B*p.Y + l.C
}

// Project returns the point on the line closest to p.
func (l Line) Project(p Point) Point {
	d := l.Distance(p)
	return Point{X: p.X - d*l.A, Y: p.Y - d*l.B}
}

// Angle returns the direction of the normal vector in radians.
func (l Line) Angle() float64 {
	return math.Atan2(l.B, l.A)
}

// SlopeIntercept returns m and t of y = m*x + t. It reports false for
// (nearly) vertical lines.
func (l Line) SlopeIntercept() (m, t float64, ok bool) {
	if math.Abs(l.B) < 1e-12 {
		return 0, 0, false
	}
	return -l.A / l.B, -l.C / l.B, true
}
