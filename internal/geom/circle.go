package geom

import "math"

// Circle is given by its center and radius.
type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// NewCircle validates the parameters. It reports false for a non-positive
// or non-finite radius.
func NewCircle(xc, yc, r float64) (Circle, bool) {
	if !finite(xc, yc, r) || r <= 0 {
		return Circle{}, false
	}
	return Circle{Center: Point{X: xc, Y: yc}, Radius: r}, true
}

// Distance returns the radial deviation of p, positive outside the circle.
func (c Circle) Distance(p Point) float64 {
	return Dist(p, c.Center) - c.Radius
}

// Project returns the point on the circle closest to p. For p at the center
// any point on the circle is closest; the rightmost one is returned.
func (c Circle) Project(p Point) Point {
	v := p.Sub(c.Center)
	n := v.Norm()
	if n < 1e-12 {
		return Point{X: c.Center.X + c.Radius, Y: c.Center.Y}
	}
	return c.Center.Add(v.Mul(c.Radius / n))
}

// Algebraic returns the coefficients (A, B, C, D) of
// A*(x²+y²) + B*x + C*y + D = 0 with A = 1.
func (c Circle) Algebraic() [4]float64 {
	xc, yc, r := c.Center.X, c.Center.Y, c.Radius
	return [4]float64{1, -2 * xc, -2 * yc, xc*xc + yc*yc - r*r}
}

// CircleFromAlgebraic converts A*(x²+y²) + B*x + C*y + D = 0 to a circle.
// It reports false when the coefficients do not describe a real circle.
func CircleFromAlgebraic(a, b, c, d float64) (Circle, bool) {
	if !finite(a, b, c, d) || math.Abs(a) < 1e-15 {
		return Circle{}, false
	}
	disc := b*b + c*c - 4*a*d
	if disc <= 0 {
		return Circle{}, false
	}
	return NewCircle(-b/(2*a), -c/(2*a), math.Sqrt(disc)/(2*math.Abs(a)))
}
