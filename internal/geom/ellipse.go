package geom

import "math"

const (
	projectMinStep  = 1e-6
	projectMaxIters = 100
)

// Ellipse is an ellipse in geometric form: center, semi-axes Ra >= Rb > 0
// and orientation Theta of the major axis in [0, π).
type Ellipse struct {
	Center Point   `json:"center"`
	Ra     float64 `json:"ra"`
	Rb     float64 `json:"rb"`
	Theta  float64 `json:"theta"`
}

// NewEllipse normalizes the parameters so that Ra >= Rb and Theta lies in
// [0, π). It reports false for non-positive or non-finite axes.
func NewEllipse(xc, yc, ra, rb, theta float64) (Ellipse, bool) {
	if !finite(xc, yc, ra, rb, theta) || ra <= 0 || rb <= 0 {
		return Ellipse{}, false
	}
	if ra < rb {
		ra, rb = rb, ra
		theta += math.Pi / 2
	}
	theta = math.Mod(theta, math.Pi)
	if theta < 0 {
		theta += math.Pi
	}
	return Ellipse{Center: Point{X: xc, Y: yc}, Ra: ra, Rb: rb, Theta: theta}, true
}

// toCanonical maps p into the ellipse frame (center at origin, major axis
// along x).
func (e Ellipse) toCanonical(p Point) (u, v float64) {
	c, s := math.Cos(e.Theta), math.Sin(e.Theta)
	dx, dy := p.X-e.Center.X, p.Y-e.Center.Y
	return c*dx + s*dy, -s*dx + c*dy
}

func (e Ellipse) fromCanonical(u, v float64) Point {
	c, s := math.Cos(e.Theta), math.Sin(e.Theta)
	return Point{X: c*u - s*v + e.Center.X, Y: s*u + c*v + e.Center.Y}
}

// Project returns the point on the ellipse closest to p (orthogonal
// projection). The Newton iteration runs in the first quadrant of the
// canonical frame and is capped; on non-convergence the last estimate is used.
func (e Ellipse) Project(p Point) Point {
	u, v := e.toCanonical(p)
	su, sv := math.Copysign(1, u), math.Copysign(1, v)
	u, v = math.Abs(u), math.Abs(v)

	ra, rb := e.Ra, e.Rb
	ra2, rb2 := ra*ra, rb*rb

	var pu, pv float64
	switch {
	case u+v < 1e-6:
		pu, pv = 0, rb
	case v < 1e-9 && ra2 > rb2 && u < (ra2-rb2)/ra:
		// on the major axis inside the evolute the closest point leaves the axis
		pu = ra2 * u / (ra2 - rb2)
		pv = rb * math.Sqrt(math.Max(0, 1-(pu/ra)*(pu/ra)))
	default:
		t := math.Max(ra*u-ra2, rb*v-rb2)
		gPrev := math.Inf(1)
		for k := 0; k < projectMaxIters; k++ {
			au := ra * u / (t + ra2)
			bv := rb * v / (t + rb2)
			g := au*au + bv*bv - 1
			dg := 2 * ((ra*u)*(ra*u)/math.Pow(t+ra2, 3) + (rb*v)*(rb*v)/math.Pow(t+rb2, 3))
			if dg == 0 {
				break
			}
			dt := g / dg
			t += dt
			// g can be very flat, so the change of g is checked as well
			dG := g - gPrev
			gPrev = g
			if math.Abs(dt) <= projectMinStep || math.Abs(dG) <= projectMinStep {
				break
			}
		}
		pu, pv = ra2*u/(t+ra2), rb2*v/(t+rb2)
	}
	return e.fromCanonical(su*pu, sv*pv)
}

// Distance returns the orthogonal distance of p to the ellipse contour,
// positive outside and negative inside.
func (e Ellipse) Distance(p Point) float64 {
	d := Dist(p, e.Project(p))
	u, v := e.toCanonical(p)
	if (u*u)/(e.Ra*e.Ra)+(v*v)/(e.Rb*e.Rb) < 1 {
		return -d
	}
	return d
}

// PointAt returns the contour point at parameter angle t.
func (e Ellipse) PointAt(t float64) Point {
	return e.fromCanonical(e.Ra*math.Cos(t), e.Rb*math.Sin(t))
}

// Algebraic returns the conic coefficients (A, B, C, D, E, F) of
// A*x² + B*x*y + C*y² + D*x + E*y + F = 0, normalized to unit length.
func (e Ellipse) Algebraic() AlgebraicEllipse {
	xc, yc := e.Center.X, e.Center.Y
	ra2, rb2 := e.Ra*e.Ra, e.Rb*e.Rb
	c, s := math.Cos(e.Theta), math.Sin(e.Theta)
	c2, s2 := c*c, s*s

	a := ra2*s2 + rb2*c2
	b := 2 * (rb2 - ra2) * s * c
	cc := ra2*c2 + rb2*s2
	d := -2*a*xc - b*yc
	ee := -b*xc - 2*cc*yc
	f := a*xc*xc + b*xc*yc + cc*yc*yc - ra2*rb2
	alg, _ := NewAlgebraicEllipse(a, b, cc, d, ee, f)
	return alg
}

// AlgebraicEllipse is a conic A*x² + B*x*y + C*y² + D*x + E*y + F = 0
// with B² - 4AC < 0 and unit-norm coefficient vector.
type AlgebraicEllipse struct {
	A, B, C, D, E, F float64
}

// NewAlgebraicEllipse normalizes the coefficients and checks the ellipse
// condition. The sign is fixed so that A is non-negative.
func NewAlgebraicEllipse(a, b, c, d, e, f float64) (AlgebraicEllipse, bool) {
	if !finite(a, b, c, d, e, f) {
		return AlgebraicEllipse{}, false
	}
	if b*b-4*a*c >= 0 {
		return AlgebraicEllipse{}, false
	}
	n := math.Sqrt(a*a + b*b + c*c + d*d + e*e + f*f)
	if a < 0 {
		n = -n
	}
	return AlgebraicEllipse{A: a / n, B: b / n, C: c / n, D: d / n, E: e / n, F: f / n}, true
}

// Geometric converts the conic to center/axes/orientation form. It reports
// false for imaginary or degenerate ellipses.
func (ae AlgebraicEllipse) Geometric() (Ellipse, bool) {
	A, B, C, D, E, F := ae.A, ae.B, ae.C, ae.D, ae.E, ae.F

	p := B*B - 4*A*C
	if p >= 0 {
		return Ellipse{}, false
	}
	q := math.Hypot(A-C, B)
	s := 2 * (A*E*E + C*D*D + F*B*B - B*D*E - 4*A*C*F)

	xc := (2*C*D - B*E) / p
	yc := (2*A*E - B*D) / p

	ra2 := s / (p * (-A - C + q))
	rb2 := s / (p * (-A - C - q))
	if !(ra2 > 0) || !(rb2 > 0) {
		return Ellipse{}, false
	}
	theta := 0.5 * math.Atan2(-B, C-A)
	return NewEllipse(xc, yc, math.Sqrt(ra2), math.Sqrt(rb2), theta)
}
