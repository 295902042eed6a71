// Package fit implements the algebraic and geometric fitting strategies for
// lines, circles and ellipses.
//
// Every strategy is a plain function from a point slice to a primitive plus
// an ok flag. ok == false means "no fit": too few points, a degenerate
// configuration, a singular system or a non-finite result. Strategies never
// panic on degenerate input and never return NaN or Inf parameters.
//
// Minimal strategies interpolate exactly k points (2 for lines, 3 for
// circles, 5 for ellipses); final strategies are least-squares fits over
// an arbitrary number of points.
package fit

import (
	"math"

	"github.com/cwbudde/ransacfit/internal/geom"
)

// Func fits a primitive of type P to a set of points.
type Func[P geom.Curve2d] func(pts []geom.Point) (P, bool)

// center returns pts shifted by their centroid, plus the centroid.
func center(pts []geom.Point) ([]geom.Point, geom.Point) {
	m := geom.Centroid(pts)
	out := make([]geom.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Sub(m)
	}
	return out, m
}

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// collinear reports whether centered points lie (numerically) on a line,
// including the case of all points coinciding.
func collinear(cp []geom.Point) bool {
	var sxx, sxy, syy float64
	for _, p := range cp {
		sxx += p.X * p.X
		sxy += p.X * p.Y
		syy += p.Y * p.Y
	}
	tr := sxx + syy
	root := math.Hypot(sxx-syy, 2*sxy)
	lmax := (tr + root) / 2
	lmin := (tr - root) / 2
	return lmin <= 1e-12*lmax
}
