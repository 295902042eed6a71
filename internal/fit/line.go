package fit

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/ransacfit/internal/geom"
)

// LineTwoPoints returns the line through the first two points.
func LineTwoPoints(pts []geom.Point) (geom.Line, bool) {
	if len(pts) < 2 {
		return geom.Line{}, false
	}
	return geom.LineThrough(pts[0], pts[1])
}

// LineOrthogonal returns the total least-squares line: the unit normal is
// the eigenvector of the scatter matrix with the smallest eigenvalue, and
// the line passes through the centroid.
func LineOrthogonal(pts []geom.Point) (geom.Line, bool) {
	if len(pts) < 2 {
		return geom.Line{}, false
	}
	cp, m := center(pts)

	var sxx, sxy, syy float64
	for _, p := range cp {
		sxx += p.X * p.X
		sxy += p.X * p.Y
		syy += p.Y * p.Y
	}

	var es mat.EigenSym
	if !es.Factorize(mat.NewSymDense(2, []float64{sxx, sxy, sxy, syy}), true) {
		return geom.Line{}, false
	}
	vals := es.Values(nil)
	if vals[1] < 1e-12 {
		// all points coincide
		return geom.Line{}, false
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	a, b := vecs.At(0, 0), vecs.At(1, 0)
	return geom.NewLine(a, b, -a*m.X-b*m.Y)
}
