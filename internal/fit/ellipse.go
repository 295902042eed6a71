package fit

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/ransacfit/internal/geom"
)

// normalization maps points to a frame centered at their centroid with a
// mean distance of √2 from the origin.
type normalization struct {
	m     geom.Point
	scale float64
}

func normalize(pts []geom.Point) ([]geom.Point, normalization, bool) {
	cp, m := center(pts)
	if collinear(cp) {
		return nil, normalization{}, false
	}
	var mean float64
	for _, p := range cp {
		mean += p.Norm()
	}
	mean /= float64(len(cp))
	if mean < 1e-12 {
		return nil, normalization{}, false
	}
	s := math.Sqrt2 / mean
	for i := range cp {
		cp[i] = cp[i].Mul(s)
	}
	return cp, normalization{m: m, scale: s}, true
}

// ellipse maps a conic fitted in the normalized frame back to image
// coordinates.
func (n normalization) ellipse(a, b, c, d, e, f float64) (geom.Ellipse, bool) {
	alg, ok := geom.NewAlgebraicEllipse(a, b, c, d, e, f)
	if !ok {
		return geom.Ellipse{}, false
	}
	el, ok := alg.Geometric()
	if !ok {
		return geom.Ellipse{}, false
	}
	return geom.NewEllipse(
		el.Center.X/n.scale+n.m.X,
		el.Center.Y/n.scale+n.m.Y,
		el.Ra/n.scale,
		el.Rb/n.scale,
		el.Theta,
	)
}

// EllipseFivePoints returns the conic through the first five points, which
// must be an ellipse. It reports false if the points do not determine a
// unique conic (e.g. four of them collinear) or the conic is not an ellipse.
func EllipseFivePoints(pts []geom.Point) (geom.Ellipse, bool) {
	if len(pts) < 5 {
		return geom.Ellipse{}, false
	}
	np, norm, ok := normalize(pts[:5])
	if !ok {
		return geom.Ellipse{}, false
	}

	m := mat.NewDense(5, 6, nil)
	for i, p := range np {
		m.SetRow(i, []float64{p.X * p.X, p.X * p.Y, p.Y * p.Y, p.X, p.Y, 1})
	}

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDFull) {
		return geom.Ellipse{}, false
	}
	s := svd.Values(nil)
	if s[4] < 1e-10*s[0] {
		// null space has more than one dimension
		return geom.Ellipse{}, false
	}
	var v mat.Dense
	svd.VTo(&v)

	q := mat.Col(nil, 5, &v)
	return norm.ellipse(q[0], q[1], q[2], q[3], q[4], q[5])
}

// EllipseFitzgibbon is the direct least-squares ellipse fit of Fitzgibbon,
// Pilu and Fisher in the numerically stable form of Halíř and Flusser.
// The result is always an ellipse when the fit succeeds.
func EllipseFitzgibbon(pts []geom.Point) (geom.Ellipse, bool) {
	n := len(pts)
	if n < 5 {
		return geom.Ellipse{}, false
	}
	np, norm, ok := normalize(pts)
	if !ok {
		return geom.Ellipse{}, false
	}

	d1 := mat.NewDense(n, 3, nil)
	d2 := mat.NewDense(n, 3, nil)
	for i, p := range np {
		d1.SetRow(i, []float64{p.X * p.X, p.X * p.Y, p.Y * p.Y})
		d2.SetRow(i, []float64{p.X, p.Y, 1})
	}

	var s1, s2, s3 mat.Dense
	s1.Mul(d1.T(), d1)
	s2.Mul(d1.T(), d2)
	s3.Mul(d2.T(), d2)

	var s3inv mat.Dense
	if err := s3inv.Inverse(&s3); err != nil {
		return geom.Ellipse{}, false
	}

	// T = -S3⁻¹ S2ᵀ, M = S1 + S2 T
	var t mat.Dense
	t.Mul(&s3inv, s2.T())
	t.Scale(-1, &t)
	var m mat.Dense
	m.Mul(&s2, &t)
	m.Add(&s1, &m)

	// premultiply by C1⁻¹ = [[0 0 1/2] [0 -1 0] [1/2 0 0]]
	red := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		red.Set(0, j, m.At(2, j)/2)
		red.Set(1, j, -m.At(1, j))
		red.Set(2, j, m.At(0, j)/2)
	}

	var eig mat.Eigen
	if !eig.Factorize(red, mat.EigenRight) {
		return geom.Ellipse{}, false
	}
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	var a1 []float64
	for j := 0; j < 3; j++ {
		v := []complex128{vecs.At(0, j), vecs.At(1, j), vecs.At(2, j)}
		if !realVector(v) {
			continue
		}
		a, b, c := real(v[0]), real(v[1]), real(v[2])
		if 4*a*c-b*b > 0 {
			a1 = []float64{a, b, c}
			break
		}
	}
	if a1 == nil {
		return geom.Ellipse{}, false
	}

	var a2 mat.VecDense
	a2.MulVec(&t, mat.NewVecDense(3, a1))
	return norm.ellipse(a1[0], a1[1], a1[2], a2.AtVec(0), a2.AtVec(1), a2.AtVec(2))
}

func realVector(v []complex128) bool {
	var scale float64
	for _, c := range v {
		scale = math.Max(scale, cmplx.Abs(c))
	}
	for _, c := range v {
		if math.Abs(imag(c)) > 1e-9*scale {
			return false
		}
	}
	return scale > 0
}
