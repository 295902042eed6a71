package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/ransacfit/internal/geom"
)

// collinearTol bounds |sin| of the angle at the first point below which
// three points are treated as collinear.
const collinearTol = 1e-9

// CircleThreePoints returns the circle through the first three points. It
// reports false if any two coincide or all three are collinear.
func CircleThreePoints(pts []geom.Point) (geom.Circle, bool) {
	if len(pts) < 3 {
		return geom.Circle{}, false
	}
	p0 := pts[0]
	b := pts[1].Sub(p0)
	c := pts[2].Sub(p0)

	cross := b.Cross(c)
	if math.Abs(cross) <= collinearTol*b.Norm()*c.Norm() {
		return geom.Circle{}, false
	}

	d := 2 * cross
	bb := b.Dot(b)
	cc := c.Dot(c)
	ux := (c.Y*bb - b.Y*cc) / d
	uy := (b.X*cc - c.X*bb) / d
	return geom.NewCircle(p0.X+ux, p0.Y+uy, math.Hypot(ux, uy))
}

// CircleKasa is the Kåsa fit: linear least squares on
// x² + y² + B*x + C*y + D = 0, solved by QR on centered data. It is fast
// but biased toward small radii on short arcs.
func CircleKasa(pts []geom.Point) (geom.Circle, bool) {
	n := len(pts)
	if n < 3 {
		return geom.Circle{}, false
	}
	cp, m := center(pts)
	if collinear(cp) {
		return geom.Circle{}, false
	}

	a := mat.NewDense(n, 3, nil)
	z := mat.NewVecDense(n, nil)
	for i, p := range cp {
		a.Set(i, 0, p.X)
		a.Set(i, 1, p.Y)
		a.Set(i, 2, 1)
		z.SetVec(i, -(p.X*p.X + p.Y*p.Y))
	}

	var qr mat.QR
	qr.Factorize(a)
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, z); err != nil {
		return geom.Circle{}, false
	}
	return circleFromCentered(1, x.AtVec(0), x.AtVec(1), x.AtVec(2), m)
}

var (
	prattInv = mat.NewSymDense(4, []float64{
		0, 0, 0, -0.5,
		0, 1, 0, 0,
		0, 0, 1, 0,
		-0.5, 0, 0, 0,
	})
)

// CirclePratt is Pratt's algebraic fit, computed with the SVD method.
func CirclePratt(pts []geom.Point) (geom.Circle, bool) {
	return svdCircleFit(pts, func(float64) mat.Symmetric { return prattInv })
}

// CircleHyper is Al-Sharadqah and Chernov's hyperaccurate algebraic fit,
// computed with the SVD method. It has no essential bias and is the
// default final fit for circles.
func CircleHyper(pts []geom.Point) (geom.Circle, bool) {
	return svdCircleFit(pts, func(zMean float64) mat.Symmetric {
		return mat.NewSymDense(4, []float64{
			0, 0, 0, 0.5,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0.5, 0, 0, -2 * zMean,
		})
	})
}

// svdCircleFit minimizes AᵀMA subject to AᵀNA = 1 for the circle
// A*z + B*x + C*y + D = 0 (z = x² + y²) on centered data. nInv returns
// the inverse constraint matrix for the given mean of z.
func svdCircleFit(pts []geom.Point, nInv func(zMean float64) mat.Symmetric) (geom.Circle, bool) {
	n := len(pts)
	if n < 3 {
		return geom.Circle{}, false
	}
	cp, m := center(pts)
	if collinear(cp) {
		return geom.Circle{}, false
	}

	rows := n
	if rows < 4 {
		rows = 4
	}
	zm := mat.NewDense(rows, 4, nil)
	var zMean float64
	for i, p := range cp {
		z := p.X*p.X + p.Y*p.Y
		zMean += z
		zm.Set(i, 0, z)
		zm.Set(i, 1, p.X)
		zm.Set(i, 2, p.Y)
		zm.Set(i, 3, 1)
	}
	zMean /= float64(n)

	var svd mat.SVD
	if !svd.Factorize(zm, mat.SVDFull) {
		return geom.Circle{}, false
	}
	s := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	var coef [4]float64
	if s[3]/s[0] < 1e-12 {
		// exact interpolation, the null vector is the solution
		for i := range coef {
			coef[i] = v.At(i, 3)
		}
		return circleFromCentered(coef[0], coef[1], coef[2], coef[3], m)
	}

	// Y = V S Vᵀ, solve the eigenproblem of Y N⁻¹ Y
	sd := mat.NewDiagDense(4, s)
	var y mat.Dense
	y.Product(&v, sd, v.T())

	var ynY mat.Dense
	ynY.Product(&y, nInv(zMean), &y)
	sym := mat.NewSymDense(4, nil)
	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			sym.SetSym(i, j, 0.5*(ynY.At(i, j)+ynY.At(j, i)))
		}
	}

	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return geom.Circle{}, false
	}
	vals := es.Values(nil)
	pick := -1
	for i, ev := range vals {
		if ev > 0 {
			pick = i
			break
		}
	}
	if pick < 0 {
		return geom.Circle{}, false
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// A = V S⁻¹ Vᵀ e
	e := mat.NewVecDense(4, mat.Col(nil, pick, &vecs))
	inv := make([]float64, 4)
	for i := range s {
		inv[i] = 1 / s[i]
	}
	var vte, scaled, a mat.VecDense
	vte.MulVec(v.T(), e)
	scaled.MulVec(mat.NewDiagDense(4, inv), &vte)
	a.MulVec(&v, &scaled)
	return circleFromCentered(a.AtVec(0), a.AtVec(1), a.AtVec(2), a.AtVec(3), m)
}

// circleFromCentered converts algebraic parameters fitted on data centered
// at m back to a circle in the original frame.
func circleFromCentered(a, b, c, d float64, m geom.Point) (geom.Circle, bool) {
	if !isFinite(a, b, c, d) {
		return geom.Circle{}, false
	}
	norm := math.Sqrt(a*a + b*b + c*c + d*d)
	if norm == 0 || math.Abs(a) < 1e-12*norm {
		// the solution is a line
		return geom.Circle{}, false
	}
	circ, ok := geom.CircleFromAlgebraic(a, b, c, d)
	if !ok {
		return geom.Circle{}, false
	}
	return geom.NewCircle(circ.Center.X+m.X, circ.Center.Y+m.Y, circ.Radius)
}
