// Package geom holds the 2D primitives fitted by the detectors and the
// point set they are extracted from.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point is a 2D point in image coordinates.
type Point = r2.Point

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return a.Sub(b).Norm()
}

// Curve2d is any fitted primitive that can report the distance of a query
// point to itself. Lines report a signed distance; callers that classify
// inliers compare the absolute value.
type Curve2d interface {
	Distance(p Point) float64
}

// Centroid returns the mean of pts. It returns the zero point for an empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Point{X: sx / n, Y: sy / n}
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
