package fit

import (
	"math"

	"github.com/cwbudde/ransacfit/internal/geom"
)

// CostFunc measures how badly a primitive explains a set of points.
type CostFunc[P geom.Curve2d] func(c P, pts []geom.Point) float64

// MSECost is the mean squared distance of pts to c. An empty point set
// costs zero.
func MSECost[P geom.Curve2d](c P, pts []geom.Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		d := c.Distance(p)
		sum += d * d
	}
	return sum / float64(len(pts))
}

// RMSError is the root of MSECost, in the units of the point coordinates.
func RMSError[P geom.Curve2d](c P, pts []geom.Point) float64 {
	return math.Sqrt(MSECost(c, pts))
}
