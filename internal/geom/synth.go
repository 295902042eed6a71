package geom

import (
	"math"
	"math/rand"
)

// SampleLine returns n points on the segment from p to q, each perturbed
// by uniform noise in [-noise, noise] per coordinate.
func SampleLine(rng *rand.Rand, p, q Point, n int, noise float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		t := rng.Float64()
		pts[i] = Point{
			X: p.X + t*(q.X-p.X) + jitter(rng, noise),
			Y: p.Y + t*(q.Y-p.Y) + jitter(rng, noise),
		}
	}
	return pts
}

// SampleCircle returns n points at uniformly random angles on c with radial
// noise in [-noise, noise].
func SampleCircle(rng *rand.Rand, c Circle, n int, noise float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		a := rng.Float64() * 2 * math.Pi
		r := c.Radius + jitter(rng, noise)
		pts[i] = Point{X: c.Center.X + r*math.Cos(a), Y: c.Center.Y + r*math.Sin(a)}
	}
	return pts
}

// SampleEllipse returns n points at uniformly random parameter angles on e,
// each perturbed by uniform noise in [-noise, noise] per coordinate.
func SampleEllipse(rng *rand.Rand, e Ellipse, n int, noise float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		p := e.PointAt(rng.Float64() * 2 * math.Pi)
		pts[i] = Point{X: p.X + jitter(rng, noise), Y: p.Y + jitter(rng, noise)}
	}
	return pts
}

// SampleUniform returns n points uniformly distributed in the rectangle
// spanned by min and max.
func SampleUniform(rng *rand.Rand, min, max Point, n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			X: min.X + rng.Float64()*(max.X-min.X),
			Y: min.Y + rng.Float64()*(max.Y-min.Y),
		}
	}
	return pts
}

func jitter(rng *rand.Rand, noise float64) float64 {
	if noise == 0 {
		return 0
	}
	return (2*rng.Float64() - 1) * noise
}
