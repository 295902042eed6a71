package opt

import (
	"math"
	"testing"
)

// Sphere function: f(x) = sum(x_i^2), minimum at origin
func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42)

	dim := 3
	lower := []float64{-10, -10, -10}
	upper := []float64{10, 10, 10}

	best, cost := optimizer.Run(sphere, lower, upper, dim)

	if len(best) != dim {
		t.Fatalf("Expected %d parameters, got %d", dim, len(best))
	}
	if cost > 0.1 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}
	for i, v := range best {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
}

func TestMayflyAdapterPerDimensionBounds(t *testing.T) {
	// minimum at (3, -40), inside very differently sized boxes
	shifted := func(x []float64) float64 {
		dx, dy := x[0]-3, (x[1]+40)/10
		return dx*dx + dy*dy
	}
	optimizer := NewMayfly(150, 30, 7)

	lower := []float64{0, -100}
	upper := []float64{5, 0}
	best, cost := optimizer.Run(shifted, lower, upper, 2)

	for i := range best {
		if best[i] < lower[i] || best[i] > upper[i] {
			t.Errorf("Parameter %d = %f outside [%f, %f]", i, best[i], lower[i], upper[i])
		}
	}
	if cost > 0.05 {
		t.Errorf("Expected cost near 0, got %f (best %v)", cost, best)
	}
	if math.Abs(shifted(best)-cost) > 1e-9 {
		t.Errorf("Reported cost %f does not match parameters (%f)", cost, shifted(best))
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	dim := 2
	lower := []float64{-5, -5}
	upper := []float64{5, 5}

	optimizer1 := NewMayfly(50, 20, 123)
	_, cost1 := optimizer1.Run(sphere, lower, upper, dim)

	optimizer2 := NewMayfly(50, 20, 123)
	_, cost2 := optimizer2.Run(sphere, lower, upper, dim)

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestNewMayflyRaisesPopulation(t *testing.T) {
	m := NewMayfly(10, 5, 1)
	if m.popSize != MinPopulation {
		t.Errorf("Expected popSize %d, got %d", MinPopulation, m.popSize)
	}
}
