package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MinPopulation is the smallest population the mayfly library accepts.
const MinPopulation = 20

// MayflyAdapter runs the mayfly algorithm behind the Optimizer interface.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly optimizer. popSize is raised to MinPopulation
// if smaller.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	if popSize < MinPopulation {
		popSize = MinPopulation
	}
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run searches the unit cube and maps each coordinate linearly onto
// [lower[i], upper[i]], since the library only supports scalar bounds.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	toBox := func(u []float64) []float64 {
		scaled := make([]float64, dim)
		for i := 0; i < dim; i++ {
			t := u[i]
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			scaled[i] = lower[i] + t*(upper[i]-lower[i])
		}
		return scaled
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 {
		return eval(toBox(u))
	}
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		// fall back to the box center
		slog.Warn("Mayfly optimization failed", "error", err)
		mid := make([]float64, dim)
		for i := range mid {
			mid[i] = 0.5
		}
		best := toBox(mid)
		return best, eval(best)
	}

	best := toBox(result.GlobalBest.Position)
	return best, result.GlobalBest.Cost
}
