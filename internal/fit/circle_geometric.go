package fit

import (
	"log/slog"
	"math"

	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/opt"
)

// GeometricCircleFit refines an algebraic circle by minimizing the mean
// squared geometric distance with a population optimizer. Each round
// searches a box around the current best circle that shrinks by half per
// round; rounds stop on convergence or after MaxRounds.
type GeometricCircleFit struct {
	Init         Func[geom.Circle]
	NewOptimizer func(round int) opt.Optimizer
	Convergence  ConvergenceConfig
	MaxRounds    int

	// Span is the initial half-width of the search box as a fraction of the
	// initial radius.
	Span float64
}

// NewGeometricCircleFit returns a refinement seeded by CircleHyper that runs
// mayfly with the given iteration budget and population per round.
func NewGeometricCircleFit(iters, popSize int, seed int64) *GeometricCircleFit {
	return &GeometricCircleFit{
		Init: CircleHyper,
		NewOptimizer: func(round int) opt.Optimizer {
			return opt.NewMayfly(iters, popSize, seed+int64(round))
		},
		Convergence: DefaultConvergenceConfig(),
		MaxRounds:   4,
		Span:        0.25,
	}
}

// Fit implements Func[geom.Circle]. The result is never worse than the
// initial algebraic fit.
func (g *GeometricCircleFit) Fit(pts []geom.Point) (geom.Circle, bool) {
	init, ok := g.Init(pts)
	if !ok {
		init, ok = CircleKasa(pts)
		if !ok {
			return geom.Circle{}, false
		}
	}

	best := init
	bestCost := MSECost(best, pts)
	tracker := NewConvergenceTracker(g.Convergence)
	if tracker.Update(bestCost) {
		return best, true
	}

	span := math.Max(g.Span*init.Radius, 1)
	for round := 0; round < g.MaxRounds; round++ {
		base := best
		lower := []float64{-span, -span, -math.Min(span, 0.99*base.Radius)}
		upper := []float64{span, span, span}

		eval := func(d []float64) float64 {
			c := geom.Circle{
				Center: geom.Pt(base.Center.X+d[0], base.Center.Y+d[1]),
				Radius: base.Radius + d[2],
			}
			return MSECost(c, pts)
		}
		delta, cost := g.NewOptimizer(round).Run(eval, lower, upper, 3)
		if cost < bestCost {
			if c, ok := geom.NewCircle(base.Center.X+delta[0], base.Center.Y+delta[1], base.Radius+delta[2]); ok {
				best, bestCost = c, cost
			}
		}
		if tracker.Update(bestCost) {
			break
		}
		span /= 2
	}

	slog.Debug("Geometric circle refinement",
		"initial_cost", MSECost(init, pts),
		"final_cost", bestCost,
		"rounds", len(tracker.History())-1,
	)
	return best, true
}
