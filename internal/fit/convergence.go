package fit

import (
	"log/slog"
	"math"
)

// ConvergenceConfig controls when an iterative refinement stops early.
type ConvergenceConfig struct {
	Enabled bool

	// Patience is the number of rounds without significant improvement
	// after which the refinement is considered converged.
	Patience int

	// Threshold is the minimum relative improvement (old-new)/old that
	// counts as progress.
	Threshold float64
}

// DefaultConvergenceConfig returns the defaults used by the geometric fits.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  2,
		Threshold: 1e-3,
	}
}

// ConvergenceTracker records the cost of each refinement round and detects
// when progress has stalled.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	costHistory     []float64
	bestCost        float64
	lastSignificant float64
	staleCount      int
}

// NewConvergenceTracker creates a tracker with the given config.
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		bestCost:        math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records a new cost and reports whether the refinement has converged.
func (c *ConvergenceTracker) Update(cost float64) bool {
	c.costHistory = append(c.costHistory, cost)
	if cost < c.bestCost {
		c.bestCost = cost
	}
	if !c.config.Enabled {
		return false
	}

	if len(c.costHistory) == 1 {
		c.lastSignificant = cost
		return cost == 0
	}

	improvement := 0.0
	if c.lastSignificant > 0 {
		improvement = (c.lastSignificant - cost) / c.lastSignificant
	}
	if improvement >= c.config.Threshold {
		c.lastSignificant = cost
		c.staleCount = 0
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience {
		slog.Debug("Refinement converged",
			"rounds", len(c.costHistory),
			"best_cost", c.bestCost,
		)
		return true
	}
	return false
}

// BestCost returns the lowest cost seen so far.
func (c *ConvergenceTracker) BestCost() float64 {
	return c.bestCost
}

// History returns a copy of all recorded costs.
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.costHistory...)
}

// StaleCount returns the number of rounds since the last significant improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker's state.
func (c *ConvergenceTracker) Reset() {
	c.costHistory = nil
	c.bestCost = math.Inf(1)
	c.lastSignificant = math.Inf(1)
	c.staleCount = 0
}
