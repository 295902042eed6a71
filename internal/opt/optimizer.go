// Package opt provides derivative-free optimizers used to refine fitted
// primitives by minimizing their geometric error.
package opt

// Optimizer minimizes an objective over a box.
type Optimizer interface {
	// Run minimizes eval within [lower[i], upper[i]] for each of the dim
	// parameters and returns the best parameters and their cost.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
