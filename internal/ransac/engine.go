package ransac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/cwbudde/ransacfit/internal/fit"
	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/sample"
)

// DefaultSeed seeds engines created without WithSeed or WithRand.
const DefaultSeed = 17

// DrawFilter accepts or rejects a drawn minimal sample before fitting.
type DrawFilter func(pts []geom.Point) bool

// Engine runs RANSAC for primitives of type P. An Engine owns its random
// source and is not safe for concurrent use.
type Engine[P geom.Curve2d] struct {
	k       int
	minimal fit.Func[P]
	final   fit.Func[P]
	filter  DrawFilter
	cfg     Config
	rng     *rand.Rand
	sampler *sample.UniqueSampler
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	filter DrawFilter
	rng    *rand.Rand
	logger *slog.Logger
}

// WithDrawFilter rejects draws for which f returns false.
func WithDrawFilter(f DrawFilter) Option {
	return func(o *options) { o.filter = f }
}

// WithSeed seeds the engine's random source.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand makes the engine draw from rng.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an engine drawing k points per iteration. It panics if k is
// not positive or a fit function is nil; invalid configuration values are
// reported by Next.
func New[P geom.Curve2d](k int, minimal, final fit.Func[P], cfg Config, opts ...Option) *Engine[P] {
	if minimal == nil || final == nil {
		panic("ransac: nil fit function")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(DefaultSeed))
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Engine[P]{
		k:       k,
		minimal: minimal,
		final:   final,
		filter:  o.filter,
		cfg:     cfg,
		rng:     o.rng,
		sampler: sample.New(k, o.rng),
		logger:  o.logger,
	}
}

// K returns the minimal sample size.
func (e *Engine[P]) K() int { return e.k }

// Config returns the engine's configuration.
func (e *Engine[P]) Config() Config { return e.cfg }

// SetRandomSeed resets the random source, making subsequent runs
// reproducible.
func (e *Engine[P]) SetRandomSeed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
	e.sampler = sample.New(e.k, e.rng)
}

// candidate is the best hypothesis of a search.
type candidate[P geom.Curve2d] struct {
	draw      []int
	primitive P
	score     int
}

// Next extracts the best-supported primitive from the present points of
// ps. With removeInliers set, the inliers of the found primitive are marked
// absent before the final fit.
func (e *Engine[P]) Next(ctx context.Context, ps *geom.PointSet, removeInliers bool) (*Result[P], bool, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, false, err
	}
	if c := ps.Count(); c < e.k {
		return nil, false, fmt.Errorf("%w: need %d, have %d", ErrInsufficientPoints, e.k, c)
	}

	best, stats, err := e.search(ctx, ps)
	if err != nil {
		return nil, false, err
	}
	if best == nil {
		e.logger.Debug("No primitive found",
			"iterations", stats.Iterations,
			"rejected_draws", stats.RejectedDraws,
			"degenerate_fits", stats.DegenerateFits,
		)
		return nil, false, nil
	}

	inliers := Inliers(best.primitive, ps, e.cfg.DistanceThreshold)
	inlierPoints := ps.Points(inliers)
	if removeInliers {
		ps.Remove(inliers...)
	}

	final, ok := e.final(inlierPoints)
	if !ok {
		e.logger.Warn("Final fit failed", "score", best.score, "inliers", len(inliers))
		return nil, false, &FinalFitError[P]{
			Draw:    best.draw,
			Initial: best.primitive,
			Score:   best.score,
			Inliers: inliers,
			Removed: removeInliers,
		}
	}

	e.logger.Debug("Primitive found",
		"score", best.score,
		"inliers", len(inliers),
		"iterations", stats.Iterations,
	)
	return &Result[P]{
		Draw:         best.draw,
		DrawPoints:   ps.Points(best.draw),
		Initial:      best.primitive,
		Final:        final,
		Score:        best.score,
		Inliers:      inliers,
		InlierPoints: inlierPoints,
		Stats:        stats,
	}, true, nil
}

// Extract runs Next with inlier removal until no further primitive is found,
// too few points remain or max results were collected (0 means no limit).
// A final-fit failure ends the extraction and is returned with the results
// found so far.
func (e *Engine[P]) Extract(ctx context.Context, ps *geom.PointSet, max int) ([]*Result[P], error) {
	var results []*Result[P]
	for max <= 0 || len(results) < max {
		res, ok, err := e.Next(ctx, ps, true)
		if errors.Is(err, ErrInsufficientPoints) {
			break
		}
		if err != nil {
			return results, err
		}
		if !ok {
			break
		}
		results = append(results, res)
	}
	return results, nil
}

// Inliers returns the indices of the present points of ps whose absolute
// distance to c is strictly below threshold.
func Inliers[P geom.Curve2d](c P, ps *geom.PointSet, threshold float64) []int {
	var out []int
	for i := 0; i < ps.Len(); i++ {
		if ps.Present(i) && math.Abs(c.Distance(ps.At(i))) < threshold {
			out = append(out, i)
		}
	}
	return out
}

func (e *Engine[P]) search(ctx context.Context, ps *geom.PointSet) (*candidate[P], Stats, error) {
	var (
		stats   Stats
		best    *candidate[P]
		present = ps.Points(ps.PresentIndices())
		limit   = e.cfg.MaxIterations
	)

	for it := 0; it < limit; it++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, fmt.Errorf("search interrupted after %d iterations: %w", it, err)
		}
		stats.Iterations++

		draw, ok, err := e.draw(ps)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			stats.RejectedDraws++
			continue
		}
		prim, ok := e.minimal(ps.Points(draw))
		if !ok {
			stats.DegenerateFits++
			continue
		}

		score := countWithin(prim, present, e.cfg.DistanceThreshold)
		if score < e.cfg.MinSupport || (best != nil && score <= best.score) {
			continue
		}
		best = &candidate[P]{draw: draw, primitive: prim, score: score}
		stats.Improvements++

		if e.cfg.Adaptive {
			n := requiredIterations(float64(score)/float64(len(present)), e.k, e.cfg.Confidence)
			if n < it+1 {
				n = it + 1
			}
			if n < limit {
				limit = n
			}
		}
	}
	return best, stats, nil
}

// draw returns a minimal sample accepted by the draw filter. ok is false
// if MaxDrawAttempts draws were all rejected.
func (e *Engine[P]) draw(ps *geom.PointSet) ([]int, bool, error) {
	for attempt := 0; attempt < e.cfg.MaxDrawAttempts; attempt++ {
		idx, err := e.sampler.Draw(ps)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInsufficientPoints, err)
		}
		if e.filter == nil || e.filter(ps.Points(idx)) {
			return idx, true, nil
		}
	}
	return nil, false, nil
}

func countWithin[P geom.Curve2d](c P, pts []geom.Point, threshold float64) int {
	n := 0
	for _, p := range pts {
		if math.Abs(c.Distance(p)) < threshold {
			n++
		}
	}
	return n
}

// requiredIterations returns the number of draws N for which at least one
// all-inlier minimal sample is drawn with the given confidence, assuming
// an inlier ratio w: N = log(1-confidence) / log(1-w^k).
func requiredIterations(w float64, k int, confidence float64) int {
	pk := math.Pow(w, float64(k))
	if pk >= 1 {
		return 0
	}
	if pk <= 0 {
		return math.MaxInt
	}
	n := math.Log(1-confidence) / math.Log(1-pk)
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Ceil(n))
}
