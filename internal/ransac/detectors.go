package ransac

import (
	"github.com/cwbudde/ransacfit/internal/fit"
	"github.com/cwbudde/ransacfit/internal/geom"
)

// Minimal sample sizes of the bindings.
const (
	LineSampleSize    = 2
	CircleSampleSize  = 3
	EllipseSampleSize = 5
)

// LineConfig configures a line detector.
type LineConfig struct {
	Config `yaml:",inline"`

	// MinPairDistance rejects draws whose two points are closer than this.
	MinPairDistance float64 `yaml:"min_pair_distance" json:"minPairDistance"`
}

// DefaultLineConfig returns the line detector defaults.
func DefaultLineConfig() LineConfig {
	return LineConfig{Config: DefaultConfig(), MinPairDistance: 25}
}

// NewLineDetector binds the engine to lines: two-point minimal fit,
// orthogonal least-squares final fit and a minimum pair distance filter.
func NewLineDetector(cfg LineConfig, opts ...Option) *Engine[geom.Line] {
	opts = append([]Option{WithDrawFilter(MinPairDistance(cfg.MinPairDistance))}, opts...)
	return New(LineSampleSize, fit.LineTwoPoints, fit.LineOrthogonal, cfg.Config, opts...)
}

// CircleConfig configures a circle detector.
type CircleConfig struct {
	Config `yaml:",inline"`

	// MinPairDistance rejects draws with two points closer than this.
	// Coincident points are always rejected.
	MinPairDistance float64 `yaml:"min_pair_distance" json:"minPairDistance"`

	// FinalFit overrides the least-squares fit of the inliers. CircleHyper
	// is used if nil.
	FinalFit fit.Func[geom.Circle] `yaml:"-" json:"-"`
}

// DefaultCircleConfig returns the circle detector defaults.
func DefaultCircleConfig() CircleConfig {
	cfg := CircleConfig{Config: DefaultConfig()}
	cfg.MinSupport = 70
	return cfg
}

// NewCircleDetector binds the engine to circles: three-point minimal fit
// and, unless overridden, the hyperaccurate algebraic final fit.
func NewCircleDetector(cfg CircleConfig, opts ...Option) *Engine[geom.Circle] {
	final := cfg.FinalFit
	if final == nil {
		final = fit.CircleHyper
	}
	opts = append([]Option{WithDrawFilter(MinPairDistance(cfg.MinPairDistance))}, opts...)
	return New(CircleSampleSize, fit.CircleThreePoints, final, cfg.Config, opts...)
}

// EllipseConfig configures an ellipse detector. Unlike lines and circles,
// ellipse draws are not filtered.
type EllipseConfig struct {
	Config `yaml:",inline"`
}

// DefaultEllipseConfig returns the ellipse detector defaults.
func DefaultEllipseConfig() EllipseConfig {
	return EllipseConfig{Config: DefaultConfig()}
}

// NewEllipseDetector binds the engine to ellipses: five-point conic minimal
// fit and the direct least-squares final fit.
func NewEllipseDetector(cfg EllipseConfig, opts ...Option) *Engine[geom.Ellipse] {
	return New(EllipseSampleSize, fit.EllipseFivePoints, fit.EllipseFitzgibbon, cfg.Config, opts...)
}

// MinPairDistance returns a draw filter rejecting draws in which any two
// points coincide or are closer than d.
func MinPairDistance(d float64) DrawFilter {
	d2 := d * d
	return func(pts []geom.Point) bool {
		for i := 0; i < len(pts); i++ {
			for j := i + 1; j < len(pts); j++ {
				v := pts[i].Sub(pts[j])
				q := v.Dot(v)
				if q == 0 || q < d2 {
					return false
				}
			}
		}
		return true
	}
}
