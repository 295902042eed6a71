package detect

import (
	"fmt"
	"strings"

	"github.com/cwbudde/ransacfit/internal/fit"
	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/opt"
	"github.com/cwbudde/ransacfit/internal/ransac"
)

// Final circle fit methods.
const (
	CircleFitKasa      = "kasa"
	CircleFitPratt     = "pratt"
	CircleFitHyper     = "hyper"
	CircleFitGeometric = "geometric"
)

// Geometric refinement budget per round.
const (
	geometricIterations = 200
	geometricPopulation = opt.MinPopulation
)

// Params selects the primitive and configures one detection run.
type Params struct {
	Kind Kind `yaml:"primitive" json:"primitive"`

	// Count bounds the number of detections; 0 extracts until nothing is
	// found.
	Count int   `yaml:"count" json:"count"`
	Seed  int64 `yaml:"seed" json:"seed"`

	// KeepInliers leaves the inliers present. Since the same primitive
	// would be found again, it limits the run to a single detection.
	KeepInliers bool `yaml:"keep_inliers" json:"keepInliers"`

	Line    ransac.LineConfig    `yaml:"line" json:"line"`
	Circle  CircleParams         `yaml:"circle" json:"circle"`
	Ellipse ransac.EllipseConfig `yaml:"ellipse" json:"ellipse"`
}

// CircleParams extends the circle detector configuration with a named
// final fit method.
type CircleParams struct {
	ransac.CircleConfig `yaml:",inline"`

	Method string `yaml:"final_fit" json:"finalFit"`
}

// DefaultParams returns circle detection with the detector defaults.
func DefaultParams() Params {
	return Params{
		Kind:    KindCircle,
		Seed:    ransac.DefaultSeed,
		Line:    ransac.DefaultLineConfig(),
		Circle:  CircleParams{CircleConfig: ransac.DefaultCircleConfig(), Method: CircleFitHyper},
		Ellipse: ransac.DefaultEllipseConfig(),
	}
}

// Engine returns the engine configuration of the selected primitive.
func (p *Params) Engine() *ransac.Config {
	switch p.Kind {
	case KindLine:
		return &p.Line.Config
	case KindEllipse:
		return &p.Ellipse.Config
	default:
		return &p.Circle.Config
	}
}

// Validate checks the selected primitive's configuration.
func (p Params) Validate() error {
	if _, err := ParseKind(string(p.Kind)); err != nil {
		return err
	}
	if p.Count < 0 {
		return fmt.Errorf("count cannot be negative: %d", p.Count)
	}
	if p.Kind == KindCircle {
		if _, err := CircleFit(p.Circle.Method, p.Seed); err != nil {
			return err
		}
	}
	if err := p.Engine().Validate(); err != nil {
		return fmt.Errorf("%s: %w", p.Kind, err)
	}
	return nil
}

// CircleFit returns the final circle fit for method. The empty method
// selects the hyperaccurate fit.
func CircleFit(method string, seed int64) (fit.Func[geom.Circle], error) {
	switch strings.ToLower(method) {
	case CircleFitKasa:
		return fit.CircleKasa, nil
	case CircleFitPratt:
		return fit.CirclePratt, nil
	case CircleFitHyper, "":
		return fit.CircleHyper, nil
	case CircleFitGeometric:
		return fit.NewGeometricCircleFit(geometricIterations, geometricPopulation, seed).Fit, nil
	}
	return nil, fmt.Errorf("unknown circle fit %q (want kasa, pratt, hyper or geometric)", method)
}
