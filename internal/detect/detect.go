package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/ransacfit/internal/fit"
	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/ransac"
)

// Detection is one extracted primitive.
type Detection struct {
	Index   int   `json:"index"`
	Initial Shape `json:"initial"`
	Final   Shape `json:"final"`
	Score   int   `json:"score"`
	Draw    []int `json:"draw"`
	Inliers []int `json:"inliers"`

	// RMS is the root mean squared distance of the inliers to Final.
	RMS   float64      `json:"rms"`
	Stats ransac.Stats `json:"stats"`
}

// Report summarizes a detection run.
type Report struct {
	Kind       Kind        `json:"primitive"`
	Points     int         `json:"points"`
	Remaining  int         `json:"remaining"`
	Detections []Detection `json:"detections"`

	// FailedFits counts candidates whose inliers were claimed but could
	// not be refitted.
	FailedFits int           `json:"failedFits"`
	Duration   time.Duration `json:"duration"`
}

// Callback is called after each detection. A non-nil error stops the run.
type Callback func(d Detection) error

// Run extracts primitives of the kind selected by p from the present points
// of ps, one at a time, calling onDetect after each. Unless p.KeepInliers is
// set, the inliers of every detection are removed from ps.
//
// The returned report is non-nil even on error and holds the detections
// made so far.
func Run(ctx context.Context, ps *geom.PointSet, p Params, onDetect Callback) (*Report, error) {
	report := &Report{Kind: p.Kind, Points: ps.Count()}
	if err := p.Validate(); err != nil {
		return report, err
	}

	slog.Info("Starting detection", "primitive", p.Kind, "points", ps.Count(), "max", p.Count)
	start := time.Now()

	var err error
	switch p.Kind {
	case KindLine:
		err = extract(ctx, ransac.NewLineDetector(p.Line, ransac.WithSeed(p.Seed)), ps, p, report, onDetect)
	case KindCircle:
		cfg := p.Circle.CircleConfig
		cfg.FinalFit, _ = CircleFit(p.Circle.Method, p.Seed)
		err = extract(ctx, ransac.NewCircleDetector(cfg, ransac.WithSeed(p.Seed)), ps, p, report, onDetect)
	case KindEllipse:
		err = extract(ctx, ransac.NewEllipseDetector(p.Ellipse, ransac.WithSeed(p.Seed)), ps, p, report, onDetect)
	}

	report.Remaining = ps.Count()
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}

	slog.Info("Detection complete",
		"primitive", p.Kind,
		"detections", len(report.Detections),
		"remaining", report.Remaining,
		"failed_fits", report.FailedFits,
		"duration", report.Duration,
	)
	return report, nil
}

func extract[P geom.Curve2d](ctx context.Context, e *ransac.Engine[P], ps *geom.PointSet, p Params, report *Report, onDetect Callback) error {
	for p.Count <= 0 || len(report.Detections) < p.Count {
		res, ok, err := e.Next(ctx, ps, !p.KeepInliers)
		if errors.Is(err, ransac.ErrInsufficientPoints) {
			return nil
		}

		var ffe *ransac.FinalFitError[P]
		if errors.As(err, &ffe) && ffe.Removed && len(ffe.Inliers) > 0 {
			// the claimed points stay removed so the search moves on
			slog.Warn("Skipping candidate", "score", ffe.Score, "inliers", len(ffe.Inliers))
			report.FailedFits++
			continue
		}
		if err != nil {
			return fmt.Errorf("detection %d failed: %w", len(report.Detections)+1, err)
		}
		if !ok {
			return nil
		}

		d := Detection{
			Index:   len(report.Detections),
			Initial: ShapeOf(res.Initial),
			Final:   ShapeOf(res.Final),
			Score:   res.Score,
			Draw:    res.Draw,
			Inliers: res.Inliers,
			RMS:     fit.RMSError(res.Final, res.InlierPoints),
			Stats:   res.Stats,
		}
		report.Detections = append(report.Detections, d)
		slog.Info("Primitive detected", "index", d.Index, "shape", d.Final.String(), "score", d.Score, "rms", d.RMS)

		if onDetect != nil {
			if err := onDetect(d); err != nil {
				return err
			}
		}
		if p.KeepInliers {
			return nil
		}
	}
	return nil
}
