// Package ransac implements a generic RANSAC engine for 2D primitives and
// its line, circle and ellipse bindings.
//
// An Engine repeatedly draws k distinct present points, fits a candidate
// primitive to them with a minimal fit and counts the present points within
// the distance threshold. The candidate with the largest support at or
// above MinSupport wins; ties keep the earlier candidate. The winner's
// inliers are then refitted with a least-squares final fit.
//
// Next distinguishes three outcomes:
//
//   - a precondition failure (ErrInsufficientPoints) when fewer than k
//     points are present,
//   - "not found" (ok == false, err == nil) when no candidate reached
//     MinSupport,
//   - a final-fit failure (*FinalFitError) when a candidate was found but
//     its inliers could not be refitted.
package ransac

import (
	"errors"
	"fmt"

	"github.com/cwbudde/ransacfit/internal/geom"
)

var (
	// ErrInsufficientPoints is returned when fewer points are present than
	// a single draw needs.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrFinalFitFailed matches every *FinalFitError via errors.Is.
	ErrFinalFitFailed = errors.New("final fit failed")
)

// Config holds the parameters shared by all detectors.
type Config struct {
	// MaxIterations is the number of draws of the search phase.
	MaxIterations int `yaml:"max_iterations" json:"maxIterations"`

	// DistanceThreshold classifies a point as inlier if its absolute
	// distance to the primitive is strictly below it.
	DistanceThreshold float64 `yaml:"distance_threshold" json:"distanceThreshold"`

	// MinSupport is the minimum inlier count of an acceptable candidate.
	MinSupport int `yaml:"min_support" json:"minSupport"`

	// MaxDrawAttempts bounds how often a draw rejected by the draw filter
	// is retried before the iteration is skipped.
	MaxDrawAttempts int `yaml:"max_draw_attempts" json:"maxDrawAttempts"`

	// Adaptive enables early stopping once the estimated inlier ratio of
	// the best candidate makes further draws unnecessary at the given
	// Confidence. MaxIterations still bounds the search.
	Adaptive   bool    `yaml:"adaptive" json:"adaptive"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// DefaultConfig returns the defaults shared by the line and ellipse detectors.
func DefaultConfig() Config {
	return Config{
		MaxIterations:     1000,
		DistanceThreshold: 2.0,
		MinSupport:        100,
		MaxDrawAttempts:   100,
		Confidence:        0.99,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxIterations <= 0 {
		return &ConfigError{Field: "MaxIterations", Reason: "must be positive"}
	}
	if !(c.DistanceThreshold > 0) {
		return &ConfigError{Field: "DistanceThreshold", Reason: "must be positive"}
	}
	if c.MinSupport < 0 {
		return &ConfigError{Field: "MinSupport", Reason: "cannot be negative"}
	}
	if c.MaxDrawAttempts <= 0 {
		return &ConfigError{Field: "MaxDrawAttempts", Reason: "must be positive"}
	}
	if c.Adaptive && !(c.Confidence > 0 && c.Confidence < 1) {
		return &ConfigError{Field: "Confidence", Reason: "must be in (0, 1)"}
	}
	return nil
}

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Field + " " + e.Reason
}

// Result is a successful extraction.
type Result[P geom.Curve2d] struct {
	// Draw holds the indices of the minimal sample of the winning candidate.
	Draw       []int        `json:"draw"`
	DrawPoints []geom.Point `json:"drawPoints"`

	// Initial is the primitive of the minimal fit, Final the refit over
	// all inliers.
	Initial P `json:"initial"`
	Final   P `json:"final"`

	// Score is the inlier count of Initial at search time.
	Score int `json:"score"`

	Inliers      []int        `json:"inliers"`
	InlierPoints []geom.Point `json:"inlierPoints"`

	Stats Stats `json:"stats"`
}

// Better reports whether r has a strictly higher score than other.
// A nil other is beaten by any result.
func (r *Result[P]) Better(other *Result[P]) bool {
	return other == nil || r.Score > other.Score
}

// Stats counts what happened during one search phase.
type Stats struct {
	Iterations     int `json:"iterations"`
	RejectedDraws  int `json:"rejectedDraws"`
	DegenerateFits int `json:"degenerateFits"`
	Improvements   int `json:"improvements"`
}

// FinalFitError reports a found candidate whose inliers could not be
// refitted. If the inliers were removed from the point set they stay
// removed; callers may restore them with PointSet.Restore(err.Inliers...).
type FinalFitError[P geom.Curve2d] struct {
	Draw    []int
	Initial P
	Score   int
	Inliers []int
	Removed bool
}

func (e *FinalFitError[P]) Error() string {
	return fmt.Sprintf("final fit failed on %d inliers (score %d)", len(e.Inliers), e.Score)
}

// Unwrap makes errors.Is(err, ErrFinalFitFailed) hold.
func (e *FinalFitError[P]) Unwrap() error {
	return ErrFinalFitFailed
}
