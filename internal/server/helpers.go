package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/pointio"
)

// maxBodySize bounds job requests with inline points.
const maxBodySize = 32 << 20

// decodeJobConfig reads a job request over the defaults and validates it.
func decodeJobConfig(w http.ResponseWriter, r *http.Request) (JobConfig, error) {
	config := JobConfig{}
	config.Params = detect.DefaultParams()
	config.Image = pointio.DefaultImageOptions()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&config); err != nil {
		return JobConfig{}, fmt.Errorf("invalid JSON: %v", err)
	}

	if config.Input == "" && len(config.Points) == 0 {
		return JobConfig{}, fmt.Errorf("input or points is required")
	}
	if config.Input != "" && len(config.Points) > 0 {
		return JobConfig{}, fmt.Errorf("input and points are mutually exclusive")
	}
	if err := validatePoints(config.Points); err != nil {
		return JobConfig{}, err
	}
	if err := config.Params.Validate(); err != nil {
		return JobConfig{}, fmt.Errorf("invalid params: %w", err)
	}
	return config, nil
}

// validatePoints rejects inline points with NaN or infinite coordinates.
func validatePoints(pairs [][2]float64) error {
	for i, p := range pairs {
		if !pointio.Finite(p[0], p[1]) {
			return fmt.Errorf("point %d: non-finite coordinates", i)
		}
	}
	return nil
}

func inlinePoints(pairs [][2]float64) []geom.Point {
	if len(pairs) == 0 {
		return nil
	}
	pts := make([]geom.Point, len(pairs))
	for i, p := range pairs {
		pts[i] = geom.Pt(p[0], p[1])
	}
	return pts
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
