package store

import (
	"strconv"
	"time"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/pointio"
)

// JobConfig is the persisted configuration of a detection job.
type JobConfig struct {
	// Input is the path the points were read from; empty for inline points.
	Input  string               `json:"input,omitempty"`
	Params detect.Params        `json:"params"`
	Image  pointio.ImageOptions `json:"image"`
}

// Record is the stored outcome of a detection job.
type Record struct {
	JobID     string         `json:"jobId"`
	Timestamp time.Time      `json:"timestamp"`
	Config    JobConfig      `json:"config"`
	Report    *detect.Report `json:"report"`

	// Error holds the failure message of a job that ended with an error;
	// Report then holds the detections made before it.
	Error string `json:"error,omitempty"`
}

// RecordInfo summarizes a record for listings.
type RecordInfo struct {
	JobID      string      `json:"jobId"`
	Timestamp  time.Time   `json:"timestamp"`
	Input      string      `json:"input,omitempty"`
	Primitive  detect.Kind `json:"primitive"`
	Points     int         `json:"points"`
	Detections int         `json:"detections"`
	Failed     bool        `json:"failed,omitempty"`
}

// NewRecord creates a record stamped with the current time. A non-nil err
// marks the job failed.
func NewRecord(jobID string, config JobConfig, report *detect.Report, err error) *Record {
	rec := &Record{
		JobID:     jobID,
		Timestamp: time.Now(),
		Config:    config,
		Report:    report,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// ToInfo returns the summary of r.
func (r *Record) ToInfo() RecordInfo {
	info := RecordInfo{
		JobID:     r.JobID,
		Timestamp: r.Timestamp,
		Input:     r.Config.Input,
		Primitive: r.Config.Params.Kind,
		Failed:    r.Error != "",
	}
	if r.Report != nil {
		info.Points = r.Report.Points
		info.Detections = len(r.Report.Detections)
	}
	return info
}

// Validate checks that r can be stored.
func (r *Record) Validate() error {
	if r.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Report == nil {
		return &ValidationError{Field: "Report", Reason: "cannot be nil"}
	}
	if r.Report.Kind != r.Config.Params.Kind {
		return &ValidationError{Field: "Report.Kind", Reason: "does not match Config.Params.Kind"}
	}
	for i, d := range r.Report.Detections {
		if d.Final.Curve() == nil {
			return &ValidationError{Field: "Report.Detections", Reason: "entry " + strconv.Itoa(i) + " has no final shape"}
		}
	}
	return nil
}

// ValidationError reports an invalid record field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
