package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/pointio"
	"github.com/cwbudde/ransacfit/internal/render"
	"github.com/cwbudde/ransacfit/internal/store"
)

// heartbeat is the interval of progress events between detections.
const heartbeat = 500 * time.Millisecond

// runJob executes a detection job. If resultStore is not nil, the result
// record, overlay and trace are persisted under the job ID.
func runJob(ctx context.Context, jm *JobManager, resultStore *store.FSStore, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	pts := job.pts
	if pts == nil {
		loaded, err := pointio.Load(job.Config.Input, job.Config.Image)
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
		pts = loaded
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
		j.pts = pts
		j.Points = len(pts)
		j.Remaining = len(pts)
	})
	if err != nil {
		return err
	}
	slog.Info("Starting job", "job_id", jobID, "input", job.Config.Input, "points", len(pts), "primitive", job.Config.Params.Kind)

	var trace *store.TraceWriter
	if resultStore != nil {
		trace, err = store.NewTraceWriter(resultStore.BaseDir(), jobID, false)
		if err != nil {
			slog.Warn("Trace disabled", "job_id", jobID, "error", err)
		} else {
			defer trace.Close()
			if err := trace.Write(store.TraceEntry{Event: store.EventStart, Timestamp: time.Now(), Points: len(pts)}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}
	}

	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	ps := geom.NewPointSet(pts)
	report, runErr := detect.Run(ctx, ps, job.Config.Params, func(d detect.Detection) error {
		remaining := ps.Count()
		jm.UpdateJob(jobID, func(j *Job) {
			j.Detections = append(j.Detections, d)
			j.Remaining = remaining
		})
		if trace != nil {
			if err := trace.Write(store.DetectionEntry(d, remaining)); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}
		if snap, ok := jm.GetJob(jobID); ok {
			ev := progressEvent(snap)
			ev.Detection = &d
			jm.broadcaster.Broadcast(ev)
		}
		return nil
	})
	close(progressDone)

	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.Remaining = report.Remaining
		j.FailedFits = report.FailedFits
		j.EndTime = &endTime
		switch {
		case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
			j.State = StateCancelled
		case runErr != nil:
			j.State = StateFailed
			j.Error = runErr.Error()
		default:
			j.State = StateCompleted
		}
	})

	final, _ := jm.GetJob(jobID)
	switch final.State {
	case StateCancelled:
		slog.Info("Job cancelled", "job_id", jobID, "detections", len(report.Detections))
	case StateFailed:
		slog.Error("Job failed", "job_id", jobID, "error", runErr)
	default:
		slog.Info("Job completed",
			"job_id", jobID,
			"detections", len(report.Detections),
			"remaining", report.Remaining,
			"elapsed", report.Duration,
		)
	}

	if trace != nil {
		entry := store.TraceEntry{Event: store.EventDone, Timestamp: endTime, Points: report.Remaining}
		if runErr != nil {
			entry.Event = store.EventFailed
			entry.Error = runErr.Error()
		}
		if err := trace.Write(entry); err != nil {
			slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
		}
	}
	if resultStore != nil {
		if err := saveResult(resultStore, jobID, job.Config, report, runErr, pts); err != nil {
			slog.Error("Failed to save result", "job_id", jobID, "error", err)
		}
	}

	jm.broadcaster.Broadcast(progressEvent(final))
	return runErr
}

// saveResult writes the record and the overlay of a finished job.
func saveResult(resultStore *store.FSStore, jobID string, config store.JobConfig, report *detect.Report, runErr error, pts []geom.Point) error {
	rec := store.NewRecord(jobID, config, report, runErr)
	if err := resultStore.SaveResult(jobID, rec); err != nil {
		return err
	}

	img := render.Overlay(pts, report.Detections, render.DefaultOptions())
	if err := render.Save(resultStore.OverlayPath(jobID), img); err != nil {
		slog.Warn("Failed to save overlay", "job_id", jobID, "error", err)
	}
	return nil
}

// monitorProgress periodically broadcasts the job state while it runs
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			jm.broadcaster.Broadcast(progressEvent(job))
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)

	if job, ok := jm.GetJob(jobID); ok {
		jm.broadcaster.Broadcast(progressEvent(job))
	}
}
