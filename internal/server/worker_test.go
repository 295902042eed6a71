package server

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/pointio"
	"github.com/cwbudde/ransacfit/internal/store"
)

// circlePoints returns 100 noisy points on the circle (50, 50, 30) and 20
// outliers.
func circlePoints() []geom.Point {
	rng := rand.New(rand.NewSource(1))
	c, _ := geom.NewCircle(50, 50, 30)
	pts := geom.SampleCircle(rng, c, 100, 0.3)
	return append(pts, geom.SampleUniform(rng, geom.Pt(0, 0), geom.Pt(100, 100), 20)...)
}

func circleJobConfig() store.JobConfig {
	cfg := testJobConfig()
	cfg.Input = ""
	cfg.Image = pointio.DefaultImageOptions()
	return cfg
}

func TestRunJob_Success(t *testing.T) {
	st, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	jm := NewJobManager()
	job := jm.CreateJob(circleJobConfig(), circlePoints(), nil)

	if err := runJob(context.Background(), jm, st, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	done, _ := jm.GetJob(job.ID)
	if done.State != StateCompleted {
		t.Fatalf("Expected completed state, got %s (%s)", done.State, done.Error)
	}
	if len(done.Detections) != 1 {
		t.Fatalf("Expected 1 circle, got %d", len(done.Detections))
	}
	c := done.Detections[0].Final.Circle
	if c == nil || geom.Dist(c.Center, geom.Pt(50, 50)) > 1 {
		t.Errorf("Expected circle near (50, 50), got %+v", c)
	}
	if done.EndTime == nil {
		t.Error("Expected end time to be set")
	}

	rec, err := st.LoadResult(job.ID)
	if err != nil {
		t.Fatalf("LoadResult failed: %v", err)
	}
	if len(rec.Report.Detections) != 1 || rec.Error != "" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if _, err := os.Stat(st.OverlayPath(job.ID)); err != nil {
		t.Errorf("Overlay not written: %v", err)
	}

	trace, err := store.ReadTrace(st.BaseDir(), job.ID)
	if err != nil {
		t.Fatalf("ReadTrace failed: %v", err)
	}
	var events []string
	for _, e := range trace {
		events = append(events, e.Event)
	}
	if len(events) != 3 || events[0] != store.EventStart || events[1] != store.EventDetection || events[2] != store.EventDone {
		t.Errorf("Unexpected trace events: %v", events)
	}
}

func TestRunJob_FileInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circle.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	pointio.WriteText(f, circlePoints())
	f.Close()

	jm := NewJobManager()
	cfg := circleJobConfig()
	cfg.Input = path
	job := jm.CreateJob(cfg, nil, nil)

	if err := runJob(context.Background(), jm, nil, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}
	done, _ := jm.GetJob(job.ID)
	if done.Points != 120 {
		t.Errorf("Expected 120 loaded points, got %d", done.Points)
	}
	if done.State != StateCompleted || len(done.Detections) != 1 {
		t.Errorf("Expected 1 detection, got state %s with %d", done.State, len(done.Detections))
	}
}

func TestRunJob_MissingInput(t *testing.T) {
	jm := NewJobManager()
	cfg := circleJobConfig()
	cfg.Input = filepath.Join(t.TempDir(), "missing.csv")
	job := jm.CreateJob(cfg, nil, nil)

	if err := runJob(context.Background(), jm, nil, job.ID); err == nil {
		t.Fatal("Expected error for missing input")
	}
	failed, _ := jm.GetJob(job.ID)
	if failed.State != StateFailed || failed.Error == "" {
		t.Errorf("Expected failed state with error, got %s", failed.State)
	}
}

func TestRunJob_InvalidParams(t *testing.T) {
	st, _ := store.NewFSStore(t.TempDir())
	jm := NewJobManager()
	cfg := circleJobConfig()
	cfg.Params.Kind = detect.Kind("square")
	job := jm.CreateJob(cfg, circlePoints(), nil)

	if err := runJob(context.Background(), jm, st, job.ID); err == nil {
		t.Fatal("Expected error for invalid params")
	}
	failed, _ := jm.GetJob(job.ID)
	if failed.State != StateFailed {
		t.Errorf("Expected failed state, got %s", failed.State)
	}
	rec, err := st.LoadResult(job.ID)
	if err != nil {
		t.Fatalf("Expected a record of the failed job: %v", err)
	}
	if rec.Error == "" || !rec.ToInfo().Failed {
		t.Errorf("Expected record marked failed, got %+v", rec.ToInfo())
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(circleJobConfig(), circlePoints(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runJob(ctx, jm, nil, job.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	cancelled, _ := jm.GetJob(job.ID)
	if cancelled.State != StateCancelled {
		t.Errorf("Expected cancelled state, got %s", cancelled.State)
	}
}

func TestRunJob_NotFound(t *testing.T) {
	if err := runJob(context.Background(), NewJobManager(), nil, "nonexistent"); err == nil {
		t.Error("Expected error for nonexistent job")
	}
}
