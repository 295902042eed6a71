package store

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/geom"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	jobID := "trace-job"

	writer, err := NewTraceWriter(tmpDir, jobID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	l, _ := geom.NewLine(0, 1, -5)
	d := detect.Detection{Index: 0, Final: detect.ShapeOf(l), Score: 120, Inliers: []int{1, 2, 3}}
	entries := []TraceEntry{
		{Event: EventStart, Timestamp: time.Now(), Points: 300},
		DetectionEntry(d, 180),
		{Event: EventDone, Timestamp: time.Now(), Points: 180},
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
	if !strings.HasSuffix(writer.Path(), "trace.jsonl") {
		t.Errorf("Unexpected trace path %s", writer.Path())
	}

	read, err := ReadTrace(tmpDir, jobID)
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	if len(read) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(read))
	}
	for i := range entries {
		if read[i].Event != entries[i].Event || read[i].Points != entries[i].Points {
			t.Errorf("Entry %d: expected %s/%d, got %s/%d", i, entries[i].Event, entries[i].Points, read[i].Event, read[i].Points)
		}
	}

	got := read[1].Detection
	if got == nil || got.Final.Line == nil || *got.Final.Line != l {
		t.Fatalf("Expected detection of %+v, got %+v", l, got)
	}
	if got.Inliers != nil {
		t.Error("Expected inliers to be dropped from the trace")
	}
	if len(d.Inliers) != 3 {
		t.Error("DetectionEntry must not modify its argument")
	}
}

func TestTraceWriter_Append(t *testing.T) {
	tmpDir := t.TempDir()
	jobID := "append-job"

	for i := 0; i < 2; i++ {
		w, err := NewTraceWriter(tmpDir, jobID, true)
		if err != nil {
			t.Fatalf("Failed to create trace writer: %v", err)
		}
		if err := w.Write(TraceEntry{Event: EventStart, Timestamp: time.Now()}); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Failed to flush: %v", err)
		}
		w.Close()
	}

	read, err := ReadTrace(tmpDir, jobID)
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	if len(read) != 2 {
		t.Errorf("Expected 2 entries after append, got %d", len(read))
	}

	// truncating mode starts over
	w, err := NewTraceWriter(tmpDir, jobID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	w.Close()
	read, _ = ReadTrace(tmpDir, jobID)
	if len(read) != 0 {
		t.Errorf("Expected empty trace after truncation, got %d entries", len(read))
	}
}

func TestReadTrace_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := ReadTrace(tmpDir, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	w, err := NewTraceWriter(tmpDir, "corrupt", false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	w.Close()
	if err := os.WriteFile(w.Path(), []byte("{\"event\":\"start\"}\n{broken\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := ReadTrace(tmpDir, "corrupt"); err == nil {
		t.Error("Expected error for corrupted trace")
	}
}

func TestTraceWriter_WriteAfterClose(t *testing.T) {
	writer, err := NewTraceWriter(t.TempDir(), "closed-job", false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Entries are buffered, so the error shows once the buffer spills.
	entry := TraceEntry{Event: EventFailed, Timestamp: time.Now(), Error: strings.Repeat("x", 512)}
	for i := 0; i < 64; i++ {
		if err := writer.Write(entry); err != nil {
			return
		}
	}
	t.Error("Expected write to a closed trace file to fail")
}
