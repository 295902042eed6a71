package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwbudde/ransacfit/internal/detect"
)

// Trace event names.
const (
	EventStart     = "start"
	EventDetection = "detection"
	EventDone      = "done"
	EventFailed    = "failed"
)

// TraceEntry is one line of trace.jsonl.
type TraceEntry struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`

	// Points is the number of present points after the event.
	Points int `json:"points"`

	// Detection is set for EventDetection. Inlier indices are dropped to
	// keep lines short.
	Detection *detect.Detection `json:"detection,omitempty"`

	Error string `json:"error,omitempty"`
}

// DetectionEntry returns the trace entry of a detection.
func DetectionEntry(d detect.Detection, remaining int) TraceEntry {
	d.Inliers = nil
	return TraceEntry{
		Event:     EventDetection,
		Timestamp: time.Now(),
		Points:    remaining,
		Detection: &d,
	}
}

func tracePath(baseDir, jobID string) string {
	return filepath.Join(jobDir(baseDir, jobID), "trace.jsonl")
}

// TraceWriter appends entries to a job's trace file. It is safe for
// concurrent use.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewTraceWriter opens <baseDir>/jobs/<jobID>/trace.jsonl, truncating it
// unless append is set.
func NewTraceWriter(baseDir, jobID string, append bool) (*TraceWriter, error) {
	if err := os.MkdirAll(jobDir(baseDir, jobID), 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	path := tracePath(baseDir, jobID)
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, 64*1024),
		path:   path,
	}, nil
}

// Write buffers one entry.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}
	data = append(data, '\n')
	if _, err := tw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	return nil
}

// Flush writes buffered entries and syncs the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace writer: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace file: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		tw.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := tw.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Path returns the trace file path.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// ReadTrace reads all entries of a job's trace.
func ReadTrace(baseDir, jobID string) ([]TraceEntry, error) {
	file, err := os.Open(tracePath(baseDir, jobID))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{JobID: jobID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer file.Close()

	return decodeTrace(file)
}

func decodeTrace(r io.Reader) ([]TraceEntry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var entries []TraceEntry
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var entry TraceEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan trace: %w", err)
	}
	return entries, nil
}
