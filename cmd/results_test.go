package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/pointio"
	"github.com/cwbudde/ransacfit/internal/store"
)

func testInfos(now time.Time) []store.RecordInfo {
	return []store.RecordInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)}, // 10 days old
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},  // 5 days old
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},  // 1 day old
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)}, // 30 days old
	}
}

func jobIDs(infos []store.RecordInfo) []string {
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.JobID
	}
	return ids
}

func TestSelectResultsForDeletion_ByAge(t *testing.T) {
	now := time.Now()

	// Delete results older than 7 days
	toDelete := selectResultsForDeletion(testInfos(now), 0, 7, now)

	got := strings.Join(jobIDs(toDelete), ",")
	if got != "job4,job1" {
		t.Errorf("Expected job4,job1 to be selected for deletion, got %s", got)
	}
}

func TestSelectResultsForDeletion_ByCount(t *testing.T) {
	now := time.Now()

	// Keep only the newest 2 results
	toDelete := selectResultsForDeletion(testInfos(now), 2, 0, now)

	got := strings.Join(jobIDs(toDelete), ",")
	if got != "job4,job1" {
		t.Errorf("Expected oldest job4,job1 to be selected for deletion, got %s", got)
	}
}

func TestSelectResultsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := append(testInfos(now), store.RecordInfo{JobID: "job5", Timestamp: now.AddDate(0, 0, -2)})

	// Older than 7 days selects job4 and job1, keeping the newest 2 adds job2
	toDelete := selectResultsForDeletion(infos, 2, 7, now)

	got := strings.Join(jobIDs(toDelete), ",")
	if got != "job4,job1,job2" {
		t.Errorf("Expected job4,job1,job2, got %s", got)
	}
}

func TestSelectResultsForDeletion_NothingToDo(t *testing.T) {
	now := time.Now()
	if toDelete := selectResultsForDeletion(testInfos(now), 10, 60, now); len(toDelete) != 0 {
		t.Errorf("Expected nothing to delete, got %v", jobIDs(toDelete))
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("Hello, World!")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}

	if size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("Expected abc, got %s", got)
	}
	if got := shortID("0123456789abcdef"); got != "0123456789ab..." {
		t.Errorf("Expected truncated ID, got %s", got)
	}
}

// saveTestRecord stores a one-circle record with the given age.
func saveTestRecord(t *testing.T, st *store.FSStore, jobID string, age time.Duration) {
	t.Helper()
	c, _ := geom.NewCircle(50, 50, 30)
	report := &detect.Report{
		Kind:       detect.KindCircle,
		Points:     120,
		Remaining:  20,
		Detections: []detect.Detection{{Initial: detect.ShapeOf(c), Final: detect.ShapeOf(c), Score: 100}},
	}
	cfg := store.JobConfig{Input: "test.csv", Params: detect.DefaultParams(), Image: pointio.DefaultImageOptions()}
	rec := store.NewRecord(jobID, cfg, report, nil)
	rec.Timestamp = rec.Timestamp.Add(-age)
	if err := st.SaveResult(jobID, rec); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}
}

// withResultsDir points the results commands at dir for the test.
func withResultsDir(t *testing.T, dir string) {
	t.Helper()
	original := resultsDataDir
	resultsDataDir = dir
	t.Cleanup(func() {
		resultsDataDir = original
		keepLast, olderThanDays, forceClean = 0, 0, false
	})
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetIn(strings.NewReader(""))
	return cmd, &buf
}

func TestResultsListCommand_NoResults(t *testing.T) {
	withResultsDir(t, t.TempDir())

	cmd, out := testCommand()
	if err := runListResults(cmd, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "No results found.") {
		t.Errorf("Unexpected output: %s", out.String())
	}
}

func TestResultsListCommand_WithResults(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestRecord(t, st, "test-job-id", 0)
	withResultsDir(t, tmpDir)

	cmd, out := testCommand()
	if err := runListResults(cmd, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, want := range []string{"test-job-id", "circle", "Total results: 1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestResultsShowCommand(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestRecord(t, st, "shown", 0)
	withResultsDir(t, tmpDir)

	cmd, out := testCommand()
	if err := runShowResult(cmd, []string{"shown"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), `"jobId": "shown"`) {
		t.Errorf("Unexpected output: %s", out.String())
	}

	if err := runShowResult(cmd, []string{"missing"}); err == nil {
		t.Error("Expected error for missing result")
	}
}

func TestResultsCleanCommand_NoFlags(t *testing.T) {
	withResultsDir(t, t.TempDir())
	keepLast = 0
	olderThanDays = 0

	cmd, _ := testCommand()
	if err := runCleanResults(cmd, nil); err == nil {
		t.Error("Expected error when no flags specified")
	}
}

func TestResultsCleanCommand_WithForce(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestRecord(t, st, "old-job", 30*24*time.Hour)
	saveTestRecord(t, st, "new-job", 0)
	withResultsDir(t, tmpDir)

	keepLast = 0
	olderThanDays = 7
	forceClean = true

	cmd, _ := testCommand()
	if err := runCleanResults(cmd, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := st.LoadResult("old-job"); err == nil {
		t.Error("Expected old result to be deleted")
	}
	if _, err := st.LoadResult("new-job"); err != nil {
		t.Errorf("Expected new result to be kept: %v", err)
	}
}

func TestResultsCleanCommand_Aborted(t *testing.T) {
	tmpDir := t.TempDir()
	st, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestRecord(t, st, "old-job", 30*24*time.Hour)
	withResultsDir(t, tmpDir)

	olderThanDays = 7

	cmd, out := testCommand()
	cmd.SetIn(strings.NewReader("n\n"))
	if err := runCleanResults(cmd, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "Aborted.") {
		t.Errorf("Expected abort, got:\n%s", out.String())
	}
	if _, err := st.LoadResult("old-job"); err != nil {
		t.Errorf("Expected result to be kept: %v", err)
	}
}
