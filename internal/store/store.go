// Package store persists detection results on the filesystem.
package store

// Store defines persistence of detection records. Implementations must be
// safe for concurrent use.
//
// Load and Delete return an error matching ErrNotFound if no record exists
// for the job. Other failures are wrapped with context.
type Store interface {
	// SaveResult atomically writes the record of a job, replacing any
	// previous one.
	SaveResult(jobID string, rec *Record) error

	// LoadResult reads the record of a job.
	LoadResult(jobID string) (*Record, error)

	// ListResults returns summaries of all readable records. Corrupted
	// records are skipped.
	ListResults() ([]RecordInfo, error)

	// DeleteResult removes the job directory with its record, overlay and
	// trace.
	DeleteResult(jobID string) error
}

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = &NotFoundError{}

// NotFoundError reports a missing record.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "result not found: " + e.JobID
	}
	return "result not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
