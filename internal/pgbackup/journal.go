package pgbackup

import (
	"time"

	"pgbackup-go/internal/model"
)

// Journal records what each run did. It is an audit trail only: backup
// decisions are always made from the backup directory itself.
type Journal interface {
	// StartRun records the start of a run and returns its journal ID.
	StartRun(runUUID string, today Date, startedAt time.Time) (int64, error)

	// RecordArtifact records one artifact touched by the run.
	RecordArtifact(runID int64, r *Result) error

	// FinishRun stamps the run's end time and final status.
	FinishRun(runID int64, status string, finishedAt time.Time) error

	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(limit int) ([]*model.Run, error)

	// RunArtifacts returns the artifacts recorded for a run.
	RunArtifacts(runID int64) ([]*model.Artifact, error)

	Close() error
}
