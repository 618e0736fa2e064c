package app

import (
	"pgbackup-go/internal/database"
	"pgbackup-go/internal/pgbackup"
)

// RunOperation tracks one backup run. It is created in memory with ID=0;
// the journal assigns an ID when the run is recorded.
type RunOperation struct {
	ID     int64
	UUID   string
	Today  pgbackup.Date
	Status string
}

// NewRunOperation creates a new in-memory run operation.
func NewRunOperation(uuid string, today pgbackup.Date) *RunOperation {
	return &RunOperation{
		UUID:   uuid,
		Today:  today,
		Status: database.StatusRunning,
	}
}

// Persisted returns true if this run has been recorded in the journal.
func (op *RunOperation) Persisted() bool {
	return op.ID != 0
}

// Finish sets the final status from the error that ended the run.
func (op *RunOperation) Finish(err error) {
	if err != nil {
		op.Status = database.StatusError
		return
	}
	op.Status = database.StatusSuccess
}
