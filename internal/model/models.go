package model

import (
	"database/sql"
	"time"
)

// Run is one invocation of the backup run recorded in the journal.
type Run struct {
	ID         int64        // auto-increment journal ID
	UUID       string       // run ID shared with log lines
	Today      string       // date stamp used in every filename of the run
	StartedAt  time.Time    // when the run began
	FinishedAt sql.NullTime // unset while running or after a crash
	Status     string       // "running", "success" or "error"
	Artifacts  int          // number of artifacts recorded for the run
}

// Artifact is one backup file touched by a run.
type Artifact struct {
	ID      int64
	RunID   int64  // foreign key to Run
	Path    string // artifact path at the time of the run
	Tier    string // globals, daily, weekly or monthly
	Action  string // dump, link or noop
	Source  string // link source, empty unless Action is link
	Expired int    // files removed by the expiration sweep of this artifact
}
