package database

import (
	"database/sql"
	"fmt"
	"time"

	"pgbackup-go/internal/database/migrations"
	"pgbackup-go/internal/model"
	"pgbackup-go/internal/pgbackup"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Run statuses recorded in the journal.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// SQLiteJournal implements the Journal interface using SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens the journal at path and brings its schema up to
// date. path can be a file path or ":memory:" for an in-memory journal.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

func (j *SQLiteJournal) StartRun(runUUID string, today pgbackup.Date, startedAt time.Time) (int64, error) {
	res, err := j.db.Exec(
		"INSERT INTO runs (uuid, today, started_at, status) VALUES (?, ?, ?, ?)",
		runUUID, today.String(), startedAt.UTC(), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run start: %w", err)
	}
	return res.LastInsertId()
}

func (j *SQLiteJournal) RecordArtifact(runID int64, r *pgbackup.Result) error {
	_, err := j.db.Exec(
		"INSERT INTO artifacts (run_id, path, tier, action, source, expired) VALUES (?, ?, ?, ?, ?, ?)",
		runID, r.Path, string(r.Identity.Tier), string(r.Action), r.Source, len(r.Expired),
	)
	if err != nil {
		return fmt.Errorf("recording artifact %s: %w", r.Path, err)
	}
	return nil
}

func (j *SQLiteJournal) FinishRun(runID int64, status string, finishedAt time.Time) error {
	res, err := j.db.Exec(
		"UPDATE runs SET status = ?, finished_at = ? WHERE id = ?",
		status, finishedAt.UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}

func (j *SQLiteJournal) RecentRuns(limit int) ([]*model.Run, error) {
	rows, err := j.db.Query(`
		SELECT r.id, r.uuid, r.today, r.started_at, r.finished_at, r.status,
		       (SELECT COUNT(*) FROM artifacts a WHERE a.run_id = r.id)
		FROM runs r
		ORDER BY r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run := &model.Run{}
		if err := rows.Scan(&run.ID, &run.UUID, &run.Today, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Artifacts); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (j *SQLiteJournal) RunArtifacts(runID int64) ([]*model.Artifact, error) {
	rows, err := j.db.Query(
		"SELECT id, run_id, path, tier, action, source, expired FROM artifacts WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts of run %d: %w", runID, err)
	}
	defer rows.Close()

	var artifacts []*model.Artifact
	for rows.Next() {
		a := &model.Artifact{}
		if err := rows.Scan(&a.ID, &a.RunID, &a.Path, &a.Tier, &a.Action, &a.Source, &a.Expired); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// Path returns the journal file path (or ":memory:" for in-memory journals).
func (j *SQLiteJournal) Path() string {
	return j.path
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteJournal implements pgbackup.Journal interface
var _ pgbackup.Journal = (*SQLiteJournal)(nil)
