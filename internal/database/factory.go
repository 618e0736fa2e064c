package database

import (
	"fmt"
	"os"
	"path/filepath"

	"pgbackup-go/internal/config"
	"pgbackup-go/internal/pgbackup"
)

// JournalFileName is the SQLite file created inside the journal data_dir.
const JournalFileName = "journal.db"

// NewJournalFromConfig creates a Journal implementation based on the journal
// config type. It returns nil, nil when the journal is disabled.
func NewJournalFromConfig(cfg config.JournalConfig) (pgbackup.Journal, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite journal")
		}
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		return NewSQLiteJournal(filepath.Join(cfg.DataDir, JournalFileName))
	case "memory":
		return NewSQLiteJournal(":memory:")
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}
