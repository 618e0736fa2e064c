package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"pgbackup-go/internal/config"
	"pgbackup-go/internal/database"
	"pgbackup-go/internal/encryption"
	"pgbackup-go/internal/fs"
	"pgbackup-go/internal/metrics"
	"pgbackup-go/internal/model"
	"pgbackup-go/internal/pgbackup"
	"pgbackup-go/internal/pgtools"
	"pgbackup-go/internal/vault"
)

// ErrJournalDisabled is returned by History when no journal is configured.
var ErrJournalDisabled = errors.New("run journal is disabled")

// RunReport is what a run produced.
type RunReport struct {
	RunID    string
	Today    pgbackup.Date
	Results  []*pgbackup.Result
	Mirrored []*pgbackup.MirrorResult
}

// environment holds what an App takes from the process it runs in.
type environment struct {
	clock  pgbackup.Clock
	ids    pgbackup.IDGenerator
	stderr io.Writer
}

// toolset is the PostgreSQL side of an App. Tests substitute fakes.
type toolset struct {
	dumper   pgbackup.DumpProducer
	resolver pgbackup.SchemaResolver
	restorer pgbackup.Restorer
}

// App is the application layer between the CLI and the backup core.
// It constructs all dependencies from config, exposes high-level operations,
// and releases the journal and log file on Close.
type App struct {
	cfg          *config.Config
	fsmgr        pgbackup.FilesystemManager
	service      *pgbackup.BackupService
	orchestrator *pgbackup.Orchestrator
	mirror       *pgbackup.Mirror
	vaults       []pgbackup.Vault
	journal      pgbackup.Journal
	encryptor    pgbackup.Encryptor
	restorer     pgbackup.Restorer
	clock        pgbackup.Clock
	runID        string
	logger       pgbackup.Logger
	logFile      *os.File
}

// NewApp creates a fully wired App from the given config. The PostgreSQL
// tools are run as child processes; PG_DUMP_CMD and friends in the
// environment override the configured command prefixes.
// The caller must call Close when done.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	env := environment{
		clock:  pgbackup.RealClock{},
		ids:    pgbackup.UUIDGenerator{},
		stderr: os.Stderr,
	}
	return newApp(ctx, cfg, env, func(logger pgbackup.Logger) toolset {
		cmds := pgtools.NewCommands(
			cfg.Tools.PgDumpCmd, cfg.Tools.PgDumpallCmd, cfg.Tools.PsqlCmd, cfg.Tools.PgRestoreCmd,
		).WithEnv(os.LookupEnv)
		client := pgtools.NewClient(pgtools.NewExecRunner(logger), cmds, logger)
		return toolset{dumper: client, resolver: client, restorer: client}
	})
}

// newApp wires an App. tools is called once the logger exists so the tool
// wrappers log through it.
func newApp(ctx context.Context, cfg *config.Config, env environment, tools func(pgbackup.Logger) toolset) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &pgbackup.ConfigurationError{Msg: "invalid configuration", Err: err}
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	runID := env.ids.New()
	slogger, logFile, err := newLogger(cfg.LogDir, runID, level, env.stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}
	t := tools(logger)

	a := &App{
		cfg:      cfg,
		fsmgr:    fs.NewOSFilesystemManager(),
		restorer: t.restorer,
		clock:    env.clock,
		runID:    runID,
		logger:   logger,
		logFile:  logFile,
	}
	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.service = pgbackup.NewBackupService(a.fsmgr, t.dumper, t.resolver, logger)
	a.orchestrator = pgbackup.NewOrchestrator(a.service, t.resolver, a.fsmgr, logger)
	return a, nil
}

// open creates the journal, the encryptor, the vaults and the mirror.
func (a *App) open(ctx context.Context) error {
	journal, err := database.NewJournalFromConfig(a.cfg.Journal)
	if err != nil {
		return fmt.Errorf("opening run journal: %w", err)
	}
	a.journal = journal

	if a.encryptor, err = encryption.NewEncryptorFromConfig(a.cfg.Encryption); err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}

	var targets []pgbackup.MirrorTarget
	for _, vc := range a.cfg.Vaults {
		v, err := vault.NewVaultFromConfig(ctx, vc)
		if err != nil {
			return fmt.Errorf("creating vault %s: %w", vc.Name, err)
		}
		a.vaults = append(a.vaults, v)
		targets = append(targets, pgbackup.MirrorTarget{Vault: v, Encrypt: vc.Encrypt})
	}
	a.mirror = pgbackup.NewMirror(a.fsmgr, targets, a.encryptor, a.logger)
	return nil
}

// RunID identifies this invocation in log lines and the journal.
func (a *App) RunID() string { return a.runID }

// runOptions translates the config into orchestrator options. A non-empty
// databases replaces discovery.
func (a *App) runOptions(databases []string) pgbackup.RunOptions {
	sel := a.cfg.Selection
	return pgbackup.RunOptions{
		Dir: a.cfg.BackupDir,
		Conn: pgbackup.ConnInfo{
			Hostname: a.cfg.Connection.Hostname,
			Port:     a.cfg.Connection.Port,
			Username: a.cfg.Connection.Username,
		},
		Databases:           databases,
		IncludeDatabases:    sel.IncludeDatabases,
		ExcludeDatabases:    sel.ExcludeDatabases,
		IncludeSchemas:      sel.IncludeSchemas,
		ExcludeSchemas:      sel.ExcludeSchemas,
		SeparateSchemaDumps: sel.SeparateSchemaDumps,
		Policy: pgbackup.RetentionPolicy{
			DaysToKeep:   a.cfg.Retention.DaysToKeep,
			WeeksToKeep:  a.cfg.Retention.WeeksToKeep,
			MonthsToKeep: a.cfg.Retention.MonthsToKeep,
		},
	}
}

// Run performs one backup run dated today by the app's clock, mirrors the
// backup directory to every vault when the run succeeded, and records the
// outcome in the journal and the metrics textfile.
//
// The run's own error takes precedence: bookkeeping failures after a failed
// run are logged, and only returned when the run itself succeeded.
func (a *App) Run(ctx context.Context, databases []string) (*RunReport, error) {
	today := pgbackup.Today(a.clock)
	op := NewRunOperation(a.runID, today)
	report := &RunReport{RunID: a.runID, Today: today}

	if a.journal != nil {
		id, err := a.journal.StartRun(op.UUID, today, a.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("recording run start: %w", err)
		}
		op.ID = id
	}

	results, runErr := a.orchestrator.Run(ctx, a.runOptions(databases), today)
	report.Results = results

	if runErr == nil && len(a.vaults) > 0 {
		mirrored, err := a.mirror.Sync(a.cfg.BackupDir, today)
		report.Mirrored = mirrored
		if err != nil {
			runErr = fmt.Errorf("mirroring backups: %w", err)
		}
	}
	op.Finish(runErr)

	var errs *multierror.Error
	finishedAt := a.clock.Now()
	if op.Persisted() {
		for _, r := range results {
			if err := a.journal.RecordArtifact(op.ID, r); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("recording artifact %s: %w", r.Path, err))
				break
			}
		}
		if err := a.journal.FinishRun(op.ID, op.Status, finishedAt); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("recording run finish: %w", err))
		}
	}

	if path := a.cfg.Metrics.TextfilePath; path != "" {
		m := metrics.New()
		m.Observe(results, finishedAt, runErr)
		if err := m.WriteTextfile(path); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if runErr != nil {
		a.logger.Error("backup run failed", "error", runErr, "artifacts", len(results))
		if err := errs.ErrorOrNil(); err != nil {
			a.logger.Error("run bookkeeping failed", "error", err)
		}
		return report, runErr
	}
	return report, errs.ErrorOrNil()
}

// List returns every decodable artifact in the backup directory.
func (a *App) List() ([]*pgbackup.Entry, error) {
	return pgbackup.Inventory(a.fsmgr, a.cfg.BackupDir)
}

// Describe decodes an artifact filename. It needs no config, so callers can
// use it without building an App.
func Describe(path string) (pgbackup.Identity, error) {
	return pgbackup.Decode(path)
}

// History returns the most recent runs from the journal.
func (a *App) History(limit int) ([]*model.Run, error) {
	if a.journal == nil {
		return nil, ErrJournalDisabled
	}
	return a.journal.RecentRuns(limit)
}

// RunArtifacts returns the artifacts a journaled run touched.
func (a *App) RunArtifacts(runID int64) ([]*model.Artifact, error) {
	if a.journal == nil {
		return nil, ErrJournalDisabled
	}
	return a.journal.RunArtifacts(runID)
}

// Restore loads a dump into the server with pg_restore --create. An empty
// database connects to template1. It returns the tool's output.
func (a *App) Restore(ctx context.Context, rawPath, databaseName string) (string, error) {
	path, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	ok, err := a.fsmgr.Exists(path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("dump file not found: %s", path)
	}
	conn := a.runOptions(nil).Conn
	a.logger.Info("restoring dump", "path", path, "database", databaseName)
	return a.restorer.Restore(ctx, path, databaseName, conn)
}

// InitKeys generates the encryption key pair protected by passphrase.
func (a *App) InitKeys(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// NeedsPassphrase reports whether fetching name requires unlocking the
// private key.
func NeedsPassphrase(name string) bool {
	return strings.HasSuffix(name, pgbackup.EncryptedSuffix)
}

// Fetch downloads name from the first vault into dest, decrypting
// encrypted entries with the private key unlocked by passphrase. dest is
// written under a temporary name and renamed into place.
func (a *App) Fetch(name, dest, passphrase string) error {
	if len(a.vaults) == 0 {
		return &pgbackup.ConfigurationError{Msg: "no vaults configured"}
	}
	v := a.vaults[0]

	var dctx pgbackup.DecryptionContext
	if NeedsPassphrase(name) {
		var err error
		if dctx, err = a.encryptor.Unlock(passphrase); err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := pgbackup.Fetch(v, name, tmp, dctx); err != nil {
		tmp.Close()
		return fmt.Errorf("fetching %s from vault %s: %w", name, v.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("moving fetched artifact into place: %w", err)
	}
	a.logger.Info("fetched artifact", "vault", v.Name(), "name", name, "dest", dest)
	return nil
}

// CheckVaults validates every configured vault and returns all failures.
func (a *App) CheckVaults() error {
	var errs *multierror.Error
	for _, v := range a.vaults {
		if err := v.ValidateSetup(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("vault %s: %w", v.Name(), err))
		}
	}
	return errs.ErrorOrNil()
}

// Close releases the journal and the log file.
func (a *App) Close() error {
	var errs *multierror.Error
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("closing journal: %w", err))
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("closing log file: %w", err))
		}
	}
	return errs.ErrorOrNil()
}
