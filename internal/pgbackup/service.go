package pgbackup

import (
	"context"
	"fmt"
	"path/filepath"
)

// partialPrefix marks a dump still being written. Such files never match
// an identity mask.
const partialPrefix = ".partial-"

// Result describes one artifact touched by a backup step.
type Result struct {
	Identity Identity
	Path     string
	Action   Action
	// Source is the artifact Path was hard-linked from (ActionLink only).
	Source  string
	Expired []string
}

// BackupService produces a single artifact, by promotion or by dump, and
// then expires its group.
type BackupService struct {
	fsmgr    FilesystemManager
	dumper   DumpProducer
	resolver SchemaResolver
	engine   *PromotionEngine
	sweep    *ExpirationSweep
	logger   Logger
}

// NewBackupService creates a BackupService with the provided dependencies.
func NewBackupService(fsmgr FilesystemManager, dumper DumpProducer, resolver SchemaResolver, logger Logger) *BackupService {
	return &BackupService{
		fsmgr:    fsmgr,
		dumper:   dumper,
		resolver: resolver,
		engine:   NewPromotionEngine(fsmgr, logger),
		sweep:    NewExpirationSweep(fsmgr, logger),
		logger:   logger,
	}
}

// Backup produces the artifact for t dated today and expires its group.
// The tier of t must be enabled by policy. Every error is fatal to the
// caller's run; nothing is retried and a required promotion never falls
// back to a dump.
func (s *BackupService) Backup(ctx context.Context, t Target, today Date, policy RetentionPolicy) (*Result, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if !policy.Enabled(t.Tier) {
		return nil, &ConfigurationError{Msg: fmt.Sprintf("%s backups are disabled by the retention policy", t.Tier)}
	}

	id, err := NewIdentity(t, today)
	if err != nil {
		return nil, err
	}

	plan, err := s.engine.Promote(id, policy)
	if err != nil {
		return nil, err
	}

	if plan.Action == ActionDump {
		if err := s.dump(ctx, t, id, plan.Target); err != nil {
			return nil, err
		}
	}

	expired, err := s.sweep.Expire(id, policy)
	if err != nil {
		return nil, err
	}

	return &Result{
		Identity: id,
		Path:     plan.Target,
		Action:   plan.Action,
		Source:   plan.Source,
		Expired:  expired,
	}, nil
}

// DescribeExisting returns the identity encoded in an artifact's filename.
func (s *BackupService) DescribeExisting(path string) (Identity, error) {
	return Decode(path)
}

// dump writes the artifact under a partial name and renames it into place,
// so a failed dump leaves nothing behind and a rerun never writes through a
// hard link shared with another tier.
func (s *BackupService) dump(ctx context.Context, t Target, id Identity, target string) error {
	partial := filepath.Join(filepath.Dir(target), partialPrefix+filepath.Base(target))

	s.logger.Info("dumping", "tier", id.Tier, "database", id.Database, "schema", id.Schema, "path", target)
	var err error
	if id.Tier == TierGlobals {
		err = s.dumper.DumpGlobals(ctx, partial, t.Conn)
	} else {
		var schemas []string
		schemas, err = t.Schemas.Resolve(ctx, s.resolver, t.Database, t.Conn)
		if err == nil {
			err = s.dumper.DumpDatabase(ctx, t.Database, partial, schemas, t.Conn, t.Empty)
		}
	}
	if err != nil {
		s.discard(partial)
		return fmt.Errorf("dumping %s: %w", target, err)
	}

	if err := s.fsmgr.Rename(partial, target); err != nil {
		s.discard(partial)
		return fmt.Errorf("moving dump into place: %w", err)
	}
	return nil
}

func (s *BackupService) discard(partial string) {
	exists, err := s.fsmgr.Exists(partial)
	if err != nil || !exists {
		return
	}
	if err := s.fsmgr.Remove(partial); err != nil {
		s.logger.Warn("removing partial dump", "path", partial, "error", err)
	}
}
