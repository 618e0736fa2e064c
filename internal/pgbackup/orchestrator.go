package pgbackup

import (
	"context"
	"fmt"
	"sort"
)

// RunOptions configures one backup run.
type RunOptions struct {
	Dir  string
	Conn ConnInfo

	// Databases, when non-empty, is used instead of discovering databases
	// with IncludeDatabases and ExcludeDatabases.
	Databases        []string
	IncludeDatabases string
	ExcludeDatabases string

	IncludeSchemas string
	ExcludeSchemas string

	// SeparateSchemaDumps writes one file per schema plus an empty
	// whole-database dump instead of one combined dump.
	SeparateSchemaDumps bool

	Policy RetentionPolicy
}

// Orchestrator runs every backup step of one run in order, sharing a
// single date across all of them.
type Orchestrator struct {
	service  *BackupService
	resolver SchemaResolver
	fsmgr    FilesystemManager
	logger   Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(service *BackupService, resolver SchemaResolver, fsmgr FilesystemManager, logger Logger) *Orchestrator {
	return &Orchestrator{
		service:  service,
		resolver: resolver,
		fsmgr:    fsmgr,
		logger:   logger,
	}
}

// Run backs up globals, then every enabled tier (daily, weekly, monthly)
// of every selected database, all dated today. The first error stops the
// run; artifacts already produced stay in place. The returned results
// cover every step that completed.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions, today Date) ([]*Result, error) {
	if opts.Dir == "" {
		return nil, &ConfigurationError{Msg: "backup directory", Err: ErrMissingArgument}
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if err := o.fsmgr.MkdirAll(opts.Dir); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	databases, err := o.databases(ctx, opts)
	if err != nil {
		return nil, err
	}

	criteria := SchemaCriteria(opts.IncludeSchemas, opts.ExcludeSchemas)
	plans := make(map[string][]Target, len(databases))
	for _, db := range databases {
		if plans[db], err = o.targetsFor(ctx, opts, db, criteria); err != nil {
			return nil, err
		}
	}

	o.logger.Info("backup run starting", "date", today.String(), "databases", len(databases))

	var results []*Result
	globals := Target{Dir: opts.Dir, Tier: TierGlobals, Conn: opts.Conn}
	r, err := o.service.Backup(ctx, globals, today, opts.Policy)
	if err != nil {
		return results, fmt.Errorf("globals backup: %w", err)
	}
	results = append(results, r)

	for _, tier := range []Tier{TierDaily, TierWeekly, TierMonthly} {
		if !opts.Policy.Enabled(tier) {
			continue
		}
		for _, db := range databases {
			for _, t := range plans[db] {
				t.Tier = tier
				r, err := o.service.Backup(ctx, t, today, opts.Policy)
				if err != nil {
					return results, fmt.Errorf("%s backup of %s: %w", tier, db, err)
				}
				results = append(results, r)
			}
		}
	}

	o.logger.Info("backup run complete", "date", today.String(), "artifacts", len(results))
	return results, nil
}

func (o *Orchestrator) databases(ctx context.Context, opts RunOptions) ([]string, error) {
	if len(opts.Databases) > 0 {
		dbs := append([]string(nil), opts.Databases...)
		sort.Strings(dbs)
		return dbs, nil
	}
	dbs, err := o.resolver.MatchingDatabases(ctx, opts.Conn, opts.IncludeDatabases, opts.ExcludeDatabases)
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}
	sort.Strings(dbs)
	return dbs, nil
}

// targetsFor returns the tier-less targets for one database. With
// separate dumps: one per matching schema and one empty dump. Otherwise a
// single combined dump, plus an empty dump when the criteria narrow it,
// because a schema-restricted dump cannot recreate the database itself.
func (o *Orchestrator) targetsFor(ctx context.Context, opts RunOptions, db string, criteria SchemaSelection) ([]Target, error) {
	base := Target{Dir: opts.Dir, Database: db, Conn: opts.Conn}
	empty := base
	empty.Schemas = NoSchemas()
	empty.Empty = true

	if !opts.SeparateSchemaDumps {
		combined := base
		combined.Schemas = criteria
		if criteria.Narrows() {
			return []Target{combined, empty}, nil
		}
		return []Target{combined}, nil
	}

	schemas, err := o.resolver.MatchingSchemas(ctx, db, opts.Conn, criteria.Include(), criteria.Exclude())
	if err != nil {
		return nil, fmt.Errorf("listing schemas of %s: %w", db, err)
	}
	sort.Strings(schemas)

	targets := make([]Target, 0, len(schemas)+1)
	for _, schema := range schemas {
		t := base
		t.Schemas = SingleSchema(schema)
		targets = append(targets, t)
	}
	return append(targets, empty), nil
}
