package pgtools

import "strings"

// Environment variables that override the configured command prefixes.
const (
	EnvPgDump    = "PG_DUMP_CMD"
	EnvPgDumpall = "PG_DUMPALL_CMD"
	EnvPsql      = "PSQL_CMD"
	EnvPgRestore = "PG_RESTORE_CMD"
)

// Commands holds the command prefix used for each client program. A
// prefix may carry its own arguments, e.g. "docker exec pg pg_dump".
type Commands struct {
	PgDump    []string
	PgDumpall []string
	Psql      []string
	PgRestore []string
}

// NewCommands splits each configured prefix on whitespace. Empty values
// fall back to the bare program name.
func NewCommands(pgDump, pgDumpall, psql, pgRestore string) Commands {
	return Commands{
		PgDump:    prefix(pgDump, "pg_dump"),
		PgDumpall: prefix(pgDumpall, "pg_dumpall"),
		Psql:      prefix(psql, "psql"),
		PgRestore: prefix(pgRestore, "pg_restore"),
	}
}

// WithEnv returns c with every prefix whose environment variable is set
// replaced by the variable's value.
func (c Commands) WithEnv(lookup func(string) (string, bool)) Commands {
	override := func(current []string, key string) []string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.Fields(v)
		}
		return current
	}
	return Commands{
		PgDump:    override(c.PgDump, EnvPgDump),
		PgDumpall: override(c.PgDumpall, EnvPgDumpall),
		Psql:      override(c.Psql, EnvPsql),
		PgRestore: override(c.PgRestore, EnvPgRestore),
	}
}

func prefix(value, fallback string) []string {
	if fields := strings.Fields(value); len(fields) > 0 {
		return fields
	}
	return []string{fallback}
}
