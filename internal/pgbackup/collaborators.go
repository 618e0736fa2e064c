package pgbackup

import "context"

// ConnInfo holds the server connection parameters passed to external tools.
// Empty fields are omitted from command lines.
type ConnInfo struct {
	Hostname string
	Port     string
	Username string
}

// DumpProducer runs the external dump tools. Implementations must block
// until the tool exits and return an *ExternalToolError on failure.
type DumpProducer interface {
	// DumpDatabase writes a dump of database to outputPath. A non-empty
	// schemas restricts the dump to those schemas. empty excludes every
	// schema; it may not be combined with schemas.
	DumpDatabase(ctx context.Context, database, outputPath string, schemas []string, conn ConnInfo, empty bool) error

	// DumpGlobals writes server-wide objects (roles, tablespaces) to outputPath.
	DumpGlobals(ctx context.Context, outputPath string, conn ConnInfo) error
}

// SchemaResolver discovers databases and schemas on the server. Patterns
// are unanchored regular expressions; empty means no constraint.
type SchemaResolver interface {
	MatchingDatabases(ctx context.Context, conn ConnInfo, include, exclude string) ([]string, error)
	MatchingSchemas(ctx context.Context, database string, conn ConnInfo, include, exclude string) ([]string, error)
}

// Restorer loads a dump file back into a server.
type Restorer interface {
	Restore(ctx context.Context, path, database string, conn ConnInfo) (string, error)
}
