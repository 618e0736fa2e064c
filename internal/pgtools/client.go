package pgtools

import (
	"context"
	"fmt"
	"strings"

	"pgbackup-go/internal/pgbackup"
)

const restoreMaintenanceDB = "template1"

const (
	databasesQuery = "select datname from pg_database" +
		" where datname not in ('template0', 'template1', 'postgres')"
	schemasQuery = "select schema_name from information_schema.schemata" +
		" where schema_name !~ '^(pg_temp|pg_toast)'" +
		" and schema_name not in ('pg_catalog', 'information_schema')"
)

// Client implements the dump, discovery and restore collaborators on top
// of the PostgreSQL client programs.
type Client struct {
	runner Runner
	cmds   Commands
	logger pgbackup.Logger
}

// NewClient creates a Client.
func NewClient(runner Runner, cmds Commands, logger pgbackup.Logger) *Client {
	return &Client{
		runner: runner,
		cmds:   cmds,
		logger: logger,
	}
}

// DumpDatabase runs pg_dump in custom format. An empty dump excludes every
// schema the database currently has.
func (c *Client) DumpDatabase(ctx context.Context, database, outputPath string, schemas []string, conn pgbackup.ConnInfo, empty bool) error {
	if empty && len(schemas) > 0 {
		return fmt.Errorf("dumping %s: schemas cannot be combined with an empty dump", database)
	}

	argv := command(c.cmds.PgDump, "--format=c")
	argv = append(argv, connArgs(conn)...)
	argv = append(argv, "-d", database, "-f", outputPath)

	if empty {
		all, err := c.Schemas(ctx, database, conn)
		if err != nil {
			return err
		}
		for _, s := range all {
			argv = append(argv, "-N", s)
		}
	}
	for _, s := range schemas {
		argv = append(argv, "-n", s)
	}

	_, err := c.runner.Run(ctx, argv)
	return err
}

// DumpGlobals runs pg_dumpall for roles and tablespaces only.
func (c *Client) DumpGlobals(ctx context.Context, outputPath string, conn pgbackup.ConnInfo) error {
	argv := command(c.cmds.PgDumpall)
	argv = append(argv, connArgs(conn)...)
	argv = append(argv, "--globals-only", "--database=template1", "-f", outputPath)

	_, err := c.runner.Run(ctx, argv)
	return err
}

// Restore runs pg_restore --create. With no database the restore connects
// to template1 and creates the database named in the dump.
func (c *Client) Restore(ctx context.Context, path, database string, conn pgbackup.ConnInfo) (string, error) {
	if database == "" {
		database = restoreMaintenanceDB
	}
	argv := command(c.cmds.PgRestore)
	argv = append(argv, connArgs(conn)...)
	argv = append(argv, "--create", "-d", database, path)
	return c.runner.Run(ctx, argv)
}

// Psql runs a single statement in tuples-only mode and returns raw output.
// Without a database psql connects to the database named after the user.
func (c *Client) Psql(ctx context.Context, stmt, database string, conn pgbackup.ConnInfo) (string, error) {
	if strings.Contains(stmt, `"`) {
		return "", fmt.Errorf("double quotes are not allowed in psql statements: %s", stmt)
	}
	if database == "" {
		database = conn.Username
	}

	argv := command(c.cmds.Psql, "-t", "-v", "ON_ERROR_STOP=1")
	argv = append(argv, connArgs(conn)...)
	if database != "" {
		argv = append(argv, "-d", database)
	}
	argv = append(argv, "-c", stmt)
	return c.runner.Run(ctx, argv)
}

// Databases lists the regular databases of the server.
func (c *Client) Databases(ctx context.Context, conn pgbackup.ConnInfo) ([]string, error) {
	out, err := c.Psql(ctx, databasesQuery, "", conn)
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}
	return lines(out), nil
}

// Schemas lists the user schemas of database.
func (c *Client) Schemas(ctx context.Context, database string, conn pgbackup.ConnInfo) ([]string, error) {
	out, err := c.Psql(ctx, schemasQuery, database, conn)
	if err != nil {
		return nil, fmt.Errorf("listing schemas of %s: %w", database, err)
	}
	return lines(out), nil
}

func (c *Client) MatchingDatabases(ctx context.Context, conn pgbackup.ConnInfo, include, exclude string) ([]string, error) {
	dbs, err := c.Databases(ctx, conn)
	if err != nil {
		return nil, err
	}
	return pgbackup.FilterCollection(dbs, include, exclude)
}

func (c *Client) MatchingSchemas(ctx context.Context, database string, conn pgbackup.ConnInfo, include, exclude string) ([]string, error) {
	schemas, err := c.Schemas(ctx, database, conn)
	if err != nil {
		return nil, err
	}
	return pgbackup.FilterCollection(schemas, include, exclude)
}

func command(prefix []string, args ...string) []string {
	argv := make([]string, 0, len(prefix)+len(args)+8)
	argv = append(argv, prefix...)
	return append(argv, args...)
}

// connArgs renders the non-empty connection fields as -U/-h/-p switches.
func connArgs(conn pgbackup.ConnInfo) []string {
	var args []string
	if conn.Username != "" {
		args = append(args, "-U", conn.Username)
	}
	if conn.Hostname != "" {
		args = append(args, "-h", conn.Hostname)
	}
	if conn.Port != "" {
		args = append(args, "-p", conn.Port)
	}
	return args
}

func lines(out string) []string {
	var result []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			result = append(result, l)
		}
	}
	return result
}

var (
	_ pgbackup.DumpProducer   = (*Client)(nil)
	_ pgbackup.SchemaResolver = (*Client)(nil)
	_ pgbackup.Restorer       = (*Client)(nil)
)
