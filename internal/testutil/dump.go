package testutil

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"pgbackup-go/internal/pgbackup"
)

// DumpCall records one invocation of FakeDumpProducer.
type DumpCall struct {
	Globals    bool
	Database   string
	OutputPath string
	Schemas    []string
	Empty      bool
}

// FakeDumpProducer writes a small descriptive file instead of running the
// dump tools, and records every call.
type FakeDumpProducer struct {
	mu    sync.Mutex
	calls []DumpCall
	// FailDatabase makes DumpDatabase fail for the named database.
	FailDatabase string
	// FailGlobals makes DumpGlobals fail.
	FailGlobals bool
}

var _ pgbackup.DumpProducer = (*FakeDumpProducer)(nil)

func NewFakeDumpProducer() *FakeDumpProducer {
	return &FakeDumpProducer{}
}

func (p *FakeDumpProducer) DumpDatabase(_ context.Context, database, outputPath string, schemas []string, _ pgbackup.ConnInfo, empty bool) error {
	p.record(DumpCall{Database: database, OutputPath: outputPath, Schemas: append([]string(nil), schemas...), Empty: empty})
	if empty && len(schemas) > 0 {
		return fmt.Errorf("schemas incompatible with empty dump")
	}
	if database == p.FailDatabase {
		return &pgbackup.ExternalToolError{
			Command:  []string{"pg_dump", "-d", database, "-f", outputPath},
			ExitCode: 1,
			Output:   "pg_dump: error: connection failed",
			Err:      fmt.Errorf("exit status 1"),
		}
	}
	content := fmt.Sprintf("dump %s schemas=%s empty=%t\n", database, strings.Join(schemas, ","), empty)
	return os.WriteFile(outputPath, []byte(content), 0644)
}

func (p *FakeDumpProducer) DumpGlobals(_ context.Context, outputPath string, _ pgbackup.ConnInfo) error {
	p.record(DumpCall{Globals: true, OutputPath: outputPath})
	if p.FailGlobals {
		return &pgbackup.ExternalToolError{
			Command:  []string{"pg_dumpall", "--globals-only"},
			ExitCode: 2,
			Err:      fmt.Errorf("exit status 2"),
		}
	}
	return os.WriteFile(outputPath, []byte("globals\n"), 0644)
}

func (p *FakeDumpProducer) record(c DumpCall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
}

// Calls returns the recorded calls in order.
func (p *FakeDumpProducer) Calls() []DumpCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]DumpCall(nil), p.calls...)
}

// FakeSchemaResolver answers discovery queries from fixed maps.
type FakeSchemaResolver struct {
	Databases []string
	Schemas   map[string][]string
}

var _ pgbackup.SchemaResolver = (*FakeSchemaResolver)(nil)

func (r *FakeSchemaResolver) MatchingDatabases(_ context.Context, _ pgbackup.ConnInfo, include, exclude string) ([]string, error) {
	return pgbackup.FilterCollection(r.Databases, include, exclude)
}

func (r *FakeSchemaResolver) MatchingSchemas(_ context.Context, database string, _ pgbackup.ConnInfo, include, exclude string) ([]string, error) {
	schemas, ok := r.Schemas[database]
	if !ok {
		return nil, fmt.Errorf("database %q does not exist", database)
	}
	return pgbackup.FilterCollection(schemas, include, exclude)
}

// ListDir returns the sorted base names of the entries in dir.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
