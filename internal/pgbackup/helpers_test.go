package pgbackup_test

import (
	"os"
	"testing"

	"pgbackup-go/internal/fs"
	"pgbackup-go/internal/pgbackup"
)

// groupIdentity returns the identity of the sales/public group in dir.
func groupIdentity(dir string, tier pgbackup.Tier, date pgbackup.Date) pgbackup.Identity {
	return pgbackup.Identity{
		Dir:      dir,
		Host:     "db1",
		Port:     "5432",
		Database: "sales",
		Schema:   "public",
		Date:     date,
		Tier:     tier,
		Suffix:   tier.Suffix(),
	}
}

// salesTarget is the prospective counterpart of groupIdentity.
func salesTarget(dir string, tier pgbackup.Tier) pgbackup.Target {
	return pgbackup.Target{
		Dir:      dir,
		Tier:     tier,
		Database: "sales",
		Schemas:  pgbackup.SingleSchema("public"),
		Conn:     pgbackup.ConnInfo{Hostname: "db1", Port: "5432"},
	}
}

// seed writes an artifact for each date and returns the paths.
func seed(t *testing.T, dir string, tier pgbackup.Tier, dates ...pgbackup.Date) []string {
	t.Helper()
	var paths []string
	for _, d := range dates {
		p, err := pgbackup.Encode(groupIdentity(dir, tier, d))
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if err := os.WriteFile(p, []byte(string(tier)+" "+d.String()), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		paths = append(paths, p)
	}
	return paths
}

func dateRange(start pgbackup.Date, n int) []pgbackup.Date {
	dates := make([]pgbackup.Date, n)
	for i := range dates {
		dates[i] = start.AddDays(i)
	}
	return dates
}

func newFS() pgbackup.FilesystemManager {
	return fs.NewOSFilesystemManager()
}

func mustExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func mustNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent, stat error = %v", path, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}
