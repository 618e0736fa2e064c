package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BackupDir: "/var/backups/pg",
		LogDir:    "/var/log/pgbackup",
		LogLevel:  "debug",
		Connection: ConnectionConfig{
			Hostname: "db1.internal.example.com",
			Port:     "5433",
			Username: "backup",
		},
		Selection: SelectionConfig{
			ExcludeDatabases:    "^scratch",
			ExcludeSchemas:      "^tmp_",
			SeparateSchemaDumps: true,
		},
		Retention: RetentionConfig{DaysToKeep: 7, WeeksToKeep: 4, MonthsToKeep: 12},
		Tools:     ToolsConfig{PgDumpCmd: "docker exec pg pg_dump"},
		Journal:   JournalConfig{Type: "sqlite", DataDir: "/var/lib/pgbackup/db"},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/mnt/offsite"},
			{Type: "s3", Name: "cloud", S3Bucket: "pg-backups", S3Prefix: "db1/", S3Region: "eu-west-1", Encrypt: true},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/var/lib/pgbackup/keys/pgbackup.pub",
			PrivateKeyPath: "/var/lib/pgbackup/keys/pgbackup.key",
		},
		Metrics: MetricsConfig{TextfilePath: "/var/lib/node_exporter/pgbackup.prom"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BackupDir != original.BackupDir {
		t.Errorf("BackupDir = %q, want %q", got.BackupDir, original.BackupDir)
	}
	if got.Connection != original.Connection {
		t.Errorf("Connection = %+v, want %+v", got.Connection, original.Connection)
	}
	if got.Selection != original.Selection {
		t.Errorf("Selection = %+v, want %+v", got.Selection, original.Selection)
	}
	if got.Retention != original.Retention {
		t.Errorf("Retention = %+v, want %+v", got.Retention, original.Retention)
	}
	if got.Tools.PgDumpCmd != original.Tools.PgDumpCmd {
		t.Errorf("Tools.PgDumpCmd = %q, want %q", got.Tools.PgDumpCmd, original.Tools.PgDumpCmd)
	}
	if got.Journal != original.Journal {
		t.Errorf("Journal = %+v, want %+v", got.Journal, original.Journal)
	}
	if len(got.Vaults) != 2 {
		t.Fatalf("len(Vaults) = %d, want 2", len(got.Vaults))
	}
	if got.Vaults[1] != original.Vaults[1] {
		t.Errorf("Vaults[1] = %+v, want %+v", got.Vaults[1], original.Vaults[1])
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if got.Metrics != original.Metrics {
		t.Errorf("Metrics = %+v, want %+v", got.Metrics, original.Metrics)
	}
}

func TestManager_Read_Minimal(t *testing.T) {
	input := `
backup_dir = "/srv/backups"

[retention]
days_to_keep = 3
weeks_to_keep = 2
`
	cfg, err := (&Manager{}).Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.BackupDir != "/srv/backups" {
		t.Errorf("BackupDir = %q", cfg.BackupDir)
	}
	if cfg.Retention != (RetentionConfig{DaysToKeep: 3, WeeksToKeep: 2}) {
		t.Errorf("Retention = %+v", cfg.Retention)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/pgbackup")

	if cfg.BackupDir != "/data/pgbackup/backups" {
		t.Errorf("BackupDir = %q, want %q", cfg.BackupDir, "/data/pgbackup/backups")
	}
	if cfg.LogDir != "/data/pgbackup/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/pgbackup/log")
	}
	if cfg.Journal.DataDir != "/data/pgbackup/db" {
		t.Errorf("Journal.DataDir = %q, want %q", cfg.Journal.DataDir, "/data/pgbackup/db")
	}
	if cfg.Encryption.PublicKeyPath != "/data/pgbackup/keys/pgbackup.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q", cfg.Encryption.PublicKeyPath)
	}
	if cfg.Encryption.PrivateKeyPath != "/data/pgbackup/keys/pgbackup.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q", cfg.Encryption.PrivateKeyPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"missing backup dir", func(c *Config) { c.BackupDir = "" }, "backup_dir is required"},
		{"negative weeks", func(c *Config) { c.Retention.WeeksToKeep = -1 }, "weeks_to_keep must not be negative"},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, "unknown log_level"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "postgres" }, "unknown journal type"},
		{"sqlite without data dir", func(c *Config) { c.Journal.DataDir = "" }, "requires data_dir"},
		{"unknown encryption", func(c *Config) { c.Encryption.Type = "gpg" }, "unknown encryption type"},
		{"unknown vault", func(c *Config) { c.Vaults = []VaultConfig{{Type: "ftp", Name: "x"}} }, "unknown vault type"},
		{"unnamed vault", func(c *Config) { c.Vaults = []VaultConfig{{Type: "memory"}} }, "requires a name"},
		{"filesystem vault without root", func(c *Config) {
			c.Vaults = []VaultConfig{{Type: "filesystem", Name: "local"}}
		}, "requires fs_vault_root"},
		{"s3 vault without bucket", func(c *Config) { c.Vaults = []VaultConfig{{Type: "s3", Name: "cloud"}} }, "requires s3_bucket"},
		{"s3 vault with half credentials", func(c *Config) {
			c.Vaults = []VaultConfig{{Type: "s3", Name: "cloud", S3Bucket: "b", S3AccessKeyID: "AKIA"}}
		}, "needs both"},
		{"duplicate vault", func(c *Config) {
			c.Vaults = []VaultConfig{{Type: "memory", Name: "a"}, {Type: "memory", Name: "a"}}
		}, "duplicate vault name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/data/pgbackup")
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "pgbackup.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pgbackup.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pgbackup.toml")
		cfg := NewConfig(dir)
		cfg.Journal = JournalConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.BackupDir != cfg.BackupDir {
			t.Errorf("BackupDir = %q, want %q", got.BackupDir, cfg.BackupDir)
		}
		if got.Journal.Type != "memory" {
			t.Errorf("Journal.Type = %q, want %q", got.Journal.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/pgbackup.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
