package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

// Config represents the main configuration for pgbackup.
type Config struct {
	BackupDir  string           `toml:"backup_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	Connection ConnectionConfig `toml:"connection"`
	Selection  SelectionConfig  `toml:"selection"`
	Retention  RetentionConfig  `toml:"retention"`
	Tools      ToolsConfig      `toml:"tools"`
	Journal    JournalConfig    `toml:"journal"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// ConnectionConfig holds the server connection passed to every tool.
type ConnectionConfig struct {
	Hostname string `toml:"hostname"`
	Port     string `toml:"port"`
	Username string `toml:"username"`
}

// SelectionConfig chooses the databases and schemas to back up. Patterns
// are unanchored regular expressions; empty means no constraint.
type SelectionConfig struct {
	IncludeDatabases    string `toml:"include_databases"`
	ExcludeDatabases    string `toml:"exclude_databases"`
	IncludeSchemas      string `toml:"include_schemas"`
	ExcludeSchemas      string `toml:"exclude_schemas"`
	SeparateSchemaDumps bool   `toml:"separate_schema_dumps"`
}

// RetentionConfig holds the number of artifacts kept per tier. Zero
// disables the tier.
type RetentionConfig struct {
	DaysToKeep   int `toml:"days_to_keep"`
	WeeksToKeep  int `toml:"weeks_to_keep"`
	MonthsToKeep int `toml:"months_to_keep"`
}

// ToolsConfig overrides the command prefixes used for the PostgreSQL
// client tools. Each value is split on whitespace.
type ToolsConfig struct {
	PgDumpCmd    string `toml:"pg_dump_cmd,omitempty"`
	PgDumpallCmd string `toml:"pg_dumpall_cmd,omitempty"`
	PsqlCmd      string `toml:"psql_cmd,omitempty"`
	PgRestoreCmd string `toml:"pg_restore_cmd,omitempty"`
}

// JournalConfig represents configuration for the run journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory" or "none"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// VaultConfig represents configuration for a vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type    string `toml:"type"` // "memory", "s3", or "filesystem"
	Name    string `toml:"name"`
	Encrypt bool   `toml:"encrypt"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	TextfilePath string `toml:"textfile_path,omitempty"` // empty disables metrics
}

// NewConfig creates a new Config rooted at homeDir with default paths and
// a one-week daily retention.
func NewConfig(homeDir string) *Config {
	return &Config{
		BackupDir: filepath.Join(homeDir, "backups"),
		LogDir:    filepath.Join(homeDir, "log"),
		LogLevel:  "info",
		Retention: RetentionConfig{DaysToKeep: 7},
		Journal: JournalConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(homeDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(homeDir, "keys", "pgbackup.pub"),
			PrivateKeyPath: filepath.Join(homeDir, "keys", "pgbackup.key"),
		},
	}
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.BackupDir == "" {
		errs = multierror.Append(errs, fmt.Errorf("backup_dir is required"))
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown log_level: %s", c.LogLevel))
	}
	for _, keep := range []struct {
		key string
		n   int
	}{
		{"days_to_keep", c.Retention.DaysToKeep},
		{"weeks_to_keep", c.Retention.WeeksToKeep},
		{"months_to_keep", c.Retention.MonthsToKeep},
	} {
		if keep.n < 0 {
			errs = multierror.Append(errs, fmt.Errorf("retention.%s must not be negative, got %d", keep.key, keep.n))
		}
	}
	switch c.Journal.Type {
	case "", "none", "memory":
	case "sqlite":
		if c.Journal.DataDir == "" {
			errs = multierror.Append(errs, fmt.Errorf("sqlite journal requires data_dir to be set"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown journal type: %s", c.Journal.Type))
	}
	switch c.Encryption.Type {
	case "", "age", "test":
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown encryption type: %s", c.Encryption.Type))
	}
	names := make(map[string]bool)
	for i, v := range c.Vaults {
		if v.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("vaults[%d] requires a name", i))
		} else if names[v.Name] {
			errs = multierror.Append(errs, fmt.Errorf("duplicate vault name: %s", v.Name))
		}
		names[v.Name] = true
		switch v.Type {
		case "memory":
		case "filesystem":
			if v.FSVaultRoot == "" {
				errs = multierror.Append(errs, fmt.Errorf("filesystem vault %s requires fs_vault_root", v.Name))
			}
		case "s3":
			if v.S3Bucket == "" {
				errs = multierror.Append(errs, fmt.Errorf("s3 vault %s requires s3_bucket", v.Name))
			}
			if (v.S3AccessKeyID == "") != (v.S3SecretAccessKey == "") {
				errs = multierror.Append(errs, fmt.Errorf("s3 vault %s needs both s3_access_key_id and s3_secret_access_key", v.Name))
			}
		default:
			errs = multierror.Append(errs, fmt.Errorf("unknown vault type: %s", v.Type))
		}
	}
	return errs.ErrorOrNil()
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
