package pgbackup

import "io"

// Vault is an off-site store that mirrors the backup directory. Entries
// are addressed by artifact filename.
type Vault interface {
	// Name identifies the vault in logs and output.
	Name() string

	// PutArtifact stores r under name. size is the number of bytes that
	// will be read from r, or -1 when unknown.
	PutArtifact(name string, r io.Reader, size int64) error

	// GetArtifact writes the named entry to w.
	GetArtifact(name string, w io.Writer) error

	// ListArtifacts returns every entry name, sorted.
	ListArtifacts() ([]string, error)

	// DeleteArtifact removes the named entry.
	DeleteArtifact(name string) error

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
