package testutil

import (
	"pgbackup-go/internal/encryption"
	"pgbackup-go/internal/pgbackup"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() pgbackup.Encryptor {
	return encryption.NewTestEncryptor()
}
