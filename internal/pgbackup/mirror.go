package pgbackup

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// EncryptedSuffix is appended to the vault name of encrypted artifacts.
const EncryptedSuffix = ".age"

// MirrorTarget is one vault the backup directory is copied to.
type MirrorTarget struct {
	Vault   Vault
	Encrypt bool
}

// MirrorResult summarizes a Sync against one vault.
type MirrorResult struct {
	Vault    string
	Uploaded []string
	Pruned   []string
	Present  int
}

// Mirror copies the artifacts of a backup directory to vaults and removes
// vault entries whose local artifact has expired. A run only writes artifacts
// dated today, and a same-day rerun replaces them under the same name, so
// entries dated today are always uploaded. Older entries already in a vault
// are skipped.
type Mirror struct {
	fsmgr     FilesystemManager
	targets   []MirrorTarget
	encryptor Encryptor
	logger    Logger
}

// NewMirror creates a Mirror. encryptor may be nil when no target encrypts.
func NewMirror(fsmgr FilesystemManager, targets []MirrorTarget, encryptor Encryptor, logger Logger) *Mirror {
	return &Mirror{
		fsmgr:     fsmgr,
		targets:   targets,
		encryptor: encryptor,
		logger:    logger,
	}
}

// Sync mirrors dir to every target. An upload failure stops the sync;
// prune failures are collected and returned together.
func (m *Mirror) Sync(dir string, today Date) ([]*MirrorResult, error) {
	entries, err := Inventory(m.fsmgr, dir)
	if err != nil {
		return nil, err
	}

	var results []*MirrorResult
	var errs *multierror.Error
	for _, t := range m.targets {
		r, err := m.syncOne(t, entries, today)
		if r != nil {
			results = append(results, r)
		}
		if err != nil {
			if r == nil {
				return results, err
			}
			errs = multierror.Append(errs, err)
		}
	}
	return results, errs.ErrorOrNil()
}

func (m *Mirror) syncOne(t MirrorTarget, entries []*Entry, today Date) (*MirrorResult, error) {
	if t.Encrypt && m.encryptor == nil {
		return nil, &ConfigurationError{Msg: fmt.Sprintf("vault %s requires encryption but no encryptor is configured", t.Vault.Name())}
	}

	remote, err := t.Vault.ListArtifacts()
	if err != nil {
		return nil, fmt.Errorf("listing vault %s: %w", t.Vault.Name(), err)
	}
	present := make(map[string]bool, len(remote))
	for _, name := range remote {
		present[name] = true
	}

	result := &MirrorResult{Vault: t.Vault.Name()}
	wanted := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := filepath.Base(e.Path)
		if t.Encrypt {
			name += EncryptedSuffix
		}
		wanted[name] = true
		if present[name] && e.Identity.Date != today {
			result.Present++
			continue
		}
		if err := m.upload(t, e, name); err != nil {
			return nil, fmt.Errorf("uploading %s to vault %s: %w", name, t.Vault.Name(), err)
		}
		m.logger.Info("uploaded backup to vault", "vault", t.Vault.Name(), "name", name)
		result.Uploaded = append(result.Uploaded, name)
	}

	var errs *multierror.Error
	for _, name := range remote {
		if wanted[name] {
			continue
		}
		if _, err := Decode(strings.TrimSuffix(name, EncryptedSuffix)); err != nil {
			continue
		}
		if err := t.Vault.DeleteArtifact(name); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("pruning %s from vault %s: %w", name, t.Vault.Name(), err))
			continue
		}
		m.logger.Info("pruned expired backup from vault", "vault", t.Vault.Name(), "name", name)
		result.Pruned = append(result.Pruned, name)
	}
	return result, errs.ErrorOrNil()
}

func (m *Mirror) upload(t MirrorTarget, e *Entry, name string) error {
	f, err := m.fsmgr.Open(e.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", e.Path, err)
	}
	defer f.Close()

	if !t.Encrypt {
		return t.Vault.PutArtifact(name, f, e.Info.Size)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(m.encryptor.Encrypt(f, pw))
	}()
	err = t.Vault.PutArtifact(name, pr, -1)
	pr.CloseWithError(err)
	return err
}

// Fetch copies the named entry of v to w, decrypting entries that carry
// EncryptedSuffix with dctx.
func Fetch(v Vault, name string, w io.Writer, dctx DecryptionContext) error {
	if !strings.HasSuffix(name, EncryptedSuffix) {
		return v.GetArtifact(name, w)
	}
	if dctx == nil {
		return fmt.Errorf("%s is encrypted and no decryption context was provided", name)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(v.GetArtifact(name, pw))
	}()
	err := dctx.Decrypt(pr, w)
	pr.CloseWithError(err)
	if err != nil {
		return fmt.Errorf("decrypting %s: %w", name, err)
	}
	return nil
}
