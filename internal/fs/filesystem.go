package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"pgbackup-go/internal/pgbackup"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct {
	dirMode fs.FileMode
}

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{dirMode: 0750}
}

// Glob returns the paths matching pattern, sorted.
func (m *OSFilesystemManager) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Link creates newname as a hard link to oldname. Both names then share
// one inode; removing either leaves the other intact.
func (m *OSFilesystemManager) Link(oldname, newname string) error {
	return os.Link(oldname, newname)
}

// Remove deletes a single directory entry.
func (m *OSFilesystemManager) Remove(path string) error {
	return os.Remove(path)
}

// Rename moves oldpath to newpath, replacing any existing entry.
func (m *OSFilesystemManager) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Exists reports whether path names an existing entry.
func (m *OSFilesystemManager) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Stat returns size, modification time and link count for path.
func (m *OSFilesystemManager) Stat(path string) (*pgbackup.ArtifactInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &pgbackup.ArtifactInfo{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Links:   linkCount(info),
	}, nil
}

// ReadDir returns the regular files directly inside dir, sorted.
func (m *OSFilesystemManager) ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// MkdirAll creates dir and any missing parents.
func (m *OSFilesystemManager) MkdirAll(dir string) error {
	return os.MkdirAll(dir, m.dirMode)
}

// Compile-time check that OSFilesystemManager implements pgbackup.FilesystemManager interface
var _ pgbackup.FilesystemManager = (*OSFilesystemManager)(nil)
