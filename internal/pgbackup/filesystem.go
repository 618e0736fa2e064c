package pgbackup

import (
	"io"
	"time"
)

// ArtifactInfo is the subset of file metadata the tool reports.
type ArtifactInfo struct {
	Size    int64
	ModTime time.Time
	// Links is the number of directory entries sharing the file's content.
	Links uint64
}

// FilesystemManager is the backup directory as seen by the core. All
// methods block until the underlying syscall completes.
type FilesystemManager interface {
	// Glob returns the paths matching pattern, in lexical order.
	Glob(pattern string) ([]string, error)

	// Link creates newname as a hard link to oldname.
	Link(oldname, newname string) error

	// Remove deletes a single directory entry.
	Remove(path string) error

	// Rename atomically replaces newpath's directory entry with oldpath's.
	Rename(oldpath, newpath string) error

	// Exists reports whether path names an existing entry.
	Exists(path string) (bool, error)

	// Stat returns metadata for path.
	Stat(path string) (*ArtifactInfo, error)

	// ReadDir returns the paths of the regular files directly inside dir,
	// in lexical order.
	ReadDir(dir string) ([]string, error)

	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)

	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
}
