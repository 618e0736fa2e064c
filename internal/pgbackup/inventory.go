package pgbackup

import (
	"fmt"
	"sort"
)

// Entry is an artifact found in a backup directory.
type Entry struct {
	Path     string
	Identity Identity
	Info     *ArtifactInfo
}

// Inventory decodes every artifact in dir. Files whose names do not decode
// (including partial dumps) are skipped. Entries are sorted by path.
func Inventory(fsmgr FilesystemManager, dir string) ([]*Entry, error) {
	paths, err := fsmgr.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}
	sort.Strings(paths)

	var entries []*Entry
	for _, p := range paths {
		id, err := Decode(p)
		if err != nil {
			continue
		}
		info, err := fsmgr.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		entries = append(entries, &Entry{Path: p, Identity: id, Info: info})
	}
	return entries, nil
}
