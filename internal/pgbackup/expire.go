package pgbackup

import "fmt"

// ExpirationSweep deletes the oldest artifacts of a group beyond the
// group's keep count.
type ExpirationSweep struct {
	fsmgr  FilesystemManager
	logger Logger
}

// NewExpirationSweep creates an ExpirationSweep over the given filesystem.
func NewExpirationSweep(fsmgr FilesystemManager, logger Logger) *ExpirationSweep {
	return &ExpirationSweep{fsmgr: fsmgr, logger: logger}
}

// Expire keeps the newest policy.KeepCount(id.Tier) artifacts of id's group
// and removes the rest, returning the removed paths. Removing a hard-linked
// artifact drops only this tier's directory entry.
//
// A keep count of zero deletes nothing: a disabled tier's history is left
// for the operator to clean up.
func (s *ExpirationSweep) Expire(id Identity, policy RetentionPolicy) ([]string, error) {
	keep := policy.KeepCount(id.Tier)
	if keep <= 0 {
		s.logger.Warn("expiration skipped for disabled tier", "tier", id.Tier)
		return nil, nil
	}

	mask, err := Mask(id, "")
	if err != nil {
		return nil, err
	}
	artifacts, err := listGroup(s.fsmgr, s.logger, mask)
	if err != nil {
		return nil, err
	}
	if len(artifacts) <= keep {
		return nil, nil
	}

	var removed []string
	for _, a := range artifacts[:len(artifacts)-keep] {
		s.logger.Info("deleting expired backup file", "path", a.path)
		if err := s.fsmgr.Remove(a.path); err != nil {
			return removed, fmt.Errorf("removing expired backup %s: %w", a.path, err)
		}
		removed = append(removed, a.path)
	}
	return removed, nil
}
