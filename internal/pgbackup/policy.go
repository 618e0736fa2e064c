package pgbackup

import "fmt"

// RetentionPolicy says how many artifacts to keep per tier. Zero disables
// a tier. Globals always keep exactly one.
type RetentionPolicy struct {
	DaysToKeep   int
	WeeksToKeep  int
	MonthsToKeep int
}

// Validate rejects negative keep counts.
func (p RetentionPolicy) Validate() error {
	for _, c := range []struct {
		name  string
		value int
	}{
		{"days_to_keep", p.DaysToKeep},
		{"weeks_to_keep", p.WeeksToKeep},
		{"months_to_keep", p.MonthsToKeep},
	} {
		if c.value < 0 {
			return &ConfigurationError{Msg: fmt.Sprintf("%s must not be negative, got %d", c.name, c.value)}
		}
	}
	return nil
}

// KeepCount returns how many artifacts of tier t survive expiration.
func (p RetentionPolicy) KeepCount(t Tier) int {
	switch t {
	case TierGlobals:
		return 1
	case TierDaily:
		return p.DaysToKeep
	case TierWeekly:
		return p.WeeksToKeep
	case TierMonthly:
		return p.MonthsToKeep
	default:
		return 0
	}
}

// Enabled reports whether backups of tier t are made at all.
func (p RetentionPolicy) Enabled(t Tier) bool {
	return p.KeepCount(t) > 0
}

// Promotable reports whether t is produced by hard-linking its finer tier
// rather than by a fresh dump.
func (p RetentionPolicy) Promotable(t Tier) bool {
	finer, ok := t.Finer()
	return ok && p.Enabled(finer)
}
