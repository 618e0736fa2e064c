package pgbackup

import "fmt"

// Tier is the granularity level of a backup artifact.
type Tier string

const (
	TierGlobals Tier = "globals"
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
)

// Tiers lists every known tier in the order a run processes them.
var Tiers = []Tier{TierGlobals, TierDaily, TierWeekly, TierMonthly}

// ParseTier returns the Tier named by s.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("tier %q not in %v: %w", s, Tiers, ErrUnknownTier)
}

// Suffix returns the filename suffix used for artifacts of this tier.
func (t Tier) Suffix() string {
	if t == TierGlobals {
		return GlobalsSuffix
	}
	return RegularSuffix
}

// Finer returns the tier that promotes into t. Only weekly and monthly
// have one.
func (t Tier) Finer() (Tier, bool) {
	switch t {
	case TierWeekly:
		return TierDaily, true
	case TierMonthly:
		return TierWeekly, true
	default:
		return "", false
	}
}

func (t Tier) String() string { return string(t) }
