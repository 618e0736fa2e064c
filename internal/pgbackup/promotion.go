package pgbackup

import (
	"fmt"
	"sort"
)

// Action is what a backup step did (or will do) to produce an artifact.
type Action string

const (
	ActionDump Action = "dump"
	ActionLink Action = "link"
	ActionNoop Action = "noop"
)

// Plan is the PromotionEngine's decision for one prospective artifact.
type Plan struct {
	Action Action
	Target string
	// Source is the finer-tier artifact to hard-link from (ActionLink only).
	Source string
}

// PromotionEngine decides whether a weekly or monthly artifact is produced
// by hard-linking the most recent finer-tier artifact, is already present
// for the current period, or needs a fresh dump.
type PromotionEngine struct {
	fsmgr  FilesystemManager
	logger Logger
}

// NewPromotionEngine creates a PromotionEngine over the given filesystem.
func NewPromotionEngine(fsmgr FilesystemManager, logger Logger) *PromotionEngine {
	return &PromotionEngine{fsmgr: fsmgr, logger: logger}
}

// Plan decides how id should come into existence under policy.
//
// Globals and daily artifacts, and weekly/monthly ones whose finer tier is
// disabled, always need a dump. Otherwise the newest existing artifact of
// id's group is compared by period (ISO week or calendar month) with id's
// date: a match means the period is already covered; a mismatch (or no
// artifact at all) means the newest finer-tier artifact gets linked. If
// there is none, a *PromotionError is returned.
func (e *PromotionEngine) Plan(id Identity, policy RetentionPolicy) (*Plan, error) {
	target, err := Encode(id)
	if err != nil {
		return nil, err
	}

	if !policy.Promotable(id.Tier) {
		return &Plan{Action: ActionDump, Target: target}, nil
	}
	finer, _ := id.Tier.Finer()

	mask, err := Mask(id, "")
	if err != nil {
		return nil, err
	}
	existing, err := listGroup(e.fsmgr, e.logger, mask)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		last := existing[len(existing)-1]
		if periodKey(id.Tier, last.id.Date) == periodKey(id.Tier, id.Date) {
			e.logger.Debug("period already covered", "tier", id.Tier, "existing", last.path)
			return &Plan{Action: ActionNoop, Target: target}, nil
		}
	}

	finerMask, err := Mask(id, finer)
	if err != nil {
		return nil, err
	}
	sources, err := listGroup(e.fsmgr, e.logger, finerMask)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, &PromotionError{Target: target, Mask: finerMask, Tier: finer}
	}

	return &Plan{Action: ActionLink, Target: target, Source: sources[len(sources)-1].path}, nil
}

// Promote plans id and, when the plan is a link, creates it. Dump plans are
// returned to the caller unexecuted.
func (e *PromotionEngine) Promote(id Identity, policy RetentionPolicy) (*Plan, error) {
	plan, err := e.Plan(id, policy)
	if err != nil {
		return nil, err
	}
	if plan.Action != ActionLink {
		return plan, nil
	}

	e.logger.Info("hard-linking backup", "source", plan.Source, "target", plan.Target)
	if err := e.fsmgr.Link(plan.Source, plan.Target); err != nil {
		return nil, fmt.Errorf("linking %s to %s: %w", plan.Source, plan.Target, err)
	}
	return plan, nil
}

func periodKey(t Tier, d Date) PeriodKey {
	if t == TierMonthly {
		return d.MonthKey()
	}
	return d.WeekKey()
}

type artifact struct {
	path string
	id   Identity
}

// listGroup returns the artifacts matching mask in chronological order.
// Matches that do not decode are left alone.
func listGroup(fsmgr FilesystemManager, logger Logger, mask string) ([]artifact, error) {
	paths, err := fsmgr.Glob(mask)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", mask, err)
	}
	sort.Strings(paths)

	artifacts := make([]artifact, 0, len(paths))
	for _, p := range paths {
		id, err := Decode(p)
		if err != nil {
			logger.Warn("ignoring undecodable file", "path", p, "error", err)
			continue
		}
		artifacts = append(artifacts, artifact{path: p, id: id})
	}
	return artifacts, nil
}
