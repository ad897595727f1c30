package settings

import (
	"context"
	"fmt"
	"time"
)

// supersededRevision is a sibling that activate deactivated, as stored
// before and after.
type supersededRevision struct {
	Before SettingRevision
	After  SettingRevision
}

// activate makes target the only active revision of its configuration.
//
// Every other active revision of the same configuration is deactivated and,
// if open-ended, has its validity window closed at now. Those rows are
// written through repo before returning, so the caller can then persist
// target without breaking the one-active-per-config index. target itself
// is only modified in memory: is_active set, effective_from backfilled,
// effective_to cleared. changed reports whether any of those three moved.
// superseded lists the deactivated siblings.
//
// target may be unsaved (ID 0), in which case every stored revision counts
// as a sibling.
//
// activate must run inside the caller's write transaction.
func activate(ctx context.Context, repo *SQLiteRepository, target *SettingRevision, now time.Time) (changed bool, superseded []supersededRevision, err error) {
	revisions, err := repo.ListRevisions(ctx, target.ConfigID)
	if err != nil {
		return false, nil, fmt.Errorf("loading revisions of config %d: %w", target.ConfigID, err)
	}

	for i := range revisions {
		rev := &revisions[i]
		if rev.ID == target.ID || !rev.IsActive {
			continue
		}
		before := *rev
		rev.IsActive = false
		if rev.EffectiveTo == nil {
			closed := now
			rev.EffectiveTo = &closed
		}
		rev.UpdatedAt = now
		if err := repo.UpdateRevision(ctx, rev); err != nil {
			return false, nil, fmt.Errorf("deactivating revision %d: %w", rev.ID, err)
		}
		superseded = append(superseded, supersededRevision{Before: before, After: *rev})
	}

	if !target.IsActive {
		target.IsActive = true
		changed = true
	}
	if target.EffectiveFrom == nil {
		from := now
		target.EffectiveFrom = &from
		changed = true
	}
	if target.EffectiveTo != nil {
		target.EffectiveTo = nil
		changed = true
	}
	return changed, superseded, nil
}
