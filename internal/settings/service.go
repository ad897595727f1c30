package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/audit"
	"github.com/nerrad567/rza-core/internal/events"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
)

// Service implements the configuration and revision operations.
type Service struct {
	db       *database.DB
	recorder *audit.Recorder
	events   events.Publisher
	docs     *DocumentValidator
	now      func() time.Time
}

// NewService creates a settings service. A nil publisher discards events.
func NewService(db *database.DB, recorder *audit.Recorder, docs *DocumentValidator, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:       db,
		recorder: recorder,
		events:   publisher,
		docs:     docs,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

type mutateFunc func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error)

// revisionMutateFunc also returns the siblings its activation deactivated.
type revisionMutateFunc func(ctx context.Context, repo *SQLiteRepository) (audit.Change, []supersededRevision, error)

// mutate runs fn and its audit entry in one transaction, then publishes
// the change once committed.
func (s *Service) mutate(ctx context.Context, op string, fn mutateFunc) error {
	return s.mutateRevision(ctx, op, func(ctx context.Context, repo *SQLiteRepository) (audit.Change, []supersededRevision, error) {
		change, err := fn(ctx, repo)
		return change, nil, err
	})
}

// mutateRevision is mutate for changes that may run the activation
// protocol. Each deactivated sibling is published as an update_revision
// event ahead of the change itself. Siblings get no audit entry of their
// own; the change's entry covers the whole operation.
func (s *Service) mutateRevision(ctx context.Context, op string, fn revisionMutateFunc) error {
	var change audit.Change
	var siblings []audit.Change
	err := s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		var superseded []supersededRevision
		var err error
		if change, superseded, err = fn(ctx, NewSQLiteRepository(tx)); err != nil {
			return err
		}
		siblings = siblings[:0]
		for i := range superseded {
			sib := &superseded[i]
			c, err := changeOf(audit.ActionUpdateRevision, audit.EntitySettingRevision, sib.After.ID, &sib.Before, &sib.After)
			if err != nil {
				return err
			}
			siblings = append(siblings, c)
		}
		if _, err := s.recorder.Record(ctx, tx, change); err != nil {
			return fmt.Errorf("recording audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.FromDB(op, "", 0, err)
	}

	actor := s.recorder.Actor(ctx)
	for _, c := range append(siblings, change) {
		s.events.Publish(ctx, events.New(c.Action, c.EntityName, c.EntityID, actor, c.Before, c.After))
	}
	return nil
}

func changeOf(action, entity string, id int64, before, after any) (audit.Change, error) {
	b, err := audit.Snapshot(before)
	if err != nil {
		return audit.Change{}, err
	}
	a, err := audit.Snapshot(after)
	if err != nil {
		return audit.Change{}, err
	}
	return audit.Change{Action: action, EntityName: entity, EntityID: id, Before: b, After: a}, nil
}

// ─── Configs ────────────────────────────────────────────────────────

// CreateConfig creates a configuration for an existing device.
func (s *Service) CreateConfig(ctx context.Context, in ConfigCreate) (*DeviceConfig, error) {
	if err := in.validate(s.docs); err != nil {
		return nil, err
	}

	now := s.now()
	cfg := &DeviceConfig{
		DeviceID:   in.DeviceID,
		VersionTag: in.VersionTag,
		Status:     in.Status,
		Payload:    in.Payload,
		Comment:    in.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if cfg.Status == "" {
		cfg.Status = DefaultConfigStatus
	}
	if cfg.Payload == nil {
		cfg.Payload = map[string]any{}
	}

	err := s.mutate(ctx, "creating config", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		if err := repo.requireDevice(ctx, cfg.DeviceID); err != nil {
			return audit.Change{}, err
		}
		if err := repo.CreateConfig(ctx, cfg); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionCreate, audit.EntityDeviceConfig, cfg.ID, nil, cfg)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfig returns a configuration with its revisions.
func (s *Service) GetConfig(ctx context.Context, id int64) (*ConfigDetail, error) {
	repo := NewSQLiteRepository(s.db)
	cfg, err := repo.GetConfig(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading config", "", 0, err)
	}
	revs, err := repo.ListRevisions(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading config", "", 0, err)
	}
	return &ConfigDetail{DeviceConfig: *cfg, Revisions: revs}, nil
}

// ListConfigs returns configurations with their revisions, optionally of one device.
func (s *Service) ListConfigs(ctx context.Context, deviceID *int64) ([]ConfigDetail, error) {
	repo := NewSQLiteRepository(s.db)
	cfgs, err := repo.ListConfigs(ctx, deviceID)
	if err != nil {
		return nil, apperr.FromDB("listing configs", "", 0, err)
	}
	out := make([]ConfigDetail, 0, len(cfgs))
	for _, cfg := range cfgs {
		revs, err := repo.ListRevisions(ctx, cfg.ID)
		if err != nil {
			return nil, apperr.FromDB("listing configs", "", 0, err)
		}
		out = append(out, ConfigDetail{DeviceConfig: cfg, Revisions: revs})
	}
	return out, nil
}

// UpdateConfig applies the present fields of p. Moving the configuration
// to another device requires that device to exist.
func (s *Service) UpdateConfig(ctx context.Context, id int64, p ConfigPatch) (*DeviceConfig, error) {
	if err := p.validate(s.docs); err != nil {
		return nil, err
	}

	var updated *DeviceConfig
	err := s.mutate(ctx, "updating config", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetConfig(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		before := *cur

		if p.DeviceID.HasValue() && p.DeviceID.Value != cur.DeviceID {
			if err := repo.requireDevice(ctx, p.DeviceID.Value); err != nil {
				return audit.Change{}, err
			}
		}
		p.DeviceID.Apply(&cur.DeviceID)
		p.VersionTag.Apply(&cur.VersionTag)
		p.Status.Apply(&cur.Status)
		p.Payload.Apply(&cur.Payload)
		p.Comment.ApplyNullable(&cur.Comment)
		cur.UpdatedAt = s.now()

		if err := repo.UpdateConfig(ctx, cur); err != nil {
			return audit.Change{}, err
		}
		updated = cur
		return changeOf(audit.ActionUpdate, audit.EntityDeviceConfig, id, &before, cur)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ─── Revisions ──────────────────────────────────────────────────────

// CreateRevision adds a revision to configID. A non-zero in.ConfigID must
// equal configID. An active revision supersedes the current one.
func (s *Service) CreateRevision(ctx context.Context, configID int64, in RevisionCreate) (*SettingRevision, error) {
	if err := in.validate(s.docs); err != nil {
		return nil, err
	}
	if in.ConfigID != 0 && in.ConfigID != configID {
		return nil, apperr.Validation("config_id %d does not match path config %d", in.ConfigID, configID)
	}

	now := s.now()
	rev := &SettingRevision{
		ConfigID:      configID,
		Revision:      in.Revision,
		Settings:      in.Settings,
		EffectiveFrom: in.EffectiveFrom,
		EffectiveTo:   in.EffectiveTo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if rev.Settings == nil {
		rev.Settings = map[string]any{}
	}

	err := s.mutateRevision(ctx, "creating revision", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, []supersededRevision, error) {
		if _, err := repo.GetConfig(ctx, configID); err != nil {
			return audit.Change{}, nil, err
		}
		var superseded []supersededRevision
		if in.IsActive {
			var err error
			if _, superseded, err = activate(ctx, repo, rev, now); err != nil {
				return audit.Change{}, nil, err
			}
		}
		if err := repo.CreateRevision(ctx, rev); err != nil {
			return audit.Change{}, nil, err
		}
		change, err := changeOf(audit.ActionCreateRevision, audit.EntitySettingRevision, rev.ID, nil, rev)
		return change, superseded, err
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// GetRevision returns a revision by ID.
func (s *Service) GetRevision(ctx context.Context, id int64) (*SettingRevision, error) {
	rev, err := NewSQLiteRepository(s.db).GetRevision(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading revision", "", 0, err)
	}
	return rev, nil
}

// ListRevisions returns the revisions of an existing configuration.
func (s *Service) ListRevisions(ctx context.Context, configID int64) ([]SettingRevision, error) {
	repo := NewSQLiteRepository(s.db)
	if _, err := repo.GetConfig(ctx, configID); err != nil {
		return nil, apperr.FromDB("listing revisions", "", 0, err)
	}
	revs, err := repo.ListRevisions(ctx, configID)
	if err != nil {
		return nil, apperr.FromDB("listing revisions", "", 0, err)
	}
	return revs, nil
}

// UpdateRevision applies the present fields of p. Setting is_active to
// true supersedes the active sibling; setting it to false only deactivates
// this revision and leaves the configuration without an active one.
func (s *Service) UpdateRevision(ctx context.Context, id int64, p RevisionPatch) (*SettingRevision, error) {
	if err := p.validate(s.docs); err != nil {
		return nil, err
	}

	var updated *SettingRevision
	err := s.mutateRevision(ctx, "updating revision", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, []supersededRevision, error) {
		cur, err := repo.GetRevision(ctx, id)
		if err != nil {
			return audit.Change{}, nil, err
		}
		before := *cur
		now := s.now()

		p.Revision.Apply(&cur.Revision)
		p.Settings.Apply(&cur.Settings)
		p.EffectiveFrom.ApplyNullable(&cur.EffectiveFrom)
		p.EffectiveTo.ApplyNullable(&cur.EffectiveTo)

		var superseded []supersededRevision
		if p.IsActive.HasValue() {
			if p.IsActive.Value {
				if _, superseded, err = activate(ctx, repo, cur, now); err != nil {
					return audit.Change{}, nil, err
				}
			} else {
				cur.IsActive = false
			}
		}
		cur.UpdatedAt = now

		if err := repo.UpdateRevision(ctx, cur); err != nil {
			return audit.Change{}, nil, err
		}
		updated = cur
		change, err := changeOf(audit.ActionUpdateRevision, audit.EntitySettingRevision, id, &before, cur)
		return change, superseded, err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ActivateRevision makes a revision the active one of its configuration.
// Activating the already active revision only backfills effective_from.
func (s *Service) ActivateRevision(ctx context.Context, id int64) (*SettingRevision, error) {
	var activated *SettingRevision
	err := s.mutateRevision(ctx, "activating revision", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, []supersededRevision, error) {
		cur, err := repo.GetRevision(ctx, id)
		if err != nil {
			return audit.Change{}, nil, err
		}
		now := s.now()

		changed, superseded, err := activate(ctx, repo, cur, now)
		if err != nil {
			return audit.Change{}, nil, err
		}
		if changed {
			cur.UpdatedAt = now
			if err := repo.UpdateRevision(ctx, cur); err != nil {
				return audit.Change{}, nil, err
			}
		}
		activated = cur
		change, err := changeOf(audit.ActionActivateRevision, audit.EntitySettingRevision, id, nil, cur)
		return change, superseded, err
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}
