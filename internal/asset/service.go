package asset

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/audit"
	"github.com/nerrad567/rza-core/internal/events"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
)

// Service implements the asset hierarchy operations.
type Service struct {
	db       *database.DB
	recorder *audit.Recorder
	events   events.Publisher
	now      func() time.Time
}

// NewService creates an asset service. A nil publisher discards events.
func NewService(db *database.DB, recorder *audit.Recorder, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:       db,
		recorder: recorder,
		events:   publisher,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// mutateFunc applies one change through repo and describes it for the audit log.
type mutateFunc func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error)

// mutate runs fn and its audit entry in one transaction, then publishes
// the change once committed.
func (s *Service) mutate(ctx context.Context, op string, fn mutateFunc) error {
	var change audit.Change
	err := s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		var err error
		if change, err = fn(ctx, NewSQLiteRepository(tx)); err != nil {
			return err
		}
		if _, err := s.recorder.Record(ctx, tx, change); err != nil {
			return fmt.Errorf("recording audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.FromDB(op, "", 0, err)
	}

	s.events.Publish(ctx, events.New(change.Action, change.EntityName, change.EntityID,
		s.recorder.Actor(ctx), change.Before, change.After))
	return nil
}

// changeOf builds an audit change from before/after entity values.
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

// reader returns a repository for reads outside any transaction.
func (s *Service) reader() *SQLiteRepository {
	return NewSQLiteRepository(s.db)
}

// ─── Substations ────────────────────────────────────────────────────

// CreateSubstation creates a substation. Duplicate names or codes are a Conflict.
func (s *Service) CreateSubstation(ctx context.Context, in SubstationCreate) (*Substation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	sub := &Substation{
		Name:         in.Name,
		Code:         in.Code,
		VoltageClass: in.VoltageClass,
		Location:     in.Location,
		Description:  in.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.mutate(ctx, "creating substation", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		if err := repo.CreateSubstation(ctx, sub); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionCreate, audit.EntitySubstation, sub.ID, nil, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubstation returns a substation with its switchgears, bays and documents.
func (s *Service) GetSubstation(ctx context.Context, id int64) (*SubstationDetail, error) {
	repo := s.reader()
	sub, err := repo.GetSubstation(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading substation", "", 0, err)
	}
	detail, err := substationDetail(ctx, repo, *sub)
	if err != nil {
		return nil, apperr.FromDB("loading substation", "", 0, err)
	}
	return &detail, nil
}

// ListSubstations returns every substation with its children.
func (s *Service) ListSubstations(ctx context.Context) ([]SubstationDetail, error) {
	repo := s.reader()
	subs, err := repo.ListSubstations(ctx)
	if err != nil {
		return nil, apperr.FromDB("listing substations", "", 0, err)
	}
	out := make([]SubstationDetail, 0, len(subs))
	for _, sub := range subs {
		d, err := substationDetail(ctx, repo, sub)
		if err != nil {
			return nil, apperr.FromDB("listing substations", "", 0, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func substationDetail(ctx context.Context, repo *SQLiteRepository, sub Substation) (SubstationDetail, error) {
	id := sub.ID
	sgs, err := repo.ListSwitchgears(ctx, &id)
	if err != nil {
		return SubstationDetail{}, err
	}
	detail := SubstationDetail{Substation: sub, Switchgears: make([]SwitchgearDetail, 0, len(sgs))}
	for _, sg := range sgs {
		d, err := switchgearDetail(ctx, repo, sg)
		if err != nil {
			return SubstationDetail{}, err
		}
		detail.Switchgears = append(detail.Switchgears, d)
	}
	if detail.Documents, err = repo.ListDocuments(ctx, &id); err != nil {
		return SubstationDetail{}, err
	}
	return detail, nil
}

// UpdateSubstation applies the present fields of p.
func (s *Service) UpdateSubstation(ctx context.Context, id int64, p SubstationPatch) (*Substation, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var updated *Substation
	err := s.mutate(ctx, "updating substation", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetSubstation(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		before := *cur

		p.Name.Apply(&cur.Name)
		p.Code.Apply(&cur.Code)
		p.VoltageClass.Apply(&cur.VoltageClass)
		p.Location.ApplyNullable(&cur.Location)
		p.Description.ApplyNullable(&cur.Description)
		cur.UpdatedAt = s.now()

		if err := repo.UpdateSubstation(ctx, cur); err != nil {
			return audit.Change{}, err
		}
		updated = cur
		return changeOf(audit.ActionUpdate, audit.EntitySubstation, id, &before, cur)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSubstation deletes a substation and everything below it.
func (s *Service) DeleteSubstation(ctx context.Context, id int64) error {
	return s.mutate(ctx, "deleting substation", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetSubstation(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		if err := repo.DeleteSubstation(ctx, id); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionDelete, audit.EntitySubstation, id, cur, nil)
	})
}

// ─── Switchgears ────────────────────────────────────────────────────

// CreateSwitchgear creates a switchgear under an existing substation.
func (s *Service) CreateSwitchgear(ctx context.Context, in SwitchgearCreate) (*Switchgear, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	sg := &Switchgear{
		SubstationID: in.SubstationID,
		Name:         in.Name,
		Kind:         in.Kind,
		VoltageLevel: in.VoltageLevel,
		Description:  in.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.mutate(ctx, "creating switchgear", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		if err := repo.requireParent(ctx, audit.EntitySubstation, "substations", sg.SubstationID); err != nil {
			return audit.Change{}, err
		}
		if err := repo.CreateSwitchgear(ctx, sg); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionCreate, audit.EntitySwitchgear, sg.ID, nil, sg)
	})
	if err != nil {
		return nil, err
	}
	return sg, nil
}

// GetSwitchgear returns a switchgear with its bays.
func (s *Service) GetSwitchgear(ctx context.Context, id int64) (*SwitchgearDetail, error) {
	repo := s.reader()
	sg, err := repo.GetSwitchgear(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading switchgear", "", 0, err)
	}
	detail, err := switchgearDetail(ctx, repo, *sg)
	if err != nil {
		return nil, apperr.FromDB("loading switchgear", "", 0, err)
	}
	return &detail, nil
}

// ListSwitchgears returns switchgears with their bays, optionally of one substation.
func (s *Service) ListSwitchgears(ctx context.Context, substationID *int64) ([]SwitchgearDetail, error) {
	repo := s.reader()
	sgs, err := repo.ListSwitchgears(ctx, substationID)
	if err != nil {
		return nil, apperr.FromDB("listing switchgears", "", 0, err)
	}
	out := make([]SwitchgearDetail, 0, len(sgs))
	for _, sg := range sgs {
		d, err := switchgearDetail(ctx, repo, sg)
		if err != nil {
			return nil, apperr.FromDB("listing switchgears", "", 0, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func switchgearDetail(ctx context.Context, repo *SQLiteRepository, sg Switchgear) (SwitchgearDetail, error) {
	id := sg.ID
	bays, err := repo.ListBays(ctx, &id)
	if err != nil {
		return SwitchgearDetail{}, err
	}
	return SwitchgearDetail{Switchgear: sg, Bays: bays}, nil
}

// UpdateSwitchgear applies the present fields of p. Moving it to another
// substation requires that substation to exist.
func (s *Service) UpdateSwitchgear(ctx context.Context, id int64, p SwitchgearPatch) (*Switchgear, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var updated *Switchgear
	err := s.mutate(ctx, "updating switchgear", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetSwitchgear(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		before := *cur

		if p.SubstationID.HasValue() && p.SubstationID.Value != cur.SubstationID {
			if err := repo.requireParent(ctx, audit.EntitySubstation, "substations", p.SubstationID.Value); err != nil {
				return audit.Change{}, err
			}
		}
		p.SubstationID.Apply(&cur.SubstationID)
		p.Name.Apply(&cur.Name)
		p.Kind.Apply(&cur.Kind)
		p.VoltageLevel.Apply(&cur.VoltageLevel)
		p.Description.ApplyNullable(&cur.Description)
		cur.UpdatedAt = s.now()

		if err := repo.UpdateSwitchgear(ctx, cur); err != nil {
			return audit.Change{}, err
		}
		updated = cur
		return changeOf(audit.ActionUpdate, audit.EntitySwitchgear, id, &before, cur)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSwitchgear deletes a switchgear and everything below it.
func (s *Service) DeleteSwitchgear(ctx context.Context, id int64) error {
	return s.mutate(ctx, "deleting switchgear", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetSwitchgear(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		if err := repo.DeleteSwitchgear(ctx, id); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionDelete, audit.EntitySwitchgear, id, cur, nil)
	})
}

// ─── Bays ───────────────────────────────────────────────────────────

// CreateBay creates a bay under an existing switchgear.
func (s *Service) CreateBay(ctx context.Context, in BayCreate) (*Bay, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	bay := &Bay{
		SwitchgearID: in.SwitchgearID,
		Name:         in.Name,
		Function:     in.Function,
		Feeder:       in.Feeder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.mutate(ctx, "creating bay", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		if err := repo.requireParent(ctx, audit.EntitySwitchgear, "switchgears", bay.SwitchgearID); err != nil {
			return audit.Change{}, err
		}
		if err := repo.CreateBay(ctx, bay); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionCreate, audit.EntityBay, bay.ID, nil, bay)
	})
	if err != nil {
		return nil, err
	}
	return bay, nil
}

// GetBay returns a bay by ID.
func (s *Service) GetBay(ctx context.Context, id int64) (*Bay, error) {
	bay, err := s.reader().GetBay(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading bay", "", 0, err)
	}
	return bay, nil
}

// ListBays returns bays, optionally of one switchgear.
func (s *Service) ListBays(ctx context.Context, switchgearID *int64) ([]Bay, error) {
	bays, err := s.reader().ListBays(ctx, switchgearID)
	if err != nil {
		return nil, apperr.FromDB("listing bays", "", 0, err)
	}
	return bays, nil
}

// UpdateBay applies the present fields of p.
func (s *Service) UpdateBay(ctx context.Context, id int64, p BayPatch) (*Bay, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var updated *Bay
	err := s.mutate(ctx, "updating bay", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetBay(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		before := *cur

		if p.SwitchgearID.HasValue() && p.SwitchgearID.Value != cur.SwitchgearID {
			if err := repo.requireParent(ctx, audit.EntitySwitchgear, "switchgears", p.SwitchgearID.Value); err != nil {
				return audit.Change{}, err
			}
		}
		p.SwitchgearID.Apply(&cur.SwitchgearID)
		p.Name.Apply(&cur.Name)
		p.Function.Apply(&cur.Function)
		p.Feeder.ApplyNullable(&cur.Feeder)
		cur.UpdatedAt = s.now()

		if err := repo.UpdateBay(ctx, cur); err != nil {
			return audit.Change{}, err
		}
		updated = cur
		return changeOf(audit.ActionUpdate, audit.EntityBay, id, &before, cur)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBay deletes a bay and everything below it.
func (s *Service) DeleteBay(ctx context.Context, id int64) error {
	return s.mutate(ctx, "deleting bay", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetBay(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		if err := repo.DeleteBay(ctx, id); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionDelete, audit.EntityBay, id, cur, nil)
	})
}
