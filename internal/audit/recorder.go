package audit

import (
	"context"
	"time"

	"github.com/nerrad567/rza-core/internal/infrastructure/config"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
)

// Recorder appends audit entries inside the caller's transaction.
type Recorder struct {
	repo         Repository
	enabled      bool
	defaultActor string
	now          func() time.Time
}

// NewRecorder creates a recorder from the audit configuration.
func NewRecorder(repo Repository, cfg config.AuditConfig) *Recorder {
	return &Recorder{
		repo:         repo,
		enabled:      cfg.Enabled,
		defaultActor: cfg.DefaultActor,
		now:          time.Now,
	}
}

// Enabled reports whether entries are written.
func (r *Recorder) Enabled() bool {
	return r.enabled
}

// Record writes c through tx. It is a no-op returning (nil, nil) when
// auditing is disabled. The returned entry carries the generated id.
//
// Call it after the mutation has been applied and before commit. An error
// must abort the enclosing transaction.
func (r *Recorder) Record(ctx context.Context, tx database.DBTX, c Change) (*Entry, error) {
	if !r.enabled {
		return nil, nil
	}

	e := &Entry{
		Action:      c.Action,
		EntityName:  c.EntityName,
		Actor:       r.resolveActor(ctx, c.Actor),
		Critical:    !c.NonCritical,
		BeforeState: c.Before,
		AfterState:  c.After,
		CreatedAt:   r.now().UTC(),
	}
	if c.EntityID != 0 {
		id := c.EntityID
		e.EntityID = &id
	}

	if err := r.repo.Create(ctx, tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Actor returns the actor Record would attribute an entry to.
func (r *Recorder) Actor(ctx context.Context) string {
	return r.resolveActor(ctx, "")
}

func (r *Recorder) resolveActor(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if actor, ok := ActorFromContext(ctx); ok {
		return actor
	}
	return r.defaultActor
}
