package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/rza-core/internal/infrastructure/config"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
	"github.com/nerrad567/rza-core/internal/testdb"
)

type sample struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

func TestSnapshot(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snap, err := Snapshot(sample{ID: 1, Name: "TP-1", CreatedAt: ts})
	require.NoError(t, err)

	assert.Equal(t, float64(1), snap["id"])
	assert.Equal(t, "TP-1", snap["name"])
	assert.Nil(t, snap["notes"])
	assert.Equal(t, "2026-01-02T03:04:05Z", snap["created_at"])

	nilSnap, err := Snapshot(nil)
	require.NoError(t, err)
	assert.Nil(t, nilSnap)

	_, err = Snapshot([]int{1, 2})
	assert.Error(t, err)
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), "engineer-7")
	actor, ok := ActorFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "engineer-7", actor)

	_, ok = ActorFromContext(WithActor(context.Background(), ""))
	assert.False(t, ok, "empty actor is treated as absent")
}

func newRecorder(db *database.DB, enabled bool) *Recorder {
	return NewRecorder(NewSQLiteRepository(db), config.AuditConfig{
		Enabled:      enabled,
		DefaultActor: "system",
	})
}

func TestRecorderWritesInsideTransaction(t *testing.T) {
	db := testdb.Open(t)
	rec := newRecorder(db, true)
	ctx := context.Background()

	var entry *Entry
	err := db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		var err error
		entry, err = rec.Record(ctx, tx, Change{
			Action:     ActionCreate,
			EntityName: EntitySubstation,
			EntityID:   5,
			After:      map[string]any{"name": "TP-1"},
		})
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.NotZero(t, entry.ID)
	assert.Equal(t, "system", entry.Actor)
	assert.True(t, entry.Critical)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, int64(5), *entry.EntityID)

	res, err := NewSQLiteRepository(db).List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	got := res.Entries[0]
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, "TP-1", got.AfterState["name"])
	assert.Nil(t, got.BeforeState)
	assert.WithinDuration(t, entry.CreatedAt, got.CreatedAt, time.Microsecond)
}

func TestRecorderRolledBackWithTransaction(t *testing.T) {
	db := testdb.Open(t)
	rec := newRecorder(db, true)
	ctx := context.Background()

	boom := errors.New("mutation failed after audit")
	err := db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		if _, err := rec.Record(ctx, tx, Change{Action: ActionDelete, EntityName: EntityBay, EntityID: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, testdb.Count(t, db, "audit_log"))
}

func TestRecorderDisabled(t *testing.T) {
	db := testdb.Open(t)
	rec := newRecorder(db, false)
	assert.False(t, rec.Enabled())

	err := db.WithTx(context.Background(), func(ctx context.Context, tx database.DBTX) error {
		entry, err := rec.Record(ctx, tx, Change{Action: ActionCreate, EntityName: EntityPanel, EntityID: 1})
		assert.Nil(t, entry)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, testdb.Count(t, db, "audit_log"))
}

func TestRecorderActorResolution(t *testing.T) {
	db := testdb.Open(t)
	rec := newRecorder(db, true)

	tests := []struct {
		name     string
		ctx      context.Context
		explicit string
		want     string
	}{
		{"default", context.Background(), "", "system"},
		{"from context", WithActor(context.Background(), "alice"), "", "alice"},
		{"explicit wins", WithActor(context.Background(), "alice"), "migration-tool", "migration-tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.WithTx(tt.ctx, func(ctx context.Context, tx database.DBTX) error {
				e, err := rec.Record(ctx, tx, Change{Action: ActionUpdate, EntityName: EntityDevice, Actor: tt.explicit})
				if err != nil {
					return err
				}
				assert.Equal(t, tt.want, e.Actor)
				assert.Nil(t, e.EntityID)
				return nil
			})
			require.NoError(t, err)
		})
	}

	assert.Equal(t, "bob", rec.Actor(WithActor(context.Background(), "bob")))
}

func TestRecorderInsertFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close() //nolint:errcheck // Test cleanup

	db := database.Wrap(sqlDB)
	rec := newRecorder(db, true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_log").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = db.WithTx(context.Background(), func(ctx context.Context, tx database.DBTX) error {
		_, err := rec.Record(ctx, tx, Change{Action: ActionCreate, EntityName: EntityDocument, EntityID: 3})
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting audit entry")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFilters(t *testing.T) {
	db := testdb.Open(t)
	rec := newRecorder(db, true)
	ctx := context.Background()

	changes := []struct {
		actor  string
		change Change
	}{
		{"alice", Change{Action: ActionCreate, EntityName: EntitySubstation, EntityID: 1}},
		{"alice", Change{Action: ActionCreate, EntityName: EntitySwitchgear, EntityID: 1}},
		{"bob", Change{Action: ActionUpdate, EntityName: EntitySubstation, EntityID: 1}},
		{"bob", Change{Action: ActionCreateRevision, EntityName: EntitySettingRevision, EntityID: 9}},
		{"carol", Change{Action: ActionDelete, EntityName: EntitySubstation, EntityID: 2}},
	}
	for _, c := range changes {
		err := db.WithTx(WithActor(ctx, c.actor), func(ctx context.Context, tx database.DBTX) error {
			_, err := rec.Record(ctx, tx, c.change)
			return err
		})
		require.NoError(t, err)
	}

	repo := NewSQLiteRepository(db)
	id1 := int64(1)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 5},
		{"by action", Filter{Action: ActionCreate}, 2},
		{"by entity name", Filter{EntityName: EntitySubstation}, 3},
		{"by entity", Filter{EntityName: EntitySubstation, EntityID: &id1}, 2},
		{"by actor", Filter{Actor: "bob"}, 2},
		{"no match", Filter{Actor: "nobody"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Total)
			assert.Len(t, res.Entries, tt.want)
		})
	}

	t.Run("newest first with paging", func(t *testing.T) {
		res, err := repo.List(ctx, Filter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 5, res.Total)
		require.Len(t, res.Entries, 2)
		assert.Equal(t, ActionCreateRevision, res.Entries[0].Action)
		assert.Equal(t, ActionUpdate, res.Entries[1].Action)
	})

	t.Run("limit clamped", func(t *testing.T) {
		res, err := repo.List(ctx, Filter{Limit: 10_000, Offset: -3})
		require.NoError(t, err)
		assert.Equal(t, maxListLimit, res.Limit)
		assert.Equal(t, 0, res.Offset)
	})
}
