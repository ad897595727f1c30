package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/rza-core/internal/infrastructure/database"
)

// Page size bounds for List.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Filter controls which audit entries to return.
type Filter struct {
	Action     string // optional: create, update, delete, create_revision, ...
	EntityName string // optional: Substation, Panel, SettingRevision, ...
	EntityID   *int64 // optional: a specific entity id
	Actor      string // optional
	Limit      int    // default 50, max 200
	Offset     int    // pagination offset
}

// ListResult contains the paginated audit entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the audit log storage operations.
type Repository interface {
	// Create inserts e through tx and sets e.ID.
	Create(ctx context.Context, tx database.DBTX, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores audit entries in SQLite.
type SQLiteRepository struct {
	db database.DBTX
}

// NewSQLiteRepository creates a new audit log repository. db is used for
// reads; inserts go through the transaction handed to Create.
func NewSQLiteRepository(db database.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new audit entry.
func (r *SQLiteRepository) Create(ctx context.Context, tx database.DBTX, e *Entry) error {
	before, err := encodeState(e.BeforeState)
	if err != nil {
		return fmt.Errorf("encoding before_state: %w", err)
	}
	after, err := encodeState(e.AfterState)
	if err != nil {
		return fmt.Errorf("encoding after_state: %w", err)
	}

	var entityID any
	if e.EntityID != nil {
		entityID = *e.EntityID
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (action, entity_name, entity_id, actor, critical, before_state, after_state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Action, e.EntityName, entityID, e.Actor, e.Critical,
		before, after, database.FormatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading audit entry id: %w", err)
	}
	e.ID = id
	return nil
}

// encodeState returns nil for an absent snapshot, or its JSON text.
func encodeState(state map[string]any) (any, error) {
	if state == nil {
		return nil, nil
	}
	b, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// List returns audit entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.EntityName != "" {
		conditions = append(conditions, "entity_name = ?")
		args = append(args, filter.EntityName)
	}
	if filter.EntityID != nil {
		conditions = append(conditions, "entity_id = ?")
		args = append(args, *filter.EntityID)
	}
	if filter.Actor != "" {
		conditions = append(conditions, "actor = ?")
		args = append(args, filter.Actor)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM audit_log " + where //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	query := `SELECT id, action, entity_name, entity_id, actor, critical, before_state, after_state, created_at
		FROM audit_log ` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?` //nolint:gosec // as above
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var entityID sql.NullInt64
	var before, after sql.NullString
	var createdAt string

	if err := rows.Scan(&e.ID, &e.Action, &e.EntityName, &entityID, &e.Actor,
		&e.Critical, &before, &after, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("scanning audit entry: %w", err)
	}

	if entityID.Valid {
		id := entityID.Int64
		e.EntityID = &id
	}
	if before.Valid && before.String != "" {
		if err := json.Unmarshal([]byte(before.String), &e.BeforeState); err != nil {
			return Entry{}, fmt.Errorf("decoding before_state of entry %d: %w", e.ID, err)
		}
	}
	if after.Valid && after.String != "" {
		if err := json.Unmarshal([]byte(after.String), &e.AfterState); err != nil {
			return Entry{}, fmt.Errorf("decoding after_state of entry %d: %w", e.ID, err)
		}
	}
	e.CreatedAt = database.ParseTime(createdAt)

	return e, nil
}
