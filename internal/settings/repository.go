package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/audit"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
)

// SQLiteRepository reads and writes configurations and revisions.
type SQLiteRepository struct {
	db database.DBTX
}

// NewSQLiteRepository creates a repository over db.
func NewSQLiteRepository(db database.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func encodeDocument(doc map[string]any) (string, error) {
	if doc == nil {
		return "{}", nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	return string(b), nil
}

func decodeDocument(s string) (map[string]any, error) {
	doc := map[string]any{}
	if s == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// DeviceExists reports whether the device row exists.
func (r *SQLiteRepository) DeviceExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM devices WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking device %d: %w", id, err)
	}
	return true, nil
}

func (r *SQLiteRepository) requireDevice(ctx context.Context, id int64) error {
	ok, err := r.DeviceExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(audit.EntityDevice, id)
	}
	return nil
}

// ─── Configs ────────────────────────────────────────────────────────

const configColumns = `id, device_id, version_tag, status, payload, comment, created_at, updated_at`

func scanConfig(row rowScanner) (*DeviceConfig, error) {
	var c DeviceConfig
	var payload, createdAt, updatedAt string
	var comment sql.NullString
	if err := row.Scan(&c.ID, &c.DeviceID, &c.VersionTag, &c.Status, &payload, &comment, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc, err := decodeDocument(payload)
	if err != nil {
		return nil, err
	}
	c.Payload = doc
	c.Comment = database.StringPtr(comment)
	c.CreatedAt = database.ParseTime(createdAt)
	c.UpdatedAt = database.ParseTime(updatedAt)
	return &c, nil
}

// CreateConfig inserts c and sets its ID.
func (r *SQLiteRepository) CreateConfig(ctx context.Context, c *DeviceConfig) error {
	payload, err := encodeDocument(c.Payload)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO device_configs (device_id, version_tag, status, payload, comment, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.DeviceID, c.VersionTag, c.Status, payload, database.NullString(c.Comment),
		database.FormatTime(c.CreatedAt), database.FormatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting config %s: %w", c.VersionTag, err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading config id: %w", err)
	}
	return nil
}

// GetConfig returns a configuration by ID.
func (r *SQLiteRepository) GetConfig(ctx context.Context, id int64) (*DeviceConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+configColumns+` FROM device_configs WHERE id = ?`, id)
	c, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(audit.EntityDeviceConfig, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config %d: %w", id, err)
	}
	return c, nil
}

// ListConfigs returns configurations ordered by id, optionally of one device.
func (r *SQLiteRepository) ListConfigs(ctx context.Context, deviceID *int64) ([]DeviceConfig, error) {
	query := `SELECT ` + configColumns + ` FROM device_configs`
	var args []any
	if deviceID != nil {
		query += ` WHERE device_id = ?`
		args = append(args, *deviceID)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying configs: %w", err)
	}
	defer rows.Close()

	out := []DeviceConfig{}
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning config row: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating config rows: %w", err)
	}
	return out, nil
}

// UpdateConfig writes every column of c.
func (r *SQLiteRepository) UpdateConfig(ctx context.Context, c *DeviceConfig) error {
	payload, err := encodeDocument(c.Payload)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE device_configs
		 SET device_id = ?, version_tag = ?, status = ?, payload = ?, comment = ?, updated_at = ?
		 WHERE id = ?`,
		c.DeviceID, c.VersionTag, c.Status, payload, database.NullString(c.Comment),
		database.FormatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("updating config %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(audit.EntityDeviceConfig, c.ID)
	}
	return nil
}

// ─── Revisions ──────────────────────────────────────────────────────

const revisionColumns = `id, config_id, revision, settings, is_active, effective_from, effective_to, created_at, updated_at`

func scanRevision(row rowScanner) (*SettingRevision, error) {
	var rev SettingRevision
	var settings, createdAt, updatedAt string
	var from, to sql.NullString
	if err := row.Scan(&rev.ID, &rev.ConfigID, &rev.Revision, &settings, &rev.IsActive,
		&from, &to, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc, err := decodeDocument(settings)
	if err != nil {
		return nil, err
	}
	rev.Settings = doc
	rev.EffectiveFrom = database.ParseNullTime(from)
	rev.EffectiveTo = database.ParseNullTime(to)
	rev.CreatedAt = database.ParseTime(createdAt)
	rev.UpdatedAt = database.ParseTime(updatedAt)
	return &rev, nil
}

// CreateRevision inserts rev and sets its ID.
func (r *SQLiteRepository) CreateRevision(ctx context.Context, rev *SettingRevision) error {
	settings, err := encodeDocument(rev.Settings)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO setting_revisions
		 (config_id, revision, settings, is_active, effective_from, effective_to, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.ConfigID, rev.Revision, settings, rev.IsActive,
		database.FormatNullTime(rev.EffectiveFrom), database.FormatNullTime(rev.EffectiveTo),
		database.FormatTime(rev.CreatedAt), database.FormatTime(rev.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting revision %d of config %d: %w", rev.Revision, rev.ConfigID, err)
	}
	if rev.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading revision id: %w", err)
	}
	return nil
}

// GetRevision returns a revision by ID.
func (r *SQLiteRepository) GetRevision(ctx context.Context, id int64) (*SettingRevision, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+revisionColumns+` FROM setting_revisions WHERE id = ?`, id)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(audit.EntitySettingRevision, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading revision %d: %w", id, err)
	}
	return rev, nil
}

// ListRevisions returns the revisions of a configuration ordered by
// revision number, then id.
func (r *SQLiteRepository) ListRevisions(ctx context.Context, configID int64) ([]SettingRevision, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+revisionColumns+` FROM setting_revisions WHERE config_id = ? ORDER BY revision, id`,
		configID)
	if err != nil {
		return nil, fmt.Errorf("querying revisions of config %d: %w", configID, err)
	}
	defer rows.Close()

	out := []SettingRevision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning revision row: %w", err)
		}
		out = append(out, *rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating revision rows: %w", err)
	}
	return out, nil
}

// UpdateRevision writes every column of rev.
func (r *SQLiteRepository) UpdateRevision(ctx context.Context, rev *SettingRevision) error {
	settings, err := encodeDocument(rev.Settings)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE setting_revisions
		 SET revision = ?, settings = ?, is_active = ?, effective_from = ?, effective_to = ?, updated_at = ?
		 WHERE id = ?`,
		rev.Revision, settings, rev.IsActive,
		database.FormatNullTime(rev.EffectiveFrom), database.FormatNullTime(rev.EffectiveTo),
		database.FormatTime(rev.UpdatedAt), rev.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			e := apperr.Conflict("config %d already has an active revision", rev.ConfigID)
			e.Err = err
			return e
		}
		return fmt.Errorf("updating revision %d: %w", rev.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(audit.EntitySettingRevision, rev.ID)
	}
	return nil
}
