package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
)

// SQLiteRepository reads and writes asset rows through a database handle.
// Construct it over a transaction for writes and over the *DB for reads.
type SQLiteRepository struct {
	db database.DBTX
}

// NewSQLiteRepository creates a repository over db.
func NewSQLiteRepository(db database.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryAll runs query and scans every row. The result is never nil.
func queryAll[T any](ctx context.Context, db database.DBTX, what string, scan func(rowScanner) (*T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", what, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", what, err)
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", what, err)
	}
	return out, nil
}

// getOne scans a single row, mapping sql.ErrNoRows to NotFound.
func getOne[T any](row *sql.Row, scan func(rowScanner) (*T, error), entity string, id int64) (*T, error) {
	item, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s %d: %w", entity, id, err)
	}
	return item, nil
}

func insertedID(res sql.Result, what string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading %s id: %w", what, err)
	}
	return id, nil
}

// exists reports whether table has a row with id.
func (r *SQLiteRepository) exists(ctx context.Context, table string, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one) //nolint:gosec // table names are constants
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s %d: %w", table, id, err)
	}
	return true, nil
}

// requireParent returns NotFound(entity, id) when the parent row is absent.
func (r *SQLiteRepository) requireParent(ctx context.Context, entity, table string, id int64) error {
	ok, err := r.exists(ctx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(entity, id)
	}
	return nil
}

// ─── Substations ────────────────────────────────────────────────────

const substationColumns = `id, name, code, voltage_class, location, description, created_at, updated_at`

func scanSubstation(row rowScanner) (*Substation, error) {
	var s Substation
	var location, description sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&s.ID, &s.Name, &s.Code, &s.VoltageClass, &location, &description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Location = database.StringPtr(location)
	s.Description = database.StringPtr(description)
	s.CreatedAt = database.ParseTime(createdAt)
	s.UpdatedAt = database.ParseTime(updatedAt)
	return &s, nil
}

func substationConflict(s *Substation, err error) error {
	e := apperr.Conflict("substation with name %q or code %q already exists", s.Name, s.Code)
	e.Err = err
	return e
}

// CreateSubstation inserts s and sets its ID.
func (r *SQLiteRepository) CreateSubstation(ctx context.Context, s *Substation) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO substations (name, code, voltage_class, location, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Code, s.VoltageClass,
		database.NullString(s.Location), database.NullString(s.Description),
		database.FormatTime(s.CreatedAt), database.FormatTime(s.UpdatedAt))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return substationConflict(s, err)
		}
		return fmt.Errorf("inserting substation %s: %w", s.Code, err)
	}
	s.ID, err = insertedID(res, "substation")
	return err
}

// GetSubstation returns a substation by ID.
func (r *SQLiteRepository) GetSubstation(ctx context.Context, id int64) (*Substation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+substationColumns+` FROM substations WHERE id = ?`, id)
	return getOne(row, scanSubstation, "Substation", id)
}

// ListSubstations returns all substations ordered by name.
func (r *SQLiteRepository) ListSubstations(ctx context.Context) ([]Substation, error) {
	return queryAll(ctx, r.db, "substations", scanSubstation,
		`SELECT `+substationColumns+` FROM substations ORDER BY name, id`)
}

// UpdateSubstation writes every mutable column of s.
func (r *SQLiteRepository) UpdateSubstation(ctx context.Context, s *Substation) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE substations SET name = ?, code = ?, voltage_class = ?, location = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		s.Name, s.Code, s.VoltageClass,
		database.NullString(s.Location), database.NullString(s.Description),
		database.FormatTime(s.UpdatedAt), s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return substationConflict(s, err)
		}
		return fmt.Errorf("updating substation %d: %w", s.ID, err)
	}
	return nil
}

// DeleteSubstation deletes a substation and, by cascade, its whole subtree.
func (r *SQLiteRepository) DeleteSubstation(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM substations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting substation %d: %w", id, err)
	}
	return nil
}

// ─── Switchgears ────────────────────────────────────────────────────

const switchgearColumns = `id, substation_id, name, kind, voltage_level, description, created_at, updated_at`

func scanSwitchgear(row rowScanner) (*Switchgear, error) {
	var sg Switchgear
	var description sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&sg.ID, &sg.SubstationID, &sg.Name, &sg.Kind, &sg.VoltageLevel, &description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sg.Description = database.StringPtr(description)
	sg.CreatedAt = database.ParseTime(createdAt)
	sg.UpdatedAt = database.ParseTime(updatedAt)
	return &sg, nil
}

// CreateSwitchgear inserts sg and sets its ID.
func (r *SQLiteRepository) CreateSwitchgear(ctx context.Context, sg *Switchgear) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO switchgears (substation_id, name, kind, voltage_level, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sg.SubstationID, sg.Name, sg.Kind, sg.VoltageLevel, database.NullString(sg.Description),
		database.FormatTime(sg.CreatedAt), database.FormatTime(sg.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting switchgear %s: %w", sg.Name, err)
	}
	sg.ID, err = insertedID(res, "switchgear")
	return err
}

// GetSwitchgear returns a switchgear by ID.
func (r *SQLiteRepository) GetSwitchgear(ctx context.Context, id int64) (*Switchgear, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+switchgearColumns+` FROM switchgears WHERE id = ?`, id)
	return getOne(row, scanSwitchgear, "Switchgear", id)
}

// ListSwitchgears returns switchgears, optionally of one substation.
func (r *SQLiteRepository) ListSwitchgears(ctx context.Context, substationID *int64) ([]Switchgear, error) {
	if substationID != nil {
		return queryAll(ctx, r.db, "switchgears", scanSwitchgear,
			`SELECT `+switchgearColumns+` FROM switchgears WHERE substation_id = ? ORDER BY id`, *substationID)
	}
	return queryAll(ctx, r.db, "switchgears", scanSwitchgear,
		`SELECT `+switchgearColumns+` FROM switchgears ORDER BY id`)
}

// UpdateSwitchgear writes every mutable column of sg.
func (r *SQLiteRepository) UpdateSwitchgear(ctx context.Context, sg *Switchgear) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE switchgears SET substation_id = ?, name = ?, kind = ?, voltage_level = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		sg.SubstationID, sg.Name, sg.Kind, sg.VoltageLevel, database.NullString(sg.Description),
		database.FormatTime(sg.UpdatedAt), sg.ID)
	if err != nil {
		return fmt.Errorf("updating switchgear %d: %w", sg.ID, err)
	}
	return nil
}

// DeleteSwitchgear deletes a switchgear and its subtree.
func (r *SQLiteRepository) DeleteSwitchgear(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM switchgears WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting switchgear %d: %w", id, err)
	}
	return nil
}

// ─── Bays ───────────────────────────────────────────────────────────

const bayColumns = `id, switchgear_id, name, function, feeder, created_at, updated_at`

func scanBay(row rowScanner) (*Bay, error) {
	var b Bay
	var feeder sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&b.ID, &b.SwitchgearID, &b.Name, &b.Function, &feeder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.Feeder = database.StringPtr(feeder)
	b.CreatedAt = database.ParseTime(createdAt)
	b.UpdatedAt = database.ParseTime(updatedAt)
	return &b, nil
}

// CreateBay inserts b and sets its ID.
func (r *SQLiteRepository) CreateBay(ctx context.Context, b *Bay) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bays (switchgear_id, name, function, feeder, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.SwitchgearID, b.Name, b.Function, database.NullString(b.Feeder),
		database.FormatTime(b.CreatedAt), database.FormatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting bay %s: %w", b.Name, err)
	}
	b.ID, err = insertedID(res, "bay")
	return err
}

// GetBay returns a bay by ID.
func (r *SQLiteRepository) GetBay(ctx context.Context, id int64) (*Bay, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bayColumns+` FROM bays WHERE id = ?`, id)
	return getOne(row, scanBay, "Bay", id)
}

// ListBays returns bays, optionally of one switchgear.
func (r *SQLiteRepository) ListBays(ctx context.Context, switchgearID *int64) ([]Bay, error) {
	if switchgearID != nil {
		return queryAll(ctx, r.db, "bays", scanBay,
			`SELECT `+bayColumns+` FROM bays WHERE switchgear_id = ? ORDER BY id`, *switchgearID)
	}
	return queryAll(ctx, r.db, "bays", scanBay, `SELECT `+bayColumns+` FROM bays ORDER BY id`)
}

// UpdateBay writes every mutable column of b.
func (r *SQLiteRepository) UpdateBay(ctx context.Context, b *Bay) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bays SET switchgear_id = ?, name = ?, function = ?, feeder = ?, updated_at = ? WHERE id = ?`,
		b.SwitchgearID, b.Name, b.Function, database.NullString(b.Feeder),
		database.FormatTime(b.UpdatedAt), b.ID)
	if err != nil {
		return fmt.Errorf("updating bay %d: %w", b.ID, err)
	}
	return nil
}

// DeleteBay deletes a bay and its subtree.
func (r *SQLiteRepository) DeleteBay(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bays WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting bay %d: %w", id, err)
	}
	return nil
}

// ─── Documents ──────────────────────────────────────────────────────

const documentColumns = `id, substation_id, doc_type, name, uri, checksum, created_at, updated_at`

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	var checksum sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.SubstationID, &d.DocType, &d.Name, &d.URI, &checksum, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.Checksum = database.StringPtr(checksum)
	d.CreatedAt = database.ParseTime(createdAt)
	d.UpdatedAt = database.ParseTime(updatedAt)
	return &d, nil
}

// CreateDocument inserts d and sets its ID.
func (r *SQLiteRepository) CreateDocument(ctx context.Context, d *Document) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (substation_id, doc_type, name, uri, checksum, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.SubstationID, d.DocType, d.Name, d.URI, database.NullString(d.Checksum),
		database.FormatTime(d.CreatedAt), database.FormatTime(d.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting document %s: %w", d.Name, err)
	}
	d.ID, err = insertedID(res, "document")
	return err
}

// GetDocument returns a document by ID.
func (r *SQLiteRepository) GetDocument(ctx context.Context, id int64) (*Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return getOne(row, scanDocument, "Document", id)
}

// ListDocuments returns documents, optionally of one substation.
func (r *SQLiteRepository) ListDocuments(ctx context.Context, substationID *int64) ([]Document, error) {
	if substationID != nil {
		return queryAll(ctx, r.db, "documents", scanDocument,
			`SELECT `+documentColumns+` FROM documents WHERE substation_id = ? ORDER BY id`, *substationID)
	}
	return queryAll(ctx, r.db, "documents", scanDocument, `SELECT `+documentColumns+` FROM documents ORDER BY id`)
}

// UpdateDocument writes every mutable column of d.
func (r *SQLiteRepository) UpdateDocument(ctx context.Context, d *Document) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET substation_id = ?, doc_type = ?, name = ?, uri = ?, checksum = ?, updated_at = ?
		 WHERE id = ?`,
		d.SubstationID, d.DocType, d.Name, d.URI, database.NullString(d.Checksum),
		database.FormatTime(d.UpdatedAt), d.ID)
	if err != nil {
		return fmt.Errorf("updating document %d: %w", d.ID, err)
	}
	return nil
}

// DeleteDocument deletes a document.
func (r *SQLiteRepository) DeleteDocument(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting document %d: %w", id, err)
	}
	return nil
}
