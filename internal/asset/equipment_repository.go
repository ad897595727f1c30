package asset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nerrad567/rza-core/internal/infrastructure/database"
)

// ─── Panels ─────────────────────────────────────────────────────────

const panelColumns = `id, bay_id, designation, panel_type, status, notes, created_at, updated_at`

func scanPanel(row rowScanner) (*Panel, error) {
	var p Panel
	var notes sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.BayID, &p.Designation, &p.PanelType, &p.Status, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Notes = database.StringPtr(notes)
	p.CreatedAt = database.ParseTime(createdAt)
	p.UpdatedAt = database.ParseTime(updatedAt)
	return &p, nil
}

// CreatePanel inserts p and sets its ID.
func (r *SQLiteRepository) CreatePanel(ctx context.Context, p *Panel) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO panels (bay_id, designation, panel_type, status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BayID, p.Designation, p.PanelType, p.Status, database.NullString(p.Notes),
		database.FormatTime(p.CreatedAt), database.FormatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting panel %s: %w", p.Designation, err)
	}
	p.ID, err = insertedID(res, "panel")
	return err
}

// GetPanel returns a panel by ID.
func (r *SQLiteRepository) GetPanel(ctx context.Context, id int64) (*Panel, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+panelColumns+` FROM panels WHERE id = ?`, id)
	return getOne(row, scanPanel, "Panel", id)
}

// ListPanels returns panels, optionally of one bay.
func (r *SQLiteRepository) ListPanels(ctx context.Context, bayID *int64) ([]Panel, error) {
	if bayID != nil {
		return queryAll(ctx, r.db, "panels", scanPanel,
			`SELECT `+panelColumns+` FROM panels WHERE bay_id = ? ORDER BY id`, *bayID)
	}
	return queryAll(ctx, r.db, "panels", scanPanel, `SELECT `+panelColumns+` FROM panels ORDER BY id`)
}

// UpdatePanel writes every mutable column of p.
func (r *SQLiteRepository) UpdatePanel(ctx context.Context, p *Panel) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE panels SET bay_id = ?, designation = ?, panel_type = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		p.BayID, p.Designation, p.PanelType, p.Status, database.NullString(p.Notes),
		database.FormatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("updating panel %d: %w", p.ID, err)
	}
	return nil
}

// DeletePanel deletes a panel and its devices.
func (r *SQLiteRepository) DeletePanel(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM panels WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting panel %d: %w", id, err)
	}
	return nil
}

// ─── Devices ────────────────────────────────────────────────────────

const deviceColumns = `id, panel_id, name, vendor, model, firmware_version, is_primary, created_at, updated_at`

func scanDevice(row rowScanner) (*Device, error) {
	var d Device
	var firmware sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.PanelID, &d.Name, &d.Vendor, &d.Model, &firmware, &d.IsPrimary, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.FirmwareVersion = database.StringPtr(firmware)
	d.CreatedAt = database.ParseTime(createdAt)
	d.UpdatedAt = database.ParseTime(updatedAt)
	return &d, nil
}

// CreateDevice inserts d and sets its ID.
func (r *SQLiteRepository) CreateDevice(ctx context.Context, d *Device) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (panel_id, name, vendor, model, firmware_version, is_primary, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.PanelID, d.Name, d.Vendor, d.Model, database.NullString(d.FirmwareVersion), d.IsPrimary,
		database.FormatTime(d.CreatedAt), database.FormatTime(d.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting device %s: %w", d.Name, err)
	}
	d.ID, err = insertedID(res, "device")
	return err
}

// GetDevice returns a device by ID.
func (r *SQLiteRepository) GetDevice(ctx context.Context, id int64) (*Device, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)
	return getOne(row, scanDevice, "Device", id)
}

// ListDevices returns the devices of one panel.
func (r *SQLiteRepository) ListDevices(ctx context.Context, panelID int64) ([]Device, error) {
	return queryAll(ctx, r.db, "devices", scanDevice,
		`SELECT `+deviceColumns+` FROM devices WHERE panel_id = ? ORDER BY id`, panelID)
}

// UpdateDevice writes every mutable column of d.
func (r *SQLiteRepository) UpdateDevice(ctx context.Context, d *Device) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE devices SET panel_id = ?, name = ?, vendor = ?, model = ?, firmware_version = ?, is_primary = ?, updated_at = ?
		 WHERE id = ?`,
		d.PanelID, d.Name, d.Vendor, d.Model, database.NullString(d.FirmwareVersion), d.IsPrimary,
		database.FormatTime(d.UpdatedAt), d.ID)
	if err != nil {
		return fmt.Errorf("updating device %d: %w", d.ID, err)
	}
	return nil
}

// DeleteDevice deletes a device and its configurations.
func (r *SQLiteRepository) DeleteDevice(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting device %d: %w", id, err)
	}
	return nil
}
