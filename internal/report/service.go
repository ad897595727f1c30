package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/asset"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
	"github.com/nerrad567/rza-core/internal/settings"
)

// Service builds reports from the database.
type Service struct {
	db database.DBTX
}

// NewService creates a report service reading through db.
func NewService(db database.DBTX) *Service {
	return &Service{db: db}
}

// Summary counts every entity type and the active revisions.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM substations),
			(SELECT COUNT(*) FROM switchgears),
			(SELECT COUNT(*) FROM bays),
			(SELECT COUNT(*) FROM panels),
			(SELECT COUNT(*) FROM devices),
			(SELECT COUNT(*) FROM device_configs),
			(SELECT COUNT(*) FROM setting_revisions),
			(SELECT COUNT(*) FROM setting_revisions WHERE is_active = 1),
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM audit_log)`,
	).Scan(&sum.Substations, &sum.Switchgears, &sum.Bays, &sum.Panels, &sum.Devices,
		&sum.Configs, &sum.Revisions, &sum.ActiveRevisions, &sum.Documents, &sum.AuditEntries)
	if err != nil {
		return nil, apperr.Storage("counting entities", err)
	}
	return &sum, nil
}

// where joins conditions into a WHERE clause.
func where(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// DeviceTopology returns every device matching f with its panel, bay,
// switchgear and substation.
func (s *Service) DeviceTopology(ctx context.Context, f TopologyFilter) ([]TopologyRow, error) {
	var conditions []string
	var args []any

	if f.Vendor != "" {
		conditions = append(conditions, "instr(casefold(d.vendor), casefold(?)) > 0")
		args = append(args, f.Vendor)
	}
	if f.Model != "" {
		conditions = append(conditions, "instr(casefold(d.model), casefold(?)) > 0")
		args = append(args, f.Model)
	}
	if f.SubstationID != nil {
		conditions = append(conditions, "s.id = ?")
		args = append(args, *f.SubstationID)
	}
	if f.SwitchgearID != nil {
		conditions = append(conditions, "sg.id = ?")
		args = append(args, *f.SwitchgearID)
	}
	if f.BayID != nil {
		conditions = append(conditions, "b.id = ?")
		args = append(args, *f.BayID)
	}
	if f.PanelID != nil {
		conditions = append(conditions, "p.id = ?")
		args = append(args, *f.PanelID)
	}

	query := `
		SELECT d.id, d.name, d.vendor, d.model, d.firmware_version, d.is_primary,
		       p.id, p.designation, p.status,
		       b.id, b.name,
		       sg.id, sg.name,
		       s.id, s.name, s.code
		FROM devices d
		JOIN panels p ON p.id = d.panel_id
		JOIN bays b ON b.id = p.bay_id
		JOIN switchgears sg ON sg.id = b.switchgear_id
		JOIN substations s ON s.id = sg.substation_id` + where(conditions) + `
		ORDER BY s.name, sg.name, b.name, p.designation, d.name, d.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("querying device topology", err)
	}
	defer rows.Close()

	out := []TopologyRow{}
	for rows.Next() {
		var r TopologyRow
		var firmware sql.NullString
		if err := rows.Scan(&r.DeviceID, &r.DeviceName, &r.Vendor, &r.Model, &firmware, &r.IsPrimary,
			&r.PanelID, &r.PanelDesignation, &r.PanelStatus,
			&r.BayID, &r.BayName,
			&r.SwitchgearID, &r.SwitchgearName,
			&r.SubstationID, &r.SubstationName, &r.SubstationCode); err != nil {
			return nil, apperr.Storage("scanning device topology", err)
		}
		r.FirmwareVersion = database.StringPtr(firmware)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterating device topology", err)
	}
	return out, nil
}

// SettingsHistory returns revisions matching f, newest first.
func (s *Service) SettingsHistory(ctx context.Context, f HistoryFilter) ([]HistoryRow, error) {
	var conditions []string
	var args []any

	if f.DeviceID != nil {
		conditions = append(conditions, "d.id = ?")
		args = append(args, *f.DeviceID)
	}
	if f.ConfigID != nil {
		conditions = append(conditions, "c.id = ?")
		args = append(args, *f.ConfigID)
	}
	if f.SubstationID != nil {
		conditions = append(conditions, "s.id = ?")
		args = append(args, *f.SubstationID)
	}
	args = append(args, ClampLimit(f.Limit))

	query := `
		SELECT r.id, r.revision, r.is_active, r.effective_from, r.effective_to, r.settings, r.created_at,
		       c.id, c.version_tag, c.status,
		       d.id, d.name,
		       p.id, p.designation,
		       b.id, b.name,
		       sg.id, sg.name,
		       s.id, s.name
		FROM setting_revisions r
		JOIN device_configs c ON c.id = r.config_id
		JOIN devices d ON d.id = c.device_id
		JOIN panels p ON p.id = d.panel_id
		JOIN bays b ON b.id = p.bay_id
		JOIN switchgears sg ON sg.id = b.switchgear_id
		JOIN substations s ON s.id = sg.substation_id` + where(conditions) + `
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("querying settings history", err)
	}
	defer rows.Close()

	out := []HistoryRow{}
	for rows.Next() {
		var h HistoryRow
		var from, to sql.NullString
		var settingsJSON, createdAt string
		if err := rows.Scan(&h.RevisionID, &h.Revision, &h.IsActive, &from, &to, &settingsJSON, &createdAt,
			&h.ConfigID, &h.VersionTag, &h.ConfigStatus,
			&h.DeviceID, &h.DeviceName,
			&h.PanelID, &h.Panel,
			&h.BayID, &h.Bay,
			&h.SwitchgearID, &h.Switchgear,
			&h.SubstationID, &h.Substation); err != nil {
			return nil, apperr.Storage("scanning settings history", err)
		}
		if err := json.Unmarshal([]byte(settingsJSON), &h.Settings); err != nil {
			return nil, apperr.Storage(fmt.Sprintf("decoding settings of revision %d", h.RevisionID), err)
		}
		h.EffectiveFrom = database.ParseNullTime(from)
		h.EffectiveTo = database.ParseNullTime(to)
		h.CreatedAt = database.ParseTime(createdAt)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterating settings history", err)
	}
	return out, nil
}

// DeviceHistory lists the configurations of one device with their revisions.
func (s *Service) DeviceHistory(ctx context.Context, deviceID int64) (*DeviceHistory, error) {
	dev, err := asset.NewSQLiteRepository(s.db).GetDevice(ctx, deviceID)
	if err != nil {
		return nil, apperr.FromDB("loading device", "", 0, err)
	}

	repo := settings.NewSQLiteRepository(s.db)
	cfgs, err := repo.ListConfigs(ctx, &deviceID)
	if err != nil {
		return nil, apperr.FromDB("loading device configs", "", 0, err)
	}

	history := &DeviceHistory{Device: dev.Name, DeviceID: dev.ID, Configs: make([]ConfigHistory, 0, len(cfgs))}
	for _, cfg := range cfgs {
		revs, err := repo.ListRevisions(ctx, cfg.ID)
		if err != nil {
			return nil, apperr.FromDB("loading config revisions", "", 0, err)
		}
		ch := ConfigHistory{ID: cfg.ID, Version: cfg.VersionTag, Status: cfg.Status, Revisions: make([]RevisionHistory, 0, len(revs))}
		for _, rev := range revs {
			ch.Revisions = append(ch.Revisions, RevisionHistory{
				ID:            rev.ID,
				Revision:      rev.Revision,
				IsActive:      rev.IsActive,
				EffectiveFrom: rev.EffectiveFrom,
				EffectiveTo:   rev.EffectiveTo,
			})
		}
		history.Configs = append(history.Configs, ch)
	}
	return history, nil
}

// SubstationStructure returns the substation with switchgears, bays,
// panels and devices nested, plus its documents.
func (s *Service) SubstationStructure(ctx context.Context, id int64) (*Structure, error) {
	repo := asset.NewSQLiteRepository(s.db)
	sub, err := repo.GetSubstation(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading substation", "", 0, err)
	}

	tree, err := buildStructure(ctx, repo, *sub)
	if err != nil {
		return nil, apperr.FromDB("loading substation structure", "", 0, err)
	}
	return tree, nil
}

func buildStructure(ctx context.Context, repo *asset.SQLiteRepository, sub asset.Substation) (*Structure, error) {
	tree := &Structure{Substation: sub}

	sgs, err := repo.ListSwitchgears(ctx, &sub.ID)
	if err != nil {
		return nil, err
	}
	tree.Switchgears = make([]StructureSwitchgear, 0, len(sgs))
	for _, sg := range sgs {
		node := StructureSwitchgear{Switchgear: sg}
		bays, err := repo.ListBays(ctx, &sg.ID)
		if err != nil {
			return nil, err
		}
		node.Bays = make([]StructureBay, 0, len(bays))
		for _, bay := range bays {
			bayNode := StructureBay{Bay: bay}
			panels, err := repo.ListPanels(ctx, &bay.ID)
			if err != nil {
				return nil, err
			}
			bayNode.Panels = make([]asset.PanelDetail, 0, len(panels))
			for _, p := range panels {
				devices, err := repo.ListDevices(ctx, p.ID)
				if err != nil {
					return nil, err
				}
				bayNode.Panels = append(bayNode.Panels, asset.PanelDetail{Panel: p, Devices: devices})
			}
			node.Bays = append(node.Bays, bayNode)
		}
		tree.Switchgears = append(tree.Switchgears, node)
	}

	if tree.Documents, err = repo.ListDocuments(ctx, &sub.ID); err != nil {
		return nil, err
	}
	return tree, nil
}
