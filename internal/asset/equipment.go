package asset

import (
	"context"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/audit"
)

// ─── Panels ─────────────────────────────────────────────────────────

// CreatePanel creates a panel under an existing bay. Status defaults to "draft".
func (s *Service) CreatePanel(ctx context.Context, in PanelCreate) (*Panel, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = DefaultPanelStatus
	}

	now := s.now()
	panel := &Panel{
		BayID:       in.BayID,
		Designation: in.Designation,
		PanelType:   in.PanelType,
		Status:      in.Status,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.mutate(ctx, "creating panel", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		if err := repo.requireParent(ctx, audit.EntityBay, "bays", panel.BayID); err != nil {
			return audit.Change{}, err
		}
		if err := repo.CreatePanel(ctx, panel); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionCreate, audit.EntityPanel, panel.ID, nil, panel)
	})
	if err != nil {
		return nil, err
	}
	return panel, nil
}

// GetPanel returns a panel with its devices.
func (s *Service) GetPanel(ctx context.Context, id int64) (*PanelDetail, error) {
	repo := s.reader()
	panel, err := repo.GetPanel(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading panel", "", 0, err)
	}
	devices, err := repo.ListDevices(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading panel", "", 0, err)
	}
	return &PanelDetail{Panel: *panel, Devices: devices}, nil
}

// ListPanels returns panels with their devices, optionally of one bay.
func (s *Service) ListPanels(ctx context.Context, bayID *int64) ([]PanelDetail, error) {
	repo := s.reader()
	panels, err := repo.ListPanels(ctx, bayID)
	if err != nil {
		return nil, apperr.FromDB("listing panels", "", 0, err)
	}
	out := make([]PanelDetail, 0, len(panels))
	for _, p := range panels {
		devices, err := repo.ListDevices(ctx, p.ID)
		if err != nil {
			return nil, apperr.FromDB("listing panels", "", 0, err)
		}
		out = append(out, PanelDetail{Panel: p, Devices: devices})
	}
	return out, nil
}

// UpdatePanel applies the present fields of p.
func (s *Service) UpdatePanel(ctx context.Context, id int64, p PanelPatch) (*Panel, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var updated *Panel
	err := s.mutate(ctx, "updating panel", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetPanel(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		before := *cur

		if p.BayID.HasValue() && p.BayID.Value != cur.BayID {
			if err := repo.requireParent(ctx, audit.EntityBay, "bays", p.BayID.Value); err != nil {
				return audit.Change{}, err
			}
		}
		p.BayID.Apply(&cur.BayID)
		p.Designation.Apply(&cur.Designation)
		p.PanelType.Apply(&cur.PanelType)
		p.Status.Apply(&cur.Status)
		p.Notes.ApplyNullable(&cur.Notes)
		cur.UpdatedAt = s.now()

		if err := repo.UpdatePanel(ctx, cur); err != nil {
			return audit.Change{}, err
		}
		updated = cur
		return changeOf(audit.ActionUpdate, audit.EntityPanel, id, &before, cur)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePanel deletes a panel and everything below it.
func (s *Service) DeletePanel(ctx context.Context, id int64) error {
	return s.mutate(ctx, "deleting panel", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetPanel(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		if err := repo.DeletePanel(ctx, id); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionDelete, audit.EntityPanel, id, cur, nil)
	})
}

// ─── Devices ────────────────────────────────────────────────────────

// CreateDevice creates a device in panel panelID. A non-zero in.PanelID
// that differs from panelID is a validation error and nothing is written.
// IsPrimary defaults to true.
func (s *Service) CreateDevice(ctx context.Context, panelID int64, in DeviceCreate) (*Device, error) {
	if in.PanelID == 0 {
		in.PanelID = panelID
	}
	if in.PanelID != panelID {
		return nil, apperr.Validation("panel_id %d in body does not match panel %d in path", in.PanelID, panelID)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	isPrimary := true
	if in.IsPrimary != nil {
		isPrimary = *in.IsPrimary
	}

	now := s.now()
	dev := &Device{
		PanelID:         panelID,
		Name:            in.Name,
		Vendor:          in.Vendor,
		Model:           in.Model,
		FirmwareVersion: in.FirmwareVersion,
		IsPrimary:       isPrimary,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.mutate(ctx, "creating device", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		if err := repo.requireParent(ctx, audit.EntityPanel, "panels", panelID); err != nil {
			return audit.Change{}, err
		}
		if err := repo.CreateDevice(ctx, dev); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionCreate, audit.EntityDevice, dev.ID, nil, dev)
	})
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// GetDevice returns a device by ID.
func (s *Service) GetDevice(ctx context.Context, id int64) (*Device, error) {
	dev, err := s.reader().GetDevice(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading device", "", 0, err)
	}
	return dev, nil
}

// ListDevices returns the devices of a panel, which must exist.
func (s *Service) ListDevices(ctx context.Context, panelID int64) ([]Device, error) {
	repo := s.reader()
	if err := repo.requireParent(ctx, audit.EntityPanel, "panels", panelID); err != nil {
		return nil, apperr.FromDB("listing devices", "", 0, err)
	}
	devices, err := repo.ListDevices(ctx, panelID)
	if err != nil {
		return nil, apperr.FromDB("listing devices", "", 0, err)
	}
	return devices, nil
}

// UpdateDevice applies the present fields of p.
func (s *Service) UpdateDevice(ctx context.Context, id int64, p DevicePatch) (*Device, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var updated *Device
	err := s.mutate(ctx, "updating device", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetDevice(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		before := *cur

		if p.PanelID.HasValue() && p.PanelID.Value != cur.PanelID {
			if err := repo.requireParent(ctx, audit.EntityPanel, "panels", p.PanelID.Value); err != nil {
				return audit.Change{}, err
			}
		}
		p.PanelID.Apply(&cur.PanelID)
		p.Name.Apply(&cur.Name)
		p.Vendor.Apply(&cur.Vendor)
		p.Model.Apply(&cur.Model)
		p.FirmwareVersion.ApplyNullable(&cur.FirmwareVersion)
		p.IsPrimary.Apply(&cur.IsPrimary)
		cur.UpdatedAt = s.now()

		if err := repo.UpdateDevice(ctx, cur); err != nil {
			return audit.Change{}, err
		}
		updated = cur
		return changeOf(audit.ActionUpdate, audit.EntityDevice, id, &before, cur)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDevice deletes a device with its configurations and revisions.
func (s *Service) DeleteDevice(ctx context.Context, id int64) error {
	return s.mutate(ctx, "deleting device", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetDevice(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		if err := repo.DeleteDevice(ctx, id); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionDelete, audit.EntityDevice, id, cur, nil)
	})
}

// ─── Documents ──────────────────────────────────────────────────────

// CreateDocument attaches a document to an existing substation.
func (s *Service) CreateDocument(ctx context.Context, in DocumentCreate) (*Document, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	doc := &Document{
		SubstationID: in.SubstationID,
		DocType:      in.DocType,
		Name:         in.Name,
		URI:          in.URI,
		Checksum:     in.Checksum,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.mutate(ctx, "creating document", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		if err := repo.requireParent(ctx, audit.EntitySubstation, "substations", doc.SubstationID); err != nil {
			return audit.Change{}, err
		}
		if err := repo.CreateDocument(ctx, doc); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionCreate, audit.EntityDocument, doc.ID, nil, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument returns a document by ID.
func (s *Service) GetDocument(ctx context.Context, id int64) (*Document, error) {
	doc, err := s.reader().GetDocument(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("loading document", "", 0, err)
	}
	return doc, nil
}

// ListDocuments returns documents, optionally of one substation.
func (s *Service) ListDocuments(ctx context.Context, substationID *int64) ([]Document, error) {
	docs, err := s.reader().ListDocuments(ctx, substationID)
	if err != nil {
		return nil, apperr.FromDB("listing documents", "", 0, err)
	}
	return docs, nil
}

// UpdateDocument applies the present fields of p.
func (s *Service) UpdateDocument(ctx context.Context, id int64, p DocumentPatch) (*Document, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var updated *Document
	err := s.mutate(ctx, "updating document", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetDocument(ctx, id)
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
		p.DocType.Apply(&cur.DocType)
		p.Name.Apply(&cur.Name)
		p.URI.Apply(&cur.URI)
		p.Checksum.ApplyNullable(&cur.Checksum)
		cur.UpdatedAt = s.now()

		if err := repo.UpdateDocument(ctx, cur); err != nil {
			return audit.Change{}, err
		}
		updated = cur
		return changeOf(audit.ActionUpdate, audit.EntityDocument, id, &before, cur)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDocument deletes a document.
func (s *Service) DeleteDocument(ctx context.Context, id int64) error {
	return s.mutate(ctx, "deleting document", func(ctx context.Context, repo *SQLiteRepository) (audit.Change, error) {
		cur, err := repo.GetDocument(ctx, id)
		if err != nil {
			return audit.Change{}, err
		}
		if err := repo.DeleteDocument(ctx, id); err != nil {
			return audit.Change{}, err
		}
		return changeOf(audit.ActionDelete, audit.EntityDocument, id, cur, nil)
	})
}
