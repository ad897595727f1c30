package asset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/audit"
	"github.com/nerrad567/rza-core/internal/events"
	"github.com/nerrad567/rza-core/internal/infrastructure/config"
	"github.com/nerrad567/rza-core/internal/infrastructure/database"
	"github.com/nerrad567/rza-core/internal/patch"
	"github.com/nerrad567/rza-core/internal/testdb"
)

type fixture struct {
	svc    *Service
	db     *database.DB
	events *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	rec := audit.NewRecorder(audit.NewSQLiteRepository(db), config.AuditConfig{Enabled: true, DefaultActor: "system"})
	pub := &events.Recorder{}
	return &fixture{svc: NewService(db, rec, pub), db: db, events: pub}
}

func strPtr(s string) *string { return &s }

// tree creates one substation with a single chain of children down to a device.
type tree struct {
	substation *Substation
	switchgear *Switchgear
	bay        *Bay
	panel      *Panel
	device     *Device
}

func (f *fixture) buildTree(t *testing.T, code string) tree {
	t.Helper()
	ctx := context.Background()

	sub, err := f.svc.CreateSubstation(ctx, SubstationCreate{Name: "PS " + code, Code: code, VoltageClass: "110kV"})
	require.NoError(t, err)
	sg, err := f.svc.CreateSwitchgear(ctx, SwitchgearCreate{SubstationID: sub.ID, Name: "ORU-110", Kind: "outdoor", VoltageLevel: "110kV"})
	require.NoError(t, err)
	bay, err := f.svc.CreateBay(ctx, BayCreate{SwitchgearID: sg.ID, Name: "Line 1", Function: "line"})
	require.NoError(t, err)
	panel, err := f.svc.CreatePanel(ctx, PanelCreate{BayID: bay.ID, Designation: "+R1", PanelType: "protection"})
	require.NoError(t, err)
	dev, err := f.svc.CreateDevice(ctx, panel.ID, DeviceCreate{Name: "Main protection", Vendor: "Siemens", Model: "7SA87"})
	require.NoError(t, err)

	return tree{substation: sub, switchgear: sg, bay: bay, panel: panel, device: dev}
}

func TestCreateHierarchyDefaults(t *testing.T) {
	f := newFixture(t)
	tr := f.buildTree(t, "TP1")

	assert.Equal(t, "draft", tr.panel.Status)
	assert.True(t, tr.device.IsPrimary)
	assert.Equal(t, tr.panel.ID, tr.device.PanelID)
	assert.False(t, tr.substation.CreatedAt.IsZero())
	assert.Equal(t, tr.substation.CreatedAt, tr.substation.UpdatedAt)

	backup, err := f.svc.CreateDevice(context.Background(), tr.panel.ID, DeviceCreate{
		PanelID: tr.panel.ID, Name: "Backup", Vendor: "ABB", Model: "REL670", IsPrimary: new(bool),
	})
	require.NoError(t, err)
	assert.False(t, backup.IsPrimary)

	assert.Equal(t, 6, testdb.Count(t, f.db, "audit_log"))
	assert.Len(t, f.events.Events(), 6)
}

func TestCreateRequiresParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		create func() error
		entity string
	}{
		{"switchgear", func() error {
			_, err := f.svc.CreateSwitchgear(ctx, SwitchgearCreate{SubstationID: 99, Name: "x", Kind: "k", VoltageLevel: "10kV"})
			return err
		}, "Substation"},
		{"bay", func() error {
			_, err := f.svc.CreateBay(ctx, BayCreate{SwitchgearID: 99, Name: "x", Function: "f"})
			return err
		}, "Switchgear"},
		{"panel", func() error {
			_, err := f.svc.CreatePanel(ctx, PanelCreate{BayID: 99, Designation: "x", PanelType: "p"})
			return err
		}, "Bay"},
		{"device", func() error {
			_, err := f.svc.CreateDevice(ctx, 99, DeviceCreate{Name: "x", Vendor: "v", Model: "m"})
			return err
		}, "Panel"},
		{"document", func() error {
			_, err := f.svc.CreateDocument(ctx, DocumentCreate{SubstationID: 99, DocType: "drawing", Name: "x", URI: "s3://x"})
			return err
		}, "Substation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.create()
			require.ErrorIs(t, err, apperr.ErrNotFound)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.entity, ae.Entity)
			assert.Equal(t, int64(99), ae.ID)
		})
	}

	assert.Equal(t, 0, testdb.Count(t, f.db, "audit_log"))
	assert.Empty(t, f.events.Events())
}

func TestSubstationUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateSubstation(ctx, SubstationCreate{Name: "TP-1", Code: "TP1", VoltageClass: "110kV"})
	require.NoError(t, err)

	_, err = f.svc.CreateSubstation(ctx, SubstationCreate{Name: "TP-1", Code: "OTHER", VoltageClass: "110kV"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.CreateSubstation(ctx, SubstationCreate{Name: "Other", Code: "TP1", VoltageClass: "110kV"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	second, err := f.svc.CreateSubstation(ctx, SubstationCreate{Name: "TP-2", Code: "TP2", VoltageClass: "35kV"})
	require.NoError(t, err)

	_, err = f.svc.UpdateSubstation(ctx, second.ID, SubstationPatch{Code: patch.Of(first.Code)})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.Equal(t, 2, testdb.Count(t, f.db, "substations"))
	assert.Equal(t, 2, testdb.Count(t, f.db, "audit_log"), "failed writes leave no audit entry")
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSubstation(ctx, SubstationCreate{Code: "TP1", VoltageClass: "110kV"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.CreateSwitchgear(ctx, SwitchgearCreate{Name: "x", Kind: "k", VoltageLevel: "10kV"})
	assert.ErrorIs(t, err, apperr.ErrValidation, "missing substation_id")

	assert.Equal(t, 0, testdb.Count(t, f.db, "substations"))
	assert.Equal(t, 0, testdb.Count(t, f.db, "audit_log"))
}

func TestCreateDevicePanelMismatch(t *testing.T) {
	f := newFixture(t)
	tr := f.buildTree(t, "TP1")
	other, err := f.svc.CreatePanel(context.Background(), PanelCreate{BayID: tr.bay.ID, Designation: "+R2", PanelType: "protection"})
	require.NoError(t, err)

	devicesBefore := testdb.Count(t, f.db, "devices")
	auditBefore := testdb.Count(t, f.db, "audit_log")

	_, err = f.svc.CreateDevice(context.Background(), tr.panel.ID, DeviceCreate{
		PanelID: other.ID, Name: "Relay", Vendor: "ABB", Model: "RED670",
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	assert.Equal(t, devicesBefore, testdb.Count(t, f.db, "devices"))
	assert.Equal(t, auditBefore, testdb.Count(t, f.db, "audit_log"))
}

func TestUpdatePanelPartial(t *testing.T) {
	f := newFixture(t)
	tr := f.buildTree(t, "TP1")
	ctx := context.Background()

	_, err := f.svc.UpdatePanel(ctx, tr.panel.ID, PanelPatch{Notes: patch.Of("cabinet door replaced")})
	require.NoError(t, err)

	updated, err := f.svc.UpdatePanel(ctx, tr.panel.ID, PanelPatch{Status: patch.Of("commissioned")})
	require.NoError(t, err)

	assert.Equal(t, "commissioned", updated.Status)
	assert.Equal(t, "+R1", updated.Designation, "absent fields stay untouched")
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "cabinet door replaced", *updated.Notes)
	assert.True(t, updated.UpdatedAt.After(tr.panel.UpdatedAt) || updated.UpdatedAt.Equal(tr.panel.UpdatedAt))

	cleared, err := f.svc.UpdatePanel(ctx, tr.panel.ID, PanelPatch{Notes: patch.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Notes)

	_, err = f.svc.UpdatePanel(ctx, tr.panel.ID, PanelPatch{Designation: patch.Null[string]()})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.UpdatePanel(ctx, 999, PanelPatch{Status: patch.Of("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	res, err := audit.NewSQLiteRepository(f.db).List(ctx, audit.Filter{Action: audit.ActionUpdate, EntityName: audit.EntityPanel})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	statusChange := res.Entries[1]
	assert.Equal(t, "draft", statusChange.BeforeState["status"])
	assert.Equal(t, "commissioned", statusChange.AfterState["status"])
}

func TestResponseTimestampsMatchStorage(t *testing.T) {
	f := newFixture(t)
	tr := f.buildTree(t, "TP1")
	ctx := context.Background()

	sub, err := f.svc.GetSubstation(ctx, tr.substation.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.substation.CreatedAt, sub.CreatedAt)
	assert.Equal(t, tr.substation.UpdatedAt, sub.UpdatedAt)

	dev, err := f.svc.GetDevice(ctx, tr.device.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.device.CreatedAt, dev.CreatedAt)

	updated, err := f.svc.UpdatePanel(ctx, tr.panel.ID, PanelPatch{Status: patch.Of("commissioned")})
	require.NoError(t, err)
	panel, err := f.svc.GetPanel(ctx, tr.panel.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt, panel.UpdatedAt)
	assert.Zero(t, updated.UpdatedAt.Nanosecond()%int(time.Microsecond))
}

func TestUpdateReparent(t *testing.T) {
	f := newFixture(t)
	tr := f.buildTree(t, "TP1")
	ctx := context.Background()

	sg2, err := f.svc.CreateSwitchgear(ctx, SwitchgearCreate{SubstationID: tr.substation.ID, Name: "KRU-10", Kind: "indoor", VoltageLevel: "10kV"})
	require.NoError(t, err)

	moved, err := f.svc.UpdateBay(ctx, tr.bay.ID, BayPatch{SwitchgearID: patch.Of(sg2.ID)})
	require.NoError(t, err)
	assert.Equal(t, sg2.ID, moved.SwitchgearID)

	_, err = f.svc.UpdateBay(ctx, tr.bay.ID, BayPatch{SwitchgearID: patch.Of(int64(404))})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.UpdateDevice(ctx, tr.device.ID, DevicePatch{IsPrimary: patch.Null[bool]()})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	dev, err := f.svc.UpdateDevice(ctx, tr.device.ID, DevicePatch{IsPrimary: patch.Of(false), FirmwareVersion: patch.Of("V9.10")})
	require.NoError(t, err)
	assert.False(t, dev.IsPrimary)
	assert.Equal(t, "V9.10", *dev.FirmwareVersion)
}

func TestDeleteSubstationCascades(t *testing.T) {
	f := newFixture(t)
	tr := f.buildTree(t, "TP1")
	keep := f.buildTree(t, "TP2")
	ctx := context.Background()

	_, err := f.svc.CreateDocument(ctx, DocumentCreate{
		SubstationID: tr.substation.ID, DocType: "single-line", Name: "SLD", URI: "file:///docs/sld.pdf", Checksum: strPtr("abc"),
	})
	require.NoError(t, err)

	// Configurations and revisions live in another package; insert them directly.
	now := database.FormatTime(f.svc.now())
	res, err := f.db.ExecContext(ctx,
		`INSERT INTO device_configs (device_id, version_tag, created_at, updated_at) VALUES (?, 'v1', ?, ?)`,
		tr.device.ID, now, now)
	require.NoError(t, err)
	cfgID, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = f.db.ExecContext(ctx,
		`INSERT INTO setting_revisions (config_id, revision, is_active, created_at, updated_at) VALUES (?, 1, 1, ?, ?)`,
		cfgID, now, now)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSubstation(ctx, tr.substation.ID))

	for table, want := range map[string]int{
		"substations":       1,
		"switchgears":       1,
		"bays":              1,
		"panels":            1,
		"devices":           1,
		"documents":         0,
		"device_configs":    0,
		"setting_revisions": 0,
	} {
		assert.Equal(t, want, testdb.Count(t, f.db, table), table)
	}

	_, err = f.svc.GetDevice(ctx, keep.device.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetSubstation(ctx, tr.substation.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := audit.NewSQLiteRepository(f.db).List(ctx, audit.Filter{Action: audit.ActionDelete})
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "TP1", list.Entries[0].BeforeState["code"])
	assert.Nil(t, list.Entries[0].AfterState)

	assert.ErrorIs(t, f.svc.DeleteSubstation(ctx, tr.substation.ID), apperr.ErrNotFound)
}

func TestGetDetails(t *testing.T) {
	f := newFixture(t)
	tr := f.buildTree(t, "TP1")
	ctx := context.Background()

	_, err := f.svc.CreateDocument(ctx, DocumentCreate{SubstationID: tr.substation.ID, DocType: "report", Name: "Test report", URI: "https://docs/1"})
	require.NoError(t, err)

	sub, err := f.svc.GetSubstation(ctx, tr.substation.ID)
	require.NoError(t, err)
	require.Len(t, sub.Switchgears, 1)
	require.Len(t, sub.Switchgears[0].Bays, 1)
	assert.Equal(t, tr.bay.ID, sub.Switchgears[0].Bays[0].ID)
	require.Len(t, sub.Documents, 1)

	panel, err := f.svc.GetPanel(ctx, tr.panel.ID)
	require.NoError(t, err)
	require.Len(t, panel.Devices, 1)
	assert.Equal(t, tr.device.ID, panel.Devices[0].ID)

	bayID := tr.bay.ID
	panels, err := f.svc.ListPanels(ctx, &bayID)
	require.NoError(t, err)
	assert.Len(t, panels, 1)

	missing := int64(12345)
	sgs, err := f.svc.ListSwitchgears(ctx, &missing)
	require.NoError(t, err)
	assert.NotNil(t, sgs)
	assert.Empty(t, sgs)

	_, err = f.svc.ListDevices(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := audit.WithActor(context.Background(), "engineer")

	sub, err := f.svc.CreateSubstation(ctx, SubstationCreate{Name: "TP-1", Code: "TP1", VoltageClass: "110kV"})
	require.NoError(t, err)
	_, err = f.svc.CreateSubstation(ctx, SubstationCreate{Name: "TP-1", Code: "TP1", VoltageClass: "110kV"})
	require.Error(t, err)

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, audit.ActionCreate, evs[0].Action)
	assert.Equal(t, audit.EntitySubstation, evs[0].Entity)
	assert.Equal(t, sub.ID, evs[0].EntityID)
	assert.Equal(t, "engineer", evs[0].Actor)
	assert.Equal(t, "TP1", evs[0].Data["code"])
	assert.NotEmpty(t, evs[0].ID)
}

func TestAuditFailureRollsBackMutation(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close() //nolint:errcheck // Test cleanup

	db := database.Wrap(sqlDB)
	rec := audit.NewRecorder(audit.NewSQLiteRepository(db), config.AuditConfig{Enabled: true, DefaultActor: "system"})
	pub := &events.Recorder{}
	svc := NewService(db, rec, pub)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO substations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnError(errors.New("database or disk is full"))
	mock.ExpectRollback()

	_, err = svc.CreateSubstation(context.Background(), SubstationCreate{Name: "TP-1", Code: "TP1", VoltageClass: "110kV"})
	require.ErrorIs(t, err, apperr.ErrStorage)
	assert.Empty(t, pub.Events())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditDisabled(t *testing.T) {
	db := testdb.Open(t)
	rec := audit.NewRecorder(audit.NewSQLiteRepository(db), config.AuditConfig{Enabled: false, DefaultActor: "system"})
	svc := NewService(db, rec, nil)

	_, err := svc.CreateSubstation(context.Background(), SubstationCreate{Name: "TP-1", Code: "TP1", VoltageClass: "110kV"})
	require.NoError(t, err)
	assert.Equal(t, 1, testdb.Count(t, db, "substations"))
	assert.Equal(t, 0, testdb.Count(t, db, "audit_log"))
}
