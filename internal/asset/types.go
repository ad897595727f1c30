package asset

import (
	"time"

	"github.com/nerrad567/rza-core/internal/patch"
)

// Substation is a top-level electrical facility.
type Substation struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	VoltageClass string    `json:"voltage_class"`
	Location     *string   `json:"location"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Switchgear is a distribution assembly within a substation.
type Switchgear struct {
	ID           int64     `json:"id"`
	SubstationID int64     `json:"substation_id"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	VoltageLevel string    `json:"voltage_level"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Bay is a functional subdivision of a switchgear.
type Bay struct {
	ID           int64     `json:"id"`
	SwitchgearID int64     `json:"switchgear_id"`
	Name         string    `json:"name"`
	Function     string    `json:"function"`
	Feeder       *string   `json:"feeder"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Panel is a protection relay cabinet installed in a bay.
type Panel struct {
	ID          int64     `json:"id"`
	BayID       int64     `json:"bay_id"`
	Designation string    `json:"designation"`
	PanelType   string    `json:"panel_type"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Device is a protection relay installed in a panel.
type Device struct {
	ID              int64     `json:"id"`
	PanelID         int64     `json:"panel_id"`
	Name            string    `json:"name"`
	Vendor          string    `json:"vendor"`
	Model           string    `json:"model"`
	FirmwareVersion *string   `json:"firmware_version"`
	IsPrimary       bool      `json:"is_primary"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Document is a project document (specification, drawing, test report)
// attached to a substation.
type Document struct {
	ID           int64     `json:"id"`
	SubstationID int64     `json:"substation_id"`
	DocType      string    `json:"doc_type"`
	Name         string    `json:"name"`
	URI          string    `json:"uri"`
	Checksum     *string   `json:"checksum"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SwitchgearDetail is a switchgear with its bays.
type SwitchgearDetail struct {
	Switchgear
	Bays []Bay `json:"bays"`
}

// SubstationDetail is a substation with its switchgears and documents.
type SubstationDetail struct {
	Substation
	Switchgears []SwitchgearDetail `json:"switchgears"`
	Documents   []Document         `json:"documents"`
}

// PanelDetail is a panel with its devices.
type PanelDetail struct {
	Panel
	Devices []Device `json:"devices"`
}

// Default field values.
const (
	DefaultPanelStatus = "draft"
)

// SubstationCreate holds the fields of a new substation.
type SubstationCreate struct {
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	VoltageClass string  `json:"voltage_class"`
	Location     *string `json:"location"`
	Description  *string `json:"description"`
}

// SwitchgearCreate holds the fields of a new switchgear.
type SwitchgearCreate struct {
	SubstationID int64   `json:"substation_id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	VoltageLevel string  `json:"voltage_level"`
	Description  *string `json:"description"`
}

// BayCreate holds the fields of a new bay.
type BayCreate struct {
	SwitchgearID int64   `json:"switchgear_id"`
	Name         string  `json:"name"`
	Function     string  `json:"function"`
	Feeder       *string `json:"feeder"`
}

// PanelCreate holds the fields of a new panel. An empty Status becomes "draft".
type PanelCreate struct {
	BayID       int64   `json:"bay_id"`
	Designation string  `json:"designation"`
	PanelType   string  `json:"panel_type"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes"`
}

// DeviceCreate holds the fields of a new device. PanelID may be zero, in
// which case the panel given to CreateDevice is used. A nil IsPrimary
// means true.
type DeviceCreate struct {
	PanelID         int64   `json:"panel_id"`
	Name            string  `json:"name"`
	Vendor          string  `json:"vendor"`
	Model           string  `json:"model"`
	FirmwareVersion *string `json:"firmware_version"`
	IsPrimary       *bool   `json:"is_primary"`
}

// DocumentCreate holds the fields of a new document.
type DocumentCreate struct {
	SubstationID int64   `json:"substation_id"`
	DocType      string  `json:"doc_type"`
	Name         string  `json:"name"`
	URI          string  `json:"uri"`
	Checksum     *string `json:"checksum"`
}

// SubstationPatch is a partial substation update.
type SubstationPatch struct {
	Name         patch.Field[string] `json:"name"`
	Code         patch.Field[string] `json:"code"`
	VoltageClass patch.Field[string] `json:"voltage_class"`
	Location     patch.Field[string] `json:"location"`
	Description  patch.Field[string] `json:"description"`
}

// SwitchgearPatch is a partial switchgear update.
type SwitchgearPatch struct {
	SubstationID patch.Field[int64]  `json:"substation_id"`
	Name         patch.Field[string] `json:"name"`
	Kind         patch.Field[string] `json:"kind"`
	VoltageLevel patch.Field[string] `json:"voltage_level"`
	Description  patch.Field[string] `json:"description"`
}

// BayPatch is a partial bay update.
type BayPatch struct {
	SwitchgearID patch.Field[int64]  `json:"switchgear_id"`
	Name         patch.Field[string] `json:"name"`
	Function     patch.Field[string] `json:"function"`
	Feeder       patch.Field[string] `json:"feeder"`
}

// PanelPatch is a partial panel update.
type PanelPatch struct {
	BayID       patch.Field[int64]  `json:"bay_id"`
	Designation patch.Field[string] `json:"designation"`
	PanelType   patch.Field[string] `json:"panel_type"`
	Status      patch.Field[string] `json:"status"`
	Notes       patch.Field[string] `json:"notes"`
}

// DevicePatch is a partial device update.
type DevicePatch struct {
	PanelID         patch.Field[int64]  `json:"panel_id"`
	Name            patch.Field[string] `json:"name"`
	Vendor          patch.Field[string] `json:"vendor"`
	Model           patch.Field[string] `json:"model"`
	FirmwareVersion patch.Field[string] `json:"firmware_version"`
	IsPrimary       patch.Field[bool]   `json:"is_primary"`
}

// DocumentPatch is a partial document update.
type DocumentPatch struct {
	SubstationID patch.Field[int64]  `json:"substation_id"`
	DocType      patch.Field[string] `json:"doc_type"`
	Name         patch.Field[string] `json:"name"`
	URI          patch.Field[string] `json:"uri"`
	Checksum     patch.Field[string] `json:"checksum"`
}
