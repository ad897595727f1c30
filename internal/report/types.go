package report

import (
	"time"

	"github.com/nerrad567/rza-core/internal/asset"
)

// Settings history page bounds.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// Summary holds row counts of every entity type.
type Summary struct {
	Substations     int `json:"substations"`
	Switchgears     int `json:"switchgears"`
	Bays            int `json:"bays"`
	Panels          int `json:"panels"`
	Devices         int `json:"devices"`
	Configs         int `json:"configs"`
	Revisions       int `json:"revisions"`
	ActiveRevisions int `json:"active_revisions"`
	Documents       int `json:"documents"`
	AuditEntries    int `json:"audit_entries"`
}

// TopologyFilter narrows DeviceTopology. Vendor and Model match
// case-insensitive substrings; the ids match exactly.
type TopologyFilter struct {
	Vendor       string
	Model        string
	SubstationID *int64
	SwitchgearID *int64
	BayID        *int64
	PanelID      *int64
}

// TopologyRow is one device with its position in the hierarchy.
type TopologyRow struct {
	DeviceID         int64   `json:"device_id"`
	DeviceName       string  `json:"device_name"`
	Vendor           string  `json:"vendor"`
	Model            string  `json:"model"`
	FirmwareVersion  *string `json:"firmware_version"`
	IsPrimary        bool    `json:"is_primary"`
	PanelID          int64   `json:"panel_id"`
	PanelDesignation string  `json:"panel_designation"`
	PanelStatus      string  `json:"panel_status"`
	BayID            int64   `json:"bay_id"`
	BayName          string  `json:"bay_name"`
	SwitchgearID     int64   `json:"switchgear_id"`
	SwitchgearName   string  `json:"switchgear_name"`
	SubstationID     int64   `json:"substation_id"`
	SubstationName   string  `json:"substation_name"`
	SubstationCode   string  `json:"substation_code"`
}

// HistoryFilter narrows SettingsHistory. Limit is clamped by ClampLimit.
type HistoryFilter struct {
	DeviceID     *int64
	ConfigID     *int64
	SubstationID *int64
	Limit        int
}

// HistoryRow is one setting revision with its configuration and location.
type HistoryRow struct {
	RevisionID    int64          `json:"revision_id"`
	Revision      int            `json:"revision"`
	IsActive      bool           `json:"is_active"`
	EffectiveFrom *time.Time     `json:"effective_from"`
	EffectiveTo   *time.Time     `json:"effective_to"`
	Settings      map[string]any `json:"settings"`
	CreatedAt     time.Time      `json:"created_at"`
	ConfigID      int64          `json:"config_id"`
	VersionTag    string         `json:"version_tag"`
	ConfigStatus  string         `json:"config_status"`
	DeviceID      int64          `json:"device_id"`
	DeviceName    string         `json:"device_name"`
	PanelID       int64          `json:"panel_id"`
	Panel         string         `json:"panel"`
	BayID         int64          `json:"bay_id"`
	Bay           string         `json:"bay"`
	SwitchgearID  int64          `json:"switchgear_id"`
	Switchgear    string         `json:"switchgear"`
	SubstationID  int64          `json:"substation_id"`
	Substation    string         `json:"substation"`
}

// DeviceHistory lists a device's configurations with their revisions.
type DeviceHistory struct {
	Device   string          `json:"device"`
	DeviceID int64           `json:"device_id"`
	Configs  []ConfigHistory `json:"configs"`
}

// ConfigHistory is one configuration in a DeviceHistory.
type ConfigHistory struct {
	ID        int64             `json:"id"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Revisions []RevisionHistory `json:"revisions"`
}

// RevisionHistory is the activation state of one revision.
type RevisionHistory struct {
	ID            int64      `json:"id"`
	Revision      int        `json:"revision"`
	IsActive      bool       `json:"is_active"`
	EffectiveFrom *time.Time `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
}

// Structure is a substation with its full equipment tree and documents.
type Structure struct {
	asset.Substation
	Switchgears []StructureSwitchgear `json:"switchgears"`
	Documents   []asset.Document      `json:"documents"`
}

// StructureSwitchgear is a switchgear with its bays.
type StructureSwitchgear struct {
	asset.Switchgear
	Bays []StructureBay `json:"bays"`
}

// StructureBay is a bay with its panels and their devices.
type StructureBay struct {
	asset.Bay
	Panels []asset.PanelDetail `json:"panels"`
}

// ClampLimit applies the settings history default and bounds.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultHistoryLimit
	case limit < 1:
		return 1
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
