package settings

import (
	"time"

	"github.com/nerrad567/rza-core/internal/patch"
)

// DefaultConfigStatus is the status of a configuration created without one.
const DefaultConfigStatus = "draft"

// DeviceConfig is a named configuration version of a device.
type DeviceConfig struct {
	ID         int64          `json:"id"`
	DeviceID   int64          `json:"device_id"`
	VersionTag string         `json:"version_tag"`
	Status     string         `json:"status"`
	Payload    map[string]any `json:"payload"`
	Comment    *string        `json:"comment"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// SettingRevision is a versioned snapshot of a configuration's settings.
type SettingRevision struct {
	ID            int64          `json:"id"`
	ConfigID      int64          `json:"config_id"`
	Revision      int            `json:"revision"`
	Settings      map[string]any `json:"settings"`
	IsActive      bool           `json:"is_active"`
	EffectiveFrom *time.Time     `json:"effective_from"`
	EffectiveTo   *time.Time     `json:"effective_to"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ConfigDetail is a configuration with its revisions, ordered by revision number.
type ConfigDetail struct {
	DeviceConfig
	Revisions []SettingRevision `json:"revisions"`
}

// ConfigCreate holds the fields of a new configuration. An empty Status
// becomes "draft" and a nil Payload an empty object.
type ConfigCreate struct {
	DeviceID   int64          `json:"device_id"`
	VersionTag string         `json:"version_tag"`
	Status     string         `json:"status"`
	Payload    map[string]any `json:"payload"`
	Comment    *string        `json:"comment"`
}

// ConfigPatch is a partial configuration update.
type ConfigPatch struct {
	DeviceID   patch.Field[int64]          `json:"device_id"`
	VersionTag patch.Field[string]         `json:"version_tag"`
	Status     patch.Field[string]         `json:"status"`
	Payload    patch.Field[map[string]any] `json:"payload"`
	Comment    patch.Field[string]         `json:"comment"`
}

// RevisionCreate holds the fields of a new revision. ConfigID may be zero,
// in which case the configuration given to CreateRevision is used.
type RevisionCreate struct {
	ConfigID      int64          `json:"config_id"`
	Revision      int            `json:"revision"`
	Settings      map[string]any `json:"settings"`
	IsActive      bool           `json:"is_active"`
	EffectiveFrom *time.Time     `json:"effective_from"`
	EffectiveTo   *time.Time     `json:"effective_to"`
}

// RevisionPatch is a partial revision update. IsActive true runs the
// activation protocol; false only deactivates this revision.
type RevisionPatch struct {
	Revision      patch.Field[int]            `json:"revision"`
	Settings      patch.Field[map[string]any] `json:"settings"`
	IsActive      patch.Field[bool]           `json:"is_active"`
	EffectiveFrom patch.Field[time.Time]      `json:"effective_from"`
	EffectiveTo   patch.Field[time.Time]      `json:"effective_to"`
}
