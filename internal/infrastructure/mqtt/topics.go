package mqtt

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultTopicPrefix is used when mqtt.topic_prefix is empty.
const DefaultTopicPrefix = "rza"

// Topics builds RZA MQTT topics under a prefix.
//
//	topics := mqtt.Topics{Prefix: "rza"}
//	topics.Event("SettingRevision", "activate_revision")
//	// Returns: "rza/events/setting_revision/activate_revision"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// Event returns the topic for a committed change of an entity.
//
// Example: rza/events/device_config/create
func (t Topics) Event(entity, action string) string {
	return fmt.Sprintf("%s/events/%s/%s", t.prefix(), EntitySegment(entity), action)
}

// ActiveRevision returns the retained topic holding the active revision
// of a configuration.
//
// Example: rza/configs/7/active_revision
func (t Topics) ActiveRevision(configID int64) string {
	return fmt.Sprintf("%s/configs/%d/active_revision", t.prefix(), configID)
}

// SystemStatus returns the retained online/offline status topic of the core.
//
// Example: rza/system/status
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// AllEvents returns a wildcard matching every change event.
func (t Topics) AllEvents() string {
	return t.prefix() + "/events/#"
}

// EntitySegment converts an entity name to its topic segment:
// "SettingRevision" becomes "setting_revision".
func EntitySegment(entity string) string {
	var b strings.Builder
	for i, r := range entity {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
