package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementAuditEvents         = "audit_events"
	MeasurementRevisionActivations = "revision_activations"
)

// WriteAuditEvent records one committed change.
//
// Tags are low-cardinality (action, entity, actor); the entity id is a field.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteAuditEvent("activate_revision", "SettingRevision", 12, "engineer", time.Now())
func (c *Client) WriteAuditEvent(action, entity string, entityID int64, actor string, at time.Time) {
	c.writePoint(MeasurementAuditEvents,
		map[string]string{
			"action": action,
			"entity": entity,
			"actor":  actor,
		},
		map[string]interface{}{
			"entity_id": entityID,
			"count":     1,
		},
		at,
	)
}

// WriteRevisionActivation records a revision becoming the active one of
// its configuration.
func (c *Client) WriteRevisionActivation(configID, revisionID int64, revision int, at time.Time) {
	c.writePoint(MeasurementRevisionActivations,
		map[string]string{
			"config_id": strconv.FormatInt(configID, 10),
		},
		map[string]interface{}{
			"revision_id": revisionID,
			"revision":    revision,
		},
		at,
	)
}

// writePoint queues a point unless the client is closed.
func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}, at time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, at))
	c.queued.Add(1)
}
