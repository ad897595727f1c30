package events

import (
	"context"
	"time"

	"github.com/nerrad567/rza-core/internal/audit"
)

// InfluxWriter is the part of *influxdb.Client used by InfluxSink.
type InfluxWriter interface {
	WriteAuditEvent(action, entity string, entityID int64, actor string, at time.Time)
	WriteRevisionActivation(configID, revisionID int64, revision int, at time.Time)
}

// InfluxSink records change events as time-series points: one
// audit_events point per change, and one revision_activations point each
// time a revision becomes active.
type InfluxSink struct {
	writer InfluxWriter
}

// NewInfluxSink creates a sink writing through writer.
func NewInfluxSink(writer InfluxWriter) *InfluxSink {
	return &InfluxSink{writer: writer}
}

// Name implements Sink.
func (s *InfluxSink) Name() string { return "influxdb" }

// Handle implements Sink. Writes are batched by the client and never fail
// synchronously.
func (s *InfluxSink) Handle(_ context.Context, e Event) error {
	s.writer.WriteAuditEvent(e.Action, e.Entity, e.EntityID, e.Actor, e.At)

	if e.Entity == audit.EntitySettingRevision && activated(e) {
		s.writer.WriteRevisionActivation(
			toInt64(e.Data["config_id"]),
			e.EntityID,
			int(toInt64(e.Data["revision"])),
			e.At,
		)
	}
	return nil
}

// activated reports whether e made a revision active. An explicit
// activation counts even when the revision already was.
func activated(e Event) bool {
	if e.Action == audit.ActionActivateRevision {
		return true
	}
	return isActive(e.Data) && !isActive(e.Before)
}
