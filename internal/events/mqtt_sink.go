package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/rza-core/internal/audit"
	"github.com/nerrad567/rza-core/internal/infrastructure/mqtt"
)

// MQTTPublisher is the part of *mqtt.Client used by MQTTSink.
type MQTTPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// ActiveRevisionMessage is the retained payload of a configuration's
// active_revision topic.
type ActiveRevisionMessage struct {
	ConfigID      int64      `json:"config_id"`
	RevisionID    int64      `json:"revision_id"`
	Revision      int        `json:"revision"`
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	At            time.Time  `json:"at"`
}

// MQTTSink publishes change events to the broker.
//
// Every event goes to {prefix}/events/{entity}/{action}. Revision changes
// additionally maintain the retained {prefix}/configs/{id}/active_revision
// topic, so late subscribers see the current active revision.
type MQTTSink struct {
	client MQTTPublisher
	topics mqtt.Topics
	qos    byte
}

// NewMQTTSink creates a sink publishing through client.
func NewMQTTSink(client MQTTPublisher, topics mqtt.Topics, qos byte) *MQTTSink {
	return &MQTTSink{client: client, topics: topics, qos: qos}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Handle implements Sink.
func (s *MQTTSink) Handle(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	if err := s.client.Publish(s.topics.Event(e.Entity, e.Action), payload, s.qos, false); err != nil {
		return err
	}

	if e.Entity != audit.EntitySettingRevision {
		return nil
	}
	return s.syncActiveRevision(e)
}

func (s *MQTTSink) syncActiveRevision(e Event) error {
	switch {
	case isActive(e.Data):
		msg := ActiveRevisionMessage{
			ConfigID:      toInt64(e.Data["config_id"]),
			RevisionID:    e.EntityID,
			Revision:      int(toInt64(e.Data["revision"])),
			EffectiveFrom: toTime(e.Data["effective_from"]),
			At:            e.At,
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshalling active revision: %w", err)
		}
		return s.client.Publish(s.topics.ActiveRevision(msg.ConfigID), payload, s.qos, true)

	case isActive(e.Before) && e.Data != nil:
		// An empty retained message clears the topic.
		configID := toInt64(e.Data["config_id"])
		return s.client.Publish(s.topics.ActiveRevision(configID), nil, s.qos, true)
	}
	return nil
}

func isActive(snapshot map[string]any) bool {
	active, _ := snapshot["is_active"].(bool)
	return active
}

// toInt64 reads a numeric snapshot value. Snapshots round-trip through
// JSON, so numbers usually arrive as float64.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}

func toTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return nil
		}
		return &parsed
	}
	return nil
}
