package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/rza-core/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakeMQTT struct {
	msgs []published
	err  error
}

func (f *fakeMQTT) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic, payload, qos, retained})
	return nil
}

type activation struct {
	configID, revisionID int64
	revision             int
}

type fakeInflux struct {
	audits      []string
	activations []activation
}

func (f *fakeInflux) WriteAuditEvent(action, entity string, _ int64, _ string, _ time.Time) {
	f.audits = append(f.audits, entity+"/"+action)
}

func (f *fakeInflux) WriteRevisionActivation(configID, revisionID int64, revision int, _ time.Time) {
	f.activations = append(f.activations, activation{configID, revisionID, revision})
}

// revisionSnapshot mirrors what audit snapshots look like after the JSON
// round-trip: numbers are float64 and times are strings.
func revisionSnapshot(id, configID int64, revision int, active bool) map[string]any {
	return map[string]any{
		"id":             float64(id),
		"config_id":      float64(configID),
		"revision":       float64(revision),
		"is_active":      active,
		"effective_from": "2026-03-01T09:00:00Z",
	}
}

func TestMQTTSinkPublishesEvent(t *testing.T) {
	client := &fakeMQTT{}
	sink := NewMQTTSink(client, mqtt.Topics{Prefix: "site"}, 1)

	e := New("create", "DeviceConfig", 4, "engineer", nil, map[string]any{"id": float64(4)})
	require.NoError(t, sink.Handle(context.Background(), e))

	require.Len(t, client.msgs, 1)
	msg := client.msgs[0]
	assert.Equal(t, "site/events/device_config/create", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.False(t, msg.retained)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, "engineer", decoded.Actor)
}

func TestMQTTSinkRetainsActiveRevision(t *testing.T) {
	client := &fakeMQTT{}
	sink := NewMQTTSink(client, mqtt.Topics{}, 0)

	e := New("activate_revision", "SettingRevision", 12, "engineer", nil, revisionSnapshot(12, 7, 3, true))
	require.NoError(t, sink.Handle(context.Background(), e))

	require.Len(t, client.msgs, 2)
	retained := client.msgs[1]
	assert.Equal(t, "rza/configs/7/active_revision", retained.topic)
	assert.True(t, retained.retained)

	var msg ActiveRevisionMessage
	require.NoError(t, json.Unmarshal(retained.payload, &msg))
	assert.Equal(t, int64(7), msg.ConfigID)
	assert.Equal(t, int64(12), msg.RevisionID)
	assert.Equal(t, 3, msg.Revision)
	require.NotNil(t, msg.EffectiveFrom)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), msg.EffectiveFrom.UTC())
}

func TestMQTTSinkClearsDeactivatedRevision(t *testing.T) {
	client := &fakeMQTT{}
	sink := NewMQTTSink(client, mqtt.Topics{}, 0)

	e := New("update_revision", "SettingRevision", 12, "engineer",
		revisionSnapshot(12, 7, 3, true), revisionSnapshot(12, 7, 3, false))
	require.NoError(t, sink.Handle(context.Background(), e))

	require.Len(t, client.msgs, 2)
	assert.Equal(t, "rza/configs/7/active_revision", client.msgs[1].topic)
	assert.Empty(t, client.msgs[1].payload)
	assert.True(t, client.msgs[1].retained)
}

func TestMQTTSinkInactiveRevisionOnlyEvent(t *testing.T) {
	client := &fakeMQTT{}
	sink := NewMQTTSink(client, mqtt.Topics{}, 0)

	e := New("create_revision", "SettingRevision", 2, "engineer", nil, revisionSnapshot(2, 7, 1, false))
	require.NoError(t, sink.Handle(context.Background(), e))
	assert.Len(t, client.msgs, 1)
}

func TestMQTTSinkError(t *testing.T) {
	client := &fakeMQTT{err: errors.New("not connected")}
	sink := NewMQTTSink(client, mqtt.Topics{}, 0)

	err := sink.Handle(context.Background(), New("delete", "Panel", 1, "a", nil, nil))
	assert.EqualError(t, err, "not connected")
}

func TestInfluxSink(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		activations []activation
	}{
		{
			name:  "asset change",
			event: New("update", "Bay", 3, "a", nil, map[string]any{"id": float64(3)}),
		},
		{
			name:        "explicit activation",
			event:       New("activate_revision", "SettingRevision", 12, "a", nil, revisionSnapshot(12, 7, 3, true)),
			activations: []activation{{7, 12, 3}},
		},
		{
			name:        "created active",
			event:       New("create_revision", "SettingRevision", 13, "a", nil, revisionSnapshot(13, 7, 4, true)),
			activations: []activation{{7, 13, 4}},
		},
		{
			name: "already active update",
			event: New("update_revision", "SettingRevision", 13, "a",
				revisionSnapshot(13, 7, 4, true), revisionSnapshot(13, 7, 4, true)),
		},
		{
			name:  "created inactive",
			event: New("create_revision", "SettingRevision", 14, "a", nil, revisionSnapshot(14, 7, 5, false)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeInflux{}
			require.NoError(t, NewInfluxSink(w).Handle(context.Background(), tt.event))
			assert.Equal(t, []string{tt.event.Entity + "/" + tt.event.Action}, w.audits)
			assert.Equal(t, tt.activations, w.activations)
		})
	}
}

func TestToInt64(t *testing.T) {
	assert.Equal(t, int64(5), toInt64(float64(5)))
	assert.Equal(t, int64(5), toInt64(int64(5)))
	assert.Equal(t, int64(5), toInt64(5))
	assert.Equal(t, int64(5), toInt64(json.Number("5")))
	assert.Equal(t, int64(0), toInt64("5"))
	assert.Equal(t, int64(0), toInt64(nil))
}
