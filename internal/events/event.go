// Package events fans committed changes out to external sinks.
//
// Services publish one Event per committed mutation. The Bus forwards it
// to every registered Sink (MQTT, InfluxDB, WebSocket). Publishing happens
// after commit and never fails the operation; sink errors are logged.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event describes one committed change.
type Event struct {
	ID       string    `json:"id"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID int64     `json:"entity_id,omitempty"`
	Actor    string    `json:"actor"`
	At       time.Time `json:"at"`

	// Data is the entity after the change, nil for deletes.
	Data map[string]any `json:"data,omitempty"`

	// Before is the entity before the change, nil for creates.
	Before map[string]any `json:"before,omitempty"`
}

// New creates an event with a fresh id and timestamp.
func New(action, entity string, entityID int64, actor string, before, after map[string]any) Event {
	return Event{
		ID:       uuid.NewString(),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Actor:    actor,
		At:       time.Now().UTC(),
		Data:     after,
		Before:   before,
	}
}

// Publisher accepts committed change events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) {}

// Recorder collects published events in memory. Tests use it to assert
// what a service emitted.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the events published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
