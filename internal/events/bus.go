package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/rza-core/internal/infrastructure/logging"
)

// Sink receives committed change events.
type Sink interface {
	// Name identifies the sink in log records.
	Name() string

	// Handle delivers one event. An error is logged by the Bus and does
	// not reach the caller of Publish.
	Handle(ctx context.Context, e Event) error
}

// Bus is a Publisher that forwards every event to its sinks in
// registration order.
//
// Thread Safety: All methods are safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *logging.Logger
}

// NewBus creates a bus with the given sinks. A nil logger discards records.
func NewBus(logger *logging.Logger, sinks ...Sink) *Bus {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bus{
		sinks:  append([]Sink(nil), sinks...),
		logger: logger.With("component", "events"),
	}
}

// Add registers another sink. Nil sinks are ignored.
func (b *Bus) Add(sink Sink) {
	if sink == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// Sinks returns the names of the registered sinks.
func (b *Bus) Sinks() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.sinks))
	for _, s := range b.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Publish implements Publisher.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	sinks := append([]Sink(nil), b.sinks...)
	b.mu.RUnlock()

	for _, sink := range sinks {
		if err := b.deliver(ctx, sink, e); err != nil {
			b.logger.WarnContext(ctx, "event sink failed",
				"sink", sink.Name(),
				"action", e.Action,
				"entity", e.Entity,
				"entity_id", e.EntityID,
				"error", err,
			)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, sink Sink, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Handle(ctx, e)
}
