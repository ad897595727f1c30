// Package audit records and reads the append-only audit trail.
//
// Every mutating operation of the asset and settings services writes one
// entry through Recorder.Record, using the same transaction handle as the
// mutation itself. Entry and mutation therefore commit or roll back
// together; a failed audit insert aborts the whole unit of work.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Actions.
const (
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionDelete           = "delete"
	ActionCreateRevision   = "create_revision"
	ActionUpdateRevision   = "update_revision"
	ActionActivateRevision = "activate_revision"
)

// Entity names as they appear in entity_name.
const (
	EntitySubstation      = "Substation"
	EntitySwitchgear      = "Switchgear"
	EntityBay             = "Bay"
	EntityPanel           = "Panel"
	EntityDevice          = "Device"
	EntityDocument        = "Document"
	EntityDeviceConfig    = "DeviceConfig"
	EntitySettingRevision = "SettingRevision"
)

// Entry is one immutable row of the audit log.
type Entry struct {
	ID          int64          `json:"id"`
	Action      string         `json:"action"`
	EntityName  string         `json:"entity_name"`
	EntityID    *int64         `json:"entity_id"`
	Actor       string         `json:"actor"`
	Critical    bool           `json:"critical"`
	BeforeState map[string]any `json:"before_state"`
	AfterState  map[string]any `json:"after_state"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Change describes a mutation to record.
type Change struct {
	Action     string
	EntityName string

	// EntityID is the affected row; zero records no id.
	EntityID int64

	// Before and After are snapshots taken with Snapshot, or nil.
	Before map[string]any
	After  map[string]any

	// Actor overrides the context and default actor when non-empty.
	Actor string

	// NonCritical clears the critical flag, which is set by default.
	NonCritical bool
}

type actorKey struct{}

// WithActor returns a context carrying the acting user or system.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok && actor != ""
}

// Snapshot converts an entity to a JSON object using its JSON field names.
// A nil value yields a nil snapshot.
func Snapshot(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling snapshot: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("snapshot of %T is not a JSON object: %w", v, err)
	}
	return out, nil
}
