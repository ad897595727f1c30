package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"not found", NotFound("Bay", 7), ErrNotFound},
		{"validation", Validation("panel_id %d does not match %d", 1, 2), ErrValidation},
		{"conflict", Conflict("substation code %q already exists", "TP1"), ErrConflict},
		{"storage", Storage("inserting bay", errors.New("disk full")), ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
			for _, other := range []error{ErrNotFound, ErrValidation, ErrConflict, ErrStorage} {
				if other != tt.kind {
					assert.NotErrorIs(t, wrapped, other)
				}
			}
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("Device", 42)
	assert.Equal(t, "Device 42 not found", err.Error())
	assert.Equal(t, "Device", err.Entity)
	assert.Equal(t, int64(42), err.ID)
}

func TestStorageHidesCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := Storage("updating panel", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, "internal storage error", Message(err))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "bad input", Message(Validation("bad input")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestFromDB(t *testing.T) {
	assert.NoError(t, FromDB("op", "", 0, nil))

	classified := NotFound("Bay", 1)
	assert.Same(t, classified, FromDB("op", "", 0, classified))

	err := FromDB("inserting panel", "Bay", 3, errors.New("io error"))
	assert.ErrorIs(t, err, ErrStorage)
}
