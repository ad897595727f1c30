// Package apperr defines the error taxonomy shared by every RZA Core
// service: not found, validation, conflict and storage failures.
//
// Services return *Error values; callers classify them with errors.Is
// against the sentinel kinds:
//
//	if errors.Is(err, apperr.ErrNotFound) {
//	    // 404
//	}
package apperr

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nerrad567/rza-core/internal/infrastructure/database"
)

// Sentinel kinds.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

// Error is a classified application error.
type Error struct {
	// Kind is one of the sentinel kinds above.
	Kind error

	// Entity and ID identify the missing record for NotFound errors.
	Entity string
	ID     int64

	// Message is safe to show to API callers.
	Message string

	// Err is the underlying cause, if any. Never shown to callers.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Is matches the error's kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports that entity id does not exist.
func NotFound(entity string, id int64) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Entity:  entity,
		ID:      id,
		Message: entity + " " + strconv.FormatInt(id, 10) + " not found",
	}
}

// Validation reports invalid caller input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a database failure during op.
func Storage(op string, err error) *Error {
	return &Error{Kind: ErrStorage, Message: op, Err: err}
}

// Message returns the caller-facing message of err, falling back to its kind.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == ErrStorage {
			return "internal storage error"
		}
		return e.Message
	}
	return err.Error()
}

// FromDB classifies a database error raised while performing op.
// Already classified errors pass through unchanged. A UNIQUE violation
// becomes a Conflict and a FOREIGN KEY violation a NotFound for parent.
func FromDB(op, parent string, parentID int64, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case database.IsUniqueViolation(err):
		return &Error{Kind: ErrConflict, Message: op + ": duplicate value violates a unique constraint", Err: err}
	case database.IsForeignKeyViolation(err) && parent != "":
		nf := NotFound(parent, parentID)
		nf.Err = err
		return nf
	default:
		return Storage(op, err)
	}
}
