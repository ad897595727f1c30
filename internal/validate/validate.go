// Package validate checks request fields against the column limits of the
// RZA schema. A Checker records the first failure as an apperr validation
// error:
//
//	var c validate.Checker
//	c.Text("name", in.Name, validate.MaxName)
//	c.OptionalText("location", in.Location, validate.MaxName)
//	if err := c.Err(); err != nil {
//	    return nil, err
//	}
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/patch"
)

// Column length limits.
const (
	MaxName         = 255
	MaxCode         = 50
	MaxVoltage      = 50
	MaxKind         = 50
	MaxStatus       = 50
	MaxFunction     = 100
	MaxFeeder       = 100
	MaxDesignation  = 100
	MaxPanelType    = 100
	MaxVendor       = 100
	MaxModel        = 100
	MaxFirmware     = 50
	MaxVersionTag   = 150
	MaxLocation     = 255
	MaxDocType      = 50
	MaxURI          = 255
	MaxChecksum     = 128
	MaxFreeText     = 10000
	unlimitedLength = 0
)

// Checker accumulates the first validation failure.
type Checker struct {
	err error
}

// Err returns the first failure, or nil.
func (c *Checker) Err() error {
	return c.err
}

func (c *Checker) fail(format string, args ...any) {
	if c.err == nil {
		c.err = apperr.Validation(format, args...)
	}
}

// Text requires a non-blank value of at most limit characters.
func (c *Checker) Text(field, value string, limit int) {
	if strings.TrimSpace(value) == "" {
		c.fail("%s is required", field)
		return
	}
	c.length(field, value, limit)
}

// OptionalText checks the length of a nullable value.
func (c *Checker) OptionalText(field string, value *string, limit int) {
	if value != nil {
		c.length(field, *value, limit)
	}
}

// ID requires a positive reference id.
func (c *Checker) ID(field string, id int64) {
	if id <= 0 {
		c.fail("%s must be a positive id", field)
	}
}

// Check records msg when ok is false.
func (c *Checker) Check(ok bool, format string, args ...any) {
	if !ok {
		c.fail(format, args...)
	}
}

// PatchText checks a present non-nullable text field.
func (c *Checker) PatchText(field string, f patch.Field[string], limit int) {
	if !f.Set {
		return
	}
	if f.Null {
		c.fail("%s cannot be null", field)
		return
	}
	c.Text(field, f.Value, limit)
}

// PatchOptionalText checks a present nullable text field.
func (c *Checker) PatchOptionalText(field string, f patch.Field[string], limit int) {
	if f.HasValue() {
		c.length(field, f.Value, limit)
	}
}

// PatchID checks a present parent reference.
func (c *Checker) PatchID(field string, f patch.Field[int64]) {
	if !f.Set {
		return
	}
	if f.Null {
		c.fail("%s cannot be null", field)
		return
	}
	c.ID(field, f.Value)
}

// NotNull rejects an explicit null on a non-nullable field of any type.
func NotNull[T any](c *Checker, field string, f patch.Field[T]) {
	if f.Set && f.Null {
		c.fail("%s cannot be null", field)
	}
}

func (c *Checker) length(field, value string, limit int) {
	if limit != unlimitedLength && utf8.RuneCountInString(value) > limit {
		c.fail("%s exceeds %d characters", field, limit)
	}
}
