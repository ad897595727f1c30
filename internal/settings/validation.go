package settings

import (
	v "github.com/nerrad567/rza-core/internal/validate"
)

func (in *ConfigCreate) validate(docs *DocumentValidator) error {
	var c v.Checker
	c.ID("device_id", in.DeviceID)
	c.Text("version_tag", in.VersionTag, v.MaxVersionTag)
	if in.Status != "" {
		c.Text("status", in.Status, v.MaxStatus)
	}
	c.OptionalText("comment", in.Comment, v.MaxFreeText)
	if err := c.Err(); err != nil {
		return err
	}
	return docs.Validate("payload", in.Payload)
}

func (p *ConfigPatch) validate(docs *DocumentValidator) error {
	var c v.Checker
	c.PatchID("device_id", p.DeviceID)
	c.PatchText("version_tag", p.VersionTag, v.MaxVersionTag)
	c.PatchText("status", p.Status, v.MaxStatus)
	v.NotNull(&c, "payload", p.Payload)
	c.PatchOptionalText("comment", p.Comment, v.MaxFreeText)
	if err := c.Err(); err != nil {
		return err
	}
	if p.Payload.HasValue() {
		return docs.Validate("payload", p.Payload.Value)
	}
	return nil
}

func (in *RevisionCreate) validate(docs *DocumentValidator) error {
	var c v.Checker
	c.Check(in.ConfigID >= 0, "config_id must not be negative")
	if err := c.Err(); err != nil {
		return err
	}
	return docs.Validate("settings", in.Settings)
}

func (p *RevisionPatch) validate(docs *DocumentValidator) error {
	var c v.Checker
	v.NotNull(&c, "revision", p.Revision)
	v.NotNull(&c, "settings", p.Settings)
	v.NotNull(&c, "is_active", p.IsActive)
	if err := c.Err(); err != nil {
		return err
	}
	if p.Settings.HasValue() {
		return docs.Validate("settings", p.Settings.Value)
	}
	return nil
}
