package asset

import (
	v "github.com/nerrad567/rza-core/internal/validate"
)

func (in *SubstationCreate) validate() error {
	var c v.Checker
	c.Text("name", in.Name, v.MaxName)
	c.Text("code", in.Code, v.MaxCode)
	c.Text("voltage_class", in.VoltageClass, v.MaxVoltage)
	c.OptionalText("location", in.Location, v.MaxLocation)
	c.OptionalText("description", in.Description, v.MaxFreeText)
	return c.Err()
}

func (p *SubstationPatch) validate() error {
	var c v.Checker
	c.PatchText("name", p.Name, v.MaxName)
	c.PatchText("code", p.Code, v.MaxCode)
	c.PatchText("voltage_class", p.VoltageClass, v.MaxVoltage)
	c.PatchOptionalText("location", p.Location, v.MaxLocation)
	c.PatchOptionalText("description", p.Description, v.MaxFreeText)
	return c.Err()
}

func (in *SwitchgearCreate) validate() error {
	var c v.Checker
	c.ID("substation_id", in.SubstationID)
	c.Text("name", in.Name, v.MaxName)
	c.Text("kind", in.Kind, v.MaxKind)
	c.Text("voltage_level", in.VoltageLevel, v.MaxVoltage)
	c.OptionalText("description", in.Description, v.MaxFreeText)
	return c.Err()
}

func (p *SwitchgearPatch) validate() error {
	var c v.Checker
	c.PatchID("substation_id", p.SubstationID)
	c.PatchText("name", p.Name, v.MaxName)
	c.PatchText("kind", p.Kind, v.MaxKind)
	c.PatchText("voltage_level", p.VoltageLevel, v.MaxVoltage)
	c.PatchOptionalText("description", p.Description, v.MaxFreeText)
	return c.Err()
}

func (in *BayCreate) validate() error {
	var c v.Checker
	c.ID("switchgear_id", in.SwitchgearID)
	c.Text("name", in.Name, v.MaxName)
	c.Text("function", in.Function, v.MaxFunction)
	c.OptionalText("feeder", in.Feeder, v.MaxFeeder)
	return c.Err()
}

func (p *BayPatch) validate() error {
	var c v.Checker
	c.PatchID("switchgear_id", p.SwitchgearID)
	c.PatchText("name", p.Name, v.MaxName)
	c.PatchText("function", p.Function, v.MaxFunction)
	c.PatchOptionalText("feeder", p.Feeder, v.MaxFeeder)
	return c.Err()
}

func (in *PanelCreate) validate() error {
	var c v.Checker
	c.ID("bay_id", in.BayID)
	c.Text("designation", in.Designation, v.MaxDesignation)
	c.Text("panel_type", in.PanelType, v.MaxPanelType)
	if in.Status != "" {
		c.Text("status", in.Status, v.MaxStatus)
	}
	c.OptionalText("notes", in.Notes, v.MaxFreeText)
	return c.Err()
}

func (p *PanelPatch) validate() error {
	var c v.Checker
	c.PatchID("bay_id", p.BayID)
	c.PatchText("designation", p.Designation, v.MaxDesignation)
	c.PatchText("panel_type", p.PanelType, v.MaxPanelType)
	c.PatchText("status", p.Status, v.MaxStatus)
	c.PatchOptionalText("notes", p.Notes, v.MaxFreeText)
	return c.Err()
}

func (in *DeviceCreate) validate() error {
	var c v.Checker
	c.ID("panel_id", in.PanelID)
	c.Text("name", in.Name, v.MaxName)
	c.Text("vendor", in.Vendor, v.MaxVendor)
	c.Text("model", in.Model, v.MaxModel)
	c.OptionalText("firmware_version", in.FirmwareVersion, v.MaxFirmware)
	return c.Err()
}

func (p *DevicePatch) validate() error {
	var c v.Checker
	c.PatchID("panel_id", p.PanelID)
	c.PatchText("name", p.Name, v.MaxName)
	c.PatchText("vendor", p.Vendor, v.MaxVendor)
	c.PatchText("model", p.Model, v.MaxModel)
	c.PatchOptionalText("firmware_version", p.FirmwareVersion, v.MaxFirmware)
	v.NotNull(&c, "is_primary", p.IsPrimary)
	return c.Err()
}

func (in *DocumentCreate) validate() error {
	var c v.Checker
	c.ID("substation_id", in.SubstationID)
	c.Text("doc_type", in.DocType, v.MaxDocType)
	c.Text("name", in.Name, v.MaxName)
	c.Text("uri", in.URI, v.MaxURI)
	c.OptionalText("checksum", in.Checksum, v.MaxChecksum)
	return c.Err()
}

func (p *DocumentPatch) validate() error {
	var c v.Checker
	c.PatchID("substation_id", p.SubstationID)
	c.PatchText("doc_type", p.DocType, v.MaxDocType)
	c.PatchText("name", p.Name, v.MaxName)
	c.PatchText("uri", p.URI, v.MaxURI)
	c.PatchOptionalText("checksum", p.Checksum, v.MaxChecksum)
	return c.Err()
}
