// Package settings manages device configurations and their setting
// revisions.
//
// A DeviceConfig belongs to one device and owns any number of
// SettingRevisions. At most one revision per configuration is active.
// Activating a revision (on create, on update, or explicitly) deactivates
// the previously active sibling and closes its validity window; see
// activate in activation.go.
//
// Payload and settings documents are JSON objects bounded by the
// documents section of the configuration and checked by DocumentValidator.
package settings
