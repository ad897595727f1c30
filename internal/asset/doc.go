// Package asset manages the substation asset hierarchy:
//
//	Substation → Switchgear → Bay → Panel → Device
//
// plus the documents attached to a substation.
//
// Each child holds only its parent's id. Deleting a row cascades to every
// descendant through the schema's ON DELETE CASCADE foreign keys, down to
// device configurations and setting revisions.
//
// All mutations go through Service, which runs the change and its audit
// entry in one transaction and publishes a change event after commit.
package asset
