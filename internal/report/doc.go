// Package report provides the read-only reports: entity counts, the
// flattened device topology, the settings history, per-device
// configuration history and the substation structure tree.
//
// Reports read committed state through the *database.DB handle and never
// open write transactions.
package report
