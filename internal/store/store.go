// Package store provides durable persistence for the workflow collection.
//
// The default backend serializes the whole collection to a single JSON file,
// read-modify-write on every mutation. Loads are fail-open: a missing or
// corrupt file yields an empty collection rather than an error, so a bad
// slot can never take the feature down. Save errors are swallowed and
// logged; the in-memory collection stays authoritative for the session.
package store

import "github.com/opsdeck/opsdeck/internal/workflow"

// Store reads and writes the full workflow collection.
type Store interface {
	// Load returns the persisted collection, or an empty slice when the
	// slot is absent, corrupt, or the medium is unavailable.
	Load() []workflow.Workflow

	// Save persists the entire collection. Failures are logged, never
	// returned.
	Save(collection []workflow.Workflow)
}

// Noop is a Store for environments without any usable storage medium.
// Load returns empty, Save does nothing.
type Noop struct{}

// Load implements Store.
func (Noop) Load() []workflow.Workflow { return []workflow.Workflow{} }

// Save implements Store.
func (Noop) Save([]workflow.Workflow) {}
