package workflow

import (
	"fmt"

	"github.com/opsdeck/opsdeck/internal/log"
)

// Fallback is substituted for the real service when no usable store could be
// constructed. Reads return empty results so the rest of the application can
// keep rendering; creation fails loudly with the underlying reason.
type Fallback struct {
	// Reason records why the real service could not be built.
	Reason error
}

var _ Lifecycle = (*Fallback)(nil)

// NewFallback creates a degraded service that explains itself on create.
func NewFallback(reason error) *Fallback {
	log.ErrorErr(log.CatWorkflow, "Using fallback workflow service", reason)
	return &Fallback{Reason: reason}
}

// CreateFromAction always fails, naming the construction problem.
func (f *Fallback) CreateFromAction(Action, Source, string, string) (Workflow, error) {
	return Workflow{}, fmt.Errorf("workflow service unavailable: %w", f.Reason)
}

// Workflows returns an empty collection.
func (f *Fallback) Workflows() []Workflow { return []Workflow{} }

// Update reports the workflow as missing.
func (f *Fallback) Update(string, Patch) bool { return false }

// Delete reports the workflow as missing.
func (f *Fallback) Delete(string) bool { return false }

// Stats returns zeroed aggregates.
func (f *Fallback) Stats() Stats { return Stats{} }
