package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opsdeck/opsdeck/internal/log"
)

// ErrMissingLabel is returned when a creation request carries no usable label.
var ErrMissingLabel = errors.New("action label is required")

// statsWindow is the age threshold for both completedThisWeek and overdue.
// Overdue is defined purely by creation-time age; workflows carry no due date.
const statsWindow = 7 * 24 * time.Hour

// Collection is the persistence contract the service writes through.
// store.Store satisfies it.
type Collection interface {
	Load() []Workflow
	Save(collection []Workflow)
}

// Lifecycle is the full service surface the UI and CLI consume. Implemented
// by Service and, in degraded environments, by Fallback.
type Lifecycle interface {
	CreateFromAction(action Action, source Source, sourceID, insightTitle string) (Workflow, error)
	Workflows() []Workflow
	Update(id string, patch Patch) bool
	Delete(id string) bool
	Stats() Stats
}

// Patch is a partial-field update merged into a workflow by Update. Nil
// fields are left untouched. No field-level validation happens here; callers
// exposing status controls are responsible for supplying valid values.
type Patch struct {
	Title         *string
	Description   *string
	Priority      *Priority
	Status        *Status
	Steps         *[]Step
	Tags          *[]string
	EstimatedTime *string
	DollarImpact  *float64
}

// Service is the sole mutator of the workflow collection. It holds an
// in-memory copy hydrated lazily from the store on first use and writes the
// whole collection back on every mutation.
//
// Construction does no I/O, so a Service can be built in any environment
// (including ones without a usable store) without side effects.
type Service struct {
	mu         sync.Mutex
	store      Collection
	collection []Workflow
	hydrated   bool

	now    func() time.Time
	tracer trace.Tracer
}

var _ Lifecycle = (*Service)(nil)

// NewService creates a service over the given store. No storage I/O is
// performed until the first operation.
func NewService(store Collection) *Service {
	return &Service{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer("opsdeck/workflow"),
	}
}

// hydrate loads the collection from the store on first use.
// Callers must hold s.mu.
func (s *Service) hydrate() {
	if s.hydrated {
		return
	}
	s.collection = s.store.Load()
	s.hydrated = true
	log.Debug(log.CatWorkflow, "Hydrated workflow collection", "count", len(s.collection))
}

// Reload discards the in-memory copy and re-hydrates from the store on the
// next operation. The board calls this when the watcher reports an external
// change to the slot.
func (s *Service) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrated = false
	s.collection = nil
}

// CreateFromAction validates the action, synthesizes a full workflow record,
// appends it to the collection, and persists. The created record is returned
// to the caller; broadcasting the creation event is the caller's concern.
//
// Unrecognized action types fall back to generic synthesis and unrecognized
// sources are coerced to manual rather than rejected: an odd string from an
// upstream AI suggestion must never block the user.
func (s *Service) CreateFromAction(action Action, source Source, sourceID, insightTitle string) (Workflow, error) {
	_, span := s.tracer.Start(context.Background(), "workflow.create",
		trace.WithAttributes(
			attribute.String("action.type", string(action.Type)),
			attribute.String("source", string(source)),
		))
	defer span.End()

	if action.Label == "" {
		err := fmt.Errorf("workflow creation failed: %w", ErrMissingLabel)
		log.ErrorErr(log.CatWorkflow, "Rejected workflow creation", err)
		span.RecordError(err)
		return Workflow{}, err
	}

	if !action.Type.IsValid() {
		// Synthesis handles the fallback: generic steps, low priority,
		// default estimate.
		log.Warn(log.CatWorkflow, "Unrecognized action type, using generic synthesis", "type", action.Type)
	}
	if !source.IsValid() {
		log.Warn(log.CatWorkflow, "Unrecognized source, using manual", "source", source)
		source = SourceManual
	}

	created := synthesize(action, source, sourceID, insightTitle, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrate()
	s.collection = append(s.collection, created)
	s.store.Save(s.collection)

	log.Info(log.CatWorkflow, "Created workflow", "id", created.ID, "priority", created.Priority)
	span.SetAttributes(attribute.String("workflow.id", created.ID))
	return created, nil
}

// Workflows returns a copy of the current collection. Callers cannot mutate
// service state through the returned slice.
func (s *Service) Workflows() []Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrate()

	out := make([]Workflow, len(s.collection))
	copy(out, s.collection)
	return out
}

// Update shallow-merges patch into the workflow with the given id and
// persists. Returns false, without error, when no such workflow exists.
func (s *Service) Update(id string, patch Patch) bool {
	_, span := s.tracer.Start(context.Background(), "workflow.update",
		trace.WithAttributes(attribute.String("workflow.id", id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrate()

	for i := range s.collection {
		if s.collection[i].ID != id {
			continue
		}
		applyPatch(&s.collection[i], patch)
		s.store.Save(s.collection)
		log.Debug(log.CatWorkflow, "Updated workflow", "id", id)
		return true
	}

	log.Warn(log.CatWorkflow, "Update for unknown workflow", "id", id)
	return false
}

// Delete removes the workflow with the given id. Returns true only when a
// record was actually removed; the collection is persisted only on success.
func (s *Service) Delete(id string) bool {
	_, span := s.tracer.Start(context.Background(), "workflow.delete",
		trace.WithAttributes(attribute.String("workflow.id", id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrate()

	filtered := s.collection[:0:0]
	for _, w := range s.collection {
		if w.ID != id {
			filtered = append(filtered, w)
		}
	}
	if len(filtered) == len(s.collection) {
		log.Warn(log.CatWorkflow, "Delete for unknown workflow", "id", id)
		return false
	}

	s.collection = filtered
	s.store.Save(s.collection)
	log.Info(log.CatWorkflow, "Deleted workflow", "id", id)
	return true
}

// Stats computes the aggregate KPI view over the collection. Recomputed on
// every call; the collection never grows large enough to need caching.
//
// Records with an unparsable createdAt are excluded from the time-windowed
// counts, mirroring the fail-soft posture of the rest of the core.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrate()

	var stats Stats
	cutoff := s.now().Add(-statsWindow)

	for _, w := range s.collection {
		createdAt, timeOK := parseCreatedAt(w.CreatedAt)

		if w.Status == StatusCompleted {
			stats.TotalSaved += w.DollarImpact
			if timeOK && !createdAt.Before(cutoff) {
				stats.CompletedThisWeek++
			}
			continue
		}

		stats.Active++
		if timeOK && createdAt.Before(cutoff) {
			stats.Overdue++
		}
	}

	return stats
}

func parseCreatedAt(value string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func applyPatch(w *Workflow, patch Patch) {
	if patch.Title != nil {
		w.Title = *patch.Title
	}
	if patch.Description != nil {
		w.Description = *patch.Description
	}
	if patch.Priority != nil {
		w.Priority = *patch.Priority
	}
	if patch.Status != nil {
		w.Status = *patch.Status
	}
	if patch.Steps != nil {
		w.Steps = *patch.Steps
	}
	if patch.Tags != nil {
		w.Tags = *patch.Tags
	}
	if patch.EstimatedTime != nil {
		w.EstimatedTime = *patch.EstimatedTime
	}
	if patch.DollarImpact != nil {
		w.DollarImpact = *patch.DollarImpact
	}
}
