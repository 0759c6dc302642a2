package workflow

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fallbackTitle is used when an action carries no usable label at all.
const fallbackTitle = "New Workflow"

// fallbackDescription is used when an action has neither context nor label.
const fallbackDescription = "Follow up on a suggested operations action"

// stepTemplates maps each action kind to its checklist template.
// Unrecognized kinds fall back to genericSteps.
var stepTemplates = map[ActionType][]string{
	ActionCreateWorkflow: {
		"Define workflow scope",
		"Assign an owner",
		"Schedule kickoff",
	},
	ActionSendNotification: {
		"Draft notification",
		"Select recipients",
		"Send and confirm delivery",
	},
	ActionEscalateOrder: {
		"Review order details",
		"Contact carrier for status",
		"Notify customer of escalation",
		"Log resolution",
	},
	ActionRestockItem: {
		"Verify current stock levels",
		"Calculate reorder quantity",
		"Submit purchase order",
		"Confirm delivery date",
	},
	ActionNotifyTeam: {
		"Summarize the issue",
		"Identify stakeholders",
		"Post update to team channel",
	},
	ActionReviewCarrier: {
		"Pull carrier performance data",
		"Compare against SLA targets",
		"Document findings",
		"Schedule carrier review call",
	},
	ActionContactSupplier: {
		"Gather order and SKU details",
		"Draft supplier inquiry",
		"Send inquiry and track response",
	},
}

// genericSteps is the two-step template for unrecognized action kinds.
var genericSteps = []string{
	"Execute Action",
	"Verify Completion",
}

// estimatedMinutes maps each action kind to a rough effort estimate.
var estimatedMinutes = map[ActionType]int{
	ActionCreateWorkflow:   30,
	ActionSendNotification: 10,
	ActionEscalateOrder:    20,
	ActionRestockItem:      45,
	ActionNotifyTeam:       15,
	ActionReviewCarrier:    90,
	ActionContactSupplier:  60,
}

const defaultEstimatedMinutes = 30

// inferPriority derives a priority from the action kind.
//
// Note this table never yields critical: the severity-based mapping used by
// insight display code does map critical severity to critical priority, but
// the two tables are intentionally kept separate (see DESIGN.md).
func inferPriority(t ActionType) Priority {
	switch t {
	case ActionEscalateOrder, ActionSendNotification:
		return PriorityHigh
	case ActionRestockItem, ActionNotifyTeam:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// synthesizeSteps builds a fresh step list for the action kind. Step titles
// and order are deterministic per kind; only the ids differ between calls.
// Unrecognized kinds get the generic template and are recorded as
// create_workflow, so persisted step types stay within the closed enum.
func synthesizeSteps(t ActionType, now time.Time) []Step {
	titles, ok := stepTemplates[t]
	if !ok {
		titles = genericSteps
		t = ActionCreateWorkflow
	}
	steps := make([]Step, len(titles))
	for i, title := range titles {
		steps[i] = Step{
			ID:        fmt.Sprintf("step_%d_%d", now.UnixMilli(), i),
			Title:     title,
			Completed: false,
			Type:      t,
		}
	}
	return steps
}

// formatEstimate renders a minute count as "N minutes" below an hour,
// otherwise as a rounded hour count.
func formatEstimate(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := int(math.Round(float64(minutes) / 60))
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// synthesizeTags derives the tag list from source and action metadata.
func synthesizeTags(action Action, source Source) []string {
	tags := []string{strings.ReplaceAll(string(source), "_", " ")}
	switch action.Type {
	case ActionEscalateOrder:
		tags = append(tags, "urgent")
	case ActionRestockItem:
		tags = append(tags, "inventory")
	case ActionReviewCarrier:
		tags = append(tags, "analysis")
	}
	if strings.Contains(strings.ToLower(action.Context), "critical") {
		tags = append(tags, "critical")
	}
	return tags
}

// synthesizeTitle composes the workflow title from the action label and the
// originating insight's title when one was supplied.
func synthesizeTitle(action Action, insightTitle string) string {
	label := strings.TrimSpace(action.Label)
	if label == "" {
		return fallbackTitle
	}
	if t := strings.TrimSpace(insightTitle); t != "" {
		return label + " - " + t
	}
	return label
}

// synthesizeDescription composes the description, citing the insight on its
// own paragraph when present.
func synthesizeDescription(action Action, insightTitle string) string {
	desc := action.Context
	if desc == "" {
		desc = action.Label
	}
	if desc == "" {
		desc = fallbackDescription
	}
	if t := strings.TrimSpace(insightTitle); t != "" {
		desc += "\n\nBased on insight: " + t
	}
	return desc
}

// newWorkflowID generates a collection-unique id. The timestamp prefix keeps
// ids roughly sortable; the uuid suffix guarantees uniqueness even for
// creations within the same millisecond.
func newWorkflowID(now time.Time) string {
	return fmt.Sprintf("workflow_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

// synthesize builds a complete workflow record from validated inputs.
// Deterministic apart from ids: same inputs produce the same titles, steps,
// priority, estimate, and tags.
func synthesize(action Action, source Source, sourceID, insightTitle string, now time.Time) Workflow {
	priority := action.Priority
	if !priority.IsValid() {
		priority = inferPriority(action.Type)
	}

	minutes, ok := estimatedMinutes[action.Type]
	if !ok {
		minutes = defaultEstimatedMinutes
	}

	if sourceID == "" {
		sourceID = fmt.Sprintf("source_%d", now.UnixMilli())
	}

	return Workflow{
		ID:            newWorkflowID(now),
		Title:         synthesizeTitle(action, insightTitle),
		Description:   synthesizeDescription(action, insightTitle),
		Priority:      priority,
		Status:        StatusTodo,
		Source:        source,
		SourceID:      sourceID,
		Steps:         synthesizeSteps(action.Type, now),
		EstimatedTime: formatEstimate(minutes),
		Tags:          synthesizeTags(action, source),
		CreatedAt:     now.UTC().Format(time.RFC3339),
		DollarImpact:  0,
	}
}
