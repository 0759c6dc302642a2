// Package workflow holds the workflow lifecycle core: the record types, the
// synthesis rules that turn a user action into a full workflow, and the
// service that owns the persisted collection.
package workflow

// ActionType is the closed set of action kinds a workflow can be created from.
type ActionType string

const (
	ActionCreateWorkflow   ActionType = "create_workflow"
	ActionSendNotification ActionType = "send_notification"
	ActionEscalateOrder    ActionType = "escalate_order"
	ActionRestockItem      ActionType = "restock_item"
	ActionNotifyTeam       ActionType = "notify_team"
	ActionReviewCarrier    ActionType = "review_carrier"
	ActionContactSupplier  ActionType = "contact_supplier"
)

// IsValid reports whether t is one of the recognized action kinds.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionCreateWorkflow, ActionSendNotification, ActionEscalateOrder,
		ActionRestockItem, ActionNotifyTeam, ActionReviewCarrier, ActionContactSupplier:
		return true
	}
	return false
}

// Priority is the workflow priority level.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid reports whether p is a recognized priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Status is the workflow lifecycle state. The UI only moves workflows
// forward: todo -> in_progress -> completed.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether s is a recognized status.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Next returns the forward transition for a status. Completed has no
// successor and returns itself with ok=false.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusTodo:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusCompleted, true
	}
	return s, false
}

// Source identifies where a workflow came from.
type Source string

const (
	SourceAIInsight        Source = "ai_insight"
	SourceAnomalyDetection Source = "anomaly_detection"
	SourceBrandAnalysis    Source = "brand_analysis"
	SourceOrderAnalysis    Source = "order_analysis"
	SourceManual           Source = "manual"
)

// IsValid reports whether s is a recognized source.
func (s Source) IsValid() bool {
	switch s {
	case SourceAIInsight, SourceAnomalyDetection, SourceBrandAnalysis,
		SourceOrderAnalysis, SourceManual:
		return true
	}
	return false
}

// Step is a single checklist item inside a workflow.
type Step struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Type      ActionType `json:"type"`
}

// Workflow is the aggregate record persisted in the store. JSON field names
// match the on-disk collection layout and must not change.
type Workflow struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Priority      Priority `json:"priority"`
	Status        Status   `json:"status"`
	Source        Source   `json:"source"`
	SourceID      string   `json:"sourceId"`
	Steps         []Step   `json:"steps"`
	EstimatedTime string   `json:"estimatedTime"`
	Tags          []string `json:"tags"`
	CreatedAt     string   `json:"createdAt"` // ISO-8601
	DollarImpact  float64  `json:"dollarImpact"`
}

// Action is the input descriptor a caller supplies when requesting a new
// workflow. Only Label is required; Type falls back to create_workflow and
// Priority, when set, overrides inference.
type Action struct {
	Label    string     `json:"label"`
	Type     ActionType `json:"type"`
	Context  string     `json:"context,omitempty"`
	Target   string     `json:"target,omitempty"`
	Values   []float64  `json:"values,omitempty"`
	Priority Priority   `json:"priority,omitempty"`
}

// Stats is the aggregate KPI view over the collection.
type Stats struct {
	Active            int     `json:"active"`
	CompletedThisWeek int     `json:"completedThisWeek"`
	Overdue           int     `json:"overdue"`
	TotalSaved        float64 `json:"totalSaved"`
}
