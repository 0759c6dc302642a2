package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/infrastructure/sqlite"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "workflows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleWorkflow(id, createdAt string) workflow.Workflow {
	return workflow.Workflow{
		ID:            id,
		Title:         "Reorder SKU-123 - Low Stock Alert",
		Description:   "Stock below reorder point",
		Priority:      workflow.PriorityMedium,
		Status:        workflow.StatusTodo,
		Source:        workflow.SourceAIInsight,
		SourceID:      "insight_42",
		Steps:         []workflow.Step{{ID: "step_1_0", Title: "Verify current stock levels", Type: workflow.ActionRestockItem}},
		EstimatedTime: "45 minutes",
		Tags:          []string{"ai insight", "inventory"},
		CreatedAt:     createdAt,
	}
}

func TestStore_LoadEmptyDatabase(t *testing.T) {
	s := openStore(t)

	got := s.Load()
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestStore_RoundTrip(t *testing.T) {
	s := openStore(t)

	collection := []workflow.Workflow{
		sampleWorkflow("workflow_1_aa", "2026-03-14T09:30:00Z"),
		sampleWorkflow("workflow_2_bb", "2026-03-15T10:00:00Z"),
	}
	s.Save(collection)

	got := s.Load()
	require.Equal(t, collection, got)
}

func TestStore_LoadOrdersByCreation(t *testing.T) {
	s := openStore(t)

	s.Save([]workflow.Workflow{
		sampleWorkflow("workflow_3_cc", "2026-03-16T00:00:00Z"),
		sampleWorkflow("workflow_1_aa", "2026-03-14T00:00:00Z"),
		sampleWorkflow("workflow_2_bb", "2026-03-15T00:00:00Z"),
	})

	got := s.Load()
	require.Len(t, got, 3)
	require.Equal(t, "workflow_1_aa", got[0].ID)
	require.Equal(t, "workflow_2_bb", got[1].ID)
	require.Equal(t, "workflow_3_cc", got[2].ID)
}

func TestStore_SaveUpdatesExistingRows(t *testing.T) {
	s := openStore(t)

	w := sampleWorkflow("workflow_1_aa", "2026-03-14T09:30:00Z")
	s.Save([]workflow.Workflow{w})

	w.Status = workflow.StatusCompleted
	w.DollarImpact = 1250
	s.Save([]workflow.Workflow{w})

	got := s.Load()
	require.Len(t, got, 1)
	require.Equal(t, workflow.StatusCompleted, got[0].Status)
	require.Equal(t, 1250.0, got[0].DollarImpact)
}

func TestStore_SavePrunesRemovedRows(t *testing.T) {
	s := openStore(t)

	s.Save([]workflow.Workflow{
		sampleWorkflow("workflow_1_aa", "2026-03-14T00:00:00Z"),
		sampleWorkflow("workflow_2_bb", "2026-03-15T00:00:00Z"),
	})
	s.Save([]workflow.Workflow{
		sampleWorkflow("workflow_2_bb", "2026-03-15T00:00:00Z"),
	})

	got := s.Load()
	require.Len(t, got, 1)
	require.Equal(t, "workflow_2_bb", got[0].ID)
}

func TestStore_SaveEmptyClearsTable(t *testing.T) {
	s := openStore(t)

	s.Save([]workflow.Workflow{sampleWorkflow("workflow_1_aa", "2026-03-14T00:00:00Z")})
	s.Save([]workflow.Workflow{})

	require.Empty(t, s.Load())
}

func TestStore_WorksAsServiceBackend(t *testing.T) {
	s := openStore(t)
	svc := workflow.NewService(s)

	created, err := svc.CreateFromAction(
		workflow.Action{Label: "Reorder SKU-123", Type: workflow.ActionRestockItem},
		workflow.SourceAIInsight, "insight_42", "Low Stock Alert")
	require.NoError(t, err)

	// A fresh service over the same database sees the record
	svc2 := workflow.NewService(s)
	got := svc2.Workflows()
	require.Len(t, got, 1)
	require.Equal(t, created.ID, got[0].ID)
	require.Equal(t, "Reorder SKU-123 - Low Stock Alert", got[0].Title)
}
