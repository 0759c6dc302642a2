package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/store"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

func tempStore(t *testing.T) *store.FileStore {
	t.Helper()
	return store.NewFileStore(filepath.Join(t.TempDir(), store.DefaultFileName))
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := tempStore(t)

	got := s.Load()
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := tempStore(t)

	collection := []workflow.Workflow{
		{
			ID:            "workflow_1_aa",
			Title:         "Reorder SKU-123 - Low Stock Alert",
			Priority:      workflow.PriorityMedium,
			Status:        workflow.StatusTodo,
			Source:        workflow.SourceAIInsight,
			SourceID:      "insight_42",
			Steps:         []workflow.Step{{ID: "step_1_0", Title: "Verify current stock levels", Type: workflow.ActionRestockItem}},
			EstimatedTime: "45 minutes",
			Tags:          []string{"ai insight", "inventory"},
			CreatedAt:     "2026-03-14T09:30:00Z",
			DollarImpact:  1250,
		},
	}
	s.Save(collection)

	got := s.Load()
	require.Equal(t, collection, got)
}

func TestFileStore_JSONFieldNames(t *testing.T) {
	s := tempStore(t)
	s.Save([]workflow.Workflow{{ID: "workflow_1_aa", SourceID: "insight_42", CreatedAt: "2026-03-14T09:30:00Z"}})

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)

	// On-disk field names are part of the slot contract
	for _, field := range []string{"id", "title", "description", "priority", "status",
		"source", "sourceId", "steps", "estimatedTime", "tags", "createdAt", "dollarImpact"} {
		require.Contains(t, raw[0], field)
	}
}

func TestFileStore_LoadCorruptJSON(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{{{ not json"), 0o644))

	got := s.Load()
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestFileStore_LoadNonArrayDocument(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"id":"workflow_1_aa"}`), 0o644))

	got := s.Load()
	require.Empty(t, got)
}

func TestFileStore_NormalizesLegacyRecords(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(),
		[]byte(`[{"id":"workflow_1_aa","title":"old record"}]`), 0o644))

	got := s.Load()
	require.Len(t, got, 1)
	require.NotEmpty(t, got[0].CreatedAt, "missing createdAt gets a current timestamp")
	require.NotNil(t, got[0].Steps, "missing steps become an empty list")
	require.Empty(t, got[0].Steps)
}

func TestFileStore_WrongTypedFieldsDoNotDiscardSiblings(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`[
		{"id":"workflow_1_aa","title":"good","steps":[],"createdAt":"2026-03-14T09:30:00Z"},
		{"id":"workflow_2_bb","title":"mangled","steps":"oops","createdAt":12345}
	]`), 0o644))

	got := s.Load()
	require.Len(t, got, 2, "one mangled record must not empty the slot")

	require.Equal(t, "workflow_1_aa", got[0].ID)
	require.Equal(t, "2026-03-14T09:30:00Z", got[0].CreatedAt)

	require.Equal(t, "workflow_2_bb", got[1].ID)
	require.Empty(t, got[1].Steps, "wrong-typed steps coerce to an empty list")
	require.NotNil(t, got[1].Steps)
	_, err := time.Parse(time.RFC3339, got[1].CreatedAt)
	require.NoError(t, err, "wrong-typed createdAt coerces to a current timestamp")
}

func TestFileStore_SkipsUnreadableRecord(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`[
		{"id":"workflow_1_aa"},
		42,
		{"id":"workflow_3_cc"}
	]`), 0o644))

	got := s.Load()
	require.Len(t, got, 2)
	require.Equal(t, "workflow_1_aa", got[0].ID)
	require.Equal(t, "workflow_3_cc", got[1].ID)
}

func TestFileStore_SaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	s := store.NewFileStore(filepath.Join(dir, store.DefaultFileName))

	s.Save([]workflow.Workflow{{ID: "workflow_1_aa"}})

	require.FileExists(t, s.Path())
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	s.Save([]workflow.Workflow{{ID: "workflow_1_aa"}})

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, store.DefaultFileName, entries[0].Name())
}

func TestFileStore_SaveEmptyCollection(t *testing.T) {
	s := tempStore(t)
	s.Save([]workflow.Workflow{{ID: "workflow_1_aa"}})
	s.Save([]workflow.Workflow{})

	require.Empty(t, s.Load())
}

func TestNoop(t *testing.T) {
	var s store.Noop
	s.Save([]workflow.Workflow{{ID: "workflow_1_aa"}})
	require.Empty(t, s.Load())
}
