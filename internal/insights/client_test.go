package insights_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/insights"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

const feedJSON = `[
  {
    "id": "insight_42",
    "title": "Low Stock Alert",
    "description": "SKU-123 is below its reorder point",
    "severity": "warning",
    "dollarImpact": 1250,
    "suggestedActions": [
      {"label": "Reorder SKU-123", "type": "restock_item"},
      {"label": "Notify warehouse team", "type": "notify_team"}
    ]
  }
]`

func feedServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/insights", r.URL.Path)
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedJSON))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_List(t *testing.T) {
	var hits atomic.Int32
	srv := feedServer(t, &hits)

	client := insights.NewClient(srv.URL, time.Minute)

	feed, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, feed, 1)

	insight := feed[0]
	require.Equal(t, "insight_42", insight.ID)
	require.Equal(t, "Low Stock Alert", insight.Title)
	require.Equal(t, insights.SeverityWarning, insight.Severity)
	require.Equal(t, 1250.0, insight.DollarImpact)
	require.Len(t, insight.SuggestedActions, 2)
	require.Equal(t, workflow.ActionRestockItem, insight.SuggestedActions[0].Type)
}

func TestClient_ListServesFromCache(t *testing.T) {
	var hits atomic.Int32
	srv := feedServer(t, &hits)

	client := insights.NewClient(srv.URL, time.Minute)

	_, err := client.List(context.Background())
	require.NoError(t, err)
	_, err = client.List(context.Background())
	require.NoError(t, err)

	require.Equal(t, int32(1), hits.Load(), "second call should hit the cache")
}

func TestClient_ZeroTTLDisablesCache(t *testing.T) {
	var hits atomic.Int32
	srv := feedServer(t, &hits)

	client := insights.NewClient(srv.URL, 0)

	_, err := client.List(context.Background())
	require.NoError(t, err)
	_, err = client.List(context.Background())
	require.NoError(t, err)

	require.Equal(t, int32(2), hits.Load(), "caching disabled, every call fetches")
}

func TestClient_ListErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := insights.NewClient(srv.URL, time.Minute)

	_, err := client.List(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 502")
}

func TestClient_ListMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	t.Cleanup(srv.Close)

	client := insights.NewClient(srv.URL, time.Minute)

	_, err := client.List(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decoding insights response")
}

func TestSeverity_DisplayPriority(t *testing.T) {
	require.Equal(t, workflow.PriorityCritical, insights.SeverityCritical.DisplayPriority())
	require.Equal(t, workflow.PriorityHigh, insights.SeverityWarning.DisplayPriority())
	require.Equal(t, workflow.PriorityLow, insights.SeverityInfo.DisplayPriority())
	require.Equal(t, workflow.PriorityLow, insights.Severity("odd").DisplayPriority())
}
