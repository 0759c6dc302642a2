// Package insights fetches AI-generated operational insights from the
// backend. The client only transports and displays what the backend returns;
// generation itself lives server-side.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opsdeck/opsdeck/internal/cachemanager"
	"github.com/opsdeck/opsdeck/internal/log"
	"github.com/opsdeck/opsdeck/internal/workflow"
)

// Severity is the backend's ranking of an insight.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// DisplayPriority maps severity to the priority badge shown next to an
// insight. This is a display concern only: workflow priority is inferred
// from the action type, not from severity, and the two tables intentionally
// disagree (severity has a critical outcome, action-type inference does not).
func (s Severity) DisplayPriority() workflow.Priority {
	switch s {
	case SeverityCritical:
		return workflow.PriorityCritical
	case SeverityWarning:
		return workflow.PriorityHigh
	default:
		return workflow.PriorityLow
	}
}

// Insight is an AI-generated observation with suggested follow-up actions.
type Insight struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Severity         Severity          `json:"severity"`
	DollarImpact     float64           `json:"dollarImpact"`
	SuggestedActions []workflow.Action `json:"suggestedActions"`
}

const cacheKey = "insights:list"

// Client fetches insights over HTTP with a read-through TTL cache in front,
// the same shape the dashboard's data hooks use for KPI endpoints.
type Client struct {
	endpoint string
	ttl      time.Duration
	http     *http.Client
	cached   *cachemanager.ReadThroughCache[string, []Insight, string]
}

// NewClient creates an insights client for the given endpoint. ttl controls
// how long a fetched feed is served from cache; zero disables caching.
func NewClient(endpoint string, ttl time.Duration) *Client {
	c := &Client{
		endpoint: endpoint,
		ttl:      ttl,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	cache := cachemanager.NewInMemoryCacheManager[string, []Insight](
		"insights", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	c.cached = cachemanager.NewReadThroughCache(cache, c.fetch, ttl <= 0)
	return c
}

// List returns the current insight feed, served from cache when fresh.
func (c *Client) List(ctx context.Context) ([]Insight, error) {
	return c.cached.Get(ctx, cacheKey, c.endpoint+"/insights", c.ttl)
}

func (c *Client) fetch(ctx context.Context, url string) ([]Insight, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building insights request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatInsights, "Insight fetch failed", err, "url", url)
		return nil, fmt.Errorf("fetching insights: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching insights: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading insights response: %w", err)
	}

	var feed []Insight
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decoding insights response: %w", err)
	}

	log.Debug(log.CatInsights, "Fetched insight feed", "count", len(feed))
	return feed, nil
}
