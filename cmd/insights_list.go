package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/internal/insights"
)

var insightsListCmd = &cobra.Command{
	Use:   "insights:list",
	Short: "List suggested actions from the insight feed",
	Long: `Fetch the current AI insight feed and print it as JSON.

Requires insights.endpoint in the config. Pair with workflow:create to turn
a suggestion into a workflow from a script:

  opsdeck insights:list | jq -r '.[0].suggestedActions[0].label'`,
	RunE: runInsightsList,
}

func runInsightsList(cmd *cobra.Command, args []string) error {
	if cfg.Insights.Endpoint == "" {
		return fmt.Errorf("no insights endpoint configured (set insights.endpoint)")
	}

	ttl := cfg.Insights.CacheTTL
	if cfg.Insights.DisableCache {
		ttl = 0
	}
	client := insights.NewClient(cfg.Insights.Endpoint, ttl)

	feed, err := client.List(context.Background())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(feed)
}

func init() {
	rootCmd.AddCommand(insightsListCmd)
}
