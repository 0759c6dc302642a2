package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var workflowStatsCmd = &cobra.Command{
	Use:   "workflow:stats",
	Short: "Show workflow summary statistics",
	Long: `Show summary statistics over the workflow collection as JSON:
active count, completions in the last seven days, overdue count, and
total dollar impact of completed work.

Examples:
  opsdeck workflow:stats
  opsdeck workflow:stats | jq '.active'`,
	RunE: runWorkflowStats,
}

func runWorkflowStats(cmd *cobra.Command, args []string) error {
	svc, cleanup := newLifecycle()
	defer cleanup()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(svc.Stats())
}

func init() {
	rootCmd.AddCommand(workflowStatsCmd)
}
