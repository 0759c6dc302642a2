package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/internal/workflow"
)

var listStatus string

var workflowListCmd = &cobra.Command{
	Use:   "workflow:list",
	Short: "List workflow records",
	Long: `List all workflow records as JSON, optionally filtered by status.

Examples:
  # All workflows
  opsdeck workflow:list

  # Only in-progress work
  opsdeck workflow:list --status in_progress

  # Titles of everything still open
  opsdeck workflow:list --status todo | jq -r '.[].title'`,
	RunE: runWorkflowList,
}

func runWorkflowList(cmd *cobra.Command, args []string) error {
	svc, cleanup := newLifecycle()
	defer cleanup()

	records := svc.Workflows()
	if listStatus != "" {
		filtered := make([]workflow.Workflow, 0, len(records))
		for _, w := range records {
			if w.Status == workflow.Status(listStatus) {
				filtered = append(filtered, w)
			}
		}
		records = filtered
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func init() {
	workflowListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Filter by status (todo|in_progress|completed)")
	rootCmd.AddCommand(workflowListCmd)
}
