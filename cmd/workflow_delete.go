package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workflowDeleteCmd = &cobra.Command{
	Use:   "workflow:delete <id>",
	Short: "Delete a workflow record",
	Long: `Delete a workflow record by id.

Examples:
  opsdeck workflow:delete workflow_1756500000000_a1b2c3d4`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflowDelete,
}

func runWorkflowDelete(cmd *cobra.Command, args []string) error {
	svc, cleanup := newLifecycle()
	defer cleanup()

	if !svc.Delete(args[0]) {
		return fmt.Errorf("no workflow with id %q", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
	return nil
}

func init() {
	rootCmd.AddCommand(workflowDeleteCmd)
}
