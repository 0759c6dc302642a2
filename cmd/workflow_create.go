package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/internal/workflow"
)

var (
	createLabel        string
	createType         string
	createContext      string
	createTarget       string
	createPriority     string
	createSource       string
	createSourceID     string
	createInsightTitle string
)

var workflowCreateCmd = &cobra.Command{
	Use:   "workflow:create",
	Short: "Create a workflow from an action",
	Long: `Create a workflow record from a suggested action without opening the board.

The label is the only required input. Steps, estimate, tags, and priority
are synthesized from the action type the same way board-driven creation
does it.

Required inputs:
  --label (-l): Human-readable action label, e.g., "Reorder SKU-123"

Output:
  The created workflow record as JSON.

Examples:
  # Create a restock workflow from an AI insight
  opsdeck workflow:create -l "Reorder SKU-123" -t restock_item --source ai_insight

  # Create a manual follow-up with an explicit priority
  opsdeck workflow:create -l "Call carrier about lane pricing" -t review_carrier -p high

  # Parse specific fields with jq
  opsdeck workflow:create -l "Notify warehouse team" -t notify_team | jq '.id'`,
	RunE: runWorkflowCreate,
}

func runWorkflowCreate(cmd *cobra.Command, args []string) error {
	if createLabel == "" {
		return cmd.Help()
	}

	svc, cleanup := newLifecycle()
	defer cleanup()

	action := workflow.Action{
		Label:    createLabel,
		Type:     workflow.ActionType(createType),
		Context:  createContext,
		Target:   createTarget,
		Priority: workflow.Priority(createPriority),
	}

	created, err := svc.CreateFromAction(action, workflow.Source(createSource), createSourceID, createInsightTitle)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(created)
}

func init() {
	workflowCreateCmd.Flags().StringVarP(&createLabel, "label", "l", "", "Action label (required)")
	workflowCreateCmd.Flags().StringVarP(&createType, "type", "t", "", "Action type, e.g. restock_item, escalate_order")
	workflowCreateCmd.Flags().StringVar(&createContext, "context", "", "Extra context appended to the description")
	workflowCreateCmd.Flags().StringVar(&createTarget, "target", "", "Target entity, e.g. a SKU or order id")
	workflowCreateCmd.Flags().StringVarP(&createPriority, "priority", "p", "", "Explicit priority (low|medium|high|critical)")
	workflowCreateCmd.Flags().StringVar(&createSource, "source", "manual", "Record source (ai_insight|anomaly_detection|brand_analysis|order_analysis|manual)")
	workflowCreateCmd.Flags().StringVar(&createSourceID, "source-id", "", "Identifier of the originating insight")
	workflowCreateCmd.Flags().StringVar(&createInsightTitle, "insight-title", "", "Title of the originating insight")
	rootCmd.AddCommand(workflowCreateCmd)
}
