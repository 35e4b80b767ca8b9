package cli

import (
	"fmt"
	"io"
	"strings"

	"erpbot/chatbot-backend/internal/workflow"

	"github.com/spf13/cobra"
)

func newSimulateCmd(app *App) *cobra.Command {
	var startNode string

	cmd := &cobra.Command{
		Use:   "simulate <file|->",
		Short: "Walk the default path of a workflow",
		Long:  "Walk a workflow from its start node, always following the first connection, for at most 50 steps.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkflow(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			result := workflow.Simulate(w, workflow.TestInput{StartNode: startNode})
			if app.JSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				renderSimulation(cmd.OutOrStdout(), w, result)
			}

			if !result.Success {
				return errInvalidWorkflow
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startNode, "start", "", "Node to start from instead of the workflow start node")
	return cmd
}

func renderSimulation(out io.Writer, w *workflow.Workflow, result workflow.TestResult) {
	if !result.Success {
		fmt.Fprintln(out, dangerStyle.Render(result.Error))
		return
	}

	for i, step := range result.Steps {
		node, _ := workflow.GetNode(w, step.NodeID)
		fmt.Fprintf(out, "%s %s %s\n", mutedStyle.Render(fmt.Sprintf("%2d.", i+1)), nodeBadge(node.Type), titleStyle.Render(step.NodeTitle))
		if step.Message != "" {
			fmt.Fprintln(out, messageStyle.Render(step.Message))
		}
		if len(step.NextOptions) > 0 {
			fmt.Fprintf(out, "%s %s\n", mutedStyle.Render("next:"), strings.Join(step.NextOptions, ", "))
		}
	}
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d steps", len(result.Steps))))
}
