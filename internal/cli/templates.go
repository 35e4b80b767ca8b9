package cli

import (
	"fmt"
	"strings"

	"erpbot/chatbot-backend/internal/workflow"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "templates [name]",
		Short: "List the built-in workflow templates, or print one as a workflow",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				t, ok := workflow.FindTemplate(args[0])
				if !ok {
					return fmt.Errorf("template %q not found", args[0])
				}
				// Printed as a workflow so the output can be fed back to validate or simulate.
				return writeJSON(out, workflow.Workflow{
					Name:        t.Name,
					Description: t.Description,
					Version:     workflow.DefaultVersion,
					Nodes:       t.Nodes,
					StartNode:   t.StartNode,
					Tags:        t.Tags,
					Metadata:    &workflow.Metadata{Category: t.Category},
				})
			}

			templates := workflow.Templates()
			if app.JSON {
				return writeJSON(out, templates)
			}

			for _, t := range templates {
				fmt.Fprintf(out, "%s %s\n", titleStyle.Render(t.Name), mutedStyle.Render("("+t.Category+")"))
				fmt.Fprintf(out, "  %s\n", t.Description)
				fmt.Fprintf(out, "  %s %d nodes, starts at %s, tags %s\n", mutedStyle.Render("graph:"), len(t.Nodes), t.StartNode, strings.Join(t.Tags, ", "))
			}
			return nil
		},
	}
}
