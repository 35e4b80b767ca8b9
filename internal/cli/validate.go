package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"erpbot/chatbot-backend/internal"
	"erpbot/chatbot-backend/internal/workflow"

	"github.com/spf13/cobra"
)

var errInvalidWorkflow = errors.New("workflow is invalid")

func newValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check a workflow graph for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkflow(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			result := workflow.Validate(w)
			result.Errors = append(result.Errors, fieldErrors(w)...)
			result.IsValid = len(result.Errors) == 0
			if app.JSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				renderValidation(cmd.OutOrStdout(), w, result)
			}

			if !result.IsValid {
				return errInvalidWorkflow
			}
			return nil
		},
	}
}

func renderValidation(out io.Writer, w *workflow.Workflow, result workflow.ValidationResult) {
	name := w.Name
	if name == "" {
		name = "workflow"
	}

	status := successStyle.Render("valid")
	if !result.IsValid {
		status = dangerStyle.Render("invalid")
	}
	fmt.Fprintf(out, "%s %s %s\n", titleStyle.Render(name), mutedStyle.Render(fmt.Sprintf("(%d nodes)", len(w.Nodes))), status)

	for _, e := range result.Errors {
		fmt.Fprintf(out, "  %s %s\n", dangerStyle.Render("error"), e)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "  %s %s\n", warningStyle.Render("warning"), warning)
	}
}

// fieldErrors applies the request validation rules of the HTTP surface (node types, condition
// operators) to every node, in id order.
func fieldErrors(w *workflow.Workflow) []string {
	v := internal.NewValidator()

	ids := make([]string, 0, len(w.Nodes))
	for id := range w.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var messages []string
	for _, id := range ids {
		if err := internal.ValidateStruct(v, w.Nodes[id]); err != nil {
			messages = append(messages, fmt.Sprintf("Node '%s' has invalid fields: %v", id, err))
		}
	}
	return messages
}
