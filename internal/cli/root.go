package cli

import (
	"github.com/spf13/cobra"
)

type App struct {
	JSON bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "workflowctl",
		Short:        "Inspect chatbot workflows and menus offline",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print machine-readable JSON instead of styled text")

	cmd.AddCommand(newValidateCmd(app))
	cmd.AddCommand(newSimulateCmd(app))
	cmd.AddCommand(newTemplatesCmd(app))
	cmd.AddCommand(newMenuCmd(app))

	return cmd
}
