package cli

import (
	"fmt"
	"io"
	"strings"

	"erpbot/chatbot-backend/internal/menu"

	"github.com/spf13/cobra"
)

const (
	backMove    = "back"
	restartMove = "restart"
)

type menuStep struct {
	Move   string      `json:"move"`
	State  menu.State  `json:"state"`
	Action menu.Action `json:"action"`
}

func newMenuCmd(app *App) *cobra.Command {
	var (
		file         string
		fromWorkflow bool
		moves        []string
	)

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Walk a menu table by option labels",
		Long: `Walk a menu table by option labels. Each --select is an option label of the current node,
or "back" or "restart". Without --file the built-in product menu is used.`,
		Example: `  workflowctl menu --select "LMS" --select "back"
  workflowctl menu --file flow.json --from-workflow --select "Features"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadMenu(cmd.InOrStdin(), file, fromWorkflow)
			if err != nil {
				return err
			}

			steps, err := walkMenu(table, moves)
			if app.JSON {
				if writeErr := writeJSON(cmd.OutOrStdout(), steps); writeErr != nil {
					return writeErr
				}
				return err
			}

			out := cmd.OutOrStdout()
			renderMenuNode(out, table, table.Start)
			for _, step := range steps {
				renderMenuStep(out, table, step)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Menu table YAML file, or a workflow JSON file with --from-workflow")
	cmd.Flags().BoolVar(&fromWorkflow, "from-workflow", false, "Convert the workflow in --file into a menu table")
	cmd.Flags().StringArrayVar(&moves, "select", nil, `Option label to select, or "back" or "restart" (repeatable)`)
	return cmd
}

// walkMenu applies moves in order and stops at the first label that does not match.
func walkMenu(table menu.Table, moves []string) ([]menuStep, error) {
	state := table.Begin()
	steps := make([]menuStep, 0, len(moves))

	for _, move := range moves {
		var action menu.Action
		switch strings.ToLower(strings.TrimSpace(move)) {
		case backMove:
			state = table.Back(state)
			action = menu.Action{Kind: menu.ActionShow, Node: state.Current}
		case restartMove:
			state = table.Restart()
			action = menu.Action{Kind: menu.ActionShow, Node: state.Current}
		default:
			next, selected, err := table.SelectLabel(state, move)
			if err != nil {
				return steps, err
			}
			state, action = next, selected
		}
		steps = append(steps, menuStep{Move: move, State: state, Action: action})
	}

	return steps, nil
}

func renderMenuStep(out io.Writer, table menu.Table, step menuStep) {
	fmt.Fprintf(out, "\n%s %s\n", mutedStyle.Render(">"), titleStyle.Render(step.Move))

	switch step.Action.Kind {
	case menu.ActionShow:
		renderMenuNode(out, table, step.Action.Node)
	case menu.ActionHandoff:
		fmt.Fprintf(out, "%s %s\n", successStyle.Render("hand-off"), step.Action.Node)
	case menu.ActionQuery:
		fmt.Fprintf(out, "%s %s\n", warningStyle.Render("ask AI"), step.Action.Query)
	case menu.ActionNone:
		fmt.Fprintln(out, mutedStyle.Render("nothing happens"))
	}
}

func renderMenuNode(out io.Writer, table menu.Table, key string) {
	node, ok := table.Node(key)
	if !ok {
		fmt.Fprintf(out, "%s %s\n", dangerStyle.Render("unknown node"), key)
		return
	}

	fmt.Fprintln(out, mutedStyle.Render("["+key+"]"))
	fmt.Fprintln(out, messageStyle.Render(node.Message))
	for _, opt := range node.Options {
		fmt.Fprintln(out, optionStyle.Render("- "+opt.Label))
	}
}
