package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"erpbot/chatbot-backend/internal/menu"
	"erpbot/chatbot-backend/internal/workflow"
)

// readInput reads a file, or standard input when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadWorkflow accepts either a stored workflow or a {"workflow": ...} API response.
func loadWorkflow(stdin io.Reader, path string) (*workflow.Workflow, error) {
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}

	var envelope struct {
		Workflow *workflow.Workflow `json:"workflow"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Workflow != nil {
		return envelope.Workflow, nil
	}

	var w workflow.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}
	return &w, nil
}

// loadMenu returns the built-in table when path is empty. JSON files are read as workflows
// and converted, anything else is parsed as a YAML menu table.
func loadMenu(stdin io.Reader, path string, fromWorkflow bool) (menu.Table, error) {
	if path == "" {
		return menu.Default(), nil
	}

	if fromWorkflow {
		w, err := loadWorkflow(stdin, path)
		if err != nil {
			return menu.Table{}, err
		}
		return menu.FromWorkflow(w), nil
	}

	data, err := readInput(stdin, path)
	if err != nil {
		return menu.Table{}, fmt.Errorf("failed to read menu table: %w", err)
	}
	return menu.Parse(data)
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
