package workflow

import "strings"

// MaxSimulationSteps bounds a dry run regardless of the graph shape.
const MaxSimulationSteps = 50

type TestInput struct {
	StartNode string         `json:"startNode,omitempty"`
	UserInput string         `json:"userInput,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

type Step struct {
	NodeID      string   `json:"nodeId"`
	NodeTitle   string   `json:"nodeTitle"`
	Message     string   `json:"message"`
	NextOptions []string `json:"nextOptions"`
}

type TestResult struct {
	Success bool   `json:"success"`
	Steps   []Step `json:"steps"`
	Error   string `json:"error,omitempty"`
}

// Simulate walks the default path of a workflow: from the start node it always follows the
// first connection. The walk stops silently at a missing node, an already visited node, a node
// without connections, or after MaxSimulationSteps steps. Conditions are not evaluated.
func Simulate(w *Workflow, in TestInput) TestResult {
	validation := Validate(w)
	if !validation.IsValid {
		return TestResult{
			Success: false,
			Steps:   []Step{},
			Error:   "Workflow validation failed: " + strings.Join(validation.Errors, ", "),
		}
	}

	current := in.StartNode
	if current == "" {
		current = w.StartNode
	}

	steps := []Step{}
	visited := make(map[string]bool)

	for current != "" && len(steps) < MaxSimulationSteps && !visited[current] {
		node, ok := GetNode(w, current)
		if !ok {
			break
		}
		visited[current] = true

		options := make([]string, 0, len(node.Connections))
		for _, id := range node.Connections {
			if target, ok := GetNode(w, id); ok && target.Title != "" {
				options = append(options, target.Title)
			} else {
				options = append(options, id)
			}
		}

		steps = append(steps, Step{
			NodeID:      current,
			NodeTitle:   node.Title,
			Message:     node.Message,
			NextOptions: options,
		})

		current = ""
		if len(node.Connections) > 0 {
			current = node.Connections[0]
		}
	}

	return TestResult{Success: true, Steps: steps}
}
