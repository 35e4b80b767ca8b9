package workflow

import "fmt"

const cycleWarning = "Workflow contains cycles which may cause infinite loops"

type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the structural integrity of a workflow graph.
// It checks:
// - the start node exists
// - every node is reachable from the start node (warning)
// - every connection points at an existing node
// - the reachable subgraph has no cycle (warning)
// Structural problems are reported in the result, never returned as errors.
func Validate(w *Workflow) ValidationResult {
	result := ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}
	if w == nil {
		result.addError("Workflow has no nodes")
		return result
	}

	if w.Nodes == nil {
		result.addError("Workflow has no nodes")
	}

	if _, ok := w.Nodes[w.StartNode]; !ok {
		result.addError("Start node '%s' not found", w.StartNode)
	}

	ids := sortedNodeIDs(w)

	reachable := reachableFrom(w, w.StartNode)
	for _, id := range ids {
		if !reachable[id] && id != w.StartNode {
			result.addWarning("Node '%s' is unreachable", id)
		}
	}

	for _, id := range ids {
		for _, to := range w.Nodes[id].Connections {
			if _, ok := w.Nodes[to]; !ok {
				result.addError("Node '%s' has invalid connection to '%s'", id, to)
			}
		}
	}

	if hasCycle(w, w.StartNode) {
		result.addWarning(cycleWarning)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// reachableFrom runs a BFS over connections. The visited set also makes it safe on cyclic graphs.
func reachableFrom(w *Workflow, start string) map[string]bool {
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range OutgoingEdges(w, current) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return visited
}

type visitState uint8

const (
	white visitState = iota
	gray
	black
)

// hasCycle reports whether a back edge exists in the subgraph reachable from start.
func hasCycle(w *Workflow, start string) bool {
	state := make(map[string]visitState, len(w.Nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case gray:
			return true
		case black:
			return false
		}

		state[id] = gray
		for _, next := range OutgoingEdges(w, id) {
			if visit(next) {
				return true
			}
		}
		state[id] = black
		return false
	}

	return visit(start)
}
