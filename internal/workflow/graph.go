package workflow

import "sort"

func GetNode(w *Workflow, id string) (Node, bool) {
	if w == nil || w.Nodes == nil {
		return Node{}, false
	}
	n, ok := w.Nodes[id]
	return n, ok
}

// OutgoingEdges returns the connections of id in their stored order.
func OutgoingEdges(w *Workflow, id string) []string {
	n, ok := GetNode(w, id)
	if !ok {
		return nil
	}
	return n.Connections
}

func sortedNodeIDs(w *Workflow) []string {
	ids := make([]string, 0, len(w.Nodes))
	for id := range w.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
