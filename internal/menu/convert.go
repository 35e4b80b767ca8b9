package menu

import (
	"sort"

	"erpbot/chatbot-backend/internal/workflow"
)

// FromWorkflow renders a stored graph as a menu table. Every connection becomes an option
// labelled with the target's title, or its id when the title is empty. The first node, in id
// order, that collects contact details becomes the hand-off key.
func FromWorkflow(w *workflow.Workflow) Table {
	t := Table{Nodes: map[string]Node{}}
	if w == nil {
		return t
	}
	t.Start = w.StartNode

	ids := make([]string, 0, len(w.Nodes))
	for id := range w.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		n := w.Nodes[id]
		node := Node{Message: n.Message}
		if n.Metadata != nil {
			node.Image = n.Metadata.Image
			node.CollectContact = n.Metadata.CollectContact
			if node.CollectContact && t.Handoff == "" {
				t.Handoff = id
			}
		}

		for _, next := range n.Connections {
			label := next
			if target, ok := workflow.GetNode(w, next); ok && target.Title != "" {
				label = target.Title
			}
			node.Options = append(node.Options, Option{Label: label, Next: next})
		}

		t.Nodes[id] = node
	}

	return t
}
