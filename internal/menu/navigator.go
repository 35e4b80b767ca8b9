package menu

import (
	"fmt"

	"erpbot/chatbot-backend/internal"
)

// State is owned by the caller and passed back on every move. History holds the keys that
// were left by forward moves, oldest first.
type State struct {
	Current string   `json:"current"`
	History []string `json:"history"`
}

type ActionKind string

const (
	ActionShow    ActionKind = "show"
	ActionHandoff ActionKind = "handoff"
	ActionQuery   ActionKind = "query"
	ActionNone    ActionKind = "none"
)

type Action struct {
	Kind  ActionKind `json:"kind"`
	Node  string     `json:"node,omitempty"`
	Query string     `json:"query,omitempty"`
}

func (t Table) Begin() State {
	return State{Current: t.Start, History: []string{}}
}

func (t Table) Restart() State {
	return t.Begin()
}

// Select applies an option. A hand-off or a free-text query leaves the state unchanged; any
// other next key pushes the current key and moves forward. The target key is not checked.
func (t Table) Select(s State, opt Option) (State, Action) {
	switch {
	case opt.Next != "" && opt.Next == t.Handoff:
		return s.copy(), Action{Kind: ActionHandoff, Node: opt.Next}
	case opt.Next != "":
		history := append(s.copy().History, s.Current)
		return State{Current: opt.Next, History: history}, Action{Kind: ActionShow, Node: opt.Next}
	case opt.Query != "":
		return s.copy(), Action{Kind: ActionQuery, Query: opt.Query}
	default:
		return s.copy(), Action{Kind: ActionNone}
	}
}

// SelectLabel selects the option of the current node whose label matches.
func (t Table) SelectLabel(s State, label string) (State, Action, error) {
	node, ok := t.Node(s.Current)
	if !ok {
		return s, Action{}, fmt.Errorf("%w: %s", internal.ErrMenuNodeUnknown, s.Current)
	}

	for _, opt := range node.Options {
		if opt.Label == label {
			next, action := t.Select(s, opt)
			return next, action, nil
		}
	}

	return s, Action{}, fmt.Errorf("%w: %q on %s", internal.ErrOptionNotFound, label, s.Current)
}

// Back returns to the most recently left key, or to the start when there is none.
func (t Table) Back(s State) State {
	if len(s.History) == 0 {
		return State{Current: t.Start, History: []string{}}
	}

	last := s.History[len(s.History)-1]
	history := append([]string{}, s.History[:len(s.History)-1]...)
	if last == "" {
		last = t.Start
	}
	return State{Current: last, History: history}
}

func (s State) copy() State {
	history := make([]string, len(s.History), len(s.History)+1)
	copy(history, s.History)
	return State{Current: s.Current, History: history}
}
