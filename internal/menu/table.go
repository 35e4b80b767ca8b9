package menu

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

type Option struct {
	Label string `json:"label" yaml:"label"`
	Next  string `json:"next,omitempty" yaml:"next,omitempty"`
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
}

type Node struct {
	Message        string   `json:"message" yaml:"message"`
	Options        []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Image          string   `json:"image,omitempty" yaml:"image,omitempty"`
	CollectContact bool     `json:"collectContact,omitempty" yaml:"collectContact,omitempty"`
}

// Table is a keyed set of menu nodes. Handoff names the node that leaves the menu for the
// demo-request form; selecting it never moves the conversation state.
type Table struct {
	Start   string          `json:"start" yaml:"start"`
	Handoff string          `json:"handoff" yaml:"handoff"`
	Nodes   map[string]Node `json:"nodes" yaml:"nodes"`
}

func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("failed to parse menu table: %w", err)
	}
	if t.Start == "" {
		return Table{}, fmt.Errorf("menu table has no start node")
	}
	if t.Nodes == nil {
		t.Nodes = map[string]Node{}
	}
	return t, nil
}

var parseDefault = sync.OnceValue(func() Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the hand-authored product menu.
func Default() Table {
	return parseDefault().Clone()
}

func (t Table) Node(key string) (Node, bool) {
	n, ok := t.Nodes[key]
	return n, ok
}

func (t Table) Clone() Table {
	c := t
	if t.Nodes == nil {
		return c
	}
	c.Nodes = make(map[string]Node, len(t.Nodes))
	for key, n := range t.Nodes {
		if n.Options != nil {
			n.Options = append([]Option{}, n.Options...)
		}
		c.Nodes[key] = n
	}
	return c
}
