package workflow

import (
	"time"

	"github.com/google/uuid"
)

const DefaultVersion = "1.0.0"

// NodeType tags a node for display. Only condition nodes carry extra data.
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeCategory  NodeType = "category"
	NodeTypeAction    NodeType = "action"
	NodeTypeModule    NodeType = "module"
	NodeTypeCondition NodeType = "condition"
	NodeTypeResponse  NodeType = "response"
)

func NodeTypes() []NodeType {
	return []NodeType{
		NodeTypeStart,
		NodeTypeCategory,
		NodeTypeAction,
		NodeTypeModule,
		NodeTypeCondition,
		NodeTypeResponse,
	}
}

func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeStart, NodeTypeCategory, NodeTypeAction, NodeTypeModule, NodeTypeCondition, NodeTypeResponse:
		return true
	default:
		return false
	}
}

type ConditionOperator string

const (
	OperatorEquals   ConditionOperator = "equals"
	OperatorContains ConditionOperator = "contains"
	OperatorGreater  ConditionOperator = "greater"
	OperatorLess     ConditionOperator = "less"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Condition is stored with the node but never evaluated by the simulator.
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator" validate:"omitempty,oneof=equals contains greater less"`
	Value    string            `json:"value"`
}

type NodeMetadata struct {
	CollectContact bool           `json:"collectContact,omitempty"`
	Image          string         `json:"image,omitempty"`
	Variables      map[string]any `json:"variables,omitempty"`
}

type Node struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Type        NodeType      `json:"type" validate:"omitempty,oneof=start category action module condition response"`
	Message     string        `json:"message"`
	Connections []string      `json:"connections"`
	Position    Position      `json:"position"`
	Conditions  []Condition   `json:"conditions,omitempty" validate:"omitempty,dive"`
	Metadata    *NodeMetadata `json:"metadata,omitempty"`
}

type Metadata struct {
	Category string `json:"category"`
	Language string `json:"language"`
	Industry string `json:"industry"`
}

type Workflow struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Version     string          `json:"version"`
	IsActive    bool            `json:"isActive"`
	Nodes       map[string]Node `json:"nodes"`
	StartNode   string          `json:"startNode"`
	Tags        []string        `json:"tags"`
	Metadata    *Metadata       `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Template seeds a new workflow. It is never persisted.
type Template struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Nodes        map[string]Node `json:"nodes"`
	StartNode    string          `json:"startNode"`
	PreviewImage string          `json:"previewImage,omitempty"`
	Tags         []string        `json:"tags"`
}

// Clone returns a deep copy that shares no slices or maps with w.
func (w Workflow) Clone() Workflow {
	c := w
	c.Nodes = cloneNodes(w.Nodes)
	if w.Tags != nil {
		c.Tags = append([]string{}, w.Tags...)
	}
	if w.Metadata != nil {
		m := *w.Metadata
		c.Metadata = &m
	}
	return c
}

func (n Node) Clone() Node {
	c := n
	if n.Connections != nil {
		c.Connections = append([]string{}, n.Connections...)
	}
	if n.Conditions != nil {
		c.Conditions = append([]Condition{}, n.Conditions...)
	}
	if n.Metadata != nil {
		m := *n.Metadata
		m.Variables = cloneValue(n.Metadata.Variables).(map[string]any)
		c.Metadata = &m
	}
	return c
}

func cloneNodes(nodes map[string]Node) map[string]Node {
	if nodes == nil {
		return nil
	}
	c := make(map[string]Node, len(nodes))
	for id, n := range nodes {
		c[id] = n.Clone()
	}
	return c
}

// cloneValue copies the JSON-shaped values that can appear in node variables.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return map[string]any(nil)
		}
		c := make(map[string]any, len(val))
		for k, item := range val {
			c[k] = cloneValue(item)
		}
		return c
	case []any:
		c := make([]any, len(val))
		for i, item := range val {
			c[i] = cloneValue(item)
		}
		return c
	default:
		return v
	}
}
