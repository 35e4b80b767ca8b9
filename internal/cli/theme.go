package cli

import (
	"erpbot/chatbot-backend/internal/workflow"

	"github.com/charmbracelet/lipgloss"
)

var (
	textColor    = lipgloss.AdaptiveColor{Light: "#1f2a37", Dark: "#f3f4f6"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
	successColor = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34d399"}
	warningColor = lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#fbbf24"}
	dangerColor  = lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"}
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	dangerStyle  = lipgloss.NewStyle().Bold(true).Foreground(dangerColor)
	optionStyle  = lipgloss.NewStyle().PaddingLeft(2).Foreground(textColor)
	messageStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(mutedColor).
			PaddingLeft(1)
)

// nodeColor is the badge colour of a node type. Untyped nodes render muted.
func nodeColor(t workflow.NodeType) lipgloss.TerminalColor {
	switch t {
	case workflow.NodeTypeStart:
		return lipgloss.AdaptiveColor{Light: "#1d4ed8", Dark: "#60a5fa"}
	case workflow.NodeTypeCategory:
		return lipgloss.AdaptiveColor{Light: "#6d28d9", Dark: "#a78bfa"}
	case workflow.NodeTypeAction:
		return lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34d399"}
	case workflow.NodeTypeModule:
		return lipgloss.AdaptiveColor{Light: "#0e7490", Dark: "#22d3ee"}
	case workflow.NodeTypeCondition:
		return lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#fbbf24"}
	case workflow.NodeTypeResponse:
		return lipgloss.AdaptiveColor{Light: "#be185d", Dark: "#f472b6"}
	default:
		return mutedColor
	}
}

func nodeBadge(t workflow.NodeType) string {
	label := string(t)
	if label == "" {
		label = "node"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(nodeColor(t)).Render("[" + label + "]")
}
