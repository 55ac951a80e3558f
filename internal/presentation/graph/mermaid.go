// Package graph exports contract visualizations for the CLI.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart syntax string for a node's
// contract. Triggering actions are rendered as stadium nodes feeding the
// transitions they match, with transition shape based on kind:
// - Simple: [Rectangle]
// - Tool-based: [[Subroutine]]
// - Conditional: {Rhombus}
// Host-specific kinds fall back to the rectangle.
func GenerateMermaid(set *domain.TransitionSet) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	if set.Len() == 0 {
		return sb.String()
	}

	// Transitions first, in contract order.
	for _, t := range set.Transitions {
		safeID := "tx_" + sanitizeMermaidID(t.Name)

		opener, closer := "[", "]"
		switch t.Kind {
		case domain.KindToolBased:
			opener, closer = "[[", "]]"
		case domain.KindConditional:
			opener, closer = "{", "}"
		}

		label := escapeMermaidLabel(t.Name)
		if t.Priority != 0 {
			label = fmt.Sprintf("%s <br/> priority %d", label, t.Priority)
		}
		if t.Kind == domain.KindToolBased && t.Tool != "" {
			label = fmt.Sprintf("%s <br/> 🔧 %s", label, escapeMermaidLabel(t.Tool))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	// Trigger edges, one stadium node per distinct action.
	declared := make(map[string]bool)
	for _, t := range set.Transitions {
		safeID := "tx_" + sanitizeMermaidID(t.Name)
		for _, action := range t.Triggers {
			actID := "act_" + sanitizeMermaidID(action)
			if !declared[actID] {
				declared[actID] = true
				sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", actID, escapeMermaidLabel(action)))
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", actID, safeID))
		}
	}

	return sb.String()
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
