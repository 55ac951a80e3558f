package cli

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/domain"
)

// RenderTransitions formats a transition set as a markdown document with
// one table row per transition, ordered the way dispatch would try them.
func RenderTransitions(set *domain.TransitionSet, describe bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Contract: %s\n\n", set.Node))

	if describe && set.Description != "" {
		sb.WriteString(set.Description)
		sb.WriteString("\n\n")
	}

	if set.Len() == 0 {
		sb.WriteString("_No transitions declared._\n")
		return sb.String()
	}

	sb.WriteString("| Name | Kind | Priority | Triggers |\n")
	sb.WriteString("|------|------|---------:|----------|\n")

	for _, tr := range domain.OrderByPriority(set.Transitions) {
		name := tr.Name
		if tr.Kind == domain.KindToolBased && tr.Tool != "" {
			name = fmt.Sprintf("%s (%s)", tr.Name, tr.Tool)
		}
		triggers := "-"
		if len(tr.Triggers) > 0 {
			triggers = strings.Join(tr.Triggers, ", ")
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n", name, tr.Kind, tr.Priority, triggers))
	}

	sb.WriteString(fmt.Sprintf("\n%d transition(s), shown in dispatch order.\n", set.Len()))
	return sb.String()
}

// PrintMarkdown renders markdown for the terminal when stdout is a TTY,
// falling back to the raw text otherwise.
func PrintMarkdown(md string) {
	if isTerminal() {
		render := tui.NewRenderer()
		if rendered, err := render(md); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Print(md)
}
