package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/comalice/navigatorx"
	"github.com/comalice/navigatorx/internal/primitives"
)

var (
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")) // Orange
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	modalStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("205"))
	flowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// renderState prints one line: version, breadcrumbs, stack and flow progress.
func renderState(state navigatorx.NavState, label func([]navigatorx.Breadcrumb) []navigatorx.Breadcrumb) string {
	var b strings.Builder
	b.WriteString(versionStyle.Render(fmt.Sprintf("v%-3d", state.Version)))
	b.WriteString(" ")

	crumbs := state.Derived.Breadcrumbs
	if label != nil {
		crumbs = label(crumbs)
	}
	parts := make([]string, len(crumbs))
	for i, c := range crumbs {
		switch {
		case c.IsGraph:
			parts[i] = graphStyle.Render(c.Label)
		case i == len(crumbs)-1:
			parts[i] = currentStyle.Render(c.Label)
		default:
			parts[i] = c.Label
		}
	}
	b.WriteString(strings.Join(parts, " > "))

	stack := make([]string, len(state.Triple.BackStack))
	for i, e := range state.Triple.BackStack {
		name := e.Route()
		if e.IsModal() {
			name = modalStyle.Render(name)
		}
		stack[i] = name
	}
	b.WriteString(dimStyle.Render("  ["))
	b.WriteString(strings.Join(stack, " "))
	b.WriteString(dimStyle.Render("]"))

	if f := state.Flow; f != nil {
		b.WriteString(" ")
		b.WriteString(flowStyle.Render(fmt.Sprintf("flow %s %d/%d", f.Route, f.StepIndex+1, f.StepCount)))
	}
	return b.String()
}

func destinationLabel(d *primitives.Destination) string {
	if d == nil {
		return "<none>"
	}
	if d.IsModal() {
		return modalStyle.Render(d.Route) + dimStyle.Render(" (modal)")
	}
	if d.Title != "" {
		return d.Route + dimStyle.Render(" "+d.Title)
	}
	return d.Route
}

func startLabel(s primitives.StartRef) string {
	if s.Graph != "" {
		return "start -> graph " + s.Graph
	}
	return "start " + s.Route
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}
