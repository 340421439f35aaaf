package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/navigatorx/internal/core"
	"github.com/comalice/navigatorx/internal/primitives"
)

// DefaultVisualizer renders the declaration tree as Graphviz DOT, one cluster
// per graph, with the live back stack highlighted and chained in stack order.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the tree and the state's back stack.
func (v *DefaultVisualizer) ExportDOT(root *primitives.Graph, state core.NavState) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Navigation {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	onStack := make(map[string]bool)
	for _, e := range state.Triple.BackStack {
		onStack[nodeID(e.GraphID, e.Route())] = true
	}
	current := ""
	if state.Triple.Current.Valid() {
		current = nodeID(state.Triple.Current.GraphID, state.Triple.Current.Route())
	}

	renderGraph(&buf, root, "  ", onStack, current)

	stack := state.Triple.BackStack
	for i := 1; i < len(stack); i++ {
		from := nodeID(stack[i-1].GraphID, stack[i-1].Route())
		to := nodeID(stack[i].GraphID, stack[i].Route())
		fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\" color=blue];\n", from, to, i)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the declaration tree to JSON.
func (v *DefaultVisualizer) ExportJSON(root *primitives.Graph) ([]byte, error) {
	return json.MarshalIndent(root, "", "  ")
}

func nodeID(graphID, route string) string {
	return graphID + ":" + route
}

// renderGraph recursively renders a graph cluster with its destinations,
// nested graphs and a dashed edge to its start destination.
func renderGraph(buf *bytes.Buffer, g *primitives.Graph, indent string, onStack map[string]bool, current string) {
	fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+g.ID)
	label := g.ID
	if g.Layout != "" {
		label = fmt.Sprintf("%s [%s]", g.ID, g.Layout)
	}
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, label)

	for _, d := range g.Destinations {
		id := nodeID(g.ID, d.Route)
		attrs := ""
		if d.IsModal() {
			attrs += " shape=note"
		}
		switch {
		case id == current:
			attrs += " style=filled fillcolor=orange"
		case onStack[id]:
			attrs += " style=filled fillcolor=lightgreen"
		}
		fmt.Fprintf(buf, "%s  %q [label=%q%s];\n", indent, id, d.Route, attrs)
	}
	for _, child := range g.Graphs {
		renderGraph(buf, child, indent+"  ", onStack, current)
	}
	buf.WriteString(indent + "}\n")

	if g.Start.Route != "" {
		fmt.Fprintf(buf, "%s%q -> %q [style=dashed label=\"start\"];\n", indent, "cluster_"+g.ID+"_start", nodeID(g.ID, g.Start.Route))
		fmt.Fprintf(buf, "%s%q [shape=point];\n", indent, "cluster_"+g.ID+"_start")
	}
}
