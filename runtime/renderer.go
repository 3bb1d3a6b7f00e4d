package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flowforge/flowforge/types"
)

// RenderDOT renders a graph as Graphviz DOT: tool nodes boxed, the start node
// doubled, conditional edges labelled with their predicate.
func RenderDOT(g *types.Graph) string {
	r := &dotRenderer{sb: &strings.Builder{}}
	return r.generate(g)
}

type dotRenderer struct {
	sb *strings.Builder
}

func (d *dotRenderer) generate(g *types.Graph) string {
	d.write("digraph G {")

	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d.write(fmt.Sprintf("  %q [%s];", name, d.nodeAttr(g, g.Nodes[name])))
	}
	d.write(fmt.Sprintf("  %q [shape=doublecircle];", types.EndTarget))

	for _, edge := range g.Edges {
		if edge.Condition == nil {
			d.write(fmt.Sprintf("  %q -> %q;", edge.Source, edge.Target))
			continue
		}
		label := fmt.Sprintf("%s %s %v", edge.Condition.Key, edge.Condition.Op, edge.Condition.Value)
		d.write(fmt.Sprintf("  %q -> %q [label=%q];", edge.Source, edge.Target, label))
	}

	d.write("}")
	return d.sb.String()
}

func (d *dotRenderer) nodeAttr(g *types.Graph, n types.Node) string {
	attrs := []string{}
	if n.Kind == types.KindTool {
		attrs = append(attrs, "shape=box")
	}
	if n.Name == g.Start {
		attrs = append(attrs, "penwidth=2")
	}
	if n.Description != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Description))
	}
	return strings.Join(attrs, ", ")
}

func (d *dotRenderer) write(line string) {
	d.sb.WriteString(line)
	d.sb.WriteString("\n")
}
