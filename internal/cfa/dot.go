package cfa

import (
	"fmt"
	"io"

	"github.com/ensemblelab/rolecheck/internal/ast"
	"github.com/ensemblelab/rolecheck/internal/types"
)

// PrintDot writes the graph in GraphViz format, one edge per fallthrough
// successor. When ix resolves a label, the node name carries the statement
// text for readability.
func (g *Graph) PrintDot(w io.Writer, ix ast.Index) {
	fmt.Fprintf(w, "digraph cfa {\n\tmode=\"heir\";\n\tsplines=\"ortho\";\n\n")
	for _, from := range g.Labels() {
		for _, to := range g.Successors(from) {
			fmt.Fprintf(w, "\t%q -> %q\n", nodeName(from, ix), nodeName(to, ix))
		}
	}
	fmt.Fprintln(w, "}")
}

func nodeName(l types.Label, ix ast.Index) string {
	s, ok := ix.At(l)
	if !ok {
		return string(l)
	}
	text := s.String()
	if len(text) > 32 {
		text = text[:29] + "..."
	}
	return string(l) + ": " + text
}
