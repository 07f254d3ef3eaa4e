package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/callchain/pkg/cluster"
	"github.com/matzehuels/callchain/pkg/symtab"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds section sizes and cluster weights to labels.
	Detailed bool

	// MinWeight hides edges lighter than this weight. Zero shows all edges.
	MinWeight uint64
}

// ToDOT converts a clustering result to Graphviz DOT format. Clusters appear
// in density order, left to right.
func ToDOT(res cluster.Result, tab *symtab.Table, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph callchain {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#555555\"];\n")
	buf.WriteString("\n")

	for i, c := range res.Clusters {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", clusterLabel(i, c, opts.Detailed))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, id := range c.Sections {
			sec := tab.Section(id)
			fmt.Fprintf(&buf, "    %s [label=%q];\n", nodeID(id), sectionLabel(res.Order[id], sec, opts.Detailed))
		}
		buf.WriteString("  }\n")
	}

	var heaviest uint64
	for _, e := range res.Edges {
		heaviest = max(heaviest, e.Weight)
	}

	buf.WriteString("\n")
	for _, e := range res.Edges {
		if e.Weight < opts.MinWeight {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [label=\"%d\", penwidth=%.2f];\n",
			nodeID(e.From), nodeID(e.To), e.Weight, penWidth(e.Weight, heaviest))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id symtab.SectionID) string {
	return fmt.Sprintf("s%d", id)
}

func sectionLabel(rank int, sec *symtab.InputSection, detailed bool) string {
	label := fmt.Sprintf("%d. %s", rank, sec.Name)
	if detailed {
		label += fmt.Sprintf("\nsize: %d", sec.Size)
	}
	return label
}

func clusterLabel(i int, c cluster.Cluster, detailed bool) string {
	parts := []string{fmt.Sprintf("cluster %d", i)}
	if detailed {
		parts = append(parts,
			fmt.Sprintf("size: %d", c.Size),
			fmt.Sprintf("weight: %d", c.Weight),
			fmt.Sprintf("density: %.3g", c.Density()))
	}
	return strings.Join(parts, "\n")
}

// penWidth scales edge thickness logarithmically between 1 and 5.
func penWidth(w, heaviest uint64) float64 {
	if heaviest <= 1 || w <= 1 {
		return 1
	}
	return 1 + 4*math.Log(float64(w))/math.Log(float64(heaviest))
}
