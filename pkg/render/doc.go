// Package render draws a clustered call graph with Graphviz.
//
// # Overview
//
// [ToDOT] turns a clustering result into Graphviz DOT source. Every final
// cluster becomes a subgraph labelled with its size, weight and density,
// and every section inside it shows its rank. The call edges between
// sections are drawn as they were ingested, so edges that crossed a page
// boundary stay visible between clusters.
//
//	dot := render.ToDOT(res, tab, render.Options{})
//	svg, err := render.RenderSVG(dot)
//
// # Output
//
// [RenderSVG] and [RenderPNG] run Graphviz in-process through
// [github.com/goccy/go-graphviz]; no external binaries are required.
package render
