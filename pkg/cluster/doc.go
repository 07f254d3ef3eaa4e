// Package cluster orders input sections for code locality using Call-Chain
// Clustering (C3), the heuristic from "Optimizing Function Placement for
// Large-Scale Data-Center Applications" (Ottoni and Maher, CGO 2017).
//
// # Overview
//
// Placing functions that call each other close together reduces i-cache and
// iTLB misses. Given a call-graph profile, the package builds a graph with
// one node per input section and one weighted edge per distinct caller/callee
// section pair, then greedily grows clusters:
//
//   - Pop the heaviest live edge
//   - If the two clusters together would exceed the page size, drop the edge
//   - Otherwise contract it, appending the callee cluster after the caller
//
// When no edges remain, clusters are sorted by density (weight per byte,
// hottest first) and every clustered section receives a 1-based rank.
//
// # Basic Usage
//
//	res := cluster.Sort(prof, table, 4096)
//	for _, id := range res.Ordered() {
//	    fmt.Println(table.Section(id).Name, res.Order[id])
//	}
//
// Sections the profile never reaches are absent from [Result.Order]; the
// caller decides where they go (the layout package appends them after all
// ranked sections in their original order).
//
// # Determinism
//
// Ties are broken explicitly so that a fixed input always yields the same
// order: among equally heavy edges the one ingested first wins, and among
// clusters of equal density the one whose first section was seen first in
// the profile comes first.
//
// # Concurrency
//
// A [Sorter] is single-use and not safe for concurrent use. Independent
// sorters share nothing and may run in parallel.
package cluster
