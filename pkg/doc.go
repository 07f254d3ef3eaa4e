// Package pkg provides the libraries behind callchain, a call-graph-driven
// section orderer.
//
// # Overview
//
// A linker places input sections in the order it meets them, so functions
// that call each other constantly can end up pages apart. Callchain reads a
// profile of (caller, callee, count) edges, groups hot callers and callees
// into page-sized clusters with Call-Chain Clustering, and emits an order
// that keeps each cluster contiguous.
//
// # Architecture
//
// The data flow through callchain:
//
//	object description + profile shards
//	         ↓
//	    [io] and [profile] packages (parse inputs)
//	         ↓
//	    [symtab] package (resolve symbols to sections)
//	         ↓
//	    [cluster] package (contract the call graph, rank sections)
//	         ↓
//	    [layout] package (assign addresses)
//	         ↓
//	    symbol order, section order, JSON, placement map, DOT/SVG/PNG
//
// # Quick Start
//
//	tab, _ := io.ImportObjects("objects.json")
//	p, _ := profile.ParseFile("main.prof")
//	res := cluster.Sort(p, tab, 4096)
//	io.WriteSymbolOrder(os.Stdout, res, tab)
//
// # Main Packages
//
// [cluster] - The engine: profile ingestion, a lazy max-heap of edges,
// graph contraction bounded by the page size, and the density sort that
// produces 1-based ranks.
//
// [profile] - Insertion-ordered call-count maps with a text parser and a
// parallel shard loader.
//
// [symtab] - Symbols and input sections; the resolver the engine consults.
//
// [layout] - Page-aligned section placement driven by the ranks.
//
// [io] - Object description import (JSON, TOML) and order export.
//
// [render] - Graphviz rendering of the clustered graph.
//
// [pipeline] - load → cluster → place orchestration with caching.
//
// [cache] - File, Redis and null cache backends with content-hash keys.
//
// [observability] - Hook interfaces for metrics and tracing.
//
// [errors] - Coded errors mapped to HTTP statuses, plus input validation.
//
// [buildinfo] - Version information injected at link time.
package pkg
