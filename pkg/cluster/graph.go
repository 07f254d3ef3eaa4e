package cluster

import (
	"cmp"

	"github.com/matzehuels/callchain/pkg/profile"
	"github.com/matzehuels/callchain/pkg/symtab"
)

// Resolver maps profile symbols to the sections that define them.
// [symtab.Table] implements it.
type Resolver interface {
	// Resolve returns the section defining symbol. defined is false when the
	// symbol is unknown or undefined.
	Resolve(symbol string) (id symtab.SectionID, defined bool)
	// SectionSize returns the size of a section in bytes.
	SectionSize(id symtab.SectionID) uint64
}

type (
	nodeIndex int
	edgeIndex int
)

// node is a cluster under construction. A node whose sections have been
// absorbed by another has zero size and no sections.
type node struct {
	sections []symtab.SectionID // placement order within the cluster
	incident []edgeIndex        // live edges with this node as an endpoint
	size     uint64
	weight   uint64
}

type edgeState uint8

const (
	edgeAlive edgeState = iota
	edgeDead
)

// edge is a directed call relationship between two nodes. Dead edges stay in
// the arena so indices held by the queue and incident lists remain valid.
type edge struct {
	from, to nodeIndex
	weight   uint64
	state    edgeState
	rejected bool // refused by the page size cap; cluster sizes only grow
}

func (e *edge) kill()            { e.state = edgeDead }
func (e edge) isDead() bool      { return e.state == edgeDead }
func (e edge) equal(o edge) bool { return e.from == o.from && e.to == o.to }

// compare orders edges by (from, to). Weight does not participate.
func (e edge) compare(o edge) int {
	if c := cmp.Compare(e.from, o.from); c != 0 {
		return c
	}
	return cmp.Compare(e.to, o.to)
}

// Sorter holds the graph state for one clustering run.
type Sorter struct {
	nodes    []node
	edges    []edge
	queue    edgeQueue
	pageSize uint64

	initial []WeightedEdge
	stats   Stats
	result  *Result
}

// New builds the call graph for p. Entries with zero weight, with a symbol
// that does not resolve to a defined symbol, or whose section is empty are
// skipped without error.
//
// Calls within one section add to that section's weight but create no edge.
func New(p *profile.Profile, r Resolver, pageSize uint64) *Sorter {
	s := &Sorter{pageSize: pageSize}

	secToNode := make(map[symtab.SectionID]nodeIndex)
	edgeMap := make(map[[2]nodeIndex]edgeIndex)

	getOrCreateNode := func(id symtab.SectionID, size uint64) nodeIndex {
		if n, ok := secToNode[id]; ok {
			return n
		}
		n := nodeIndex(len(s.nodes))
		s.nodes = append(s.nodes, node{sections: []symtab.SectionID{id}, size: size})
		secToNode[id] = n
		return n
	}

	for _, entry := range p.Entries() {
		s.stats.Entries++
		if entry.Weight == 0 {
			s.stats.Skipped++
			continue
		}

		fromSec, fromOK := r.Resolve(entry.From)
		toSec, toOK := r.Resolve(entry.To)
		if !fromOK || !toOK {
			s.stats.Skipped++
			continue
		}
		fromSize, toSize := r.SectionSize(fromSec), r.SectionSize(toSec)
		if fromSize == 0 || toSize == 0 {
			s.stats.Skipped++
			continue
		}

		from := getOrCreateNode(fromSec, fromSize)
		to := getOrCreateNode(toSec, toSize)
		s.nodes[to].weight = profile.SaturatingAdd(s.nodes[to].weight, entry.Weight)

		if from == to {
			continue
		}

		key := [2]nodeIndex{from, to}
		if ei, ok := edgeMap[key]; ok {
			s.edges[ei].weight = profile.SaturatingAdd(s.edges[ei].weight, entry.Weight)
			continue
		}
		ei := edgeIndex(len(s.edges))
		edgeMap[key] = ei
		s.edges = append(s.edges, edge{from: from, to: to, weight: entry.Weight})
		s.nodes[from].incident = append(s.nodes[from].incident, ei)
		s.nodes[to].incident = append(s.nodes[to].incident, ei)
	}

	s.stats.Nodes = len(s.nodes)
	s.stats.Edges = len(s.edges)

	s.initial = make([]WeightedEdge, len(s.edges))
	for i, e := range s.edges {
		s.initial[i] = WeightedEdge{
			From:   s.nodes[e.from].sections[0],
			To:     s.nodes[e.to].sections[0],
			Weight: e.weight,
		}
	}
	return s
}
