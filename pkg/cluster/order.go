package cluster

import (
	"cmp"
	"slices"

	"github.com/matzehuels/callchain/pkg/profile"
	"github.com/matzehuels/callchain/pkg/symtab"
)

// Cluster is a group of sections placed together.
type Cluster struct {
	Sections []symtab.SectionID `json:"sections"` // Placement order
	Size     uint64             `json:"size"`     // Sum of section sizes
	Weight   uint64             `json:"weight"`   // Accumulated incoming call weight
}

// Density returns weight per byte. Clusters never have zero size.
func (c Cluster) Density() float64 {
	return float64(c.Weight) / float64(c.Size)
}

// WeightedEdge is a call edge between two sections as ingested, before any
// contraction.
type WeightedEdge struct {
	From   symtab.SectionID `json:"from"`
	To     symtab.SectionID `json:"to"`
	Weight uint64           `json:"weight"`
}

// Stats counts what happened during a run.
type Stats struct {
	Entries      int `json:"entries"`      // Profile entries examined
	Skipped      int `json:"skipped"`      // Entries dropped (zero weight, unresolved, empty section)
	Nodes        int `json:"nodes"`        // Sections reached by the profile
	Edges        int `json:"edges"`        // Distinct section-to-section edges
	Contractions int `json:"contractions"` // Edges contracted
	Rejected     int `json:"rejected"`     // Distinct edges refused by the page size cap
	Clusters     int `json:"clusters"`     // Clusters after pruning
}

// Result is the outcome of a clustering run.
type Result struct {
	// Order maps every clustered section to its 1-based rank. Ranks are
	// dense: they cover 1..len(Order) exactly once.
	Order map[symtab.SectionID]int `json:"order"`

	// Clusters lists the final clusters, densest first.
	Clusters []Cluster `json:"clusters"`

	// Edges is the section graph as ingested.
	Edges []WeightedEdge `json:"edges"`

	Stats Stats `json:"stats"`
}

// Ordered returns the ranked sections in rank order.
func (r Result) Ordered() []symtab.SectionID {
	out := make([]symtab.SectionID, 0, len(r.Order))
	for _, c := range r.Clusters {
		out = append(out, c.Sections...)
	}
	return out
}

// Rank returns the rank of a section and whether it has one.
func (r Result) Rank(id symtab.SectionID) (int, bool) {
	rank, ok := r.Order[id]
	return rank, ok
}

// Run clusters the graph and assigns ranks. The graph is consumed by the
// first call; later calls return the same result.
func (s *Sorter) Run() Result {
	if s.result != nil {
		return *s.result
	}

	s.generateClusters()
	return s.finish()
}

// finish prunes absorbed nodes, sorts the clusters by density and assigns
// ranks. It caches the result for later calls to Run.
func (s *Sorter) finish() Result {
	// Nodes are in creation order here, so the stable sort below falls back
	// to first appearance in the profile for equal densities.
	clusters := make([]Cluster, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.size == 0 || len(n.sections) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{Sections: n.sections, Size: n.size, Weight: n.weight})
	}
	slices.SortStableFunc(clusters, func(a, b Cluster) int {
		return cmp.Compare(b.Density(), a.Density())
	})
	s.stats.Clusters = len(clusters)

	order := make(map[symtab.SectionID]int, s.stats.Nodes)
	rank := 1
	for _, c := range clusters {
		for _, id := range c.Sections {
			order[id] = rank
			rank++
		}
	}

	s.result = &Result{
		Order:    order,
		Clusters: clusters,
		Edges:    s.initial,
		Stats:    s.stats,
	}
	return *s.result
}

// Sort builds the call graph for p and returns the clustered order.
func Sort(p *profile.Profile, r Resolver, pageSize uint64) Result {
	return New(p, r, pageSize).Run()
}
