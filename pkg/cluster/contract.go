package cluster

import (
	"cmp"
	"slices"

	"github.com/matzehuels/callchain/pkg/profile"
)

// generateClusters collapses the graph until the queue is exhausted.
func (s *Sorter) generateClusters() {
	for i, e := range s.edges {
		s.queue.push(edgeIndex(i), e.weight)
	}

	for s.queue.Len() > 0 {
		it := s.queue.pop()
		e := s.edges[it.ei]
		if e.isDead() || e.rejected || e.weight != it.weight {
			continue
		}
		s.tryContract(it.ei)
	}
}

// tryContract merges the endpoints of live edge ei, or marks the edge
// rejected when the merged cluster would exceed the page size.
func (s *Sorter) tryContract(ei edgeIndex) {
	e := s.edges[ei]
	from, to := &s.nodes[e.from], &s.nodes[e.to]
	if profile.SaturatingAdd(from.size, to.size) > s.pageSize {
		s.edges[ei].rejected = true
		s.stats.Rejected++
		return
	}

	s.contractEdge(ei)
	s.stats.Contractions++

	from.sections = append(from.sections, to.sections...)
	from.size += to.size
	from.weight = profile.SaturatingAdd(from.weight, to.weight)
	to.sections = nil
	to.size = 0
	to.weight = 0
}

// contractEdge removes edge ci while merging its target node into its source
// node. Edges of the target are re-homed onto the source; edges that become
// parallel are merged by summing their weights.
func (s *Sorter) contractEdge(ci edgeIndex) {
	ce := s.edges[ci]
	s.edges[ci].kill()

	from, to := &s.nodes[ce.from], &s.nodes[ce.to]
	from.incident = slices.DeleteFunc(from.incident, func(ei edgeIndex) bool { return ei == ci })

	for _, ei := range to.incident {
		e := &s.edges[ei]
		if e.isDead() {
			continue
		}
		if e.from == ce.to {
			e.from = ce.from
		}
		if e.to == ce.to {
			e.to = ce.from
		}
		if e.from == e.to {
			e.kill()
			continue
		}
		from.incident = append(from.incident, ei)
	}
	to.incident = nil

	// Merges elsewhere leave dead entries behind in incident lists, including
	// the reverse edge killed above.
	from.incident = slices.DeleteFunc(from.incident, func(ei edgeIndex) bool { return s.edges[ei].isDead() })
	if len(from.incident) == 0 {
		return
	}

	slices.SortFunc(from.incident, func(a, b edgeIndex) int {
		if c := s.edges[a].compare(s.edges[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	kept := from.incident[:1]
	for _, ei := range from.incident[1:] {
		survivor := kept[len(kept)-1]
		if !s.edges[survivor].equal(s.edges[ei]) {
			kept = append(kept, ei)
			continue
		}
		s.edges[survivor].weight = profile.SaturatingAdd(s.edges[survivor].weight, s.edges[ei].weight)
		s.edges[ei].kill()
		// The old queue entry goes stale; the survivor is requeued at its new weight.
		s.queue.push(survivor, s.edges[survivor].weight)
	}
	from.incident = kept
}
