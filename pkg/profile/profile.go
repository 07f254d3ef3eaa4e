// Package profile holds call-graph profiles: weighted (caller, callee) pairs
// collected from instrumentation or sampling.
//
// A [Profile] keeps its distinct pairs in first-seen order, so anything that
// walks it (the clustering engine in particular) behaves the same way on
// every run. Repeated pairs accumulate with [SaturatingAdd].
//
// Profiles are read from the plain text format used by linker call-graph
// ordering files, one edge per line:
//
//	# caller callee count
//	main parse_args 12
//	main run 4000
//	run hot_loop 91000
//
// Use [Parse] or [ParseFile] for a single file and [LoadShards] to read
// several shards concurrently.
package profile

import (
	"math"
	"slices"
)

// SaturatingAdd returns a+b, clamped to math.MaxUint64 instead of wrapping.
func SaturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return math.MaxUint64
}

// Pair identifies a call edge by symbol name.
type Pair struct {
	From string // Caller
	To   string // Callee
}

// Entry is a pair with its accumulated call count.
type Entry struct {
	Pair
	Weight uint64
}

// Profile is an insertion-ordered mapping from call pairs to counts.
//
// The zero value is not usable - use New.
type Profile struct {
	entries []Entry
	index   map[Pair]int
}

// New creates an empty profile.
func New() *Profile {
	return &Profile{index: make(map[Pair]int)}
}

// Add records weight calls from -> to. Weights of a repeated pair are
// summed with saturation. Zero weights are recorded like any other so the
// pair keeps its position; consumers decide whether to skip them.
func (p *Profile) Add(from, to string, weight uint64) {
	key := Pair{From: from, To: to}
	if i, ok := p.index[key]; ok {
		p.entries[i].Weight = SaturatingAdd(p.entries[i].Weight, weight)
		return
	}
	p.index[key] = len(p.entries)
	p.entries = append(p.entries, Entry{Pair: key, Weight: weight})
}

// Merge adds every entry of other into p, in other's order.
func (p *Profile) Merge(other *Profile) {
	for _, e := range other.entries {
		p.Add(e.From, e.To, e.Weight)
	}
}

// Weight returns the accumulated count for from -> to.
func (p *Profile) Weight(from, to string) (uint64, bool) {
	i, ok := p.index[Pair{From: from, To: to}]
	if !ok {
		return 0, false
	}
	return p.entries[i].Weight, true
}

// Entries returns the distinct pairs in first-seen order.
// Modifications to the returned slice do not affect the profile.
func (p *Profile) Entries() []Entry { return slices.Clone(p.entries) }

// Len returns the number of distinct pairs.
func (p *Profile) Len() int { return len(p.entries) }

// Total returns the saturated sum of all weights.
func (p *Profile) Total() uint64 {
	var total uint64
	for _, e := range p.entries {
		total = SaturatingAdd(total, e.Weight)
	}
	return total
}
