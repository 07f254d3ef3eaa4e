// Package layout turns a section ranking into concrete placement: the order
// sections appear in the output and the virtual address each one gets.
//
// Ranked sections come first, in rank order. Sections without a rank keep
// their original relative order and follow all ranked sections of the same
// segment. Segments are laid out in the order they are first seen and each
// starts on a page boundary.
package layout

import (
	"cmp"
	"slices"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
	"github.com/matzehuels/callchain/pkg/symtab"
)

// DefaultSegment names the segment of sections that do not set one.
const DefaultSegment = "__TEXT"

// Options configures address assignment.
type Options struct {
	ImageBase  uint64 // Address of the first byte of the image
	PageSize   uint64 // Segment alignment
	HeaderSize uint64 // Bytes reserved before the first segment (headers, load commands)
}

// Placed is one section with its assigned address.
type Placed struct {
	Section *symtab.InputSection
	Segment string
	Addr    uint64
	Rank    int // 0 when the section had no rank
}

// Segment summarizes one output segment.
type Segment struct {
	Name  string
	Addr  uint64
	Size  uint64
	Count int
}

// Placement is the result of [Place].
type Placement struct {
	Sections []Placed
	Segments []Segment
	End      uint64 // First address past the last section
}

// AlignTo rounds v up to a multiple of align. align must be zero or a power
// of two; zero and one leave v unchanged.
func AlignTo(v, align uint64) uint64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// Place orders sections by rank and assigns addresses. Section Addr fields
// are updated in place.
func Place(sections []*symtab.InputSection, order map[symtab.SectionID]int, opts Options) (Placement, error) {
	if err := cerrors.ValidatePageSize(opts.PageSize); err != nil {
		return Placement{}, err
	}

	type item struct {
		sec      *symtab.InputSection
		segment  string
		rank     int
		original int
	}

	var segNames []string
	segIndex := make(map[string]int)
	bySeg := make(map[string][]item)
	for i, sec := range sections {
		seg := sec.Segment
		if seg == "" {
			seg = DefaultSegment
		}
		if _, ok := segIndex[seg]; !ok {
			segIndex[seg] = len(segNames)
			segNames = append(segNames, seg)
		}
		bySeg[seg] = append(bySeg[seg], item{sec: sec, segment: seg, rank: order[sec.ID], original: i})
	}

	var p Placement
	addr := opts.ImageBase + opts.HeaderSize
	for _, seg := range segNames {
		items := bySeg[seg]
		slices.SortStableFunc(items, func(a, b item) int {
			switch {
			case a.rank != 0 && b.rank != 0:
				return cmp.Compare(a.rank, b.rank)
			case a.rank != 0:
				return -1
			case b.rank != 0:
				return 1
			}
			return cmp.Compare(a.original, b.original)
		})

		addr = AlignTo(addr, opts.PageSize)
		start := addr
		for _, it := range items {
			addr = AlignTo(addr, it.sec.Align)
			it.sec.Addr = addr
			p.Sections = append(p.Sections, Placed{Section: it.sec, Segment: seg, Addr: addr, Rank: it.rank})
			addr += it.sec.Size
		}
		p.Segments = append(p.Segments, Segment{Name: seg, Addr: start, Size: addr - start, Count: len(items)})
	}
	p.End = addr
	return p, nil
}
