package layout

import (
	"testing"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
	"github.com/matzehuels/callchain/pkg/symtab"
)

func TestAlignTo(t *testing.T) {
	tests := []struct {
		v, align, want uint64
	}{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{5, 0, 5},
		{5, 1, 5},
		{4097, 4096, 8192},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.v, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.v, tt.align, got, tt.want)
		}
	}
}

func sections() []*symtab.InputSection {
	return []*symtab.InputSection{
		{ID: 0, Name: "cold", Size: 10},
		{ID: 1, Name: "hot", Size: 20, Align: 16},
		{ID: 2, Name: "data", Segment: "__DATA", Size: 8},
		{ID: 3, Name: "warm", Size: 30, Align: 16},
		{ID: 4, Name: "other", Size: 4},
	}
}

func names(p Placement) []string {
	var out []string
	for _, s := range p.Sections {
		out = append(out, s.Section.Name)
	}
	return out
}

func TestPlaceOrder(t *testing.T) {
	secs := sections()
	order := map[symtab.SectionID]int{1: 1, 3: 2}

	p, err := Place(secs, order, Options{ImageBase: 0x1000, PageSize: 0x1000})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"hot", "warm", "cold", "other", "data"}
	got := names(p)
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order = %v, want %v", got, want)
			break
		}
	}

	// hot @0x1000 (20 bytes), warm aligned to 16 @0x1020 (30 bytes),
	// cold @0x103e, other @0x1048, data on the next page.
	addrs := map[string]uint64{"hot": 0x1000, "warm": 0x1020, "cold": 0x103e, "other": 0x1048, "data": 0x2000}
	for _, s := range p.Sections {
		if s.Addr != addrs[s.Section.Name] {
			t.Errorf("%s @%#x, want %#x", s.Section.Name, s.Addr, addrs[s.Section.Name])
		}
		if s.Section.Addr != s.Addr {
			t.Errorf("%s: section Addr not updated", s.Section.Name)
		}
	}

	if len(p.Segments) != 2 || p.Segments[0].Name != DefaultSegment || p.Segments[1].Name != "__DATA" {
		t.Fatalf("segments = %+v", p.Segments)
	}
	if p.Segments[0].Size != 0x4c || p.Segments[0].Count != 4 {
		t.Errorf("text segment = %+v", p.Segments[0])
	}
	if p.End != 0x2008 {
		t.Errorf("End = %#x, want 0x2008", p.End)
	}
}

func TestPlaceNoOrder(t *testing.T) {
	secs := sections()
	p, err := Place(secs, nil, Options{PageSize: 4096, HeaderSize: 32})
	if err != nil {
		t.Fatal(err)
	}
	// Without ranks the original order is kept within each segment.
	want := []string{"cold", "hot", "warm", "other", "data"}
	got := names(p)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	// The header pushes the first segment onto the next page.
	if p.Sections[0].Addr != 4096 {
		t.Errorf("first section @%#x, want 0x1000", p.Sections[0].Addr)
	}
}

func TestPlaceInvalidPageSize(t *testing.T) {
	_, err := Place(sections(), nil, Options{PageSize: 1000})
	if !cerrors.Is(err, cerrors.ErrCodeInvalidPageSize) {
		t.Errorf("error = %v, want INVALID_PAGE_SIZE", err)
	}
}
