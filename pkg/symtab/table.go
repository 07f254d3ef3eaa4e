package symtab

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
)

var (
	// ErrDuplicateSymbol is returned by [Table.AddDefined] when the name is
	// already defined.
	ErrDuplicateSymbol = errors.New("duplicate symbol")

	// ErrDuplicateSection is returned by [Table.AddSection] when a section
	// with the same name already exists.
	ErrDuplicateSection = errors.New("duplicate section")

	// ErrUnknownSection is returned by [Table.AddDefined] when the section
	// ID does not exist in the table.
	ErrUnknownSection = errors.New("unknown section")
)

// Table holds the input sections and symbols of a link.
//
// The zero value is not usable - use New.
type Table struct {
	sections  []*InputSection
	byName    map[string]SectionID
	symbols   []*Symbol
	symbolMap map[string]int // name -> index into symbols
}

// New creates an empty table.
func New() *Table {
	return &Table{
		byName:    make(map[string]SectionID),
		symbolMap: make(map[string]int),
	}
}

// AddSection registers a section and returns its assigned ID. The ID field of
// sec is ignored. Section names must be unique and valid.
func (t *Table) AddSection(sec InputSection) (SectionID, error) {
	if err := cerrors.ValidateSectionName(sec.Name); err != nil {
		return NoSection, err
	}
	if err := cerrors.ValidateAlignment(sec.Align); err != nil {
		return NoSection, fmt.Errorf("section %s: %w", sec.Name, err)
	}
	if _, exists := t.byName[sec.Name]; exists {
		return NoSection, fmt.Errorf("%w: %s", ErrDuplicateSection, sec.Name)
	}
	sec.ID = SectionID(len(t.sections))
	t.sections = append(t.sections, &sec)
	t.byName[sec.Name] = sec.ID
	return sec.ID, nil
}

// Section returns the section with the given ID, or nil if it does not exist.
func (t *Table) Section(id SectionID) *InputSection {
	if id < 0 || int(id) >= len(t.sections) {
		return nil
	}
	return t.sections[id]
}

// SectionByName returns the section with the given name.
func (t *Table) SectionByName(name string) (*InputSection, bool) {
	id, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.sections[id], true
}

// Sections returns all sections in ID order. The returned slice is a copy;
// the section structs are shared with the table.
func (t *Table) Sections() []*InputSection { return slices.Clone(t.sections) }

// SectionCount returns the number of sections.
func (t *Table) SectionCount() int { return len(t.sections) }

// insert returns the symbol slot for name, creating an empty one if needed.
// The second result reports whether the slot is new.
func (t *Table) insert(name string) (*Symbol, bool) {
	if i, ok := t.symbolMap[name]; ok {
		return t.symbols[i], false
	}
	s := &Symbol{Name: name, Section: NoSection}
	t.symbolMap[name] = len(t.symbols)
	t.symbols = append(t.symbols, s)
	return s, true
}

// AddDefined defines name at value within section. An existing undefined
// symbol of the same name is replaced.
func (t *Table) AddDefined(name string, section SectionID, value uint64) (*Symbol, error) {
	if err := cerrors.ValidateSymbolName(name); err != nil {
		return nil, err
	}
	if t.Section(section) == nil {
		return nil, fmt.Errorf("%w: %d (symbol %s)", ErrUnknownSection, section, name)
	}
	s, inserted := t.insert(name)
	if !inserted && s.IsDefined() {
		return nil, cerrors.Wrap(cerrors.ErrCodeDuplicateSymbol, ErrDuplicateSymbol, "%s", name)
	}
	*s = Symbol{Name: name, Kind: SymbolDefined, Section: section, Value: value}
	return s, nil
}

// AddUndefined records a reference to name. Existing symbols are returned
// unchanged.
func (t *Table) AddUndefined(name string) (*Symbol, error) {
	if err := cerrors.ValidateSymbolName(name); err != nil {
		return nil, err
	}
	s, _ := t.insert(name)
	return s, nil
}

// Find returns the symbol with the given name.
func (t *Table) Find(name string) (*Symbol, bool) {
	i, ok := t.symbolMap[name]
	if !ok {
		return nil, false
	}
	return t.symbols[i], true
}

// Symbols returns all symbols in insertion order.
func (t *Table) Symbols() []*Symbol { return slices.Clone(t.symbols) }

// SymbolCount returns the number of symbols, defined or not.
func (t *Table) SymbolCount() int { return len(t.symbols) }

// SymbolsIn returns the defined symbols of a section ordered by value, then
// by insertion order.
func (t *Table) SymbolsIn(id SectionID) []*Symbol {
	var out []*Symbol
	for _, s := range t.symbols {
		if s.IsDefined() && s.Section == id {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b *Symbol) int { return cmp.Compare(a.Value, b.Value) })
	return out
}

// Resolve maps a symbol name to its defining section. defined is false for
// unknown and undefined symbols.
func (t *Table) Resolve(name string) (id SectionID, defined bool) {
	s, ok := t.Find(name)
	if !ok || !s.IsDefined() {
		return NoSection, false
	}
	return s.Section, true
}

// SectionSize returns the byte size of a section, or 0 if it does not exist.
func (t *Table) SectionSize(id SectionID) uint64 {
	if sec := t.Section(id); sec != nil {
		return sec.Size
	}
	return 0
}
