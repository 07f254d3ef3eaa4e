package symtab

// SectionID addresses an input section within a [Table]. IDs are dense and
// assigned in insertion order starting at 0.
type SectionID int32

// NoSection is the SectionID carried by undefined symbols.
const NoSection SectionID = -1

// InputSection is a contiguous chunk of an input object file that the linker
// places as a unit.
type InputSection struct {
	ID      SectionID // Assigned by Table.AddSection
	Name    string    // Unique section name (e.g. "__text.main")
	Segment string    // Output segment (e.g. "__TEXT"); empty means the default segment
	Size    uint64    // Size in bytes
	Align   uint64    // Required alignment; 0 and 1 both mean byte aligned
	Addr    uint64    // Virtual address, assigned during placement
}

// SymbolKind distinguishes defined symbols from undefined references.
type SymbolKind int

const (
	// SymbolUndefined is a reference to a symbol the link does not define.
	SymbolUndefined SymbolKind = iota
	// SymbolDefined is a symbol with a home section.
	SymbolDefined
)

// String returns "defined" or "undefined".
func (k SymbolKind) String() string {
	if k == SymbolDefined {
		return "defined"
	}
	return "undefined"
}

// Symbol is a named entity in the link.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Section SectionID // NoSection for undefined symbols
	Value   uint64    // Offset within Section
}

// IsDefined reports whether the symbol has a home section.
func (s Symbol) IsDefined() bool { return s.Kind == SymbolDefined }
