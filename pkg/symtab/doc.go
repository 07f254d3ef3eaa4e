// Package symtab models the linker inputs the clustering engine resolves
// profile symbols against: input sections and the symbols defined in them.
//
// # Overview
//
// A [Table] owns every [InputSection] (addressed by a dense [SectionID]) and
// every [Symbol] (addressed by name). Symbols are either defined in a section
// or undefined references to something outside the link:
//
//	t := symtab.New()
//	text, _ := t.AddSection(symtab.InputSection{Name: "__text.main", Size: 120, Align: 16})
//	t.AddDefined("_main", text, 0)
//	t.AddUndefined("_printf")
//
// # Resolution Rules
//
// Symbol insertion follows the usual static-linker rules:
//   - A defined symbol replaces an undefined one of the same name
//   - An undefined reference never replaces an existing symbol
//   - Defining a symbol twice is an error ([ErrDuplicateSymbol])
//
// # Resolver
//
// [Table.Resolve] and [Table.SectionSize] together satisfy the resolver
// contract of the cluster package: a symbol resolves to its defining section
// only if it is defined; unknown and undefined names report defined=false.
//
// # Concurrency
//
// Tables are not safe for concurrent mutation. A fully built table can be
// read from multiple goroutines.
package symtab
