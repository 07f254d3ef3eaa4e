package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
	"github.com/matzehuels/callchain/pkg/symtab"
)

// Object description formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

type objects struct {
	Sections []section `json:"sections" toml:"sections"`
	Symbols  []symbol  `json:"symbols" toml:"symbols"`
}

type section struct {
	Name    string `json:"name" toml:"name"`
	Segment string `json:"segment,omitempty" toml:"segment,omitempty"`
	Size    uint64 `json:"size" toml:"size"`
	Align   uint64 `json:"align,omitempty" toml:"align,omitempty"`
}

type symbol struct {
	Name      string `json:"name" toml:"name"`
	Section   string `json:"section,omitempty" toml:"section,omitempty"`
	Value     uint64 `json:"value,omitempty" toml:"value,omitempty"`
	Undefined bool   `json:"undefined,omitempty" toml:"undefined,omitempty"`
}

// FormatFromPath picks an object description format from a file extension.
// Anything other than .toml is treated as JSON.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// ReadObjects decodes an object description from r into a symbol table.
//
// Sections are added in document order, so section IDs follow the order in
// which sections are listed. ReadObjects returns an error if:
//   - The document is malformed
//   - A section or symbol name is invalid or duplicated
//   - A symbol references an unknown section
//   - A symbol is both defined and undefined, or neither
//
// ReadObjects does not close r.
func ReadObjects(r io.Reader, format string) (*symtab.Table, error) {
	var data objects
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&data); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidObject, err, "decode json")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&data); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidObject, err, "decode toml")
		}
	default:
		return nil, cerrors.New(cerrors.ErrCodeInvalidFormat, "unknown object format %q", format)
	}
	return buildTable(data)
}

func buildTable(data objects) (*symtab.Table, error) {
	tab := symtab.New()
	for _, s := range data.Sections {
		sec := symtab.InputSection{Name: s.Name, Segment: s.Segment, Size: s.Size, Align: s.Align}
		if _, err := tab.AddSection(sec); err != nil {
			return nil, fmt.Errorf("section %q: %w", s.Name, err)
		}
	}

	for _, s := range data.Symbols {
		switch {
		case s.Undefined && s.Section != "":
			return nil, cerrors.New(cerrors.ErrCodeInvalidObject, "symbol %q is undefined but names section %q", s.Name, s.Section)
		case s.Undefined:
			if _, err := tab.AddUndefined(s.Name); err != nil {
				return nil, fmt.Errorf("symbol %q: %w", s.Name, err)
			}
		case s.Section == "":
			return nil, cerrors.New(cerrors.ErrCodeInvalidObject, "symbol %q has no section", s.Name)
		default:
			sec, ok := tab.SectionByName(s.Section)
			if !ok {
				return nil, cerrors.New(cerrors.ErrCodeInvalidObject, "symbol %q references unknown section %q", s.Name, s.Section)
			}
			if _, err := tab.AddDefined(s.Name, sec.ID, s.Value); err != nil {
				return nil, fmt.Errorf("symbol %q: %w", s.Name, err)
			}
		}
	}
	return tab, nil
}

// ImportObjects reads the object description at path. The format is chosen
// with [FormatFromPath].
func ImportObjects(path string) (*symtab.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "objects %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	tab, err := ReadObjects(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tab, nil
}

// WriteObjects encodes a symbol table as a JSON object description that
// [ReadObjects] accepts. Sections and symbols keep their table order.
func WriteObjects(tab *symtab.Table, w io.Writer) error {
	var out objects
	for _, s := range tab.Sections() {
		out.Sections = append(out.Sections, section{Name: s.Name, Segment: s.Segment, Size: s.Size, Align: s.Align})
	}
	for _, s := range tab.Symbols() {
		sym := symbol{Name: s.Name, Value: s.Value, Undefined: !s.IsDefined()}
		if s.IsDefined() {
			sym.Section = tab.Section(s.Section).Name
		}
		out.Symbols = append(out.Symbols, sym)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
