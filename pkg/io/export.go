package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/callchain/pkg/cluster"
	cerrors "github.com/matzehuels/callchain/pkg/errors"
	"github.com/matzehuels/callchain/pkg/layout"
	"github.com/matzehuels/callchain/pkg/symtab"
)

// Order output formats.
const (
	OrderSymbols  = "symbols"
	OrderSections = "sections"
	OrderJSON     = "json"
)

// ValidOrderFormats is the set of formats accepted by [WriteOrder].
var ValidOrderFormats = map[string]bool{
	OrderSymbols:  true,
	OrderSections: true,
	OrderJSON:     true,
}

// WriteSymbolOrder writes a symbol ordering file: the defined symbols of
// every ranked section, one per line, sections in rank order and symbols
// within a section by offset.
func WriteSymbolOrder(w io.Writer, res cluster.Result, tab *symtab.Table) error {
	bw := bufio.NewWriter(w)
	for _, id := range res.Ordered() {
		for _, sym := range tab.SymbolsIn(id) {
			if _, err := fmt.Fprintln(bw, sym.Name); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteSectionOrder writes one "rank name" line per ranked section.
func WriteSectionOrder(w io.Writer, res cluster.Result, tab *symtab.Table) error {
	bw := bufio.NewWriter(w)
	for _, id := range res.Ordered() {
		if _, err := fmt.Fprintf(bw, "%d %s\n", res.Order[id], tab.Section(id).Name); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// OrderDocument is the JSON form of a clustering result, with section IDs
// replaced by names.
type OrderDocument struct {
	RunID    string          `json:"run_id,omitempty"`
	PageSize uint64          `json:"page_size"`
	Sections []RankedSection `json:"sections"`
	Clusters []ClusterInfo   `json:"clusters"`
	Stats    cluster.Stats   `json:"stats"`
}

// RankedSection is one entry of [OrderDocument.Sections].
type RankedSection struct {
	Rank    int    `json:"rank"`
	Name    string `json:"name"`
	Size    uint64 `json:"size"`
	Cluster int    `json:"cluster"`
}

// ClusterInfo is one entry of [OrderDocument.Clusters].
type ClusterInfo struct {
	Sections []string `json:"sections"`
	Size     uint64   `json:"size"`
	Weight   uint64   `json:"weight"`
	Density  float64  `json:"density"`
}

// NewOrderDocument converts a result into its JSON document form.
func NewOrderDocument(res cluster.Result, tab *symtab.Table, pageSize uint64) OrderDocument {
	doc := OrderDocument{
		PageSize: pageSize,
		Sections: make([]RankedSection, 0, len(res.Order)),
		Clusters: make([]ClusterInfo, 0, len(res.Clusters)),
		Stats:    res.Stats,
	}
	for ci, c := range res.Clusters {
		info := ClusterInfo{Size: c.Size, Weight: c.Weight, Density: c.Density()}
		for _, id := range c.Sections {
			sec := tab.Section(id)
			info.Sections = append(info.Sections, sec.Name)
			doc.Sections = append(doc.Sections, RankedSection{
				Rank:    res.Order[id],
				Name:    sec.Name,
				Size:    sec.Size,
				Cluster: ci,
			})
		}
		doc.Clusters = append(doc.Clusters, info)
	}
	return doc
}

// WriteOrderJSON writes doc as indented JSON.
func WriteOrderJSON(w io.Writer, doc OrderDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteOrder writes res in the given format.
func WriteOrder(w io.Writer, format string, res cluster.Result, tab *symtab.Table, pageSize uint64) error {
	switch format {
	case OrderSymbols:
		return WriteSymbolOrder(w, res, tab)
	case OrderSections:
		return WriteSectionOrder(w, res, tab)
	case OrderJSON:
		return WriteOrderJSON(w, NewOrderDocument(res, tab, pageSize))
	default:
		return cerrors.New(cerrors.ErrCodeInvalidFormat, "unknown order format %q", format)
	}
}

// ExportOrder writes res to a file at path.
// This is a convenience wrapper around [WriteOrder] for file-based output.
func ExportOrder(path, format string, res cluster.Result, tab *symtab.Table, pageSize uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteOrder(f, format, res, tab, pageSize); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePlacement prints one "address size rank name" line per placed
// section, grouped by segment. Unranked sections show "-" as their rank.
func WritePlacement(w io.Writer, p layout.Placement) error {
	bw := bufio.NewWriter(w)
	seg := ""
	for _, s := range p.Sections {
		if s.Segment != seg {
			seg = s.Segment
			if _, err := fmt.Fprintf(bw, "# %s\n", seg); err != nil {
				return err
			}
		}
		rank := "-"
		if s.Rank > 0 {
			rank = fmt.Sprint(s.Rank)
		}
		if _, err := fmt.Fprintf(bw, "%#016x %8d %5s %s\n", s.Addr, s.Section.Size, rank, s.Section.Name); err != nil {
			return err
		}
	}
	return bw.Flush()
}
