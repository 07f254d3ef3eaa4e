// Package io reads linker inputs and writes ordering results.
//
// # Object Descriptions
//
// The clustering engine needs to know which section defines each profiled
// symbol and how big each section is. That information is read from an
// object description, in JSON or TOML:
//
//	{
//	  "sections": [
//	    {"name": "__text.main", "size": 120, "align": 16},
//	    {"name": "__text.run", "segment": "__TEXT", "size": 640},
//	    {"name": "__data.tbl", "segment": "__DATA", "size": 64}
//	  ],
//	  "symbols": [
//	    {"name": "_main", "section": "__text.main"},
//	    {"name": "_run", "section": "__text.run", "value": 0},
//	    {"name": "_printf", "undefined": true}
//	  ]
//	}
//
// The same document in TOML uses arrays of tables ([[sections]] and
// [[symbols]]) with identical keys. Use [ReadObjects] for a reader and
// [ImportObjects] for a file; the format of a file is picked from its
// extension.
//
// # Section Fields
//
// Required:
//   - name: Unique section name
//   - size: Size in bytes
//
// Optional:
//   - segment: Output segment (defaults to __TEXT during placement)
//   - align: Power-of-two alignment
//
// # Symbol Fields
//
// A symbol either names its section or sets "undefined": true. Setting both,
// or neither, is an error.
//
// # Order Outputs
//
// [WriteSymbolOrder] emits a symbol ordering file that linkers accept
// (one symbol per line, hottest first). [WriteSectionOrder] lists sections
// with their ranks, [WriteOrderJSON] writes the full result including
// clusters and statistics, and [WritePlacement] prints an address map.
package io
