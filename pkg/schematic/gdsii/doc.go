// Package gdsii parses GDSII stream files, the length-tagged binary
// record format used by IC layout tools, into schematic.Data.
//
// Records are read one at a time without buffering the whole structure
// hierarchy in memory beyond the per-structure element lists needed to
// resolve structure references, keeping the parser close to the
// streaming budget a 50MB input demands.
package gdsii
