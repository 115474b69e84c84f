// Package ingest dispatches uploaded schematic bytes to the
// format-specific parser (gdsii, dxf, svg) selected by
// schematic.DetectFormat, and enforces the engine's per-schematic die
// count limit.
//
// It is a separate package from schematic itself so that schematic can
// stay free of a dependency on its own sub-packages: schematic defines
// the shared Data/Hints/ParseError types that gdsii, dxf, and svg each
// import one-directionally, and ingest is the one place that imports
// all three to perform dispatch.
package ingest
