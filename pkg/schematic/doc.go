// Package schematic defines the uniform die-boundary model produced by
// format-specific parsers (GDSII, DXF, SVG; see the gdsii, dxf, and svg
// sub-packages) and dispatches raw upload bytes to the right one.
//
// Dispatch is by filename extension first, then by a magic-byte sniff;
// if the two disagree, the sniff wins, since an extension is trivially
// renamable but the leading bytes of a GDSII stream are not.
package schematic
