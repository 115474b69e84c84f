// Package dxf parses AutoCAD DXF ASCII exchange files into
// schematic.Data, reading the group-code/value pair stream directly
// rather than building a full DXF document model.
package dxf
