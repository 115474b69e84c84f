// Package wafer defines the wafer/die grid model (Die, Map) that rule
// plugins and the execution engine operate over. Grid coordinates here are
// logical row/column indices, not physical distances; physical geometry
// lives in pkg/geometry and pkg/schematic.
package wafer
