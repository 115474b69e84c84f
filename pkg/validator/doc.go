// Package validator checks a compiled strategy's alignment against a
// parsed schematic: it executes the strategy against a wafer map
// synthesized from the schematic's die boundaries, locates each selected
// point's containing boundary, flags conflicts, and scores the result.
package validator
