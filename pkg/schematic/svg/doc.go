// Package svg parses vector-graphics schematics into schematic.Data and
// re-emits a parsed schematic as an SVG drawing of its die boundaries.
//
// Parsing understands <rect> directly, <polygon>/<path> by bounding box,
// <g> groups recursively (propagating transform attributes), and <text>
// as a die label source. Non-geometric decoration (titles, legends,
// measurement markers) is handled heuristically: every shape becomes a
// die, but only a shape whose area is within one order of magnitude of
// the median candidate area and whose aspect ratio is at most 4:1 is
// marked available; the rest are kept as unavailable dies.
package svg
