// Package geometry provides the primitive 2D types shared by every other
// package in the engine: points, axis-aligned bounds, coordinate-system
// tags, and the fixed-order transform (flip, scale, rotate, translate)
// applied to sampling points before vendor emission.
package geometry
