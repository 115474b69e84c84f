package gdsii

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/schematic"
)

type point struct{ x, y float64 }

type element struct {
	kind   byte
	layer  int16
	xy     []point
	sname  string
	text   string
	colrow [2]int16
}

type structureDef struct {
	name     string
	elements []element
}

func (s *structureDef) boundaries() []element {
	out := make([]element, 0, len(s.elements))
	for _, e := range s.elements {
		if (e.kind == recBOUNDARY || e.kind == recBOX) && len(e.xy) > 0 {
			out = append(out, e)
		}
	}
	return out
}

func bboxOf(pts []point) geometry.Bounds {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		if p.x < minX {
			minX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	return geometry.Bounds{XMin: minX, YMin: minY, XMax: maxX, YMax: maxY}
}

// localBounds returns the enclosing bounds of a structure's own boundary
// elements, used to size instances created through structure references.
func (s *structureDef) localBounds() (geometry.Bounds, bool) {
	bs := s.boundaries()
	if len(bs) == 0 {
		return geometry.Bounds{}, false
	}
	all := make([]geometry.Bounds, 0, len(bs))
	for _, e := range bs {
		all = append(all, bboxOf(e.xy))
	}
	return geometry.Enclosing(all), true
}

// Parse decodes a GDSII stream into a schematic.Data. Coordinate system
// is always geometry.GDSIIUnits.
func Parse(r io.Reader, hints schematic.Hints) (*schematic.Data, error) {
	rr := newRecordReader(r)

	structures := map[string]*structureDef{}
	var order []string
	var uuPerDbu float64 = 1

	var cur *structureDef
	var curElem *element

	for {
		rec, err := rr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &schematic.ParseError{Format: schematic.FormatGDSII, Offset: rr.offset, Reason: err.Error()}
		}

		switch rec.typ {
		case recUNITS:
			vals := rec.asReal8s()
			if len(vals) >= 1 && vals[0] != 0 {
				uuPerDbu = vals[0]
			}

		case recBGNSTR:
			cur = &structureDef{}

		case recSTRNAME:
			if cur != nil {
				cur.name = rec.asString()
			}

		case recENDSTR:
			if cur != nil {
				if cur.name == "" {
					cur.name = fmt.Sprintf("struct_%d", len(order))
				}
				structures[cur.name] = cur
				order = append(order, cur.name)
				cur = nil
			}

		case recBOUNDARY, recBOX, recPATH, recTEXT, recSREF, recAREF:
			curElem = &element{kind: rec.typ}

		case recLAYER:
			if curElem != nil {
				vals := rec.asInt16s()
				if len(vals) > 0 {
					curElem.layer = vals[0]
				}
			}

		case recSNAME:
			if curElem != nil {
				curElem.sname = rec.asString()
			}

		case recCOLROW:
			if curElem != nil {
				vals := rec.asInt16s()
				if len(vals) >= 2 {
					curElem.colrow = [2]int16{vals[0], vals[1]}
				}
			}

		case 0x19: // STRING
			if curElem != nil {
				curElem.text = rec.asString()
			}

		case recXY:
			if curElem != nil {
				ints := rec.asInt32s()
				for i := 0; i+1 < len(ints); i += 2 {
					curElem.xy = append(curElem.xy, point{x: float64(ints[i]), y: float64(ints[i+1])})
				}
			}

		case recENDEL:
			if curElem != nil && cur != nil {
				cur.elements = append(cur.elements, *curElem)
				curElem = nil
			}
		}
	}

	if len(structures) == 0 {
		return nil, &schematic.ParseError{Format: schematic.FormatGDSII, Reason: "no structures found"}
	}

	top := chooseTopStructure(structures, order)

	boundaryDies := shapeAnalysis(top, hints)
	if len(boundaryDies) == 0 {
		boundaryDies = structureReferences(top, structures)
	}
	if len(boundaryDies) == 0 {
		return nil, schematic.ErrNoDiesDetected
	}

	assignLabels(boundaryDies, top)

	dies := make([]schematic.DieBoundary, 0, len(boundaryDies))
	for _, cb := range boundaryDies {
		b := scaleBounds(cb.bounds, uuPerDbu)
		area := b.Area()
		if !hints.DieSizeFilter.Admits(area) {
			continue
		}
		dies = append(dies, schematic.DieBoundary{
			DieID:     cb.id,
			Bounds:    b,
			Available: true,
			Metadata:  map[string]string{},
		})
	}
	if len(dies) == 0 {
		return nil, schematic.ErrNoDiesDetected
	}

	out := &schematic.Data{
		FormatType:       schematic.FormatGDSII,
		UploadDate:       time.Now().UTC(),
		CoordinateSystem: geometry.GDSIIUnits,
		Dies:             dies,
		Metadata:         schematic.SourceMetadata{ScaleFactor: uuPerDbu, Units: "user units"},
	}
	out.ComputeDerived()
	return out, nil
}

func scaleBounds(b geometry.Bounds, scale float64) geometry.Bounds {
	if scale == 0 {
		scale = 1
	}
	return geometry.Bounds{
		XMin: b.XMin * scale,
		YMin: b.YMin * scale,
		XMax: b.XMax * scale,
		YMax: b.YMax * scale,
	}
}

// chooseTopStructure picks the structure most likely to be the top cell:
// the one with the most SREF/AREF instances (an array placer), falling
// back to the structure with the most elements overall.
func chooseTopStructure(structures map[string]*structureDef, order []string) *structureDef {
	var best *structureDef
	bestRefs := -1
	for _, name := range order {
		s := structures[name]
		refs := 0
		for _, e := range s.elements {
			if e.kind == recSREF || e.kind == recAREF {
				refs++
			}
		}
		if refs > bestRefs {
			bestRefs = refs
			best = s
		}
	}
	if bestRefs > 0 {
		return best
	}

	best = nil
	bestCount := -1
	for _, name := range order {
		s := structures[name]
		if len(s.elements) > bestCount {
			bestCount = len(s.elements)
			best = s
		}
	}
	return best
}

type candidateBoundary struct {
	bounds geometry.Bounds
	id     string
	hasID  bool
}

// shapeAnalysis implements the GDSII parser's priority-1 detection
// method: bounding boxes of closed shapes on the target (or dominant)
// layer.
func shapeAnalysis(top *structureDef, hints schematic.Hints) []candidateBoundary {
	if top == nil {
		return nil
	}
	boundaries := top.boundaries()
	if len(boundaries) == 0 {
		return nil
	}

	var targetLayer int16
	hasTarget := false
	if hints.TargetLayer != "" {
		if v, err := strconv.Atoi(hints.TargetLayer); err == nil {
			targetLayer = int16(v)
			hasTarget = true
		}
	}

	areas := make([]float64, len(boundaries))
	for i, e := range boundaries {
		areas[i] = bboxOf(e.xy).Area()
	}
	med := medianOf(areas)

	layer := targetLayer
	if !hasTarget {
		layer = dominantLayer(boundaries, med)
	}

	var out []candidateBoundary
	for _, e := range boundaries {
		if e.layer != layer {
			continue
		}
		out = append(out, candidateBoundary{bounds: bboxOf(e.xy)})
	}
	return out
}

func dominantLayer(boundaries []element, medianArea float64) int16 {
	counts := map[int16]int{}
	for _, e := range boundaries {
		area := bboxOf(e.xy).Area()
		if medianArea > 0 && (area < medianArea*0.9 || area > medianArea*1.1) {
			continue
		}
		counts[e.layer]++
	}
	var best int16
	bestCount := -1
	layers := make([]int16, 0, len(counts))
	for l := range counts {
		layers = append(layers, l)
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i] < layers[j] })
	for _, l := range layers {
		if counts[l] > bestCount {
			bestCount = counts[l]
			best = l
		}
	}
	return best
}

func medianOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// structureReferences implements the GDSII parser's priority-3 detection
// method: each SREF/AREF instance of a repeated cell becomes a die using
// that cell's own bounding box, translated by the instance position.
func structureReferences(top *structureDef, structures map[string]*structureDef) []candidateBoundary {
	if top == nil {
		return nil
	}
	var out []candidateBoundary
	for _, e := range top.elements {
		switch e.kind {
		case recSREF:
			ref, ok := structures[e.sname]
			if !ok || len(e.xy) == 0 {
				continue
			}
			local, ok := ref.localBounds()
			if !ok {
				continue
			}
			out = append(out, candidateBoundary{bounds: translate(local, e.xy[0])})

		case recAREF:
			ref, ok := structures[e.sname]
			if !ok || len(e.xy) < 3 {
				continue
			}
			local, ok := ref.localBounds()
			if !ok {
				continue
			}
			ncols := int(e.colrow[0])
			nrows := int(e.colrow[1])
			if ncols <= 0 || nrows <= 0 {
				continue
			}
			dx := point{x: (e.xy[1].x - e.xy[0].x) / float64(ncols), y: (e.xy[1].y - e.xy[0].y) / float64(ncols)}
			dy := point{x: (e.xy[2].x - e.xy[0].x) / float64(nrows), y: (e.xy[2].y - e.xy[0].y) / float64(nrows)}
			for r := 0; r < nrows; r++ {
				for c := 0; c < ncols; c++ {
					pos := point{
						x: e.xy[0].x + dx.x*float64(c) + dy.x*float64(r),
						y: e.xy[0].y + dx.y*float64(c) + dy.y*float64(r),
					}
					out = append(out, candidateBoundary{bounds: translate(local, pos)})
				}
			}
		}
	}
	return out
}

func translate(b geometry.Bounds, p point) geometry.Bounds {
	return geometry.Bounds{XMin: b.XMin + p.x, YMin: b.YMin + p.y, XMax: b.XMax + p.x, YMax: b.YMax + p.y}
}

// assignLabels implements the GDSII parser's priority-2 detection
// method: TEXT records supply dieId by proximity; anything left gets a
// stable die_{index} in row-major traversal order.
func assignLabels(dies []candidateBoundary, top *structureDef) {
	var texts []element
	if top != nil {
		for _, e := range top.elements {
			if e.kind == recTEXT && len(e.xy) > 0 && strings.TrimSpace(e.text) != "" {
				texts = append(texts, e)
			}
		}
	}

	order := make([]int, len(dies))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := dies[order[i]].bounds, dies[order[j]].bounds
		if a.YMax != b.YMax {
			return a.YMax > b.YMax
		}
		return a.XMin < b.XMin
	})

	for idx, di := range order {
		d := &dies[di]
		if d.hasID {
			continue
		}
		cx, cy := d.bounds.CenterX(), d.bounds.CenterY()
		maxDim := math.Max(d.bounds.Width(), d.bounds.Height())
		best := ""
		bestDist := math.Inf(1)
		for _, t := range texts {
			dist := math.Hypot(t.xy[0].x-cx, t.xy[0].y-cy)
			if dist < bestDist && dist <= maxDim {
				bestDist = dist
				best = t.text
			}
		}
		if best != "" {
			d.id = best
			d.hasID = true
			continue
		}
		d.id = fmt.Sprintf("die_%d", idx)
		d.hasID = true
	}
}
