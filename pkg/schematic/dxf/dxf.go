package dxf

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/schematic"
)

type point struct{ x, y float64 }

type dxfEntity struct {
	typ       string
	layer     string
	pts       []point
	center    point
	radius    float64
	blockName string
	insertPos point
	xscale    float64
	yscale    float64
	text      string
}

type blockDef struct {
	name     string
	entities []dxfEntity
}

func (b *blockDef) localBounds() (geometry.Bounds, bool) {
	all := boundsOfEntities(b.entities, nil)
	if len(all) == 0 {
		return geometry.Bounds{}, false
	}
	return geometry.Enclosing(all), true
}

// groupPair reads DXF's group-code/value line pairs.
type groupPair struct {
	code int
	val  string
}

func readGroupPairs(r io.Reader) ([]groupPair, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	var pairs []groupPair
	for sc.Scan() {
		codeLine := strings.TrimSpace(sc.Text())
		code, err := strconv.Atoi(codeLine)
		if err != nil {
			return nil, fmt.Errorf("invalid group code %q: %w", codeLine, err)
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("truncated group pair after code %d", code)
		}
		pairs = append(pairs, groupPair{code: code, val: strings.TrimSpace(sc.Text())})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Parse decodes a DXF exchange file into a schematic.Data. Coordinate
// system is always geometry.CADUnits.
func Parse(r io.Reader, hints schematic.Hints) (*schematic.Data, error) {
	pairs, err := readGroupPairs(r)
	if err != nil {
		return nil, &schematic.ParseError{Format: schematic.FormatDXF, Reason: err.Error()}
	}

	var entitiesSection []dxfEntity
	blocks := map[string]*blockDef{}

	i := 0
	section := ""
	for i < len(pairs) {
		p := pairs[i]
		if p.code == 0 && p.val == "SECTION" {
			name := ""
			if i+1 < len(pairs) && pairs[i+1].code == 2 {
				name = pairs[i+1].val
			}
			section = name
			i += 2
			continue
		}
		if p.code == 0 && p.val == "ENDSEC" {
			section = ""
			i++
			continue
		}

		switch section {
		case "ENTITIES":
			ents, next := parseEntities(pairs, i)
			entitiesSection = append(entitiesSection, ents...)
			i = next
		case "BLOCKS":
			blk, next := parseBlock(pairs, i)
			if blk != nil {
				blocks[blk.name] = blk
			}
			i = next
		default:
			i++
		}
	}

	if len(entitiesSection) == 0 {
		return nil, &schematic.ParseError{Format: schematic.FormatDXF, Reason: "no entities found"}
	}

	layer := chooseLayer(entitiesSection, hints.TargetLayer)
	filtered := make([]dxfEntity, 0, len(entitiesSection))
	for _, e := range entitiesSection {
		if e.layer == layer || e.typ == "TEXT" || e.typ == "MTEXT" {
			filtered = append(filtered, e)
		}
	}

	candidates := shapesFromEntities(filtered, blocks)
	if len(candidates) == 0 {
		return nil, schematic.ErrNoDiesDetected
	}

	assignLabels(candidates, filtered)

	dies := make([]schematic.DieBoundary, 0, len(candidates))
	for _, c := range candidates {
		area := c.bounds.Area()
		if !hints.DieSizeFilter.Admits(area) {
			continue
		}
		dies = append(dies, schematic.DieBoundary{
			DieID:     c.id,
			Bounds:    c.bounds,
			Available: true,
			Metadata:  map[string]string{},
		})
	}
	if len(dies) == 0 {
		return nil, schematic.ErrNoDiesDetected
	}

	out := &schematic.Data{
		FormatType:       schematic.FormatDXF,
		UploadDate:       time.Now().UTC(),
		CoordinateSystem: geometry.CADUnits,
		Dies:             dies,
	}
	out.ComputeDerived()
	return out, nil
}

// parseEntities consumes one entity starting at pairs[i] (a code-0 marker)
// and returns it plus the index of the next unconsumed pair. VERTEX/SEQEND
// children of a POLYLINE are folded into the POLYLINE's point list.
func parseEntities(pairs []groupPair, i int) ([]dxfEntity, int) {
	if i >= len(pairs) || pairs[i].code != 0 {
		return nil, i + 1
	}
	typ := pairs[i].val
	i++

	e := dxfEntity{typ: typ, xscale: 1, yscale: 1}
	var polyPts []point

	for i < len(pairs) && pairs[i].code != 0 {
		switch pairs[i].code {
		case 8:
			e.layer = pairs[i].val
		case 10:
			x, _ := strconv.ParseFloat(pairs[i].val, 64)
			e.pts = append(e.pts, point{x: x})
		case 20:
			if n := len(e.pts); n > 0 {
				y, _ := strconv.ParseFloat(pairs[i].val, 64)
				e.pts[n-1].y = y
			}
		case 11:
			x, _ := strconv.ParseFloat(pairs[i].val, 64)
			e.pts = append(e.pts, point{x: x})
		case 21:
			if n := len(e.pts); n > 0 {
				y, _ := strconv.ParseFloat(pairs[i].val, 64)
				e.pts[n-1].y = y
			}
		case 40:
			r, _ := strconv.ParseFloat(pairs[i].val, 64)
			e.radius = r
		case 41:
			s, _ := strconv.ParseFloat(pairs[i].val, 64)
			e.xscale = s
		case 42:
			s, _ := strconv.ParseFloat(pairs[i].val, 64)
			e.yscale = s
		case 2:
			e.blockName = pairs[i].val
		case 1, 3:
			if e.text == "" {
				e.text = pairs[i].val
			}
		}
		i++
	}

	if typ == "CIRCLE" && len(e.pts) > 0 {
		e.center = e.pts[0]
		e.pts = nil
	}
	if typ == "INSERT" && len(e.pts) > 0 {
		e.insertPos = e.pts[0]
	}

	entities := []dxfEntity{e}

	if typ == "POLYLINE" {
		for i < len(pairs) && pairs[i].code == 0 && pairs[i].val == "VERTEX" {
			v, next := parseEntities(pairs, i)
			if len(v) > 0 && len(v[0].pts) > 0 {
				polyPts = append(polyPts, v[0].pts[0])
			}
			i = next
		}
		if i < len(pairs) && pairs[i].code == 0 && pairs[i].val == "SEQEND" {
			i++
		}
		entities[0].pts = polyPts
	}

	return entities, i
}

func parseBlock(pairs []groupPair, i int) (*blockDef, int) {
	if i >= len(pairs) || pairs[i].code != 0 || pairs[i].val != "BLOCK" {
		return nil, i + 1
	}
	i++
	name := ""
	for i < len(pairs) && pairs[i].code != 0 {
		if pairs[i].code == 2 && name == "" {
			name = pairs[i].val
		}
		i++
	}

	blk := &blockDef{name: name}
	for i < len(pairs) && !(pairs[i].code == 0 && pairs[i].val == "ENDBLK") {
		if pairs[i].code == 0 {
			ents, next := parseEntities(pairs, i)
			blk.entities = append(blk.entities, ents...)
			i = next
			continue
		}
		i++
	}
	if i < len(pairs) && pairs[i].code == 0 && pairs[i].val == "ENDBLK" {
		i++
	}
	return blk, i
}

var layerNamePattern = regexp.MustCompile(`(?i)die|boundary|chip`)

// chooseLayer implements the DXF parser's layer-selection rule: an
// explicit target, else the layer whose name best matches
// /die|boundary|chip/i, else the default layer "0".
func chooseLayer(entities []dxfEntity, targetLayer string) string {
	if targetLayer != "" {
		return targetLayer
	}
	seen := map[string]bool{}
	for _, e := range entities {
		if e.layer != "" {
			seen[e.layer] = true
		}
	}
	layers := make([]string, 0, len(seen))
	for l := range seen {
		layers = append(layers, l)
	}
	sort.Strings(layers)
	for _, l := range layers {
		if layerNamePattern.MatchString(l) {
			return l
		}
	}
	return "0"
}

type candidateBoundary struct {
	bounds geometry.Bounds
	id     string
	hasID  bool
}

func shapesFromEntities(entities []dxfEntity, blocks map[string]*blockDef) []candidateBoundary {
	var lines []dxfEntity
	var out []candidateBoundary

	for _, e := range entities {
		switch e.typ {
		case "LWPOLYLINE", "POLYLINE":
			if len(e.pts) > 0 {
				out = append(out, candidateBoundary{bounds: bboxOf(e.pts)})
			}
		case "LINE":
			lines = append(lines, e)
		case "CIRCLE":
			r := e.radius
			out = append(out, candidateBoundary{bounds: geometry.Bounds{
				XMin: e.center.x - r, YMin: e.center.y - r,
				XMax: e.center.x + r, YMax: e.center.y + r,
			}})
		case "INSERT":
			blk, ok := blocks[e.blockName]
			if !ok {
				continue
			}
			local, ok := blk.localBounds()
			if !ok {
				continue
			}
			sx, sy := e.xscale, e.yscale
			if sx == 0 {
				sx = 1
			}
			if sy == 0 {
				sy = 1
			}
			out = append(out, candidateBoundary{bounds: geometry.Bounds{
				XMin: e.insertPos.x + local.XMin*sx,
				YMin: e.insertPos.y + local.YMin*sy,
				XMax: e.insertPos.x + local.XMax*sx,
				YMax: e.insertPos.y + local.YMax*sy,
			}})
		}
	}

	out = append(out, groupLinesIntoLoops(lines)...)
	return out
}

// groupLinesIntoLoops joins LINE segments sharing endpoints (within a
// fixed-point tolerance) into connected components, each becoming one
// candidate die boundary.
func groupLinesIntoLoops(lines []dxfEntity) []candidateBoundary {
	if len(lines) == 0 {
		return nil
	}

	key := func(p point) string { return fmt.Sprintf("%.4f,%.4f", p.x, p.y) }

	parent := map[string]string{}
	var find func(string) string
	find = func(s string) string {
		if parent[s] == "" {
			parent[s] = s
		}
		if parent[s] != s {
			parent[s] = find(parent[s])
		}
		return parent[s]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	points := map[string]point{}
	for _, l := range lines {
		if len(l.pts) < 2 {
			continue
		}
		a, b := key(l.pts[0]), key(l.pts[1])
		points[a] = l.pts[0]
		points[b] = l.pts[1]
		find(a)
		find(b)
		union(a, b)
	}

	groups := map[string][]point{}
	keys := make([]string, 0, len(points))
	for k := range points {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		root := find(k)
		groups[root] = append(groups[root], points[k])
	}

	roots := make([]string, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Strings(roots)

	out := make([]candidateBoundary, 0, len(groups))
	for _, r := range roots {
		pts := groups[r]
		if len(pts) < 2 {
			continue
		}
		out = append(out, candidateBoundary{bounds: bboxOf(pts)})
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

func boundsOfEntities(entities []dxfEntity, blocks map[string]*blockDef) []geometry.Bounds {
	cands := shapesFromEntities(entities, blocks)
	out := make([]geometry.Bounds, len(cands))
	for i, c := range cands {
		out[i] = c.bounds
	}
	return out
}

func assignLabels(dies []candidateBoundary, entities []dxfEntity) {
	var texts []dxfEntity
	for _, e := range entities {
		if (e.typ == "TEXT" || e.typ == "MTEXT") && strings.TrimSpace(e.text) != "" && len(e.pts) > 0 {
			texts = append(texts, e)
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
		cx, cy := d.bounds.CenterX(), d.bounds.CenterY()
		maxDim := math.Max(d.bounds.Width(), d.bounds.Height())
		best := ""
		bestDist := math.Inf(1)
		for _, t := range texts {
			dist := math.Hypot(t.pts[0].x-cx, t.pts[0].y-cy)
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
