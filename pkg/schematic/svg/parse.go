package svg

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/schematic"
)

// xform is a 2D affine transform restricted to scale + translate, which is
// sufficient for the group transforms this parser understands.
type xform struct {
	sx, sy, tx, ty float64
}

func identityXform() xform { return xform{sx: 1, sy: 1} }

func (x xform) apply(px, py float64) (float64, float64) {
	return px*x.sx + x.tx, py*x.sy + x.ty
}

// compose returns the transform equivalent to applying inner then outer
// (outer.compose(inner) means: apply inner's local transform within
// outer's coordinate space).
func (outer xform) compose(inner xform) xform {
	return xform{
		sx: outer.sx * inner.sx,
		sy: outer.sy * inner.sy,
		tx: outer.sx*inner.tx + outer.tx,
		ty: outer.sy*inner.ty + outer.ty,
	}
}

type candidate struct {
	bounds geometry.Bounds
	id     string
	hasID  bool
}

type label struct {
	x, y float64
	text string
}

// Parse decodes SVG bytes into a schematic.Data. Coordinate system is
// always schematic/geometry.SVGUnits.
func Parse(data []byte, hints schematic.Hints) (*schematic.Data, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))

	var candidates []candidate
	var labels []label

	type frame struct {
		xf xform
	}
	stack := []frame{{xf: identityXform()}}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &schematic.ParseError{Format: schematic.FormatSVG, Reason: err.Error()}
		}

		switch el := tok.(type) {
		case xml.StartElement:
			cur := stack[len(stack)-1].xf
			local := parseTransformAttr(attr(el, "transform"))
			combined := cur.compose(local)

			switch localName(el.Name.Local) {
			case "g":
				stack = append(stack, frame{xf: combined})
				continue
			case "rect":
				x, _ := parseFloat(attr(el, "x"))
				y, _ := parseFloat(attr(el, "y"))
				w, _ := parseFloat(attr(el, "width"))
				h, _ := parseFloat(attr(el, "height"))
				x0, y0 := combined.apply(x, y)
				x1, y1 := combined.apply(x+w, y+h)
				candidates = append(candidates, rectCandidate(x0, y0, x1, y1, attr(el, "id")))
			case "polygon":
				pts := parsePoints(attr(el, "points"))
				if len(pts) > 0 {
					candidates = append(candidates, boundsFromPoints(pts, combined, attr(el, "id")))
				}
			case "path":
				pts := parsePathPoints(attr(el, "d"))
				if len(pts) > 0 {
					candidates = append(candidates, boundsFromPoints(pts, combined, attr(el, "id")))
				}
			case "text":
				x, _ := parseFloat(attr(el, "x"))
				y, _ := parseFloat(attr(el, "y"))
				ax, ay := combined.apply(x, y)
				txt, _ := readCharData(dec)
				if strings.TrimSpace(txt) != "" {
					labels = append(labels, label{x: ax, y: ay, text: strings.TrimSpace(txt)})
				}
				// readCharData already consumed this element's EndElement.
				continue
			}
			// push a no-op frame so the matching EndElement pops predictably
			stack = append(stack, frame{xf: combined})

		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(candidates) == 0 {
		return nil, schematic.ErrNoDiesDetected
	}

	available := shapeHeuristicMask(candidates)

	dies := make([]schematic.DieBoundary, 0, len(candidates))
	for i, c := range candidates {
		area := c.bounds.Area()
		if !hints.DieSizeFilter.Admits(area) {
			continue
		}
		id := c.id
		if !c.hasID {
			id = nearestLabel(c.bounds, labels)
		}
		if id == "" {
			id = fmt.Sprintf("die_%d", i)
		}
		dies = append(dies, schematic.DieBoundary{
			DieID:     id,
			Bounds:    c.bounds,
			Available: available[i],
			Metadata:  map[string]string{},
		})
	}

	if len(dies) == 0 {
		return nil, schematic.ErrNoDiesDetected
	}

	out := &schematic.Data{
		FormatType:       schematic.FormatSVG,
		UploadDate:       time.Now().UTC(),
		CoordinateSystem: geometry.SVGUnits,
		Dies:             dies,
	}
	out.ComputeDerived()
	return out, nil
}

func rectCandidate(x0, y0, x1, y1 float64, id string) candidate {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	c := candidate{bounds: geometry.Bounds{XMin: x0, YMin: y0, XMax: x1, YMax: y1}}
	if id != "" {
		c.id = id
		c.hasID = true
	}
	return c
}

func boundsFromPoints(pts [][2]float64, xf xform, id string) candidate {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		ax, ay := xf.apply(p[0], p[1])
		if ax < minX {
			minX = ax
		}
		if ay < minY {
			minY = ay
		}
		if ax > maxX {
			maxX = ax
		}
		if ay > maxY {
			maxY = ay
		}
	}
	c := candidate{bounds: geometry.Bounds{XMin: minX, YMin: minY, XMax: maxX, YMax: maxY}}
	if id != "" {
		c.id = id
		c.hasID = true
	}
	return c
}

// shapeHeuristicMask reports, for each candidate, whether it passes the
// die-likeness heuristic: area within one order of magnitude of the
// median candidate area, aspect ratio at most 4:1. Candidates that fail
// still become dies; they're marked unavailable rather than dropped,
// since a schematic's edge/corner positions are frequently smaller or
// differently shaped partial dies rather than pure decoration.
func shapeHeuristicMask(cands []candidate) []bool {
	areas := make([]float64, len(cands))
	for i, c := range cands {
		areas[i] = c.bounds.Area()
	}
	med := medianOf(areas)

	mask := make([]bool, len(cands))
	for i, c := range cands {
		a := c.bounds.Area()
		if a <= 0 {
			mask[i] = false
			continue
		}
		if med > 0 && (a < med/10 || a > med*10) {
			mask[i] = false
			continue
		}
		w, h := c.bounds.Width(), c.bounds.Height()
		if w <= 0 || h <= 0 {
			mask[i] = false
			continue
		}
		ratio := w / h
		if ratio < 1 {
			ratio = 1 / ratio
		}
		mask[i] = ratio <= 4
	}
	return mask
}

func medianOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func nearestLabel(b geometry.Bounds, labels []label) string {
	cx, cy := b.CenterX(), b.CenterY()
	best := ""
	bestDist := math.Inf(1)
	maxDim := math.Max(b.Width(), b.Height())
	for _, l := range labels {
		d := math.Hypot(l.x-cx, l.y-cy)
		if d < bestDist && d <= maxDim {
			bestDist = d
			best = l.text
		}
	}
	return best
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func localName(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTransformAttr(s string) xform {
	xf := identityXform()
	s = strings.TrimSpace(s)
	if s == "" {
		return xf
	}
	for _, fn := range []string{"translate", "scale"} {
		idx := strings.Index(s, fn+"(")
		if idx < 0 {
			continue
		}
		rest := s[idx+len(fn)+1:]
		end := strings.Index(rest, ")")
		if end < 0 {
			continue
		}
		args := splitNumbers(rest[:end])
		switch fn {
		case "translate":
			if len(args) >= 1 {
				xf.tx = args[0]
			}
			if len(args) >= 2 {
				xf.ty = args[1]
			} else {
				xf.ty = 0
			}
		case "scale":
			if len(args) >= 1 {
				xf.sx = args[0]
				xf.sy = args[0]
			}
			if len(args) >= 2 {
				xf.sy = args[1]
			}
		}
	}
	return xf
}

func splitNumbers(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err == nil {
			out = append(out, v)
		}
	}
	return out
}

func parsePoints(s string) [][2]float64 {
	nums := splitNumbers(s)
	pts := make([][2]float64, 0, len(nums)/2)
	for i := 0; i+1 < len(nums); i += 2 {
		pts = append(pts, [2]float64{nums[i], nums[i+1]})
	}
	return pts
}

// parsePathPoints extracts an approximate bounding box's worth of points
// from a path "d" attribute by reading absolute/relative M/L/H/V commands.
// Curve and arc commands (C/S/Q/T/A) are not interpreted: their operands
// are skipped and add no points, so only the straight-segment points of a
// path contribute to its bounding box.
func parsePathPoints(d string) [][2]float64 {
	var pts [][2]float64
	var cx, cy float64
	var cmd byte

	tokens := tokenizePath(d)
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if isPathCommand(tok) {
			cmd = tok[0]
			i++
			continue
		}

		switch cmd {
		case 'M', 'm', 'L', 'l':
			if i+1 >= len(tokens) {
				return pts
			}
			x, _ := strconv.ParseFloat(tokens[i], 64)
			y, _ := strconv.ParseFloat(tokens[i+1], 64)
			if cmd == 'm' || cmd == 'l' {
				x += cx
				y += cy
			}
			cx, cy = x, y
			pts = append(pts, [2]float64{cx, cy})
			i += 2
		case 'H', 'h':
			x, _ := strconv.ParseFloat(tokens[i], 64)
			if cmd == 'h' {
				x += cx
			}
			cx = x
			pts = append(pts, [2]float64{cx, cy})
			i++
		case 'V', 'v':
			y, _ := strconv.ParseFloat(tokens[i], 64)
			if cmd == 'v' {
				y += cy
			}
			cy = y
			pts = append(pts, [2]float64{cx, cy})
			i++
		case 'Z', 'z':
			i++
		default:
			// Unsupported command operand: skip one token to avoid looping.
			i++
		}
	}
	return pts
}

func tokenizePath(d string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range d {
		switch {
		case isPathCommandRune(r):
			flush()
			out = append(out, string(r))
		case r == ',' || r == ' ' || r == '\n' || r == '\t':
			flush()
		case r == '-' && cur.Len() > 0 && !strings.HasSuffix(cur.String(), "e"):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func isPathCommandRune(r rune) bool {
	switch r {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

func isPathCommand(s string) bool {
	return len(s) == 1 && isPathCommandRune(rune(s[0]))
}

func readCharData(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return sb.String(), err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}
