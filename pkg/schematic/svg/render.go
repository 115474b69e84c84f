package svg

import (
	"bytes"
	"fmt"
	"sort"

	svgo "github.com/ajstarks/svgo"

	"github.com/waferstrat/sampler/pkg/schematic"
)

// RenderOptions configures the SVG re-emission of a parsed schematic.
type RenderOptions struct {
	Width       int
	Height      int
	Margin      int
	ShowLabels  bool
	UnavailFill string
	AvailFill   string
}

// DefaultRenderOptions returns sensible default render options.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Width:       1000,
		Height:      1000,
		Margin:      20,
		ShowLabels:  true,
		AvailFill:   "#2f855a",
		UnavailFill: "#718096",
	}
}

// Render draws a parsed schematic's die boundaries as an SVG document,
// one rectangle per die, scaled to fit within opts.Width x opts.Height.
func Render(data *schematic.Data, opts RenderOptions) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("schematic data cannot be nil")
	}
	if opts.Width <= 0 {
		opts.Width = 1000
	}
	if opts.Height <= 0 {
		opts.Height = 1000
	}
	if opts.Margin <= 0 {
		opts.Margin = 20
	}

	b := data.LayoutBounds
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("schematic has degenerate layout bounds")
	}

	drawW := float64(opts.Width - 2*opts.Margin)
	drawH := float64(opts.Height - 2*opts.Margin)
	scale := drawW / w
	if hs := drawH / h; hs < scale {
		scale = hs
	}

	toCanvas := func(x, y float64) (int, int) {
		cx := float64(opts.Margin) + (x-b.XMin)*scale
		cy := float64(opts.Margin) + (y-b.YMin)*scale
		return int(cx), int(cy)
	}

	buf := new(bytes.Buffer)
	canvas := svgo.New(buf)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:#f7fafc")

	dies := make([]schematic.DieBoundary, len(data.Dies))
	copy(dies, data.Dies)
	sort.Slice(dies, func(i, j int) bool { return dies[i].DieID < dies[j].DieID })

	for _, d := range dies {
		x0, y0 := toCanvas(d.Bounds.XMin, d.Bounds.YMin)
		x1, y1 := toCanvas(d.Bounds.XMax, d.Bounds.YMax)
		rw, rh := x1-x0, y1-y0
		if rw <= 0 {
			rw = 1
		}
		if rh <= 0 {
			rh = 1
		}

		fill := opts.AvailFill
		if !d.Available {
			fill = opts.UnavailFill
		}
		canvas.Rect(x0, y0, rw, rh, fmt.Sprintf("fill:%s;stroke:#1a202c;stroke-width:1;opacity:0.85", fill))

		if opts.ShowLabels && d.DieID != "" {
			canvas.Text(x0+rw/2, y0+rh/2, d.DieID, "text-anchor:middle;font-size:10px;fill:#1a202c")
		}
	}

	canvas.End()
	return buf.Bytes(), nil
}
