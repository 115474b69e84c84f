package ingest

import (
	"bytes"
	"fmt"

	"github.com/waferstrat/sampler/pkg/schematic"
	"github.com/waferstrat/sampler/pkg/schematic/dxf"
	"github.com/waferstrat/sampler/pkg/schematic/gdsii"
	"github.com/waferstrat/sampler/pkg/schematic/svg"
)

// MaxDiesPerSchematic is the resource limit a parsed schematic must not
// exceed; exceeding it fails with ErrTooManyDies.
const MaxDiesPerSchematic = 100_000

// ErrTooManyDies is returned when a parsed schematic exceeds
// MaxDiesPerSchematic.
type ErrTooManyDies struct {
	Count int
	Limit int
}

func (e *ErrTooManyDies) Error() string {
	return fmt.Sprintf("schematic has %d dies, exceeding the limit of %d", e.Count, e.Limit)
}

// Parse dispatches raw schematic bytes to the format-specific parser
// selected by schematic.DetectFormat and enforces MaxDiesPerSchematic on
// the result.
func Parse(filename string, data []byte, hints schematic.Hints) (*schematic.Data, error) {
	format := schematic.DetectFormat(filename, data)

	var out *schematic.Data
	var err error

	switch format {
	case schematic.FormatGDSII:
		out, err = gdsii.Parse(bytes.NewReader(data), hints)
	case schematic.FormatDXF:
		out, err = dxf.Parse(bytes.NewReader(data), hints)
	case schematic.FormatSVG:
		out, err = svg.Parse(data, hints)
	default:
		return nil, &schematic.ParseError{Reason: "unrecognized schematic format: accepted formats are gdsii, dxf, svg"}
	}
	if err != nil {
		return nil, err
	}

	if out.DieCount() > MaxDiesPerSchematic {
		return nil, &ErrTooManyDies{Count: out.DieCount(), Limit: MaxDiesPerSchematic}
	}

	out.Filename = filename
	return out, nil
}
