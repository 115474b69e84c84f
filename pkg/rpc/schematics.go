package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/waferstrat/sampler/pkg/repository"
	"github.com/waferstrat/sampler/pkg/schematic"
	"github.com/waferstrat/sampler/pkg/schematic/dxf"
	"github.com/waferstrat/sampler/pkg/schematic/ingest"
	"github.com/waferstrat/sampler/pkg/schematic/svg"
)

// UploadSchematicRequest is the uploadSchematic operation's input: the raw
// file body plus the parsing hints the wire endpoint's query parameters
// carry (see spec's POST /schematics/upload).
type UploadSchematicRequest struct {
	Filename        string
	Body            []byte
	CreatedBy       string
	CoordinateScale float64
	TargetLayer     string
	TargetCell      string
	DieSizeFilterMin float64
	DieSizeFilterMax float64
}

// UploadSchematic validates, parses, and stores a schematic file. It
// enforces the 100 MiB payload limit before any parsing begins, the one
// resource check that belongs at the façade rather than in pkg/schematic,
// since the façade is the only layer that sees the request before it is
// even read into a parseable form.
func (f *Facade) UploadSchematic(ctx context.Context, req UploadSchematicRequest) (*schematic.Data, *Error) {
	if verr := validateRequired(map[string]string{"filename": req.Filename, "createdBy": req.CreatedBy}); verr != nil {
		return nil, verr
	}
	limit := f.Config.MaxUploadBytesOrDefault()
	if int64(len(req.Body)) > limit {
		return nil, &Error{Code: CodePayloadTooLarge, Message: "upload exceeds the configured size limit", Details: map[string]any{
			"sizeBytes": len(req.Body), "limitBytes": limit,
		}}
	}

	hints := schematic.Hints{
		TargetCell:      req.TargetCell,
		TargetLayer:     req.TargetLayer,
		CoordinateScale: req.CoordinateScale,
		DieSizeFilter:   schematic.SizeFilter{Min: req.DieSizeFilterMin, Max: req.DieSizeFilterMax},
	}

	var data *schematic.Data
	rerr := runTimed(ctx, "upload", f.Config.Timeouts.Upload, func(tctx context.Context) error {
		parsed, err := runParseWithTimeout(tctx, req.Filename, req.Body, hints, f.Config.Timeouts.Parse)
		if err != nil {
			return err
		}
		data = parsed
		return nil
	})
	if rerr != nil {
		return nil, rerr
	}

	data.ID = newID("sch")
	if err := f.Schematics.Store(data); err != nil {
		return nil, newError(CodeBusinessLogicError, err.Error())
	}
	return data, nil
}

// runParseWithTimeout bounds ingest.Parse by the Parse timeout nested
// inside the already-running Upload timeout; whichever elapses first
// wins.
func runParseWithTimeout(ctx context.Context, filename string, body []byte, hints schematic.Hints, limit time.Duration) (*schematic.Data, error) {
	type result struct {
		data *schematic.Data
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := ingest.Parse(filename, body, hints)
		done <- result{data, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.data, r.err
	}
}

// ListSchematics returns every stored schematic's id.
func (f *Facade) ListSchematics(_ context.Context) []string {
	return f.Schematics.List()
}

// GetSchematic returns the full parsed body for id.
func (f *Facade) GetSchematic(_ context.Context, id string) (*schematic.Data, *Error) {
	data, err := f.Schematics.Get(id)
	if err != nil {
		return nil, translate(err, "getSchematic", 0)
	}
	return data, nil
}

// GetDieBoundaries returns just the die boundary list for id.
func (f *Facade) GetDieBoundaries(ctx context.Context, id string) ([]schematic.DieBoundary, *Error) {
	data, verr := f.GetSchematic(ctx, id)
	if verr != nil {
		return nil, verr
	}
	return data.Dies, nil
}

// DeleteSchematic removes a stored schematic.
func (f *Facade) DeleteSchematic(_ context.Context, id string) *Error {
	if err := f.Schematics.Delete(id); err != nil {
		return translate(err, "deleteSchematic", 0)
	}
	return nil
}

// ExportFormat names a re-emit output format for ExportSchematic.
type ExportFormat string

const (
	ExportSVG ExportFormat = "svg"
	ExportDXF ExportFormat = "dxf"
)

// ExportSchematic re-renders a stored schematic's parsed geometry back
// into SVG or DXF.
func (f *Facade) ExportSchematic(ctx context.Context, id string, format ExportFormat) ([]byte, *Error) {
	data, verr := f.GetSchematic(ctx, id)
	if verr != nil {
		return nil, verr
	}
	switch format {
	case ExportSVG:
		body, err := svg.Render(data, svg.DefaultRenderOptions())
		if err != nil {
			return nil, newError(CodeBusinessLogicError, err.Error())
		}
		return body, nil
	case ExportDXF:
		body, err := dxf.Render(data)
		if err != nil {
			return nil, newError(CodeBusinessLogicError, err.Error())
		}
		return body, nil
	default:
		return nil, newError(CodeValidationError, fmt.Sprintf("unsupported export format %q", format))
	}
}

// SchematicAnnotationsRequest updates a schematic's mutable metadata.
type SchematicAnnotationsRequest = repository.SchematicAnnotations
