package rpc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/waferstrat/sampler/pkg/repository"
	"github.com/waferstrat/sampler/pkg/schematic"
	"github.com/waferstrat/sampler/pkg/schematic/ingest"
	"github.com/waferstrat/sampler/pkg/strategy"
)

// Code is one of the wire-level error codes spec.md §6.4 enumerates.
type Code string

const (
	CodeValidationError          Code = "validationError"
	CodeNotFound                 Code = "notFound"
	CodeBusinessLogicError       Code = "businessLogicError"
	CodeFileUploadError          Code = "fileUploadError"
	CodeParserError              Code = "parserError"
	CodeLifecycleViolation       Code = "lifecycleViolation"
	CodeCompileError             Code = "compileError"
	CodeTimeout                  Code = "timeout"
	CodeCancelled                Code = "cancelled"
	CodePayloadTooLarge          Code = "payloadTooLarge"
	CodeTooManyDies              Code = "tooManyDies"
	CodeUnknownPlugin            Code = "unknownPlugin"
	CodeNoEligibleRules          Code = "noEligibleRules"
	CodeEmptyWafer               Code = "emptyWafer"
	CodeToolConstraintInfeasible Code = "toolConstraintInfeasible"
)

// Error is the façade's error envelope, §6.4's shape minus the
// request_id/timestamp fields a transport binding adds at the edge.
type Error struct {
	Code             Code              `json:"code"`
	Message          string            `json:"message"`
	Details          map[string]any    `json:"details,omitempty"`
	ValidationErrors []FieldError      `json:"validation_errors,omitempty"`
}

// FieldError names one failed input field and why.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

// HTTPStatus maps a Code to the status spec.md §6.3 assigns it.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidationError:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLifecycleViolation:
		return http.StatusConflict
	case CodePayloadTooLarge, CodeTooManyDies:
		return http.StatusRequestEntityTooLarge
	case CodeBusinessLogicError, CodeCompileError, CodeNoEligibleRules, CodeEmptyWafer, CodeToolConstraintInfeasible:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnknownPlugin, CodeFileUploadError, CodeParserError:
		return http.StatusUnprocessableEntity
	case CodeCancelled:
		return 499 // nginx's de facto "client closed request"; no standard IANA code exists
	default:
		return http.StatusInternalServerError
	}
}

// newError wraps a message under code with no structured details.
func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// translate maps an error surfaced by a lower layer to the façade's Code
// taxonomy, preserving the original message. Each layer adds context by
// wrapping with fmt.Errorf("%w", ...) before returning to the façade; this
// function does not rewrap, it classifies.
func translate(err error, op string, limit time.Duration) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return newError(CodeCancelled, "operation cancelled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newTimeoutError(op, limit)
	}

	var nferr *repository.NotFoundError
	if errors.As(err, &nferr) {
		return newError(CodeNotFound, nferr.Error())
	}

	var lerr *repository.LifecycleError
	if errors.As(err, &lerr) {
		return &Error{Code: CodeLifecycleViolation, Message: lerr.Error(), Details: map[string]any{
			"from": string(lerr.From), "to": string(lerr.To), "reason": lerr.Reason,
		}}
	}

	var compileErr *strategy.CompileError
	if errors.As(err, &compileErr) {
		return newError(CodeCompileError, compileErr.Error())
	}

	var tooMany *ingest.ErrTooManyDies
	if errors.As(err, &tooMany) {
		return &Error{Code: CodeTooManyDies, Message: tooMany.Error(), Details: map[string]any{
			"count": tooMany.Count, "limit": tooMany.Limit,
		}}
	}

	if errors.Is(err, schematic.ErrNoDiesDetected) {
		return newError(CodeParserError, err.Error())
	}

	var parseErr *schematic.ParseError
	if errors.As(err, &parseErr) {
		if parseErr.Format == "" {
			// No Format set means DetectFormat never recognized the upload as
			// gdsii/dxf/svg in the first place, not that a recognized format's
			// content was malformed; that is a client input error, not an
			// unprocessable-entity one.
			return newError(CodeValidationError, parseErr.Error())
		}
		return newError(CodeParserError, parseErr.Error())
	}

	return newError(CodeBusinessLogicError, err.Error())
}

// newTimeoutError builds the timeout{operation, limitMs} shape spec.md
// §5 specifies for an exceeded per-operation deadline.
func newTimeoutError(operation string, limit time.Duration) *Error {
	return &Error{
		Code:    CodeTimeout,
		Message: "operation " + operation + " exceeded its time limit",
		Details: map[string]any{"operation": operation, "limitMs": limit.Milliseconds()},
	}
}
