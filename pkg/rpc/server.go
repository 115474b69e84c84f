package rpc

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/validator"
)

// Server binds a Facade to HTTP, following the endpoint table: every
// handler does request decoding and response encoding only, delegating
// all behavior to the Facade method it fronts.
type Server struct {
	facade *Facade
	mux    *http.ServeMux
}

// NewServer builds a Server with every route registered.
func NewServer(facade *Facade) *Server {
	s := &Server{facade: facade, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /schematics/upload", s.handleUploadSchematic)
	s.mux.HandleFunc("GET /schematics", s.handleListSchematics)
	s.mux.HandleFunc("GET /schematics/{id}", s.handleGetSchematic)
	s.mux.HandleFunc("GET /schematics/{id}/die-boundaries", s.handleGetDieBoundaries)
	s.mux.HandleFunc("DELETE /schematics/{id}", s.handleDeleteSchematic)
	s.mux.HandleFunc("GET /schematics/{id}/export/{format}", s.handleExportSchematic)
	s.mux.HandleFunc("POST /schematics/{id}/validate", s.handleValidate)

	s.mux.HandleFunc("POST /strategies", s.handleCreateStrategy)
	s.mux.HandleFunc("GET /strategies", s.handleListStrategies)
	s.mux.HandleFunc("GET /strategies/{id}", s.handleGetStrategy)
	s.mux.HandleFunc("PUT /strategies/{id}", s.handleUpdateStrategy)
	s.mux.HandleFunc("POST /strategies/{id}/simulate", s.handleSimulate)
	s.mux.HandleFunc("POST /strategies/{id}/promote", s.handlePromoteStrategy)
	s.mux.HandleFunc("POST /strategies/{id}/clone", s.handleCloneStrategy)
	s.mux.HandleFunc("DELETE /strategies/{id}", s.handleDeleteStrategy)
}

// ServeHTTP implements http.Handler, delegating to the registered mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// NewHTTPServer wraps Server with explicit timeouts rather than leaving
// Go's zero-value (unbounded) defaults in place.
func NewHTTPServer(addr string, facade *Facade) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewServer(facade),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // covers the 60s parse timeout plus margin
		IdleTimeout:  60 * time.Second,
	}
}

// envelopeError is the §6.4 error envelope's wire shape.
type envelopeError struct {
	Error     *Error `json:"error"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("rpc: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, rerr *Error) {
	writeJSON(w, rerr.Code.HTTPStatus(), envelopeError{
		Error:     rerr,
		RequestID: newID("req"),
		Timestamp: nowISO8601(),
	})
}

var nowFunc = time.Now

func nowISO8601() string { return nowFunc().UTC().Format(time.RFC3339) }

func decodeJSON(r *http.Request, v any) *Error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return newError(CodeValidationError, "malformed request body: "+err.Error())
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.facade.Health(r.Context()))
}

func (s *Server) handleUploadSchematic(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.facade.Config.MaxUploadBytesOrDefault()); err != nil {
		writeError(w, newError(CodeFileUploadError, "parsing multipart form: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, newError(CodeFileUploadError, "missing file part: "+err.Error()))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		writeError(w, newError(CodeFileUploadError, "reading uploaded file: "+err.Error()))
		return
	}

	q := r.URL.Query()
	req := UploadSchematicRequest{
		Filename:         header.Filename,
		Body:             body,
		CreatedBy:        q.Get("createdBy"),
		CoordinateScale:  parseFloatOr(q.Get("coordinateScale"), 0),
		TargetLayer:      q.Get("targetLayer"),
		TargetCell:       q.Get("targetCell"),
		DieSizeFilterMin: parseFloatOr(q.Get("dieSizeFilterMin"), 0),
		DieSizeFilterMax: parseFloatOr(q.Get("dieSizeFilterMax"), 0),
	}

	data, rerr := s.facade.UploadSchematic(r.Context(), req)
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusCreated, data)
}

func (s *Server) handleListSchematics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.facade.ListSchematics(r.Context()))
}

func (s *Server) handleGetSchematic(w http.ResponseWriter, r *http.Request) {
	data, rerr := s.facade.GetSchematic(r.Context(), r.PathValue("id"))
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleGetDieBoundaries(w http.ResponseWriter, r *http.Request) {
	dies, rerr := s.facade.GetDieBoundaries(r.Context(), r.PathValue("id"))
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusOK, dies)
}

func (s *Server) handleDeleteSchematic(w http.ResponseWriter, r *http.Request) {
	if rerr := s.facade.DeleteSchematic(r.Context(), r.PathValue("id")); rerr != nil {
		writeError(w, rerr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportSchematic(w http.ResponseWriter, r *http.Request) {
	format := ExportFormat(r.PathValue("format"))
	body, rerr := s.facade.ExportSchematic(r.Context(), r.PathValue("id"), format)
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	contentType := "image/svg+xml"
	if format == ExportDXF {
		contentType = "application/dxf"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type validateRequestBody struct {
	StrategyID     string         `json:"strategyId"`
	ValidationMode validator.Mode `json:"validationMode"`
	WaferSize      string         `json:"waferSize"`
	ProductType    string         `json:"productType"`
	ProcessLayer   string         `json:"processLayer"`
	DefectDensity  float64        `json:"defectDensity"`
	ValidatedBy    string         `json:"validatedBy"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body validateRequestBody
	if rerr := decodeJSON(r, &body); rerr != nil {
		writeError(w, rerr)
		return
	}
	result, rerr := s.facade.Validate(r.Context(), body.StrategyID, ValidateRequest{
		SchematicID:   r.PathValue("id"),
		WaferSize:     body.WaferSize,
		ProductType:   body.ProductType,
		ProcessLayer:  body.ProcessLayer,
		DefectDensity: body.DefectDensity,
		Mode:          body.ValidationMode,
		ValidatedBy:   body.ValidatedBy,
	})
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req CreateStrategyRequest
	if rerr := decodeJSON(r, &req); rerr != nil {
		writeError(w, rerr)
		return
	}
	def, rerr := s.facade.CreateStrategy(r.Context(), req)
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListStrategiesFilter{
		Author:         q.Get("author"),
		StrategyType:   strategy.StrategyType(q.Get("strategyType")),
		ProcessStep:    q.Get("processStep"),
		LifecycleState: strategy.LifecycleState(q.Get("lifecycleState")),
	}
	ids := q["id"]
	writeJSON(w, http.StatusOK, s.facade.ListStrategies(r.Context(), ids, filter))
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	def, rerr := s.facade.GetStrategy(r.Context(), r.PathValue("id"), r.URL.Query().Get("version"))
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	var req UpdateStrategyRequest
	if rerr := decodeJSON(r, &req); rerr != nil {
		writeError(w, rerr)
		return
	}
	def, rerr := s.facade.UpdateStrategy(r.Context(), r.PathValue("id"), req)
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if rerr := decodeJSON(r, &req); rerr != nil {
		writeError(w, rerr)
		return
	}
	result, rerr := s.facade.Simulate(r.Context(), r.PathValue("id"), req)
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePromoteStrategy(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Target strategy.LifecycleState `json:"target"`
	}
	if rerr := decodeJSON(r, &body); rerr != nil {
		writeError(w, rerr)
		return
	}
	def, rerr := s.facade.PromoteStrategy(r.Context(), r.PathValue("id"), body.Target, r.URL.Query().Get("user"))
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleCloneStrategy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	def, rerr := s.facade.CloneStrategy(r.Context(), r.PathValue("id"), q.Get("newName"), q.Get("author"))
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	if rerr := s.facade.DeleteStrategy(r.Context(), r.PathValue("id")); rerr != nil {
		writeError(w, rerr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseFloatOr(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}
