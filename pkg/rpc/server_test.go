package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleHealthReturnsRegisteredPlugins(t *testing.T) {
	srv := NewServer(newTestFacade(t))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !status.Healthy {
		t.Error("expected healthy = true")
	}
	if len(status.RuleTypes) == 0 {
		t.Error("expected at least one registered rule type")
	}
}

func TestHandleCreateAndGetStrategyRoundTrip(t *testing.T) {
	srv := NewServer(newTestFacade(t))

	body := `{"name":"edge-focus","processStep":"etch","toolType":"metrology-1","author":"engineer-1",
	"rules":[{"ruleType":"fixedPoint","parameters":{"points":[[0,0]]},"weight":1,"enabled":true}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/strategies", strings.NewReader(body))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated strategy id in the response")
	}

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/strategies/"+created.ID, nil)
	srv.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec2.Code, rec2.Body.String())
	}
}

func TestHandleGetStrategyMissingReturns404Envelope(t *testing.T) {
	srv := NewServer(newTestFacade(t))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/strategies/does-not-exist", nil)
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var env envelopeError
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	if env.Error == nil || env.Error.Code != CodeNotFound {
		t.Fatalf("Error = %+v, want code notFound", env.Error)
	}
	if env.RequestID == "" || env.Timestamp == "" {
		t.Error("expected request_id and timestamp to be populated")
	}
}
