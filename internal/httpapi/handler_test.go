package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stelladora/alt-text-pipeline/internal/orchestrator"
)

type fakeRunner struct {
	called bool
	out    orchestrator.Output
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, in orchestrator.Input) (orchestrator.Output, error) {
	f.called = true
	return f.out, f.err
}

func newTestEngine(r *fakeRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHandler(r).Register(engine)
	return engine
}

func TestValidationHandshake(t *testing.T) {
	runner := &fakeRunner{}
	engine := newTestEngine(runner)

	body := `[{"eventType":"Microsoft.EventGrid.SubscriptionValidationEvent","data":{"validationCode":"ABC-123"}}]`
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(body))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["validationResponse"] != "ABC-123" {
		t.Errorf("expected validationResponse ABC-123, got %v", resp)
	}
	if runner.called {
		t.Error("expected zero orchestrator calls for validation handshake")
	}
}

func TestNonImageSkip(t *testing.T) {
	runner := &fakeRunner{}
	engine := newTestEngine(runner)

	body := `[{"eventType":"Microsoft.Storage.BlobCreated","data":{"url":"https://acct.blob.core.windows.net/ingest/notes.txt"}}]`
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(body))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "skipped" {
		t.Errorf("expected status skipped, got %v", resp)
	}
	if runner.called {
		t.Error("expected zero orchestrator calls for non-image skip")
	}
}

func TestBlobCreatedDispatchesToOrchestrator(t *testing.T) {
	runner := &fakeRunner{out: orchestrator.Output{
		AltJSON: orchestrator.AltTextResult{AltText: map[string]string{"en": "A printer."}},
	}}
	engine := newTestEngine(runner)

	body := `[{"eventType":"Microsoft.Storage.BlobCreated","data":{"url":"https://acct.blob.core.windows.net/ingest/img_0.png"}}]`
	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(body))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !runner.called {
		t.Error("expected orchestrator to be invoked for image blob")
	}
}

func TestDirectRequestWithoutBlobNamePending(t *testing.T) {
	runner := &fakeRunner{}
	engine := newTestEngine(runner)

	req := httptest.NewRequest(http.MethodPost, "/describe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(&fakeRunner{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginIssuesOpaqueToken(t *testing.T) {
	engine := newTestEngine(&fakeRunner{})
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"tenant_id":"acme","user_id":"u1"}`))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["session_token"] == "" || resp["session_token"] == nil {
		t.Errorf("expected non-empty session_token, got %v", resp)
	}
	if resp["tenant_id"] != "acme" {
		t.Errorf("expected tenant_id acme, got %v", resp["tenant_id"])
	}
}
