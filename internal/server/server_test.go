package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRoutes_Index(t *testing.T) {
	srv := newTestServer(newStubStore(), newStubBlobs())
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rr.Body.String(), `enctype="multipart/form-data"`) {
		t.Error("index page should contain the upload form")
	}
}

func TestRoutes_UnknownPath(t *testing.T) {
	srv := newTestServer(newStubStore(), newStubBlobs())
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestRoutes_IndexMethodNotAllowed(t *testing.T) {
	srv := newTestServer(newStubStore(), newStubBlobs())
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestRoutes_Liveness(t *testing.T) {
	srv := newTestServer(newStubStore(), newStubBlobs())
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestRoutes_Metrics(t *testing.T) {
	srv := newTestServer(newStubStore(), newStubBlobs())
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap MetricsSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("metrics body is not JSON: %v", err)
	}
}

func TestRoutes_MiddlewareHeaders(t *testing.T) {
	srv := newTestServer(newStubStore(), newStubBlobs())
	handler := srv.routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", rr.Header().Get("X-Frame-Options"))
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}
