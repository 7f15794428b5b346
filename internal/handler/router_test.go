package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"secure-library/internal/config"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(&config.Container{
		Config:         &config.AppConfig{LibraryPath: t.TempDir()},
		Logger:         NewMockHandlerLogger(),
		LibraryService: NewMockLibraryService(),
	})
}

func TestNewRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestNewRouter_PersonalRoutesRequireUserHeader(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without user header, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)
	req.Header.Set("X-User-ID", "reader-1")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 with user header, got %d", rr.Code)
	}
}

func TestNewRouter_PublicCatalogRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"count":2`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}
