package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func newLoggedRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/songs/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func TestSlogMiddleware_LogsRequest(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/42", nil)
	newLoggedRouter().ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	for _, field := range []string{
		"level=INFO",
		"method=GET",
		"path=/api/songs/42",
		"route=/api/songs/{id}",
		"status=200",
		"bytes=5",
		"request_id=",
		"remote_addr=",
		"duration_ms=",
	} {
		if !strings.Contains(output, field) {
			t.Errorf("expected log to contain %q, got: %s", field, output)
		}
	}
}

func TestSlogMiddleware_SkipsHealthCheck(t *testing.T) {
	buf := captureLogs(t)

	rec := httptest.NewRecorder()
	newLoggedRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output for /api/health, got: %s", buf.String())
	}
}

func TestSlogMiddleware_ServerErrorsAtErrorLevel(t *testing.T) {
	buf := captureLogs(t)

	newLoggedRouter().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	output := buf.String()
	if !strings.Contains(output, "level=ERROR") || !strings.Contains(output, "status=500") {
		t.Errorf("expected an error-level 500 line, got: %s", output)
	}
}
