package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookkeeping/internal/logger"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func TestRequestLoggerWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter(&buf, "info")
	handler := chimiddleware.RequestID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/transactions", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if line["method"] != "POST" || line["path"] != "/transactions" || line["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected log line: %v", line)
	}
	if id, _ := line["request_id"].(string); id == "" {
		t.Fatalf("expected request id: %v", line)
	}
}

func TestRequestLoggerDefaultsStatus(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(logger.NewWithWriter(&buf, "info"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line["status"] != float64(http.StatusOK) || line["level"] != "info" {
		t.Fatalf("unexpected log line: %v", line)
	}
}
