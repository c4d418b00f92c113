package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serenityspa/bookingflow/pkg/logging"
)

func TestRequestLoggerRecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	mw := RequestLogger(logger)
	req := httptest.NewRequest(http.MethodPost, "/api/wizard", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"wizard_id":"abc"}`))
	})).ServeHTTP(rec, req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["msg"] != "request completed" {
		t.Fatalf("expected completion line, got %v", line["msg"])
	}
	if line["component"] != "http" {
		t.Fatalf("expected http component tag, got %v", line["component"])
	}
	if line["status"] != float64(http.StatusCreated) {
		t.Fatalf("expected status 201, got %v", line["status"])
	}
	if line["bytes"] != float64(len(`{"wizard_id":"abc"}`)) {
		t.Fatalf("expected response size recorded, got %v", line["bytes"])
	}
	if line["request_id"] != "req-123" {
		t.Fatalf("expected inbound request id reused, got %v", line["request_id"])
	}
}

func TestRequestLoggerGeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	mw := RequestLogger(logger)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if id, _ := line["request_id"].(string); id == "" {
		t.Fatalf("expected a generated request id")
	}
}
