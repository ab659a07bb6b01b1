package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grocerly/grocerly-backend/pkg/logger"
)

func TestLoggingRecordsHandlerStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected handler status to pass through, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "\"status\":404") {
		t.Fatalf("expected completion log with status 404; log=%s", buf.String())
	}
}

func TestLoggingDefaultsImplicitWritesToOK(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if !strings.Contains(buf.String(), "\"status\":200") {
		t.Fatalf("expected completion log with status 200; log=%s", buf.String())
	}
}
