package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/grocerly/grocerly-backend/pkg/config"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestLive_AlwaysOK(t *testing.T) {
	rec := httptest.NewRecorder()
	Live(testConfig())(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Grocerly-Env") != "test" {
		t.Fatalf("env header = %q", rec.Header().Get("X-Grocerly-Env"))
	}
}

func TestReady_OKWhenDependenciesHealthy(t *testing.T) {
	rec := httptest.NewRecorder()
	Ready(testConfig(), testLogger(), &stubPinger{}, &stubPinger{})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestReady_FailsWhenDatabaseDown(t *testing.T) {
	rec := httptest.NewRecorder()
	Ready(testConfig(), testLogger(), &stubPinger{err: errors.New("connection refused")}, &stubPinger{})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code < 500 {
		t.Fatalf("status = %d, want server error", rec.Code)
	}
}
