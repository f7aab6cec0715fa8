package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soaringjerry/Scamwatch/internal/api"
	"github.com/soaringjerry/Scamwatch/internal/config"
)

func TestRunReturnsConfigErrors(t *testing.T) {
	t.Setenv("SCAMWATCH_SUBMIT_RATE", "lots")
	if err := run(context.Background()); err == nil || !strings.Contains(err.Error(), "SCAMWATCH_SUBMIT_RATE") {
		t.Fatalf("expected config error, got %v", err)
	}

	t.Setenv("SCAMWATCH_SUBMIT_RATE", "")
	t.Setenv("SCAMWATCH_TRUSTED_PROXIES", "proxy.internal")
	if err := run(context.Background()); err == nil || !strings.Contains(err.Error(), "trusted proxy") {
		t.Fatalf("expected trusted proxy error, got %v", err)
	}
}

func TestRunStopsCleanlyWhenCancelled(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "scamwatch.db")
	t.Setenv("SCAMWATCH_DB_PATH", dbPath)
	t.Setenv("SCAMWATCH_ADDR", "127.0.0.1:0")
	t.Setenv("SCAMWATCH_REDIS_URL", "")
	t.Setenv("SCAMWATCH_ALERT_FEEDS", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := run(ctx); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database not created: %v", err)
	}
}

func TestHandlerServesHealth(t *testing.T) {
	h := newHandler(config.Config{Commit: "abc123"}, api.NewRouter())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health?lang=sw", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"commit":"abc123"`) || !strings.Contains(rr.Body.String(), `"locale":"sw"`) {
		t.Fatalf("health code=%d body=%s", rr.Code, rr.Body.String())
	}
}
