package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/bootprops/internal/config"
	"github.com/eugenenazirov/bootprops/internal/properties"
	"github.com/eugenenazirov/bootprops/internal/sysprops"
)

// New performs the process-wide one-time load, so only this test drives it.
func TestNewInitializesDependencies(t *testing.T) {
	base := t.TempDir()
	confDir := filepath.Join(base, properties.ConfDir)
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(confDir, properties.FileName), []byte("app.test.key=from-base\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := baseTestConfig(":8085")
	cfg.Bootstrap.BaseDir = base

	app, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got, ok := app.Properties().Property("app.test.key"); !ok || got != "from-base" {
		t.Fatalf("expected property from base dir, got %q (present=%v)", got, ok)
	}
	if got, ok := properties.Property("app.test.key"); !ok || got != "from-base" {
		t.Fatalf("expected global property, got %q (present=%v)", got, ok)
	}
	if got, ok := sysprops.Default().Get("app.test.key"); !ok || got != "from-base" {
		t.Fatalf("expected property published to default store, got %q (present=%v)", got, ok)
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties/app.test.key", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from wired handler, got %d", rec.Code)
	}

	other := baseTestConfig(":8086")
	other.Bootstrap.BaseDir = t.TempDir()
	again, _, err := Bootstrap(context.Background(), other, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("second Bootstrap returned error: %v", err)
	}
	if again != app.Properties() {
		t.Fatalf("expected second Bootstrap to return the first loaded set")
	}
	if got, _ := again.Property("app.test.key"); got != "from-base" {
		t.Fatalf("expected first load to stick, got %q", got)
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestBuildRootHandler(t *testing.T) {
	apiInvoked := false
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiInvoked = true
		w.WriteHeader(http.StatusNoContent)
	})
	handler := BuildRootHandler(apiHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusNoContent || !apiInvoked {
		t.Fatalf("expected API traffic to be forwarded, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside the API, got %d", rec.Code)
	}
}

func TestStoreSelection(t *testing.T) {
	cfg := baseTestConfig(":0")
	if Store(cfg) != sysprops.Store(sysprops.Default()) {
		t.Fatalf("expected default store without export")
	}

	cfg.Bootstrap.ExportEnv = true
	t.Setenv("APP_TEST_EXPORTED", "")
	if err := Store(cfg).Set("APP_TEST_EXPORTED", "1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if os.Getenv("APP_TEST_EXPORTED") != "1" {
		t.Fatalf("expected value mirrored into the environment")
	}
}

func TestSourceOptions(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Bootstrap = config.Bootstrap{
		ConfigURL:    "http://config.local/c.properties",
		BaseDir:      "/srv/base",
		HomeDir:      "/srv/home",
		FetchTimeout: time.Second,
	}

	opts := SourceOptions(cfg)
	if opts.ConfigURL != cfg.Bootstrap.ConfigURL ||
		opts.BaseDir != cfg.Bootstrap.BaseDir ||
		opts.HomeDir != cfg.Bootstrap.HomeDir ||
		opts.FetchTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		Bootstrap: config.Bootstrap{
			FetchTimeout: time.Second,
		},
	}
}
