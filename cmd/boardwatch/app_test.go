package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"boardwatch/internal/board"
	"boardwatch/internal/config"
	"boardwatch/internal/service"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("", true)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	cfg.Export.Dir = t.TempDir()
	return cfg
}

func TestNewApp_WiresStoreAndCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Enabled = true
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = "file:app_wiring?mode=memory&cache=shared"
	cfg.Cache.Driver = "memory"

	a, err := newApp(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newApp err=%v", err)
	}
	defer a.Close()

	if a.store == nil || a.pipeline.Sink == nil {
		t.Fatalf("expected repository sink when db is enabled")
	}
	if a.fetcher.OnPayload == nil {
		t.Fatalf("expected raw snapshot hook")
	}
	if _, ok := a.fetcher.Source.(*board.CachedSource); !ok {
		t.Fatalf("source=%T want *board.CachedSource", a.fetcher.Source)
	}
	if a.pipeline.News == nil {
		t.Fatalf("expected news collector")
	}
	if a.pipeline.TopN != 30 || a.pipeline.MaxLookbackDays != 30 {
		t.Fatalf("top_n=%d lookback=%d", a.pipeline.TopN, a.pipeline.MaxLookbackDays)
	}
}

func TestNewApp_WithoutDB(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = "none"
	cfg.News.Enabled = false

	a, err := newApp(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newApp err=%v", err)
	}
	defer a.Close()
	if a.store != nil || a.pipeline.Sink != nil || a.pipeline.News != nil {
		t.Fatalf("unexpected optional deps: store=%v sink=%v news=%v", a.store, a.pipeline.Sink, a.pipeline.News)
	}
	if _, ok := a.fetcher.Source.(*board.CachedSource); ok {
		t.Fatalf("cache disabled but source is cached")
	}

	engine := newEngine(a, &service.PipelineService{Runner: a.pipeline})
	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, w.Code, w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/board", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("board before any run status=%d want=404", w.Code)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/board", nil))
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight status=%d headers=%v", w.Code, w.Header())
	}
}

func TestVariantsFrom(t *testing.T) {
	got := variantsFrom([]config.VariantConfig{{Category: " pt ", SortField: "jmr"}, {Category: "", SortField: "zdf"}})
	if len(got) != 1 || got[0] != (board.Variant{Category: "pt", SortField: "jmr"}) {
		t.Fatalf("got=%+v", got)
	}
	if variantsFrom(nil) != nil {
		t.Fatalf("empty config should fall back to defaults (nil)")
	}
}

func TestNewApp_BadCacheDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = "memcached"
	if _, err := newApp(cfg, zap.NewNop()); err == nil || !strings.Contains(err.Error(), "memcached") {
		t.Fatalf("err=%v", err)
	}
}
