package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixelypse.dev/internal/sim/tuning"
	"pixelypse.dev/internal/sim/world"
	"pixelypse.dev/internal/sim/world/terrain/store"
	"pixelypse.dev/internal/transport/observer"
)

func runTestWorld(t *testing.T) *world.World {
	t.Helper()
	tune := tuning.Defaults()
	tune.TickRateHz = 50
	tune.World.ChunksX = 2
	tune.World.ChunksY = 2
	cfg, err := worldConfigFromTuning("test", 7, tune)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return w
}

func TestWorldConfigFromTuning(t *testing.T) {
	tune := tuning.Defaults()
	tune.World.Bootstrap = "generate"
	cfg, err := worldConfigFromTuning("w", 99, tune)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Bootstrap != store.BootstrapGenerate || cfg.Seed != 99 || cfg.ChunkSide != 8 || cfg.TileSize != 32 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.MaxChunksPerRequest != tune.Stream.MaxChunksPerRequest || cfg.StreamMargin != tune.Stream.MarginChunks {
		t.Fatalf("stream settings not carried: %+v", cfg)
	}

	tune.World.Bootstrap = "lazy"
	if _, err := worldConfigFromTuning("w", 1, tune); err == nil {
		t.Fatalf("expected error for unknown bootstrap mode")
	}
}

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	if got := latestSnapshot(dir); got != "" {
		t.Fatalf("empty dir: got %q", got)
	}
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"9.snap.zst", "120.snap.zst", "30.snap.zst", "notes.txt", "x.snap.zst"} {
		if err := os.WriteFile(filepath.Join(snaps, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := latestSnapshot(dir), filepath.Join(snaps, "120.snap.zst"); got != want {
		t.Fatalf("latest=%q want=%q", got, want)
	}
}

func TestMux_HealthAndMetrics(t *testing.T) {
	w := runTestWorld(t)
	mux := newMux(w, observer.NewServer(w, nil), nil, muxOptions{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`pixelypse_world_tick{world="test"}`,
		`pixelypse_world_chunks{world="test",state="all"} 4`,
		`pixelypse_observer_sessions{world="test"} 0`,
		`pixelypse_tick_log_errors_total{world="test"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("admin disabled: status=%d", rec.Code)
	}
}

func TestMux_AdminEndpoints(t *testing.T) {
	w := runTestWorld(t)
	mux := newMux(w, nil, nil, muxOptions{EnableAdmin: true})

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "203.0.113.5:1000"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote state: status=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "127.0.0.1:1000"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	var st struct {
		WorldID    string `json:"world_id"`
		Seed       uint64 `json:"seed"`
		PixelWidth uint32 `json:"pixel_width"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.WorldID != "test" || st.Seed != 7 || st.PixelWidth != 512 {
		t.Fatalf("unexpected state: %+v", st)
	}

	// No snapshot sink is configured, so the world loop reports failure.
	req = httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "127.0.0.1:1000"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("snapshot without sink: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap["ok"] != false || snap["error"] == nil {
		t.Fatalf("unexpected snapshot body: %v", snap)
	}
	if _, ok := snap["generated_chunks"]; !ok {
		t.Fatalf("snapshot body missing generated_chunks: %v", snap)
	}
	if _, ok := snap["pending_chunks"]; !ok {
		t.Fatalf("snapshot body missing pending_chunks: %v", snap)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "127.0.0.1:1000"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET snapshot: status=%d", rec.Code)
	}
}
