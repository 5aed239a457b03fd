package world

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pixelypse.dev/internal/persistence/snapshot"
	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/world/terrain/store"
	"pixelypse.dev/internal/sim/world/terrain/worker"
	"pixelypse.dev/internal/sim/world/view"
)

func newTestWorld(t *testing.T, mut func(*WorldConfig)) *World {
	t.Helper()
	cfg := WorldConfig{
		ID:         "test",
		TickRateHz: 50,
		Seed:       42,
		ChunkSide:  8,
		TileSize:   16,
		ChunksX:    2,
		ChunksY:    2,
	}
	if mut != nil {
		mut(&cfg)
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func stepUntil(t *testing.T, w *World, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline (tick %d)", w.CurrentTick())
		}
		if err := w.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(WorldConfig{ChunkSide: 8, TileSize: 16, ChunksX: 0, ChunksY: 2}); !errors.Is(err, store.ErrEmptyGrid) {
		t.Fatalf("expected ErrEmptyGrid, got %v", err)
	}
	if _, err := New(WorldConfig{ChunkSide: -1, TileSize: 16, ChunksX: 2, ChunksY: 2}); !errors.Is(err, store.ErrBadGeometry) {
		t.Fatalf("expected ErrBadGeometry, got %v", err)
	}
}

func TestWorldScenario(t *testing.T) {
	w := newTestWorld(t, nil)

	pw, ph, err := w.PixelExtent()
	if err != nil || pw != 256 || ph != 256 {
		t.Fatalf("extent: %d,%d err=%v", pw, ph, err)
	}

	sawOrigin := false
	for tile := range w.VisibleTiles(view.Rect{X: 0, Y: 0, W: 100, H: 100}) {
		if tile.Pos == (view.Point{X: 0, Y: 0}) {
			sawOrigin = true
		}
		if tile.Pos.X >= 128 || tile.Pos.Y >= 128 {
			t.Fatalf("tile %+v belongs to a chunk off camera", tile.Pos)
		}
	}
	if !sawOrigin {
		t.Fatalf("tile at (0,0) not visible")
	}

	kind, ok := w.TileAt(5, 5)
	if !ok || kind != tiles.Classify(tiles.PlaceholderCode) {
		t.Fatalf("TileAt on template chunk: %v %v", kind, ok)
	}
	if _, ok := w.TileAt(300, 5); ok {
		t.Fatalf("TileAt outside the grid should miss")
	}
}

func TestRequestChunksInstallsGeneratedContent(t *testing.T) {
	w := newTestWorld(t, nil)
	keys := []store.ChunkKey{{CX: 1, CY: 1}, {CX: 5, CY: 5}, {CX: -2, CY: 0}}
	if err := w.RequestChunks(keys); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := w.RequestChunks(keys); err != nil {
		t.Fatalf("request again: %v", err)
	}
	if w.PendingChunks() != len(keys) {
		t.Fatalf("duplicate request was queued: pending=%d", w.PendingChunks())
	}

	stepUntil(t, w, func() bool { return w.PendingChunks() == 0 })

	for _, k := range keys {
		ch, ok := w.ChunkAt(k.CX, k.CY)
		if !ok || ch.Placeholder() {
			t.Fatalf("chunk %v not installed", k)
		}
		if ch.Digest() != store.Generate(w.Geometry(), k, 42).Digest() {
			t.Fatalf("chunk %v differs from direct generation", k)
		}
	}
	if pw, ph, _ := w.PixelExtent(); pw != 256 || ph != 256 {
		t.Fatalf("extent grew to %d,%d", pw, ph)
	}

	if err := w.RequestChunks(keys); err != nil {
		t.Fatalf("request generated: %v", err)
	}
	if w.PendingChunks() != 0 {
		t.Fatalf("generated chunks were requested again")
	}
}

func TestPollGeneratedChunksNonBlocking(t *testing.T) {
	w := newTestWorld(t, nil)
	got, err := w.PollGeneratedChunks()
	if err != nil || got != nil {
		t.Fatalf("expected nothing ready, got %v err=%v", got, err)
	}
}

func TestBacklogRetriedWhenQueueFull(t *testing.T) {
	w := newTestWorld(t, func(c *WorldConfig) { c.WorkerQueue = 1 })
	for i := 0; i < 6; i++ {
		if err := w.RequestChunks([]store.ChunkKey{{CX: 10 + i, CY: 0}}); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	stepUntil(t, w, func() bool { return w.PendingChunks() == 0 })
	for i := 0; i < 6; i++ {
		if _, ok := w.ChunkAt(10+i, 0); !ok {
			t.Fatalf("chunk %d missing", 10+i)
		}
	}
	m := w.Metrics()
	if m.InstalledTotal != 6 || m.Backlog != 0 || m.InFlight != 0 {
		t.Fatalf("metrics: %+v", m)
	}
}

func TestStepAfterCloseFails(t *testing.T) {
	w := newTestWorld(t, nil)
	w.Close()
	if err := w.Step(); !errors.Is(err, worker.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := w.RequestChunks([]store.ChunkKey{{CX: 0, CY: 0}}); !errors.Is(err, worker.ErrClosed) {
		t.Fatalf("expected ErrClosed from request, got %v", err)
	}
}

func TestResponseWithoutRequestIsMismatch(t *testing.T) {
	w := newTestWorld(t, nil)
	if err := w.RequestChunks([]store.ChunkKey{{CX: 0, CY: 0}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	w.inflight = nil
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, err := w.PollGeneratedChunks()
		if errors.Is(err, ErrResponseMismatch) {
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("mismatch not reported")
}

type memTickLogger struct {
	mu      sync.Mutex
	entries []TickLogEntry
}

func (l *memTickLogger) WriteTick(e TickLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return nil
}

func TestTickLogRecordsActiveTicks(t *testing.T) {
	w := newTestWorld(t, nil)
	logger := &memTickLogger{}
	w.SetTickLogger(logger)

	if err := w.Step(); err != nil {
		t.Fatalf("idle step: %v", err)
	}
	if len(logger.entries) != 0 {
		t.Fatalf("idle tick was logged")
	}
	if err := w.RequestChunks([]store.ChunkKey{{CX: 1, CY: 0}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	stepUntil(t, w, func() bool { return w.PendingChunks() == 0 })

	var requested, installed int
	for _, e := range logger.entries {
		requested += len(e.Requested)
		installed += len(e.Installed)
	}
	if requested != 1 || installed != 1 {
		t.Fatalf("requested=%d installed=%d", requested, installed)
	}
	last := logger.entries[len(logger.entries)-1]
	if len(last.Installed) != 1 || len(last.Installed[0].Digest) != 64 {
		t.Fatalf("installed record: %+v", last.Installed)
	}
}

type failingTickLogger struct{}

func (failingTickLogger) WriteTick(TickLogEntry) error { return errors.New("disk full") }

func TestTickLogErrorsAreCounted(t *testing.T) {
	w := newTestWorld(t, nil)
	w.SetTickLogger(failingTickLogger{})

	if err := w.RequestChunks([]store.ChunkKey{{CX: 0, CY: 0}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	stepUntil(t, w, func() bool { return w.PendingChunks() == 0 })
	if got := w.Metrics().TickLogErrors; got == 0 {
		t.Fatalf("tick log errors not counted")
	}
	if w.Metrics().GeneratedChunks != 1 {
		t.Fatalf("world stopped installing after a log failure")
	}
}

func TestSnapshotResumeRegeneratesChunks(t *testing.T) {
	w := newTestWorld(t, nil)
	if err := w.RequestChunks([]store.ChunkKey{{CX: 0, CY: 1}, {CX: 7, CY: -3}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	stepUntil(t, w, func() bool { return w.PendingChunks() == 0 })
	if err := w.RequestChunks([]store.ChunkKey{{CX: 1, CY: 1}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	snap := w.ExportSnapshot(w.CurrentTick())
	if len(snap.Generated) != 2 {
		t.Fatalf("generated keys: %+v", snap.Generated)
	}

	cfg, err := ConfigFromSnapshot(WorldConfig{TickRateHz: 50}, snap)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	w2, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(w2.Close)
	if err := w2.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if w2.CurrentTick() != snap.Header.Tick+1 {
		t.Fatalf("tick: %d", w2.CurrentTick())
	}
	for _, k := range []store.ChunkKey{{CX: 0, CY: 1}, {CX: 7, CY: -3}} {
		a, _ := w.ChunkAt(k.CX, k.CY)
		b, ok := w2.ChunkAt(k.CX, k.CY)
		if !ok || a.Digest() != b.Digest() {
			t.Fatalf("chunk %v not restored", k)
		}
	}
	stepUntil(t, w2, func() bool { return w2.PendingChunks() == 0 })
	if ch, _ := w2.ChunkAt(1, 1); ch.Placeholder() {
		t.Fatalf("pending chunk not regenerated after resume")
	}
}

func TestImportSnapshotRejectsMismatch(t *testing.T) {
	w := newTestWorld(t, nil)
	snap := w.ExportSnapshot(0)
	snap.Seed = 7
	if err := w.ImportSnapshot(snap); err == nil {
		t.Fatalf("expected seed mismatch")
	}
	snap = w.ExportSnapshot(0)
	snap.Header.Version = 2
	if err := w.ImportSnapshot(snap); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return")
	}
	if w.CurrentTick() == 0 {
		t.Fatalf("run did not advance the world")
	}
}

func TestRunServesAdminSnapshot(t *testing.T) {
	w := newTestWorld(t, nil)
	sink := make(chan snapshot.SnapshotV1, 1)
	w.SetSnapshotSink(sink)
	if err := w.RequestAround(view.Rect{X: 0, Y: 0, W: 100, H: 100}, 0); err != nil {
		t.Fatalf("request: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()
	res, err := w.RequestSnapshot(reqCtx)
	if err != nil {
		t.Fatalf("request snapshot: %v", err)
	}
	if res.Generated+res.Pending != 1 {
		t.Fatalf("one chunk should be generated or pending: %+v", res)
	}
	select {
	case snap := <-sink:
		if snap.Seed != 42 || snap.ChunksX != 2 {
			t.Fatalf("snapshot: %+v", snap)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no snapshot delivered")
	}
	w.Stop()
	w.Stop()
}

func TestRequestAroundSkipsOutOfBounds(t *testing.T) {
	w := newTestWorld(t, nil)
	if err := w.RequestAround(view.Rect{X: 0, Y: 0, W: 100, H: 100}, 0); err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := w.PendingChunks(); got != 1 {
		t.Fatalf("pending=%d want=1", got)
	}

	wide := newTestWorld(t, func(c *WorldConfig) { c.StreamMargin = 1 })
	if err := wide.RequestAround(view.Rect{X: 0, Y: 0, W: 100, H: 100}, 0); err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := wide.PendingChunks(); got != 4 {
		t.Fatalf("pending with margin=%d want=4", got)
	}
	stepUntil(t, wide, func() bool { return wide.PendingChunks() == 0 })
	for cy := 0; cy < 2; cy++ {
		for cx := 0; cx < 2; cx++ {
			ch, ok := wide.ChunkAt(cx, cy)
			if !ok || ch.Placeholder() {
				t.Fatalf("chunk %d,%d not generated", cx, cy)
			}
		}
	}
}
