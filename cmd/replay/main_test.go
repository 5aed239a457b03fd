package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	persistlog "pixelypse.dev/internal/persistence/log"
	"pixelypse.dev/internal/sim/world"
	"pixelypse.dev/internal/sim/world/terrain/store"
)

func TestVerifyFiles_RegeneratedDigestsMatchLog(t *testing.T) {
	worldDir := t.TempDir()
	l := persistlog.NewTickLogger(worldDir)
	w, err := world.New(world.WorldConfig{Seed: 42, ChunkSide: 8, TileSize: 16, ChunksX: 2, ChunksY: 2})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	defer w.Close()
	w.SetTickLogger(l)

	if err := w.RequestChunks([]store.ChunkKey{{CX: 0, CY: 0}, {CX: 1, CY: 1}, {CX: 5, CY: 5}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	for i := 0; i < 5000 && w.PendingChunks() > 0; i++ {
		if err := w.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	if w.PendingChunks() != 0 {
		t.Fatalf("chunks still pending")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	files, err := listEventFiles(filepath.Join(worldDir, "events"))
	if err != nil || len(files) == 0 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	geo := store.Geometry{ChunkSide: 8, TileSize: 16}
	checked, err := verifyFiles(geo, 42, files, 0, 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if checked != 3 {
		t.Fatalf("checked=%d want=3", checked)
	}

	_, err = verifyFiles(geo, 43, files, 0, 0)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("wrong seed should fail, got %v", err)
	}
}
