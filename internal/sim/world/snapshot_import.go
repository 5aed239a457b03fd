package world

import (
	"fmt"

	"pixelypse.dev/internal/persistence/snapshot"
	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/world/terrain/store"
)

// ConfigFromSnapshot overlays the world-defining parameters of s onto base.
func ConfigFromSnapshot(base WorldConfig, s snapshot.SnapshotV1) (WorldConfig, error) {
	cfg := base
	mode, err := ParseBootstrap(s.Bootstrap)
	if err != nil {
		return cfg, fmt.Errorf("snapshot: %w", err)
	}
	if s.Header.WorldID != "" {
		cfg.ID = s.Header.WorldID
	}
	cfg.Seed = s.Seed
	cfg.ChunkSide = s.ChunkSide
	cfg.TileSize = s.TileSize
	cfg.ChunksX = s.ChunksX
	cfg.ChunksY = s.ChunksY
	cfg.Bootstrap = mode
	cfg.PlaceholderCode = tiles.Code(s.PlaceholderCode)
	if s.TickRate > 0 {
		cfg.TickRateHz = s.TickRate
	}
	if s.SnapshotEveryTicks > 0 {
		cfg.SnapshotEveryTicks = s.SnapshotEveryTicks
	}
	return cfg, nil
}

// ImportSnapshot regenerates the chunks recorded as generated and re-requests the ones that
// were pending. It sets the world's tick to snapshotTick+1 (the next tick to simulate).
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version: %d", s.Header.Version)
	}
	if w.cfg.Seed != s.Seed {
		return fmt.Errorf("snapshot seed mismatch: cfg=%d snap=%d", w.cfg.Seed, s.Seed)
	}
	if w.cfg.ChunkSide != s.ChunkSide || w.cfg.TileSize != s.TileSize {
		return fmt.Errorf("snapshot geometry mismatch: cfg=%d/%d snap=%d/%d", w.cfg.ChunkSide, w.cfg.TileSize, s.ChunkSide, s.TileSize)
	}
	if w.cfg.ChunksX != s.ChunksX || w.cfg.ChunksY != s.ChunksY {
		return fmt.Errorf("snapshot area mismatch: cfg=%dx%d snap=%dx%d", w.cfg.ChunksX, w.cfg.ChunksY, s.ChunksX, s.ChunksY)
	}

	generated, err := store.ImportKeys(s.Generated)
	if err != nil {
		return err
	}
	pending, err := store.ImportKeys(s.Pending)
	if err != nil {
		return err
	}

	geo := w.cfg.Geometry()
	for _, k := range generated {
		if err := w.grid.Install(store.Generate(geo, k, w.cfg.Seed)); err != nil {
			return fmt.Errorf("snapshot chunk %d,%d: %w", k.CX, k.CY, err)
		}
	}
	if err := w.RequestChunks(pending); err != nil {
		return err
	}

	w.tick.Store(s.Header.Tick + 1)
	w.publishMetrics(0)
	return nil
}
