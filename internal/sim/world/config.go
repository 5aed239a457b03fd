package world

import (
	"fmt"

	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/world/terrain/store"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Seed       uint64

	ChunkSide int
	TileSize  int
	ChunksX   int
	ChunksY   int

	Bootstrap       store.Bootstrap
	PlaceholderCode tiles.Code

	// Generation pipeline.
	WorkerQueue         int
	StreamMargin        int
	MaxChunksPerRequest int

	// Operational parameters. These are included in snapshots for resume.
	SnapshotEveryTicks int

	// Observers.
	ObserverMaxChunksPerTick int
	ObserverSendQueue        int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.ChunkSide == 0 {
		c.ChunkSide = 8
	}
	if c.TileSize == 0 {
		c.TileSize = 32
	}
	if c.PlaceholderCode == 0 {
		c.PlaceholderCode = tiles.PlaceholderCode
	}
	if c.WorkerQueue <= 0 {
		c.WorkerQueue = 4
	}
	if c.StreamMargin < 0 {
		c.StreamMargin = 0
	}
	if c.MaxChunksPerRequest <= 0 {
		c.MaxChunksPerRequest = 64
	}
	if c.ObserverMaxChunksPerTick <= 0 {
		c.ObserverMaxChunksPerTick = 16
	}
	if c.ObserverSendQueue <= 0 {
		c.ObserverSendQueue = 64
	}
}

func (c WorldConfig) Geometry() store.Geometry {
	return store.Geometry{ChunkSide: c.ChunkSide, TileSize: c.TileSize}
}

func (c WorldConfig) validate() error {
	if err := c.Geometry().Validate(); err != nil {
		return err
	}
	if c.ChunksX <= 0 || c.ChunksY <= 0 {
		return fmt.Errorf("%w: %dx%d", store.ErrEmptyGrid, c.ChunksX, c.ChunksY)
	}
	switch c.Bootstrap {
	case store.BootstrapTemplate, store.BootstrapGenerate:
	default:
		return fmt.Errorf("unknown bootstrap mode %d", c.Bootstrap)
	}
	return nil
}

// ParseBootstrap maps the tuning names "template" and "generate" to a bootstrap mode.
func ParseBootstrap(s string) (store.Bootstrap, error) {
	switch s {
	case "", "template":
		return store.BootstrapTemplate, nil
	case "generate":
		return store.BootstrapGenerate, nil
	default:
		return 0, fmt.Errorf("unknown bootstrap mode %q", s)
	}
}

func bootstrapName(b store.Bootstrap) string {
	if b == store.BootstrapGenerate {
		return "generate"
	}
	return "template"
}
