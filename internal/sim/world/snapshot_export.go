package world

import (
	"sort"

	"pixelypse.dev/internal/persistence/snapshot"
	"pixelypse.dev/internal/sim/world/terrain/store"
)

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	// Snapshot must be called from the world loop goroutine.
	pending := make([]store.ChunkKey, 0, len(w.pending))
	for k := range w.pending {
		pending = append(pending, k)
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CY != pending[j].CY {
			return pending[i].CY < pending[j].CY
		}
		return pending[i].CX < pending[j].CX
	})
	pendingSnaps := make([]snapshot.ChunkKeyV1, 0, len(pending))
	for _, k := range pending {
		pendingSnaps = append(pendingSnaps, snapshot.ChunkKeyV1{CX: k.CX, CY: k.CY})
	}

	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:               w.cfg.Seed,
		TickRate:           w.cfg.TickRateHz,
		ChunkSide:          w.cfg.ChunkSide,
		TileSize:           w.cfg.TileSize,
		ChunksX:            w.cfg.ChunksX,
		ChunksY:            w.cfg.ChunksY,
		Bootstrap:          bootstrapName(w.cfg.Bootstrap),
		PlaceholderCode:    uint16(w.cfg.PlaceholderCode),
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		Generated:          store.ExportGeneratedKeys(w.grid),
		Pending:            pendingSnaps,
	}
}
