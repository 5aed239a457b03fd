package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/tuning"
	"pixelypse.dev/internal/sim/world"
)

func worldConfigFromTuning(id string, seed uint64, tune tuning.Tuning) (world.WorldConfig, error) {
	mode, err := world.ParseBootstrap(tune.World.Bootstrap)
	if err != nil {
		return world.WorldConfig{}, err
	}
	return world.WorldConfig{
		ID:                       id,
		TickRateHz:               tune.TickRateHz,
		Seed:                     seed,
		ChunkSide:                tune.World.ChunkSide,
		TileSize:                 tune.World.TileSize,
		ChunksX:                  tune.World.ChunksX,
		ChunksY:                  tune.World.ChunksY,
		Bootstrap:                mode,
		PlaceholderCode:          tiles.Code(tune.World.PlaceholderCode),
		WorkerQueue:              tune.Stream.WorkerQueue,
		StreamMargin:             tune.Stream.MarginChunks,
		MaxChunksPerRequest:      tune.Stream.MaxChunksPerRequest,
		SnapshotEveryTicks:       tune.SnapshotEveryTicks,
		ObserverMaxChunksPerTick: tune.Observer.MaxChunksPerTick,
		ObserverSendQueue:        tune.Observer.SendQueue,
	}, nil
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
