package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	persistlog "pixelypse.dev/internal/persistence/log"
	"pixelypse.dev/internal/persistence/snapshot"
	"pixelypse.dev/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "snapshot":
			snapshotSummaryCmd(os.Args[2:])
			return
		case "ticks":
			ticksCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "save":
			saveCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

type snapshotSummary struct {
	Path      string `json:"path"`
	WorldID   string `json:"world_id"`
	Tick      uint64 `json:"tick"`
	Seed      uint64 `json:"seed"`
	ChunkSide int    `json:"chunk_side"`
	TileSize  int    `json:"tile_size"`
	ChunksX   int    `json:"chunks_x"`
	ChunksY   int    `json:"chunks_y"`
	Bootstrap string `json:"bootstrap"`
	Generated int    `json:"generated"`
	Pending   int    `json:"pending"`
	Coverage  string `json:"coverage"`
}

func summarize(path string, s snapshot.SnapshotV1) snapshotSummary {
	area := s.ChunksX * s.ChunksY
	cov := "0%"
	if area > 0 {
		cov = fmt.Sprintf("%.1f%%", 100*float64(len(s.Generated))/float64(area))
	}
	return snapshotSummary{
		Path:      path,
		WorldID:   s.Header.WorldID,
		Tick:      s.Header.Tick,
		Seed:      s.Seed,
		ChunkSide: s.ChunkSide,
		TileSize:  s.TileSize,
		ChunksX:   s.ChunksX,
		ChunksY:   s.ChunksY,
		Bootstrap: s.Bootstrap,
		Generated: len(s.Generated),
		Pending:   len(s.Pending),
		Coverage:  cov,
	}
}

func snapshotSummaryCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world_1", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		path = latestSnapshot(filepath.Join(*dataDir, "worlds", *worldID))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	printJSON(summarize(path, snap))
}

// ticksCmd prints the tick log entries in [since, to] from the compressed event files.
func ticksCmd(args []string) {
	fs := flag.NewFlagSet("ticks", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world_1", "world id")
	since := fs.Uint64("since_tick", 0, "first tick (inclusive)")
	to := fs.Uint64("to_tick", 0, "last tick (inclusive, 0 = no limit)")
	_ = fs.Parse(args)

	entries, err := readTicks(filepath.Join(*dataDir, "worlds", *worldID), *since, *to)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read ticks:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		printJSON(e)
	}
}

func readTicks(worldDir string, since, to uint64) ([]world.TickLogEntry, error) {
	files, err := filepath.Glob(filepath.Join(worldDir, "events", "chunks-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	var out []world.TickLogEntry
	for _, path := range files {
		err := persistlog.ReadJSONL(path, func(line []byte) error {
			var e world.TickLogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return err
			}
			if e.Tick < since || (to != 0 && e.Tick > to) {
				return nil
			}
			out = append(out, e)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
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
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
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
