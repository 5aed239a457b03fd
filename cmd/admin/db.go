package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	tick := fs.Uint64("tick", 0, "upper tick bound for chunks (optional; defaults to latest snapshot)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	var rows []any
	switch q {
	case "snapshots":
		rs, err := querySnapshots(db, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rs {
			rows = append(rows, r)
		}
	case "chunks":
		upTo := *tick
		if upTo == 0 {
			lt, err := latestSnapshotTick(db)
			if err != nil {
				fmt.Fprintln(os.Stderr, "latest tick:", err)
				os.Exit(1)
			}
			upTo = lt
		}
		rs, err := queryChunks(db, upTo, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rs {
			rows = append(rows, r)
		}
	case "ticks":
		rs, err := queryTicks(db, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rs {
			rows = append(rows, r)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] [-tick T] snapshots|chunks|ticks")
		os.Exit(2)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

type snapshotRow struct {
	Tick      int64  `json:"tick"`
	Path      string `json:"path"`
	Seed      uint64 `json:"seed"`
	ChunkSide int    `json:"chunk_side"`
	TileSize  int    `json:"tile_size"`
	ChunksX   int    `json:"chunks_x"`
	ChunksY   int    `json:"chunks_y"`
	Generated int    `json:"generated"`
	Pending   int    `json:"pending"`
}

func querySnapshots(db *sql.DB, limit int) ([]snapshotRow, error) {
	rows, err := db.Query(`SELECT tick,path,seed,chunk_side,tile_size,chunks_x,chunks_y,generated,pending FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []snapshotRow
	for rows.Next() {
		var r snapshotRow
		var seed string
		if err := rows.Scan(&r.Tick, &r.Path, &seed, &r.ChunkSide, &r.TileSize, &r.ChunksX, &r.ChunksY, &r.Generated, &r.Pending); err != nil {
			return nil, err
		}
		if r.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("snapshot %d seed: %w", r.Tick, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type chunkRow struct {
	CX     int    `json:"cx"`
	CY     int    `json:"cy"`
	Tick   int64  `json:"tick"`
	Digest string `json:"digest"`
}

// queryChunks lists the latest install per chunk at or before upTo (0 = no bound).
func queryChunks(db *sql.DB, upTo uint64, limit int) ([]chunkRow, error) {
	bound := int64(upTo)
	if upTo == 0 {
		bound = -1
	}
	rows, err := db.Query(`
		SELECT c.cx, c.cy, c.tick, c.digest FROM chunk_installs c
		JOIN (
			SELECT cx, cy, MAX(tick) AS tick FROM chunk_installs
			WHERE (? < 0 OR tick <= ?)
			GROUP BY cx, cy
		) m ON m.cx = c.cx AND m.cy = c.cy AND m.tick = c.tick
		ORDER BY c.cy, c.cx LIMIT ?`, bound, bound, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []chunkRow
	for rows.Next() {
		var r chunkRow
		if err := rows.Scan(&r.CX, &r.CY, &r.Tick, &r.Digest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type tickRow struct {
	Tick      int64 `json:"tick"`
	Requested int   `json:"requested"`
	Installed int   `json:"installed"`
	Chunks    int   `json:"chunks"`
}

func queryTicks(db *sql.DB, limit int) ([]tickRow, error) {
	rows, err := db.Query(`SELECT tick,requested,installed,chunks FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tickRow
	for rows.Next() {
		var r tickRow
		if err := rows.Scan(&r.Tick, &r.Requested, &r.Installed, &r.Chunks); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func latestSnapshotTick(db *sql.DB) (uint64, error) {
	if db == nil {
		return 0, fmt.Errorf("nil db")
	}
	var t int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(tick),0) FROM snapshots`).Scan(&t); err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, nil
	}
	return uint64(t), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
