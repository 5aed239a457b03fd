package store

import (
	"fmt"

	snapv1 "pixelypse.dev/internal/persistence/snapshot"
)

// ExportGeneratedKeys lists the keys whose installed chunk carries generated content. Tile data
// is not exported; it is a pure function of the seed and is rebuilt on resume.
func ExportGeneratedKeys(g *Grid) []snapv1.ChunkKeyV1 {
	keys := g.Keys()
	out := make([]snapv1.ChunkKeyV1, 0, len(keys))
	for _, k := range keys {
		ch := g.chunks[k]
		if ch == nil || ch.placeholder {
			continue
		}
		out = append(out, snapv1.ChunkKeyV1{CX: k.CX, CY: k.CY})
	}
	return out
}

// ImportKeys converts snapshot keys back to chunk keys, rejecting duplicates.
func ImportKeys(keys []snapv1.ChunkKeyV1) ([]ChunkKey, error) {
	seen := make(map[ChunkKey]struct{}, len(keys))
	out := make([]ChunkKey, 0, len(keys))
	for _, k := range keys {
		ck := ChunkKey{CX: k.CX, CY: k.CY}
		if _, dup := seen[ck]; dup {
			return nil, fmt.Errorf("snapshot chunk key duplicated: %d,%d", k.CX, k.CY)
		}
		seen[ck] = struct{}{}
		out = append(out, ck)
	}
	return out, nil
}
