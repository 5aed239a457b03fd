package gen

import (
	"math/rand/v2"

	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/world/logic/mathx"
)

func FloorDiv(a, b int) int {
	return mathx.FloorDiv(a, b)
}

func Mod(a, b int) int {
	return mathx.Mod(a, b)
}

// ChunkSeed derives the per-chunk stream seed from the world seed and chunk coordinate.
func ChunkSeed(seed uint64, cx, cy int) uint64 {
	return mathx.Hash2(seed, cx, cy)
}

// FillTiles draws every tile independently and uniformly from [0, tiles.Count).
func FillTiles(chunkSeed uint64, buf []tiles.Code) {
	r := rand.New(rand.NewPCG(chunkSeed, chunkSeed^0xda942042e4dd58b5))
	for i := range buf {
		buf[i] = tiles.Code(r.IntN(tiles.Count))
	}
}
