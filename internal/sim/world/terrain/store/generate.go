package store

import (
	"pixelypse.dev/internal/sim/tiles"
	genpkg "pixelypse.dev/internal/sim/world/terrain/gen"
)

// Generator builds the content for one chunk key.
type Generator func(k ChunkKey) *Chunk

// Template returns a chunk uniformly filled with code. It is cheap enough to bootstrap a world
// before real generation has run.
func Template(geo Geometry, k ChunkKey, code tiles.Code) *Chunk {
	buf := make([]tiles.Code, geo.TilesPerChunk())
	for i := range buf {
		buf[i] = code
	}
	return newChunk(geo, k, buf, true)
}

// Generate fills the chunk deterministically from (seed, k.CX, k.CY).
func Generate(geo Geometry, k ChunkKey, seed uint64) *Chunk {
	buf := make([]tiles.Code, geo.TilesPerChunk())
	genpkg.FillTiles(genpkg.ChunkSeed(seed, k.CX, k.CY), buf)
	return newChunk(geo, k, buf, false)
}

// SeededGenerator binds Generate to a geometry and seed.
func SeededGenerator(geo Geometry, seed uint64) Generator {
	return func(k ChunkKey) *Chunk {
		return Generate(geo, k, seed)
	}
}
