package store

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"pixelypse.dev/internal/sim/tiles"
	genpkg "pixelypse.dev/internal/sim/world/terrain/gen"
)

var (
	ErrBadGeometry = errors.New("store: chunk side and tile size must be positive")
	ErrEmptyGrid   = errors.New("store: world grid has no chunks on an axis")
)

type ChunkKey struct {
	CX int
	CY int
}

// Point is an absolute pixel position.
type Point struct {
	X int
	Y int
}

// Geometry fixes the chunk edge length in tiles and the tile edge length in pixels.
type Geometry struct {
	ChunkSide int
	TileSize  int
}

func (g Geometry) Validate() error {
	if g.ChunkSide <= 0 || g.TileSize <= 0 {
		return ErrBadGeometry
	}
	return nil
}

func (g Geometry) ChunkPixels() int { return g.ChunkSide * g.TileSize }

func (g Geometry) TilesPerChunk() int { return g.ChunkSide * g.ChunkSide }

// Origin is the pixel position of the chunk's top-left tile.
func (g Geometry) Origin(k ChunkKey) Point {
	p := g.ChunkPixels()
	return Point{X: k.CX * p, Y: k.CY * p}
}

// KeyAt returns the key of the chunk covering pixel (px, py).
func (g Geometry) KeyAt(px, py int) ChunkKey {
	p := g.ChunkPixels()
	return ChunkKey{CX: genpkg.FloorDiv(px, p), CY: genpkg.FloorDiv(py, p)}
}

// Chunk is immutable once built. Regeneration installs a new Chunk instead of editing tiles.
type Chunk struct {
	Key    ChunkKey
	Origin Point

	side        int
	tiles       []tiles.Code // len = side*side, row-major
	placeholder bool
	hash        [32]byte
}

func newChunk(geo Geometry, k ChunkKey, buf []tiles.Code, placeholder bool) *Chunk {
	c := &Chunk{
		Key:         k,
		Origin:      geo.Origin(k),
		side:        geo.ChunkSide,
		tiles:       buf,
		placeholder: placeholder,
	}
	h := sha256.New()
	var tmp [2]byte
	for _, v := range buf {
		binary.LittleEndian.PutUint16(tmp[:], uint16(v))
		h.Write(tmp[:])
	}
	copy(c.hash[:], h.Sum(nil))
	return c
}

func (c *Chunk) index(x, y int) int {
	return x + y*c.side
}

func (c *Chunk) Side() int { return c.side }

func (c *Chunk) Tile(x, y int) tiles.Code {
	return c.tiles[c.index(x, y)]
}

// Tiles returns a copy of the row-major tile grid.
func (c *Chunk) Tiles() []tiles.Code {
	out := make([]tiles.Code, len(c.tiles))
	copy(out, c.tiles)
	return out
}

func (c *Chunk) Placeholder() bool { return c.placeholder }

func (c *Chunk) Digest() [32]byte { return c.hash }
