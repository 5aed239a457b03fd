package store

import (
	"fmt"
	"iter"
	"sort"

	"pixelypse.dev/internal/sim/tiles"
	genpkg "pixelypse.dev/internal/sim/world/terrain/gen"
)

type Bootstrap int

const (
	BootstrapTemplate Bootstrap = iota
	BootstrapGenerate
)

// Grid holds the chunks of one world. It is not safe for concurrent use; the owning loop
// goroutine is the only reader and writer.
type Grid struct {
	geo              Geometry
	seed             uint64
	chunksX, chunksY int
	placeholder      tiles.Code

	chunks    map[ChunkKey]*Chunk
	generated int
}

// NewGrid builds every chunk of [0,chunksX) x [0,chunksY) synchronously.
func NewGrid(geo Geometry, chunksX, chunksY int, seed uint64, mode Bootstrap) (*Grid, error) {
	return NewGridWithPlaceholder(geo, chunksX, chunksY, seed, mode, tiles.PlaceholderCode)
}

// NewGridWithPlaceholder is NewGrid with the code used to fill template chunks.
func NewGridWithPlaceholder(geo Geometry, chunksX, chunksY int, seed uint64, mode Bootstrap, placeholder tiles.Code) (*Grid, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if chunksX <= 0 || chunksY <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyGrid, chunksX, chunksY)
	}
	g := &Grid{
		geo:         geo,
		seed:        seed,
		chunksX:     chunksX,
		chunksY:     chunksY,
		placeholder: placeholder,
		chunks:      make(map[ChunkKey]*Chunk, chunksX*chunksY),
	}
	for cy := 0; cy < chunksY; cy++ {
		for cx := 0; cx < chunksX; cx++ {
			k := ChunkKey{CX: cx, CY: cy}
			switch mode {
			case BootstrapGenerate:
				g.chunks[k] = Generate(geo, k, seed)
				g.generated++
			default:
				g.chunks[k] = Template(geo, k, g.placeholder)
			}
		}
	}
	return g, nil
}

func (g *Grid) Geometry() Geometry { return g.geo }

func (g *Grid) Seed() uint64 { return g.seed }

// Size is the declared area in chunks.
func (g *Grid) Size() (chunksX, chunksY int) { return g.chunksX, g.chunksY }

func (g *Grid) Len() int { return len(g.chunks) }

// GeneratedLen counts stored chunks that are not placeholders.
func (g *Grid) GeneratedLen() int { return g.generated }

// Generated reports whether a chunk with real content is installed at k.
func (g *Grid) Generated(k ChunkKey) bool {
	ch, ok := g.chunks[k]
	return ok && ch != nil && !ch.placeholder
}

// PixelExtent is the declared area in pixels. Streamed chunks outside it do not grow it.
func (g *Grid) PixelExtent() (w, h uint32, err error) {
	if g == nil || g.chunksX <= 0 || g.chunksY <= 0 {
		return 0, 0, ErrEmptyGrid
	}
	p := g.geo.ChunkPixels()
	return uint32(g.chunksX * p), uint32(g.chunksY * p), nil
}

// InBounds reports whether the key lies inside the declared area.
func (g *Grid) InBounds(cx, cy int) bool {
	return cx >= 0 && cy >= 0 && cx < g.chunksX && cy < g.chunksY
}

// ChunkAt returns false for keys that have not been built yet.
func (g *Grid) ChunkAt(cx, cy int) (*Chunk, bool) {
	ch, ok := g.chunks[ChunkKey{CX: cx, CY: cy}]
	return ch, ok && ch != nil
}

// Install replaces whatever chunk is stored at ch.Key. Installing the same chunk twice is a no-op.
func (g *Grid) Install(ch *Chunk) error {
	if ch == nil {
		return fmt.Errorf("install: nil chunk")
	}
	if ch.side != g.geo.ChunkSide || len(ch.tiles) != g.geo.TilesPerChunk() {
		return fmt.Errorf("install: chunk %v side %d does not match grid side %d", ch.Key, ch.side, g.geo.ChunkSide)
	}
	if ch.Origin != g.geo.Origin(ch.Key) {
		return fmt.Errorf("install: chunk %v origin %v is not on the grid", ch.Key, ch.Origin)
	}
	if old, ok := g.chunks[ch.Key]; ok && old != nil && !old.placeholder {
		g.generated--
	}
	if !ch.placeholder {
		g.generated++
	}
	g.chunks[ch.Key] = ch
	return nil
}

// Keys returns the stored keys ordered by CY, then CX.
func (g *Grid) Keys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(g.chunks))
	for k := range g.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CX < keys[j].CX
	})
	return keys
}

// Chunks yields the stored chunks in Keys order.
func (g *Grid) Chunks() iter.Seq[*Chunk] {
	return func(yield func(*Chunk) bool) {
		for _, k := range g.Keys() {
			if !yield(g.chunks[k]) {
				return
			}
		}
	}
}

// TileAt returns the tile covering pixel (px, py), if its chunk is present.
func (g *Grid) TileAt(px, py int) (tiles.Code, bool) {
	k := g.geo.KeyAt(px, py)
	ch, ok := g.ChunkAt(k.CX, k.CY)
	if !ok {
		return 0, false
	}
	lx := genpkg.Mod(px, g.geo.ChunkPixels()) / g.geo.TileSize
	ly := genpkg.Mod(py, g.geo.ChunkPixels()) / g.geo.TileSize
	return ch.Tile(lx, ly), true
}
