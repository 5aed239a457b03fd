// Package view selects the chunks and tiles that intersect a camera rectangle.
package view

import (
	"iter"

	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/world/terrain/store"
)

// Rect is a camera in pixel space.
type Rect struct {
	X, Y float64
	W, H float64
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Overlaps uses strict inequalities, so rectangles that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && r.Right() > o.X &&
		r.Y < o.Bottom() && r.Bottom() > o.Y
}

// Point is an absolute pixel position.
type Point = store.Point

type Tile struct {
	Pos  Point
	Code tiles.Code
	Kind tiles.Kind
}

// Source is the read side of a world grid.
type Source interface {
	Geometry() store.Geometry
	Chunks() iter.Seq[*store.Chunk]
}

// ChunkBounds is the pixel rectangle covered by ch.
func ChunkBounds(geo store.Geometry, ch *store.Chunk) Rect {
	p := float64(geo.ChunkPixels())
	return Rect{X: float64(ch.Origin.X), Y: float64(ch.Origin.Y), W: p, H: p}
}

// VisibleChunks yields every stored chunk whose bounds overlap cam.
func VisibleChunks(src Source, cam Rect) iter.Seq[*store.Chunk] {
	return func(yield func(*store.Chunk) bool) {
		geo := src.Geometry()
		for ch := range src.Chunks() {
			if !ChunkBounds(geo, ch).Overlaps(cam) {
				continue
			}
			if !yield(ch) {
				return
			}
		}
	}
}

// VisibleTiles yields every tile of every visible chunk in row-major order. Tiles are not
// clipped individually; a surviving chunk contributes all of its tiles.
func VisibleTiles(src Source, cam Rect) iter.Seq[Tile] {
	return func(yield func(Tile) bool) {
		geo := src.Geometry()
		for ch := range VisibleChunks(src, cam) {
			side := ch.Side()
			for y := 0; y < side; y++ {
				for x := 0; x < side; x++ {
					code := ch.Tile(x, y)
					t := Tile{
						Pos: Point{
							X: ch.Origin.X + x*geo.TileSize,
							Y: ch.Origin.Y + y*geo.TileSize,
						},
						Code: code,
						Kind: tiles.Classify(code),
					}
					if !yield(t) {
						return
					}
				}
			}
		}
	}
}

// Follow centres a viewW x viewH camera on target and clamps it inside the world extent.
// A view larger than the extent is pinned to the origin on that axis.
func Follow(target Point, viewW, viewH float64, extentW, extentH uint32) Rect {
	return Rect{
		X: clampAxis(float64(target.X)-viewW/2, viewW, float64(extentW)),
		Y: clampAxis(float64(target.Y)-viewH/2, viewH, float64(extentH)),
		W: viewW,
		H: viewH,
	}
}

func clampAxis(pos, view, extent float64) float64 {
	if pos > extent-view {
		pos = extent - view
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}
