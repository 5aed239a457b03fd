// Package stream decides which chunks should be requested around a camera.
package stream

import (
	"math"
	"sort"

	"pixelypse.dev/internal/sim/world/logic/mathx"
	"pixelypse.dev/internal/sim/world/terrain/store"
	"pixelypse.dev/internal/sim/world/view"
)

// chunkLimit bounds chunk coordinates on either axis. Cameras entirely beyond it want nothing.
const chunkLimit = 1 << 30

// WantedChunks returns the keys of chunks overlapping cam, widened by margin chunks on every
// side, nearest to the camera centre first. At most maxChunks keys are returned.
func WantedChunks(geo store.Geometry, cam view.Rect, margin int, maxChunks int) []store.ChunkKey {
	if !finite(cam.X) || !finite(cam.Y) || !finite(cam.W) || !finite(cam.H) {
		return nil
	}
	if cam.W <= 0 || cam.H <= 0 || geo.Validate() != nil {
		return nil
	}
	margin = min(max(margin, 0), chunkLimit)
	if maxChunks <= 0 {
		maxChunks = 1024
	}
	p := float64(geo.ChunkPixels())
	minX, maxX, ok := axisSpan(cam.X, cam.Right(), p, margin)
	if !ok {
		return nil
	}
	minY, maxY, ok := axisSpan(cam.Y, cam.Bottom(), p, margin)
	if !ok {
		return nil
	}
	centre := store.ChunkKey{
		CX: clampFloor((cam.X+cam.W/2)/p, minX, maxX),
		CY: clampFloor((cam.Y+cam.H/2)/p, minY, maxY),
	}

	// Only chunks within maxChunks steps of the centre can make the cut, so the scan stays
	// inside that diamond however large the window is.
	reach := min(maxChunks, 4*chunkLimit)
	minY = max(minY, centre.CY-reach)
	maxY = min(maxY, centre.CY+reach)

	type item struct {
		k    store.ChunkKey
		dist int
	}
	var items []item
	for cy := minY; cy <= maxY; cy++ {
		dy := mathx.AbsInt(cy - centre.CY)
		rem := reach - dy
		x0 := max(minX, centre.CX-rem)
		x1 := min(maxX, centre.CX+rem)
		for cx := x0; cx <= x1; cx++ {
			d := mathx.AbsInt(cx-centre.CX) + dy
			items = append(items, item{k: store.ChunkKey{CX: cx, CY: cy}, dist: d})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].dist != items[j].dist {
			return items[i].dist < items[j].dist
		}
		if items[i].k.CY != items[j].k.CY {
			return items[i].k.CY < items[j].k.CY
		}
		return items[i].k.CX < items[j].k.CX
	})
	if len(items) > maxChunks {
		items = items[:maxChunks]
	}
	out := make([]store.ChunkKey, 0, len(items))
	for _, it := range items {
		out = append(out, it.k)
	}
	return out
}

// axisSpan maps the pixel interval [lo, hi) to an inclusive chunk range widened by margin and
// clamped to ±chunkLimit. ok is false when nothing of the range lies inside the limit.
func axisSpan(lo, hi, p float64, margin int) (first, last int, ok bool) {
	a := math.Floor(lo/p) - float64(margin)
	b := math.Ceil(hi/p) - 1 + float64(margin)
	if math.IsNaN(a) || math.IsNaN(b) || b < a || a > chunkLimit || b < -chunkLimit {
		return 0, 0, false
	}
	return int(max(a, -chunkLimit)), int(min(b, chunkLimit)), true
}

func clampFloor(v float64, lo, hi int) int {
	f := math.Floor(v)
	if f < float64(lo) {
		return lo
	}
	if f > float64(hi) {
		return hi
	}
	return int(f)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func ClampInt(v, min, max, def int) int {
	if v == 0 {
		v = def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
