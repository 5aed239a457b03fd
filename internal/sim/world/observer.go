package world

import (
	"encoding/json"
	"sort"

	"pixelypse.dev/internal/observerproto"
	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/world/feature/stream"
	"pixelypse.dev/internal/sim/world/io/obscodec"
	"pixelypse.dev/internal/sim/world/terrain/store"
	"pixelypse.dev/internal/sim/world/view"
)

// ObserverJoinRequest registers a read-only observer session that receives:
// - chunk tiles for its camera (DataOut)
// - per-tick world state (TickOut)
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte
	DataOut   chan []byte

	Camera    view.Rect
	MaxChunks int
}

// ObserverSubscribeRequest moves the camera of an existing session.
type ObserverSubscribeRequest struct {
	SessionID string
	Camera    view.Rect
	MaxChunks int
}

type observerClient struct {
	id      string
	tickOut chan []byte
	dataOut chan []byte

	cam       view.Rect
	maxChunks int

	// Digest of the last CHUNK_SURFACE enqueued per chunk.
	sent map[store.ChunkKey][32]byte
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) TilePalette() []string { return tiles.Palette() }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if w == nil || req.SessionID == "" || req.TickOut == nil || req.DataOut == nil {
		return
	}
	if old := w.observers[req.SessionID]; old != nil {
		close(old.tickOut)
		close(old.dataOut)
	}
	w.observers[req.SessionID] = &observerClient{
		id:        req.SessionID,
		tickOut:   req.TickOut,
		dataOut:   req.DataOut,
		cam:       req.Camera,
		maxChunks: stream.ClampInt(req.MaxChunks, 1, 4096, w.cfg.MaxChunksPerRequest),
		sent:      map[store.ChunkKey][32]byte{},
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	c.cam = req.Camera
	c.maxChunks = stream.ClampInt(req.MaxChunks, 1, 4096, c.maxChunks)
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.tickOut)
	close(c.dataOut)
}

// stepObservers requests missing chunks around every observer camera and sends the chunks
// each observer has not seen in their current form.
func (w *World) stepObservers(nowTick uint64) error {
	if len(w.observers) == 0 {
		return nil
	}
	ids := make([]string, 0, len(w.observers))
	for id := range w.observers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	geo := w.cfg.Geometry()
	var missing []store.ChunkKey
	for _, id := range ids {
		c := w.observers[id]
		for _, k := range stream.WantedChunks(geo, c.cam, w.cfg.StreamMargin, c.maxChunks) {
			if !w.grid.InBounds(k.CX, k.CY) || w.grid.Generated(k) {
				continue
			}
			missing = append(missing, k)
		}
		w.sendObserverChunks(c)
	}
	if len(missing) > w.cfg.MaxChunksPerRequest {
		missing = missing[:w.cfg.MaxChunksPerRequest]
	}
	if err := w.RequestChunks(missing); err != nil {
		return err
	}

	installed := make([]observerproto.ChunkRef, 0, len(w.tickInstalled))
	for _, r := range w.tickInstalled {
		installed = append(installed, observerproto.ChunkRef{CX: r.CX, CY: r.CY})
	}
	msg := observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Chunks:          w.grid.Len(),
		PendingChunks:   len(w.pending),
		Installed:       installed,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	for _, id := range ids {
		sendLatest(w.observers[id].tickOut, b)
	}
	return nil
}

func (w *World) sendObserverChunks(c *observerClient) {
	budget := w.cfg.ObserverMaxChunksPerTick
	for ch := range view.VisibleChunks(w.grid, c.cam) {
		if budget <= 0 {
			return
		}
		d := ch.Digest()
		if prev, ok := c.sent[ch.Key]; ok && prev == d {
			continue
		}
		msg := observerproto.ChunkSurfaceMsg{
			Type:            observerproto.TypeChunkSurface,
			ProtocolVersion: observerproto.Version,
			CX:              ch.Key.CX,
			CY:              ch.Key.CY,
			OriginX:         ch.Origin.X,
			OriginY:         ch.Origin.Y,
			Placeholder:     ch.Placeholder(),
			Encoding:        obscodec.EncodingPAL16U16LE,
			Data:            obscodec.EncodePAL16U16LE(ch.Tiles()),
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		if !trySend(c.dataOut, b) {
			// Channel is full; retry next tick.
			return
		}
		c.sent[ch.Key] = d
		budget--
	}
}
