package world

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"pixelypse.dev/internal/persistence/snapshot"
	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/world/feature/stream"
	"pixelypse.dev/internal/sim/world/terrain/store"
	"pixelypse.dev/internal/sim/world/terrain/worker"
	"pixelypse.dev/internal/sim/world/view"
)

// ErrResponseMismatch means a worker response does not line up with the request it answers.
var ErrResponseMismatch = errors.New("world: generation response does not match request")

// World owns the chunk grid and the generation worker.
// All state must be accessed only from the goroutine that calls Step (or Run).
type World struct {
	cfg WorldConfig

	tick atomic.Uint64

	grid *store.Grid
	gen  *worker.Worker

	stopWorker context.CancelFunc

	// Requests accepted by the worker, oldest first. Responses arrive in the same order.
	inflight []worker.Request
	// Requests the worker queue could not take yet.
	backlog []worker.Request
	// Keys in inflight or backlog.
	pending map[store.ChunkKey]struct{}

	// Collected during a tick for the tick log.
	tickRequested []ChunkRecord
	tickInstalled []ChunkRecord

	requestedTotal atomic.Uint64
	installedTotal atomic.Uint64
	tickLogErrors  atomic.Uint64

	observers     map[string]*observerClient
	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	admin         chan adminSnapshotReq
	stop          chan struct{}
	stopOnce      sync.Once

	// Optional logger (may be nil). Implemented in internal/persistence/*.
	tickLogger TickLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	metrics atomic.Value // WorldMetrics
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type ChunkRecord struct {
	CX     int    `json:"cx"`
	CY     int    `json:"cy"`
	Digest string `json:"digest,omitempty"`
}

// TickLogEntry is written for ticks that requested or installed chunks.
type TickLogEntry struct {
	Tick      uint64        `json:"tick"`
	Requested []ChunkRecord `json:"requested,omitempty"`
	Installed []ChunkRecord `json:"installed,omitempty"`
	Chunks    int           `json:"chunks"`
}

// New builds the initial chunk area synchronously and starts the generation worker.
func New(cfg WorldConfig) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("world config: %w", err)
	}
	geo := cfg.Geometry()
	grid, err := store.NewGridWithPlaceholder(geo, cfg.ChunksX, cfg.ChunksY, cfg.Seed, cfg.Bootstrap, cfg.PlaceholderCode)
	if err != nil {
		return nil, fmt.Errorf("world config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &World{
		cfg:           cfg,
		grid:          grid,
		gen:           worker.Start(ctx, store.SeededGenerator(geo, cfg.Seed), cfg.WorkerQueue),
		stopWorker:    cancel,
		pending:       map[store.ChunkKey]struct{}{},
		observers:     map[string]*observerClient{},
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerSub:   make(chan ObserverSubscribeRequest, 64),
		observerLeave: make(chan string, 16),
		admin:         make(chan adminSnapshotReq, 16),
		stop:          make(chan struct{}),
	}
	w.publishMetrics(0)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig {
	if w == nil {
		return WorldConfig{}
	}
	return w.cfg
}

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Geometry() store.Geometry { return w.cfg.Geometry() }

func (w *World) PixelExtent() (uint32, uint32, error) { return w.grid.PixelExtent() }

// VisibleTiles yields the tiles of every chunk overlapping cam.
func (w *World) VisibleTiles(cam view.Rect) iter.Seq[view.Tile] {
	return view.VisibleTiles(w.grid, cam)
}

func (w *World) VisibleChunks(cam view.Rect) iter.Seq[*store.Chunk] {
	return view.VisibleChunks(w.grid, cam)
}

func (w *World) ChunkAt(cx, cy int) (*store.Chunk, bool) { return w.grid.ChunkAt(cx, cy) }

// TileAt returns the visual kind at pixel (px, py).
func (w *World) TileAt(px, py int) (tiles.Kind, bool) {
	code, ok := w.grid.TileAt(px, py)
	if !ok {
		return tiles.KindGrass, false
	}
	return tiles.Classify(code), true
}

// PendingChunks is the number of keys requested but not yet installed.
func (w *World) PendingChunks() int { return len(w.pending) }

// RequestChunks queues generation for keys that are neither pending nor already generated.
// It never blocks; a request the worker cannot take yet is kept and retried on later ticks.
func (w *World) RequestChunks(keys []store.ChunkKey) error {
	var req worker.Request
	for _, k := range keys {
		if _, ok := w.pending[k]; ok {
			continue
		}
		if w.grid.Generated(k) {
			continue
		}
		w.pending[k] = struct{}{}
		req.Keys = append(req.Keys, k)
		w.tickRequested = append(w.tickRequested, ChunkRecord{CX: k.CX, CY: k.CY})
	}
	if len(req.Keys) == 0 {
		return nil
	}
	w.requestedTotal.Add(uint64(len(req.Keys)))
	w.backlog = append(w.backlog, req)
	return w.flushBacklog()
}

// RequestAround requests the in-bounds chunks around cam, widened by the configured stream
// margin, that hold no generated content yet. At most maxChunks keys are considered.
func (w *World) RequestAround(cam view.Rect, maxChunks int) error {
	if maxChunks <= 0 {
		maxChunks = w.cfg.MaxChunksPerRequest
	}
	var keys []store.ChunkKey
	for _, k := range stream.WantedChunks(w.cfg.Geometry(), cam, w.cfg.StreamMargin, maxChunks) {
		if w.grid.InBounds(k.CX, k.CY) {
			keys = append(keys, k)
		}
	}
	return w.RequestChunks(keys)
}

func (w *World) flushBacklog() error {
	for len(w.backlog) > 0 {
		ok, err := w.gen.TrySubmit(w.backlog[0])
		if err != nil {
			return fmt.Errorf("submit chunk request: %w", err)
		}
		if !ok {
			return nil
		}
		w.inflight = append(w.inflight, w.backlog[0])
		w.backlog = w.backlog[1:]
	}
	return nil
}

// PollGeneratedChunks installs the chunks of at most one completed response and returns them.
// It returns nil when nothing is ready.
func (w *World) PollGeneratedChunks() ([]*store.Chunk, error) {
	resp, ok, err := w.gen.Poll()
	if err != nil {
		return nil, fmt.Errorf("poll generated chunks: %w", err)
	}
	if !ok {
		return nil, nil
	}
	if len(w.inflight) == 0 {
		return nil, fmt.Errorf("%w: no request in flight", ErrResponseMismatch)
	}
	req := w.inflight[0]
	w.inflight = w.inflight[1:]
	if len(resp.Chunks) != len(req.Keys) {
		return nil, fmt.Errorf("%w: %d chunks for %d keys", ErrResponseMismatch, len(resp.Chunks), len(req.Keys))
	}
	for i, ch := range resp.Chunks {
		if ch == nil || ch.Key != req.Keys[i] {
			return nil, fmt.Errorf("%w: position %d", ErrResponseMismatch, i)
		}
		if err := w.grid.Install(ch); err != nil {
			return nil, err
		}
		delete(w.pending, ch.Key)
		d := ch.Digest()
		w.tickInstalled = append(w.tickInstalled, ChunkRecord{CX: ch.Key.CX, CY: ch.Key.CY, Digest: hex.EncodeToString(d[:])})
	}
	w.installedTotal.Add(uint64(len(resp.Chunks)))
	return resp.Chunks, nil
}

// Close stops the generation worker and waits for it to exit.
func (w *World) Close() {
	w.gen.Close()
	w.stopWorker()
	<-w.gen.Done()
}
