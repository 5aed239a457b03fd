// Package worker runs chunk generation on a dedicated goroutine fed by a request channel.
package worker

import (
	"context"
	"errors"
	"sync"

	"pixelypse.dev/internal/sim/world/terrain/store"
)

var ErrClosed = errors.New("worker: generation channel closed")

type Request struct {
	Keys []store.ChunkKey
}

// Response.Chunks[i] was generated for Request.Keys[i].
type Response struct {
	Chunks []*store.Chunk
}

type Worker struct {
	gen store.Generator

	reqs  chan Request
	resps chan Response
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// Start spawns the worker goroutine. queue bounds both channels; values < 1 are treated as 1.
func Start(ctx context.Context, gen store.Generator, queue int) *Worker {
	if queue < 1 {
		queue = 1
	}
	w := &Worker{
		gen:   gen,
		reqs:  make(chan Request, queue),
		resps: make(chan Response, queue),
		done:  make(chan struct{}),
	}
	go w.loop(ctx)
	return w
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	defer close(w.resps)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.reqs:
			if !ok {
				return
			}
			resp := Response{Chunks: make([]*store.Chunk, 0, len(req.Keys))}
			for _, k := range req.Keys {
				resp.Chunks = append(resp.Chunks, w.gen(k))
			}
			select {
			case w.resps <- resp:
			case <-ctx.Done():
				return
			}
		}
	}
}

// TrySubmit queues req without blocking. It returns false when the queue is full.
func (w *Worker) TrySubmit(req Request) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, ErrClosed
	}
	select {
	case <-w.done:
		return false, ErrClosed
	default:
	}
	select {
	case w.reqs <- req:
		return true, nil
	default:
		return false, nil
	}
}

// Poll returns a completed response if one is ready. It never blocks.
func (w *Worker) Poll() (Response, bool, error) {
	select {
	case resp, ok := <-w.resps:
		if !ok {
			return Response{}, false, ErrClosed
		}
		return resp, true, nil
	default:
		return Response{}, false, nil
	}
}

// Close stops accepting requests. The goroutine finishes the request in hand, then exits.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.reqs)
}

// Done is closed once the worker goroutine has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }
