package world

import (
	"context"
	"fmt"
	"time"
)

// Run drives Step at the configured tick rate until ctx is done, Stop is called, or a tick fails.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingAdmin []adminSnapshotReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case req := <-w.admin:
			pendingAdmin = append(pendingAdmin, req)
		case <-ticker.C:
			if err := w.Step(); err != nil {
				return err
			}
			w.handleAdminSnapshotRequests(pendingAdmin)
			pendingAdmin = pendingAdmin[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// Step advances the world by one tick: retry queued requests, install at most one generation
// response, serve observers, then record the tick.
func (w *World) Step() error {
	start := time.Now()
	nowTick := w.tick.Load()

	if err := w.flushBacklog(); err != nil {
		return fmt.Errorf("tick %d: %w", nowTick, err)
	}
	if _, err := w.PollGeneratedChunks(); err != nil {
		return fmt.Errorf("tick %d: %w", nowTick, err)
	}
	if err := w.stepObservers(nowTick); err != nil {
		return fmt.Errorf("tick %d: %w", nowTick, err)
	}

	if w.tickLogger != nil && (len(w.tickRequested) > 0 || len(w.tickInstalled) > 0) {
		err := w.tickLogger.WriteTick(TickLogEntry{
			Tick:      nowTick,
			Requested: w.tickRequested,
			Installed: w.tickInstalled,
			Chunks:    w.grid.Len(),
		})
		if err != nil {
			// Counted, not fatal.
			w.tickLogErrors.Add(1)
		}
	}
	w.tickRequested = nil
	w.tickInstalled = nil

	if w.snapshotSink != nil && w.cfg.SnapshotEveryTicks > 0 && nowTick > 0 && nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
		select {
		case w.snapshotSink <- w.ExportSnapshot(nowTick):
		default:
		}
	}

	w.tick.Add(1)
	w.publishMetrics(time.Since(start))
	return nil
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func trySend(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return true
	default:
		return false
	}
}
