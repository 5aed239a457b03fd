package world

import (
	"context"
	"errors"
)

// SnapshotResult reports the tick a requested snapshot was taken at and how much of the grid
// it holds.
type SnapshotResult struct {
	Tick      uint64 `json:"tick"`
	Generated int    `json:"generated_chunks"`
	Pending   int    `json:"pending_chunks"`
}

type adminSnapshotReq struct {
	Resp chan adminSnapshotResp
}

type adminSnapshotResp struct {
	Result SnapshotResult
	Err    string
}

// RequestSnapshot asks the world loop goroutine to export the grid to the snapshot sink.
// It is safe to call from other goroutines (e.g. HTTP handlers). On a sink error the result
// still carries the tick and counts observed by the loop.
func (w *World) RequestSnapshot(ctx context.Context) (SnapshotResult, error) {
	if w == nil || w.admin == nil {
		return SnapshotResult{}, errors.New("admin snapshot not available")
	}
	resp := make(chan adminSnapshotResp, 1)
	req := adminSnapshotReq{Resp: resp}

	select {
	case w.admin <- req:
	case <-ctx.Done():
		return SnapshotResult{}, ctx.Err()
	}

	select {
	case r := <-resp:
		if r.Err != "" {
			return r.Result, errors.New(r.Err)
		}
		return r.Result, nil
	case <-ctx.Done():
		return SnapshotResult{}, ctx.Err()
	}
}

func (w *World) handleAdminSnapshotRequests(reqs []adminSnapshotReq) {
	if w == nil || len(reqs) == 0 {
		return
	}
	cur := w.tick.Load()
	res := SnapshotResult{
		Generated: w.grid.GeneratedLen(),
		Pending:   len(w.pending),
	}
	if cur > 0 {
		res.Tick = cur - 1
	}

	errStr := ""
	if w.snapshotSink == nil {
		errStr = "snapshot sink not configured"
	} else {
		select {
		case w.snapshotSink <- w.ExportSnapshot(res.Tick):
		default:
			errStr = "snapshot sink backpressure"
		}
	}

	resp := adminSnapshotResp{Result: res, Err: errStr}
	for _, r := range reqs {
		if r.Resp == nil {
			continue
		}
		select {
		case r.Resp <- resp:
		default:
			// Client timed out; don't block the sim loop.
		}
	}
}
