package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"pixelypse.dev/internal/sim/world"
	"pixelypse.dev/internal/transport/observer"
)

type muxOptions struct {
	EnableAdmin bool
	EnablePprof bool
}

func newMux(w *world.World, obs *observer.Server, idx runtimeIndex, opts muxOptions) *http.ServeMux {
	worldID := w.ID()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeWorldMetrics(rw, worldID, w)
		if obs != nil {
			fmt.Fprintf(rw, "# HELP pixelypse_observer_sessions Connected observer websocket sessions.\n")
			fmt.Fprintf(rw, "# TYPE pixelypse_observer_sessions gauge\n")
			fmt.Fprintf(rw, "pixelypse_observer_sessions{world=%q} %d\n", worldID, obs.Active())
		}
		if idx != nil {
			writeIndexMetrics(rw, worldID, idx)
		}
	})

	if opts.EnableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			pw, ph, _ := w.PixelExtent()
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID     string             `json:"world_id"`
				Tick        uint64             `json:"tick"`
				Seed        uint64             `json:"seed"`
				PixelWidth  uint32             `json:"pixel_width"`
				PixelHeight uint32             `json:"pixel_height"`
				Metrics     world.WorldMetrics `json:"metrics"`
			}{
				WorldID:     worldID,
				Tick:        w.CurrentTick(),
				Seed:        w.Config().Seed,
				PixelWidth:  pw,
				PixelHeight: ph,
				Metrics:     w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			res, err := w.RequestSnapshot(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			body := map[string]any{
				"ok":               err == nil,
				"tick":             res.Tick,
				"generated_chunks": res.Generated,
				"pending_chunks":   res.Pending,
			}
			if err != nil {
				body["error"] = err.Error()
				rw.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(rw).Encode(body)
		})
	}
	if opts.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	if obs != nil {
		mux.HandleFunc("/v1/observer/bootstrap", obs.BootstrapHandler())
		mux.HandleFunc("/v1/observer/ws", obs.WSHandler())
	}
	return mux
}

// writeWorldMetrics emits the minimal Prometheus exposition format.
func writeWorldMetrics(rw http.ResponseWriter, worldID string, w *world.World) {
	m := w.Metrics()
	tick := w.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}

	fmt.Fprintf(rw, "# HELP pixelypse_world_tick Current world tick.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_world_tick gauge\n")
	fmt.Fprintf(rw, "pixelypse_world_tick{world=%q} %d\n", worldID, tick)

	fmt.Fprintf(rw, "# HELP pixelypse_world_chunks Chunks held by the grid, placeholders included.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_world_chunks gauge\n")
	fmt.Fprintf(rw, "pixelypse_world_chunks{world=%q,state=%q} %d\n", worldID, "all", m.Chunks)
	fmt.Fprintf(rw, "pixelypse_world_chunks{world=%q,state=%q} %d\n", worldID, "generated", m.GeneratedChunks)
	fmt.Fprintf(rw, "pixelypse_world_chunks{world=%q,state=%q} %d\n", worldID, "pending", m.PendingChunks)

	fmt.Fprintf(rw, "# HELP pixelypse_worker_requests Generation requests not yet answered.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_worker_requests gauge\n")
	fmt.Fprintf(rw, "pixelypse_worker_requests{world=%q,state=%q} %d\n", worldID, "in_flight", m.InFlight)
	fmt.Fprintf(rw, "pixelypse_worker_requests{world=%q,state=%q} %d\n", worldID, "backlog", m.Backlog)

	fmt.Fprintf(rw, "# HELP pixelypse_chunks_requested_total Chunk keys sent to the generation worker.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_chunks_requested_total counter\n")
	fmt.Fprintf(rw, "pixelypse_chunks_requested_total{world=%q} %d\n", worldID, m.RequestedTotal)

	fmt.Fprintf(rw, "# HELP pixelypse_chunks_installed_total Generated chunks installed into the grid.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_chunks_installed_total counter\n")
	fmt.Fprintf(rw, "pixelypse_chunks_installed_total{world=%q} %d\n", worldID, m.InstalledTotal)

	fmt.Fprintf(rw, "# HELP pixelypse_tick_log_errors_total Tick log entries that failed to write.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_tick_log_errors_total counter\n")
	fmt.Fprintf(rw, "pixelypse_tick_log_errors_total{world=%q} %d\n", worldID, m.TickLogErrors)

	fmt.Fprintf(rw, "# HELP pixelypse_world_observers Observers registered with the world loop.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_world_observers gauge\n")
	fmt.Fprintf(rw, "pixelypse_world_observers{world=%q} %d\n", worldID, m.Observers)

	fmt.Fprintf(rw, "# HELP pixelypse_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "pixelypse_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "observer_join", m.QueueDepths.ObserverJoin)
	fmt.Fprintf(rw, "pixelypse_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "observer_sub", m.QueueDepths.ObserverSub)
	fmt.Fprintf(rw, "pixelypse_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "observer_leave", m.QueueDepths.ObserverLeave)
	fmt.Fprintf(rw, "pixelypse_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "admin", m.QueueDepths.Admin)

	fmt.Fprintf(rw, "# HELP pixelypse_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_world_step_ms gauge\n")
	fmt.Fprintf(rw, "pixelypse_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)
}

func writeIndexMetrics(rw http.ResponseWriter, worldID string, idx runtimeIndex) {
	s := idx.Stats()
	fmt.Fprintf(rw, "# HELP pixelypse_index_queue_depth Current index writer queue depth.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "pixelypse_index_queue_depth{world=%q} %d\n", worldID, s.QueueDepth)

	fmt.Fprintf(rw, "# HELP pixelypse_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE pixelypse_index_dropped_total counter\n")
	fmt.Fprintf(rw, "pixelypse_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "tick", s.DropTickTotal)
	fmt.Fprintf(rw, "pixelypse_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "snapshot", s.DropSnapshotTotal)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
