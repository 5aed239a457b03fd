package world

import "time"

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Chunks          int `json:"chunks"`
	GeneratedChunks int `json:"generated_chunks"`
	PendingChunks   int `json:"pending_chunks"`
	InFlight        int `json:"in_flight_requests"`
	Backlog         int `json:"backlog_requests"`
	Observers       int `json:"observers"`

	RequestedTotal uint64 `json:"requested_total"`
	InstalledTotal uint64 `json:"installed_total"`
	TickLogErrors  uint64 `json:"tick_log_errors"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	ObserverJoin  int `json:"observer_join"`
	ObserverSub   int `json:"observer_sub"`
	ObserverLeave int `json:"observer_leave"`
	Admin         int `json:"admin"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(step time.Duration) {
	w.metrics.Store(WorldMetrics{
		Tick:            w.tick.Load(),
		Chunks:          w.grid.Len(),
		GeneratedChunks: w.grid.GeneratedLen(),
		PendingChunks:   len(w.pending),
		InFlight:        len(w.inflight),
		Backlog:         len(w.backlog),
		Observers:       len(w.observers),
		RequestedTotal:  w.requestedTotal.Load(),
		InstalledTotal:  w.installedTotal.Load(),
		TickLogErrors:   w.tickLogErrors.Load(),
		QueueDepths: QueueDepths{
			ObserverJoin:  len(w.observerJoin),
			ObserverSub:   len(w.observerSub),
			ObserverLeave: len(w.observerLeave),
			Admin:         len(w.admin),
		},
		StepMS: float64(step.Microseconds()) / 1000.0,
	})
}
