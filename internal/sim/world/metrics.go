package world

import (
	"time"

	"voxelmine.ai/internal/persistence/chunkstore"
	"voxelmine.ai/internal/sim/world/chunk"
)

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Clients      int            `json:"clients"`
	LoadedChunks int            `json:"loaded_chunks"`
	Stages       map[string]int `json:"stages"`
	DirtyChunks  int            `json:"dirty_chunks"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	Saver chunkstore.SaverStats `json:"saver"`
}

type QueueDepths struct {
	Join     int `json:"join"`
	Leave    int `json:"leave"`
	Requests int `json:"requests"`
	Edits    int `json:"edits"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, ok := w.metrics.Load().(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(tick uint64, took time.Duration) {
	m := WorldMetrics{
		Tick:         tick,
		Clients:      len(w.clients),
		LoadedChunks: len(w.chunks),
		Stages:       map[string]int{},
		QueueDepths: QueueDepths{
			Join:     len(w.join),
			Leave:    len(w.leave),
			Requests: len(w.requests),
			Edits:    len(w.editReqs),
		},
		StepMS: float64(took.Microseconds()) / 1000,
	}
	for _, c := range w.chunks {
		m.Stages[c.Stage().String()]++
		if c.NeedsSaving() && c.Stage() >= chunk.Decorated {
			m.DirtyChunks++
		}
	}
	if w.saver != nil {
		m.Saver = w.saver.Stats()
	}
	w.metrics.Store(m)
}
