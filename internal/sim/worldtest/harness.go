package worldtest

import (
	"context"
	"encoding/json"
	"testing"

	"voxelmine.ai/internal/persistence/chunkstore"
	"voxelmine.ai/internal/protocol"
	"voxelmine.ai/internal/sim/engine"
	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/tuning"
	world "voxelmine.ai/internal/sim/world"
	"voxelmine.ai/internal/sim/world/chunk"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Join() registers a session via StepOnce()
// - View()/Step() feed view changes and edits through StepOnce()
// - Per-session Out channels carry CHUNK and ERROR JSON
//
// It avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T   *testing.T
	Reg *registry.Registry
	W   *world.World

	sessions map[string]chan []byte
}

// SmallTuning shrinks the default engine config so multi-chunk tests stay fast.
func SmallTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.ChunkSize = 8
	t.MaxHeight = 48
	t.RenderRadius = 1
	t.MaxChunks = 256
	t.WorldGen.SeaLevel = 16
	t.WorldGen.BaseHeight = 20
	t.WorldGen.Amplitude = 8
	t.WorldGen.TreePermille = 30
	return t
}

func NewHarness(t *testing.T, tu tuning.Tuning, opts world.Options) *Harness {
	t.Helper()
	reg, err := registry.Load("../../../configs/blocks.json")
	if err != nil {
		t.Fatalf("load blocks: %v", err)
	}
	w := NewWorld(t, tu, reg, opts)
	return &Harness{T: t, Reg: reg, W: w, sessions: map[string]chan []byte{}}
}

// NewWorld wires the production generator and decorator into a world.
func NewWorld(t *testing.T, tu tuning.Tuning, reg *registry.Registry, opts world.Options) *world.World {
	t.Helper()
	w, err := engine.NewWorld(tu, reg, opts)
	if err != nil {
		t.Fatalf("engine.NewWorld: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

// MemoryStore is a fresh in-memory chunk store.
func MemoryStore() *chunkstore.Store { return chunkstore.New(chunkstore.NewMemory()) }

func (h *Harness) Ensure(keys ...chunk.Key) {
	h.T.Helper()
	if err := h.W.EnsureChunks(context.Background(), keys); err != nil {
		h.T.Fatalf("EnsureChunks: %v", err)
	}
}

func (h *Harness) Join(id string) protocol.WelcomeMsg {
	h.T.Helper()
	out := make(chan []byte, 128)
	resp := make(chan world.JoinResponse, 1)
	h.W.StepOnce(context.Background(), []world.JoinRequest{{SessionID: id, Out: out, Resp: resp}}, nil, nil)
	h.sessions[id] = out
	return (<-resp).Welcome
}

func (h *Harness) View(id string, center chunk.Key, radius int, voxels bool) {
	h.W.StepOnce(context.Background(), nil, []world.ViewRequest{{SessionID: id, Center: center, Radius: radius, Voxels: voxels}}, nil)
}

func (h *Harness) Step(edits ...world.EditRequest) world.WorldMetrics {
	return h.W.StepOnce(context.Background(), nil, nil, edits)
}

// Drain decodes every message queued for a session.
func (h *Harness) Drain(id string) (chunks []protocol.ChunkMsg, errs []protocol.ErrorMsg) {
	h.T.Helper()
	out := h.sessions[id]
	for {
		select {
		case b := <-out:
			base, err := protocol.DecodeBase(b)
			if err != nil {
				h.T.Fatalf("decode: %v", err)
			}
			switch base.Type {
			case protocol.TypeChunk:
				var m protocol.ChunkMsg
				if err := json.Unmarshal(b, &m); err != nil {
					h.T.Fatalf("unmarshal chunk: %v", err)
				}
				chunks = append(chunks, m)
			case protocol.TypeError:
				var m protocol.ErrorMsg
				if err := json.Unmarshal(b, &m); err != nil {
					h.T.Fatalf("unmarshal error: %v", err)
				}
				errs = append(errs, m)
			}
		default:
			return chunks, errs
		}
	}
}

func Square(cx, cz, r int) []chunk.Key {
	var out []chunk.Key
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			out = append(out, chunk.Key{CX: cx + dx, CZ: cz + dz})
		}
	}
	return out
}
