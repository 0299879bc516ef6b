package worldtest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"voxelmine.ai/internal/persistence/chunkstore"
	editlog "voxelmine.ai/internal/persistence/log"
	world "voxelmine.ai/internal/sim/world"
	"voxelmine.ai/internal/sim/world/chunk"
)

func TestSQLiteRoundTripKeepsEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := chunkstore.Open("sqlite", filepath.Join(dir, "chunks.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	h := NewHarness(t, SmallTuning(), world.Options{Store: store})
	h.Ensure(Square(0, 0, 2)...)
	top := h.W.MaxHeightAt(2, 2)
	glow := h.Reg.MustID("glowstone")
	if err := h.W.Update(2, top+1, 2, glow); err != nil {
		t.Fatalf("Update: %v", err)
	}
	c, _ := h.W.Chunk(chunk.Key{})
	want := append([]uint8(nil), c.Voxels()...)
	h.W.Close()

	w2 := NewWorld(t, SmallTuning(), h.Reg, world.Options{Store: store})
	if err := w2.EnsureChunks(context.Background(), []chunk.Key{{}}); err != nil {
		t.Fatalf("EnsureChunks: %v", err)
	}
	c2, _ := w2.Chunk(chunk.Key{})
	if c2.Stage() != chunk.Ready {
		t.Fatalf("restored stage=%s want READY", c2.Stage())
	}
	if !bytes.Equal(c2.Voxels(), want) {
		t.Fatalf("restored voxels differ")
	}
	if got := w2.TorchLight(2, top+1, 2); got != 15 {
		t.Fatalf("restored emitter light=%d want 15", got)
	}
}

func TestEditJournalRecordsPlayerEdits(t *testing.T) {
	dir := t.TempDir()
	edits := editlog.NewEditLog(dir)
	h := NewHarness(t, SmallTuning(), world.Options{Edits: edits})
	h.Join("s1")
	h.View("s1", chunk.Key{}, 1, false)
	h.Step()

	top := h.W.MaxHeightAt(3, 3)
	h.Step(world.EditRequest{SessionID: "s1", Updates: []protocolUpdate{{Pos: [3]int{3, top + 1, 3}, Type: "glass"}}})
	if err := edits.Close(); err != nil {
		t.Fatalf("close journal: %v", err)
	}

	var player []world.EditEntry
	if err := editlog.ReadEdits(dir, func(e world.EditEntry) error {
		if e.Reason == world.ReasonPlayer {
			player = append(player, e)
		}
		return nil
	}); err != nil {
		t.Fatalf("ReadEdits: %v", err)
	}
	if len(player) != 1 {
		t.Fatalf("player edits=%d want 1", len(player))
	}
	e := player[0]
	if e.Actor != "s1" || e.X != 3 || e.Y != top+1 || e.Z != 3 || e.To != h.Reg.MustID("glass") {
		t.Fatalf("unexpected entry %+v", e)
	}
}
