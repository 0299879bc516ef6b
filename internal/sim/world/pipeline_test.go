package world

import (
	"errors"
	"testing"

	"voxelmine.ai/internal/sim/world/chunk"
)

func TestDecorationWaitsForAllNeighbors(t *testing.T) {
	decor := &stubDecor{}
	w := newTestWorld(t, decor, Options{})
	center := chunk.Key{}

	ensure(t, w, []chunk.Key{center})
	if got := stageOf(t, w, center); got != chunk.Generated {
		t.Fatalf("lone chunk stage=%s want GENERATED", got)
	}
	if decor.calls[center] != 0 {
		t.Fatalf("decorated without neighbors")
	}

	ensure(t, w, square(0, 0, 1))
	if got := stageOf(t, w, center); got != chunk.Decorated {
		t.Fatalf("center stage=%s want DECORATED", got)
	}
	if got := stageOf(t, w, chunk.Key{CX: 1, CZ: 1}); got != chunk.Generated {
		t.Fatalf("corner stage=%s want GENERATED", got)
	}

	ensure(t, w, square(0, 0, 2))
	if got := stageOf(t, w, center); got != chunk.Ready {
		t.Fatalf("center stage=%s want READY", got)
	}
	if got := stageOf(t, w, chunk.Key{CX: 1, CZ: 0}); got != chunk.Decorated {
		t.Fatalf("inner ring stage=%s want DECORATED", got)
	}
	if got := stageOf(t, w, chunk.Key{CX: 2, CZ: 0}); got != chunk.Generated {
		t.Fatalf("outer ring stage=%s want GENERATED", got)
	}
	for k, n := range decor.calls {
		if n != 1 {
			t.Fatalf("chunk %s decorated %d times", k, n)
		}
	}
}

func TestDecorationSpillsIntoNeighbor(t *testing.T) {
	glow := uint8(0)
	decor := &stubDecor{}
	decor.build = func(c *chunk.Chunk, r chunk.Reader) []chunk.VoxelUpdate {
		if c.Key != (chunk.Key{}) {
			return nil
		}
		return []chunk.VoxelUpdate{{X: -1, Y: 8, Z: 0, Type: glow}}
	}
	edits := &memEdits{}
	w := newTestWorld(t, decor, Options{Edits: edits})
	glow = w.reg.MustID("glowstone")

	ensure(t, w, square(0, 0, 1))
	if got := w.VoxelAt(-1, 8, 0); got != glow {
		t.Fatalf("spilled voxel=%d want %d", got, glow)
	}
	if got := w.MaxHeightAt(-1, 0); got != 8 {
		t.Fatalf("neighbor height map=%d want 8", got)
	}
	if len(edits.entries) != 1 || edits.entries[0].Reason != ReasonDecoration {
		t.Fatalf("edit log=%+v", edits.entries)
	}
}

func TestDecorationOutOfBoundsAppliesNothing(t *testing.T) {
	decor := &stubDecor{}
	w := newTestWorld(t, decor, Options{})
	ensure(t, w, square(0, 0, 1))

	// Rebuild the center as freshly generated and decorate it by hand.
	c := chunk.New(chunk.Key{}, testSize, testHeight)
	w.chunks[c.Key] = c
	if err := c.Advance(chunk.Generating); err != nil {
		t.Fatalf("advance: %v", err)
	}
	w.terrain.Generate(c)
	if err := c.Advance(chunk.Generated); err != nil {
		t.Fatalf("advance: %v", err)
	}
	glow := w.reg.MustID("glowstone")
	decor.build = func(c *chunk.Chunk, r chunk.Reader) []chunk.VoxelUpdate {
		return []chunk.VoxelUpdate{
			{X: 1, Y: 8, Z: 1, Type: glow},
			{X: 2 * testSize, Y: 8, Z: 0, Type: glow},
		}
	}
	done, err := w.CheckDecoration(c)
	if !errors.Is(err, ErrDecorationOutOfBounds) {
		t.Fatalf("expected ErrDecorationOutOfBounds, got %v", err)
	}
	if !done || c.Stage() != chunk.Decorated {
		t.Fatalf("chunk should still advance, stage=%s", c.Stage())
	}
	if w.VoxelAt(1, 8, 1) != 0 {
		t.Fatalf("in-bounds part of a rejected batch was applied")
	}
}

func TestPropagationLightsSkyAndStone(t *testing.T) {
	w := newTestWorld(t, nil, Options{})
	ensure(t, w, square(0, 0, 2))
	if got := w.Sunlight(1, 10, 1); got != 15 {
		t.Fatalf("open sky sunlight=%d want 15", got)
	}
	if got := w.Sunlight(1, testGround+1, 1); got != 15 {
		t.Fatalf("surface sunlight=%d want 15", got)
	}
	if got := w.Sunlight(1, 1, 1); got != 0 {
		t.Fatalf("sunlight inside stone=%d want 0", got)
	}
	c, _ := w.Chunk(chunk.Key{})
	if !c.MeshDirty() {
		t.Fatalf("propagation should mark the mesh dirty")
	}
}

func TestCheckPropagationNeedsDecoratedNeighbors(t *testing.T) {
	w := newTestWorld(t, nil, Options{})
	ensure(t, w, square(0, 0, 1))
	c, _ := w.Chunk(chunk.Key{})
	ok, err := w.CheckPropagation(c)
	if err != nil || ok {
		t.Fatalf("propagated with undecorated neighbors: ok=%v err=%v", ok, err)
	}
	if c.Stage() != chunk.Decorated {
		t.Fatalf("stage=%s", c.Stage())
	}
}
