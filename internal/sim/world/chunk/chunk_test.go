package chunk

import (
	"errors"
	"testing"
)

func TestAccessorsTranslateWorldCoords(t *testing.T) {
	c := New(Key{CX: -1, CZ: 2}, 4, 8)
	minX, minZ := c.Min()
	if minX != -4 || minZ != 8 {
		t.Fatalf("min=(%d,%d)", minX, minZ)
	}
	if !c.SetVoxel(-1, 3, 11, 5) {
		t.Fatalf("SetVoxel in bounds returned false")
	}
	if got := c.Voxel(-1, 3, 11); got != 5 {
		t.Fatalf("Voxel=%d want 5", got)
	}
	if got := c.LocalVoxel(3, 3, 3); got != 5 {
		t.Fatalf("LocalVoxel=%d want 5", got)
	}
	if !c.NeedsSaving() {
		t.Fatalf("SetVoxel should mark needsSaving")
	}

	// Out of bounds reads default to 0 and writes are ignored.
	if c.Voxel(0, 3, 11) != 0 || c.Voxel(-1, 8, 11) != 0 || c.Voxel(-1, -1, 11) != 0 {
		t.Fatalf("out of bounds read not 0")
	}
	if c.SetVoxel(0, 0, 8, 1) {
		t.Fatalf("out of bounds write accepted")
	}
}

func TestLightNibblesIndependent(t *testing.T) {
	c := New(Key{}, 4, 4)
	c.SetTorchLight(1, 1, 1, 9)
	c.SetSunlight(1, 1, 1, 15)
	if c.TorchLight(1, 1, 1) != 9 || c.Sunlight(1, 1, 1) != 15 {
		t.Fatalf("got torch=%d sun=%d", c.TorchLight(1, 1, 1), c.Sunlight(1, 1, 1))
	}
	c.SetTorchLight(1, 1, 1, 0)
	if c.Sunlight(1, 1, 1) != 15 {
		t.Fatalf("torch write clobbered sunlight")
	}
	if c.Lights()[c.index(1, 1, 1)] != 0xF0 {
		t.Fatalf("packed byte=%#x", c.Lights()[c.index(1, 1, 1)])
	}
	if c.Light(9, 1, 1, Sun) != 0 {
		t.Fatalf("out of bounds light not 0")
	}
}

func TestHeightMapAndTopY(t *testing.T) {
	c := New(Key{}, 4, 16)
	c.GenerateHeightMap()
	if !c.IsEmpty() || c.TopY() != 0 {
		t.Fatalf("fresh chunk not empty: empty=%v top=%d", c.IsEmpty(), c.TopY())
	}
	c.SetVoxel(0, 3, 0, 1)
	c.SetVoxel(0, 7, 0, 1)
	c.SetVoxel(2, 5, 1, 1)
	c.GenerateHeightMap()
	if c.MaxHeight(0, 0) != 7 || c.MaxHeight(2, 1) != 5 || c.MaxHeight(3, 3) != 0 {
		t.Fatalf("heights: %d %d %d", c.MaxHeight(0, 0), c.MaxHeight(2, 1), c.MaxHeight(3, 3))
	}
	if c.TopY() != 7 || c.IsEmpty() {
		t.Fatalf("top=%d empty=%v", c.TopY(), c.IsEmpty())
	}

	// topY only grows on writes.
	c.SetMaxHeight(0, 0, 2)
	if c.TopY() != 7 {
		t.Fatalf("topY shrank to %d", c.TopY())
	}
	c.SetMaxHeight(1, 1, 12)
	if c.TopY() != 12 {
		t.Fatalf("topY=%d want 12", c.TopY())
	}
}

func TestContainsPadding(t *testing.T) {
	c := New(Key{CX: 1}, 4, 8)
	if !c.Contains(4, 0, 0, 0) || c.Contains(3, 0, 0, 0) {
		t.Fatalf("unpadded bounds wrong")
	}
	if !c.Contains(3, 0, 0, 1) || !c.Contains(8, 7, 4, 1) {
		t.Fatalf("padded bounds wrong")
	}
	if c.Contains(4, 8, 0, 5) {
		t.Fatalf("vertical bounds must not be padded")
	}
}

func TestStageTransitions(t *testing.T) {
	c := New(Key{}, 2, 2)
	steps := []Stage{Generating, Generated, Decorating, Decorated, PropagationPending, Ready}
	for _, s := range steps {
		if err := c.Advance(s); err != nil {
			t.Fatalf("advance to %s: %v", s, err)
		}
	}
	if c.NeedsTerrain() || c.NeedsDecoration() || c.NeedsPropagation() {
		t.Fatalf("ready chunk still needs work")
	}

	c2 := New(Key{}, 2, 2)
	if err := c2.Advance(Decorating); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	_ = c2.Advance(Generating)
	_ = c2.Advance(Generated)
	if err := c2.Advance(Ready); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("Generated -> Ready must be rejected, got %v", err)
	}
	if !c2.NeedsDecoration() || c2.NeedsTerrain() {
		t.Fatalf("derived flags wrong for %s", c2.Stage())
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := New(Key{CX: 3, CZ: -2}, 4, 8)
	_ = c.Advance(Generating)
	c.SetVoxel(12, 2, -8, 7)
	c.SetSunlight(12, 3, -8, 15)
	snap := c.Snapshot()
	if !snap.NeedsPropagation {
		t.Fatalf("generating chunk snapshot should need propagation")
	}
	c.SetVoxel(12, 2, -8, 0)
	if snap.Voxels[c.index(0, 2, 0)] != 7 {
		t.Fatalf("snapshot aliases live buffer")
	}

	r := New(c.Key, 4, 8)
	if err := r.Restore(snap.Voxels, snap.Lights, false); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if r.Stage() != Ready || r.Voxel(12, 2, -8) != 7 || r.Sunlight(12, 3, -8) != 15 {
		t.Fatalf("restore lost data: stage=%s", r.Stage())
	}
	if r.MaxHeight(12, -8) != 2 {
		t.Fatalf("height map not rebuilt: %d", r.MaxHeight(12, -8))
	}

	p := New(c.Key, 4, 8)
	if err := p.Restore(snap.Voxels, snap.Lights, true); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if p.Stage() != Decorated {
		t.Fatalf("needsPropagation restore stage=%s", p.Stage())
	}
	if err := New(c.Key, 4, 8).Restore(snap.Voxels[:3], snap.Lights, false); err == nil {
		t.Fatalf("short buffer accepted")
	}
}

func TestReleaseResets(t *testing.T) {
	c := New(Key{}, 2, 2)
	_ = c.Advance(Generating)
	c.Release()
	if c.Stage() != Unloaded || !c.Released() {
		t.Fatalf("release: stage=%s", c.Stage())
	}
	if c.Voxel(0, 0, 0) != 0 || c.SetVoxel(0, 0, 0, 1) {
		t.Fatalf("released chunk still accessible")
	}
}

func TestKeyNeighbors(t *testing.T) {
	k := Key{CX: 2, CZ: -1}
	seen := map[Key]bool{}
	for _, n := range k.Neighbors() {
		if n == k || !k.Adjacent(n) {
			t.Fatalf("bad neighbor %v", n)
		}
		seen[n] = true
	}
	if len(seen) != 8 {
		t.Fatalf("neighbors not distinct: %v", seen)
	}
	if KeyOf(-1, 16, 16) != (Key{CX: -1, CZ: 1}) {
		t.Fatalf("KeyOf=%v", KeyOf(-1, 16, 16))
	}
}
