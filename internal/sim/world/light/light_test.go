package light

import (
	"testing"

	"voxelmine.ai/internal/sim/world/chunk"
)

func TestLevelTenEmitterInAir(t *testing.T) {
	reg := testRegistry(t)
	s := newTestSpace(8, 32, 2)
	p := New(reg, 32, 15)

	s.set(3, 12, 3, idLamp)
	p.Update(s, Change{X: 3, Y: 12, Z: 3, Old: 0, New: idLamp})

	if got := s.Light(3, 12, 3, chunk.Torch); got != 10 {
		t.Fatalf("source level=%d want 10", got)
	}
	for d := 1; d <= 12; d++ {
		want := uint8(0)
		if d < 10 {
			want = uint8(10 - d)
		}
		for _, pos := range [][3]int{{3 + d, 12, 3}, {3 - d, 12, 3}, {3, 12 + d, 3}, {3, 12 - d, 3}, {3, 12, 3 + d}, {3, 12, 3 - d}} {
			if got := s.Light(pos[0], pos[1], pos[2], chunk.Torch); got != want {
				t.Fatalf("distance %d at %v: got %d want %d", d, pos, got, want)
			}
		}
	}
	if got := s.Light(4, 13, 4, chunk.Torch); got != 7 {
		t.Fatalf("diagonal cell got %d want 7", got)
	}
}

// referenceTorch computes max(0, emission - shortest transparent path) per cell.
func referenceTorch(p *Propagator, s *testSpace) map[[3]int]uint8 {
	out := map[[3]int]uint8{}
	inside := func(x, y, z int) bool {
		return x >= s.minXZ() && x < s.maxXZ() && z >= s.minXZ() && z < s.maxXZ() && y >= 0 && y < s.height
	}
	s.forEach(func(x, y, z int) {
		e := p.reg.Emission(s.VoxelAt(x, y, z))
		if e == 0 {
			return
		}
		dist := map[[3]int]int{{x, y, z}: 0}
		queue := [][3]int{{x, y, z}}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			lvl := int(e) - dist[n]
			if uint8(lvl) > out[n] {
				out[n] = uint8(lvl)
			}
			if lvl <= 1 {
				continue
			}
			for _, off := range dirs {
				m := [3]int{n[0] + off[0], n[1] + off[1], n[2] + off[2]}
				if !inside(m[0], m[1], m[2]) || p.reg.Opaque(s.VoxelAt(m[0], m[1], m[2])) {
					continue
				}
				if _, seen := dist[m]; seen {
					continue
				}
				dist[m] = dist[n] + 1
				queue = append(queue, m)
			}
		}
	})
	return out
}

func TestTorchMatchesShortestPathLaw(t *testing.T) {
	reg := testRegistry(t)
	s := newTestSpace(8, 16, 1)
	p := New(reg, 16, 15)
	scatter(s, 42)
	s.set(2, 4, 2, idTorch)
	s.set(-5, 6, 9, idGlow)
	s.set(12, 3, -4, idLamp)
	s.propagateAll(p)

	ref := referenceTorch(p, s)
	s.forEach(func(x, y, z int) {
		if got, want := s.Light(x, y, z, chunk.Torch), ref[[3]int{x, y, z}]; got != want {
			t.Fatalf("torch at (%d,%d,%d): got %d want %d", x, y, z, got, want)
		}
	})
}

func TestPropagateIsFixedPoint(t *testing.T) {
	reg := testRegistry(t)
	s := newTestSpace(8, 16, 1)
	p := New(reg, 16, 15)
	scatter(s, 7)
	s.set(0, 5, 0, idGlow)
	s.propagateAll(p)

	before := s.clone()
	for k, c := range s.chunks {
		copy(before.chunks[k].Lights(), c.Lights())
	}
	s.propagateAll(p)
	assertSameLight(t, s, before)
}

func TestSunOpenColumnAndShaft(t *testing.T) {
	reg := testRegistry(t)
	const h = 16
	s := newTestSpace(8, h, 1)
	p := New(reg, h, 15)
	s.forEach(func(x, y, z int) {
		if y == 0 {
			s.set(x, y, z, idStone)
		}
	})
	// Walled shaft at (2,2), open to the sky above the walls.
	for y := 1; y < h-1; y++ {
		for _, w := range [][2]int{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
			s.set(w[0], y, w[1], idStone)
		}
	}
	s.propagateAll(p)

	for y := 1; y < h; y++ {
		if got := s.Light(2, y, 2, chunk.Sun); got != 15 {
			t.Fatalf("shaft y=%d sun=%d want 15", y, got)
		}
		if got := s.Light(5, y, 2, chunk.Sun); got != 15 {
			t.Fatalf("open column y=%d sun=%d want 15", y, got)
		}
	}

	s.set(2, h-1, 2, idStone)
	p.Update(s, Change{X: 2, Y: h - 1, Z: 2, Old: 0, New: idStone})

	for y := 1; y < h-1; y++ {
		if got := s.Light(2, y, 2, chunk.Sun); got != 0 {
			t.Fatalf("covered shaft y=%d sun=%d want 0", y, got)
		}
		if got := s.Light(5, y, 2, chunk.Sun); got != 15 {
			t.Fatalf("adjacent open column y=%d sun=%d want 15", y, got)
		}
	}
	if s.MaxHeightAt(2, 2) != h-1 {
		t.Fatalf("height map not raised: %d", s.MaxHeightAt(2, 2))
	}

	fresh := s.clone()
	fresh.propagateAll(p)
	assertSameLight(t, s, fresh)
}

func TestCoveringOpenColumnMatchesFreshPropagation(t *testing.T) {
	reg := testRegistry(t)
	s := newTestSpace(8, 16, 1)
	p := New(reg, 16, 15)
	s.forEach(func(x, y, z int) {
		if y == 0 {
			s.set(x, y, z, idStone)
		}
	})
	s.propagateAll(p)

	s.set(7, 9, 7, idStone)
	p.Update(s, Change{X: 7, Y: 9, Z: 7, Old: 0, New: idStone})
	if got := s.Light(7, 8, 7, chunk.Sun); got != 14 {
		t.Fatalf("under the block sun=%d want 14", got)
	}

	fresh := s.clone()
	fresh.propagateAll(p)
	assertSameLight(t, s, fresh)
}

func TestRemoveEmitterMatchesFreshPropagation(t *testing.T) {
	reg := testRegistry(t)
	for _, tc := range []struct {
		name string
		id   uint8
	}{{"torch", idTorch}, {"glowstone", idGlow}, {"lamp", idLamp}} {
		s := newTestSpace(8, 16, 1)
		p := New(reg, 16, 15)
		scatter(s, 99)
		s.set(4, 3, 4, tc.id)
		s.set(6, 3, 4, idTorch)
		s.set(-6, 8, 11, idGlow)
		s.propagateAll(p)

		s.set(4, 3, 4, 0)
		p.Update(s, Change{X: 4, Y: 3, Z: 4, Old: tc.id, New: 0})

		fresh := s.clone()
		fresh.propagateAll(p)
		t.Run(tc.name, func(t *testing.T) { assertSameLight(t, s, fresh) })
	}
}

func TestPlaceAndBreakSequenceMatchesFresh(t *testing.T) {
	reg := testRegistry(t)
	s := newTestSpace(8, 16, 1)
	p := New(reg, 16, 15)
	scatter(s, 3)
	s.set(0, 4, 0, idGlow)
	s.propagateAll(p)

	edits := []Change{
		{X: 1, Y: 4, Z: 0, New: idStone},
		{X: 3, Y: 12, Z: 3, New: idStone},
		{X: 3, Y: 12, Z: 4, New: idGlass},
		{X: 0, Y: 4, Z: 0, New: 0},
		{X: -3, Y: 6, Z: 2, New: idTorch},
		{X: 3, Y: 12, Z: 3, New: 0},
	}
	for _, e := range edits {
		e.Old = s.VoxelAt(e.X, e.Y, e.Z)
		s.set(e.X, e.Y, e.Z, e.New)
		p.Update(s, e)
	}

	fresh := s.clone()
	fresh.propagateAll(p)
	assertSameLight(t, s, fresh)
}

func TestFloodDropsWritesOutsideLoadedChunks(t *testing.T) {
	reg := testRegistry(t)
	s := newTestSpace(4, 8, 0)
	p := New(reg, 8, 15)
	s.set(3, 2, 3, idGlow)
	p.Update(s, Change{X: 3, Y: 2, Z: 3, New: idGlow})
	if got := s.Light(4, 2, 3, chunk.Torch); got != 0 {
		t.Fatalf("light leaked into unloaded space: %d", got)
	}
	if got := s.Light(2, 2, 3, chunk.Torch); got != 14 {
		t.Fatalf("in-chunk neighbor got %d want 14", got)
	}
}

func TestDecayRule(t *testing.T) {
	p := New(testRegistry(t), 8, 15)
	if p.decay(chunk.Sun, down, 15) != 15 {
		t.Fatalf("sun straight down at max must not decay")
	}
	if p.decay(chunk.Sun, down, 14) != 13 || p.decay(chunk.Torch, down, 15) != 14 || p.decay(chunk.Sun, 0, 15) != 14 {
		t.Fatalf("decay rule broken")
	}
}
