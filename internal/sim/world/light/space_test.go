package light

import (
	"testing"

	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/logic/mathx"
)

// testSpace is a fixed square of chunks spanning [-r, r] on both axes.
type testSpace struct {
	size, height int
	r            int
	chunks       map[chunk.Key]*chunk.Chunk
}

func newTestSpace(size, height, r int) *testSpace {
	s := &testSpace{size: size, height: height, r: r, chunks: map[chunk.Key]*chunk.Chunk{}}
	for cx := -r; cx <= r; cx++ {
		for cz := -r; cz <= r; cz++ {
			k := chunk.Key{CX: cx, CZ: cz}
			s.chunks[k] = chunk.New(k, size, height)
		}
	}
	return s
}

func (s *testSpace) at(x, z int) *chunk.Chunk {
	return s.chunks[chunk.KeyOf(x, z, s.size)]
}

func (s *testSpace) VoxelAt(x, y, z int) uint8 {
	if c := s.at(x, z); c != nil {
		return c.Voxel(x, y, z)
	}
	return 0
}

func (s *testSpace) Light(x, y, z int, ch chunk.Channel) uint8 {
	if c := s.at(x, z); c != nil {
		return c.Light(x, y, z, ch)
	}
	return 0
}

func (s *testSpace) SetLight(x, y, z int, ch chunk.Channel, level uint8) bool {
	if c := s.at(x, z); c != nil {
		return c.SetLight(x, y, z, ch, level)
	}
	return false
}

func (s *testSpace) MaxHeightAt(x, z int) int {
	if c := s.at(x, z); c != nil {
		return c.MaxHeight(x, z)
	}
	return 0
}

func (s *testSpace) SetMaxHeightAt(x, z, h int) {
	if c := s.at(x, z); c != nil {
		c.SetMaxHeight(x, z, h)
	}
}

func (s *testSpace) minXZ() int { return -s.r * s.size }
func (s *testSpace) maxXZ() int { return (s.r + 1) * s.size }

func (s *testSpace) set(x, y, z int, id uint8) {
	s.at(x, z).SetVoxel(x, y, z, id)
}

func (s *testSpace) propagateAll(p *Propagator) {
	for _, c := range s.chunks {
		c.GenerateHeightMap()
	}
	for k := range s.chunks {
		p.Propagate(s, Region{MinX: k.CX * s.size, MinZ: k.CZ * s.size, Size: s.size})
	}
}

// clone copies voxels only; light starts dark.
func (s *testSpace) clone() *testSpace {
	o := newTestSpace(s.size, s.height, s.r)
	for k, c := range s.chunks {
		copy(o.chunks[k].Voxels(), c.Voxels())
	}
	return o
}

func (s *testSpace) forEach(fn func(x, y, z int)) {
	for x := s.minXZ(); x < s.maxXZ(); x++ {
		for z := s.minXZ(); z < s.maxXZ(); z++ {
			for y := 0; y < s.height; y++ {
				fn(x, y, z)
			}
		}
	}
}

func assertSameLight(t *testing.T, got, want *testSpace) {
	t.Helper()
	bad := 0
	got.forEach(func(x, y, z int) {
		for _, ch := range []chunk.Channel{chunk.Torch, chunk.Sun} {
			g, w := got.Light(x, y, z, ch), want.Light(x, y, z, ch)
			if g != w {
				if bad < 5 {
					t.Errorf("%s at (%d,%d,%d): got %d want %d", ch, x, y, z, g, w)
				}
				bad++
			}
		}
	})
	if bad > 0 {
		t.Fatalf("%d light mismatches", bad)
	}
}

const (
	idStone = 1
	idGlass = 7
	idGlow  = 11
	idTorch = 12
	idLamp  = 40
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	defs := append(registry.DefaultDefs(), registry.BlockDef{
		ID: idLamp, Name: "lamp10", IsTransparent: true, IsLight: true, LightLevel: 10,
	})
	r, err := registry.New(defs)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

// scatter fills a deterministic mix of stone pillars and glass on a stone floor.
func scatter(s *testSpace, seed int64) {
	s.forEach(func(x, y, z int) {
		switch {
		case y == 0:
			s.set(x, y, z, idStone)
		case y < s.height-4:
			h := mathx.Hash3(seed, x, y, z) % 100
			if h < 18 {
				s.set(x, y, z, idStone)
			} else if h < 21 {
				s.set(x, y, z, idGlass)
			}
		}
	})
}
