package world

import (
	"context"
	"testing"

	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world/chunk"
)

const (
	testSize   = 4
	testHeight = 16
	testGround = 3
)

// flatTerrain fills every column with stone up to testGround.
type flatTerrain struct{ stone uint8 }

func (f flatTerrain) Palette() []string { return []string{"stone"} }

func (f flatTerrain) Generate(c *chunk.Chunk) {
	for lx := 0; lx < c.Size(); lx++ {
		for lz := 0; lz < c.Size(); lz++ {
			for y := 0; y <= testGround; y++ {
				c.SetLocalVoxel(lx, y, lz, f.stone)
			}
		}
	}
	c.GenerateHeightMap()
}

// stubDecor returns whatever build produces and counts calls per chunk.
type stubDecor struct {
	build func(c *chunk.Chunk, r chunk.Reader) []chunk.VoxelUpdate
	calls map[chunk.Key]int
}

func (d *stubDecor) Palette() []string { return []string{"glowstone"} }

func (d *stubDecor) Build(c *chunk.Chunk, r chunk.Reader) []chunk.VoxelUpdate {
	d.calls[c.Key]++
	if d.build == nil {
		return nil
	}
	return d.build(c, r)
}

type memEdits struct{ entries []EditEntry }

func (m *memEdits) WriteEdit(e EditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func testConfig() Config {
	return Config{
		ChunkSize:         testSize,
		MaxHeight:         testHeight,
		MaxLightLevel:     15,
		TickRateHz:        50,
		RenderRadius:      1,
		MaxChunks:         256,
		GenerationWorkers: 2,
		Seed:              7,
	}
}

func newTestWorld(t *testing.T, decor *stubDecor, opts Options) *World {
	t.Helper()
	reg := registry.Default()
	if decor == nil {
		decor = &stubDecor{}
	}
	if decor.calls == nil {
		decor.calls = map[chunk.Key]int{}
	}
	w, err := New(testConfig(), reg, flatTerrain{stone: reg.MustID("stone")}, decor, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func square(cx, cz, r int) []chunk.Key {
	var out []chunk.Key
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			out = append(out, chunk.Key{CX: cx + dx, CZ: cz + dz})
		}
	}
	return out
}

func ensure(t *testing.T, w *World, keys []chunk.Key) {
	t.Helper()
	if err := w.EnsureChunks(context.Background(), keys); err != nil {
		t.Fatalf("EnsureChunks: %v", err)
	}
}

func stageOf(t *testing.T, w *World, k chunk.Key) chunk.Stage {
	t.Helper()
	c, ok := w.Chunk(k)
	if !ok {
		t.Fatalf("chunk %s not loaded", k)
	}
	return c.Stage()
}
