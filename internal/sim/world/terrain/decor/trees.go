// Package decor places structures over generated terrain. Structures may
// spill into the 8 neighboring chunks but never further.
package decor

import (
	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/logic/mathx"
)

var palette = []string{"grass", "dirt", "oak_log", "oak_leaves"}

// Trees scatters oak trees on grass. Placement depends only on the seed and
// world coordinates, so regenerating a chunk rebuilds the same trees.
type Trees struct {
	seed     int64
	permille int
	// Reach is how far leaves extend from the trunk.
	Reach int

	grass, dirt, log, leaves uint8
}

func NewTrees(seed int64, permille int, reg *registry.Registry) (*Trees, error) {
	if err := reg.Require(palette...); err != nil {
		return nil, err
	}
	return &Trees{
		seed:     seed,
		permille: mathx.ClampInt(permille, 0, 1000),
		Reach:    2,
		grass:    reg.MustID("grass"),
		dirt:     reg.MustID("dirt"),
		log:      reg.MustID("oak_log"),
		leaves:   reg.MustID("oak_leaves"),
	}, nil
}

func (t *Trees) Palette() []string { return palette }

func (t *Trees) Build(c *chunk.Chunk, r chunk.Reader) []chunk.VoxelUpdate {
	var out []chunk.VoxelUpdate
	minX, minZ := c.Min()
	chunkSeed := int64(mathx.Hash2(t.seed, c.Key.CX, c.Key.CZ))
	for lx := 0; lx < c.Size(); lx++ {
		for lz := 0; lz < c.Size(); lz++ {
			x, z := minX+lx, minZ+lz
			h := mathx.Hash2(chunkSeed, lx, lz)
			if !mathx.Permille(h, t.permille) {
				continue
			}
			ground := t.surface(r, x, z)
			if ground < 0 || r.VoxelAt(x, ground, z) != t.grass {
				continue
			}
			trunk := 4 + int((h>>12)%3)
			if ground+trunk+2 >= c.Height() {
				continue
			}
			out = t.tree(out, r, x, ground, z, trunk)
		}
	}
	return out
}

func (t *Trees) tree(out []chunk.VoxelUpdate, r chunk.Reader, x, ground, z, trunk int) []chunk.VoxelUpdate {
	out = append(out, chunk.VoxelUpdate{X: x, Y: ground, Z: z, Type: t.dirt})
	top := ground + trunk
	for y := ground + 1; y <= top; y++ {
		out = append(out, chunk.VoxelUpdate{X: x, Y: y, Z: z, Type: t.log})
	}
	for y := top - 1; y <= top+1; y++ {
		reach := t.Reach
		if y > top {
			reach = 1
		}
		for dx := -reach; dx <= reach; dx++ {
			for dz := -reach; dz <= reach; dz++ {
				if dx == 0 && dz == 0 && y <= top {
					continue
				}
				// Round off the corners of the canopy.
				if mathx.AbsInt(dx) == reach && mathx.AbsInt(dz) == reach && reach > 1 {
					continue
				}
				// Trunks and terrain win over leaves whichever tree is built first.
				if v := r.VoxelAt(x+dx, y, z+dz); v != 0 && v != t.leaves {
					continue
				}
				out = append(out, chunk.VoxelUpdate{X: x + dx, Y: y, Z: z + dz, Type: t.leaves})
			}
		}
	}
	return out
}

// surface is the top terrain block of a column, looking through leaves that
// neighboring trees may already have spilled over it.
func (t *Trees) surface(r chunk.Reader, x, z int) int {
	for y := r.MaxHeightAt(x, z); y >= 0; y-- {
		if v := r.VoxelAt(x, y, z); v != 0 && v != t.leaves {
			return y
		}
	}
	return -1
}
