// Package gen is the default terrain source: noise heights, biome surfaces,
// sea water, surface plants and glowstone veins.
package gen

import (
	"github.com/ojrac/opensimplex-go"

	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/logic/mathx"
)

type Biome uint8

const (
	Plains Biome = iota
	Forest
	Desert
)

func (b Biome) String() string {
	switch b {
	case Forest:
		return "FOREST"
	case Desert:
		return "DESERT"
	default:
		return "PLAINS"
	}
}

func BiomeFrom(noise uint64) Biome {
	return Biome(noise % 3)
}

func BiomeAt(seed int64, x, z, regionSize int) Biome {
	if regionSize <= 0 {
		regionSize = 1
	}
	return BiomeFrom(mathx.Hash2(seed, mathx.FloorDiv(x, regionSize), mathx.FloorDiv(z, regionSize)))
}

func ClampPermille(v int) int {
	return mathx.ClampInt(v, 0, 1000)
}

// InCluster reports whether (x, z) lies within radius of the hashed center of
// a grid cell around it. Each cell holds a cluster with probability probPermille.
func InCluster(seed int64, x, z, grid, radius int, probPermille uint64) bool {
	if grid <= 0 || radius <= 0 || probPermille == 0 {
		return false
	}
	gx := mathx.FloorDiv(x, grid)
	gz := mathx.FloorDiv(z, grid)
	r2 := radius * radius

	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			cgx, cgz := gx+dx, gz+dz
			h := mathx.Hash2(seed, cgx, cgz)
			if h%1000 >= probPermille {
				continue
			}
			cx := cgx*grid + int((h>>10)%uint64(grid))
			cz := cgz*grid + int((h>>20)%uint64(grid))
			ddx, ddz := x-cx, z-cz
			if ddx*ddx+ddz*ddz <= r2 {
				return true
			}
		}
	}
	return false
}

type Config struct {
	Seed            int64
	MaxHeight       int
	SeaLevel        int
	BaseHeight      int
	Amplitude       int
	NoiseScale      float64
	BiomeRegionSize int
	PlantPermille   int
	GlowPermille    int
}

var palette = []string{"stone", "dirt", "grass", "sand", "snow", "water", "glowstone", "tall_grass", "flower"}

type blocks struct {
	stone, dirt, grass, sand, snow, water, glow, tallGrass, flower uint8
}

type Generator struct {
	cfg    Config
	ids    blocks
	height opensimplex.Noise
	detail opensimplex.Noise
}

func New(cfg Config, reg *registry.Registry) (*Generator, error) {
	if err := reg.Require(palette...); err != nil {
		return nil, err
	}
	return &Generator{
		cfg: cfg,
		ids: blocks{
			stone:     reg.MustID("stone"),
			dirt:      reg.MustID("dirt"),
			grass:     reg.MustID("grass"),
			sand:      reg.MustID("sand"),
			snow:      reg.MustID("snow"),
			water:     reg.MustID("water"),
			glow:      reg.MustID("glowstone"),
			tallGrass: reg.MustID("tall_grass"),
			flower:    reg.MustID("flower"),
		},
		height: opensimplex.New(cfg.Seed),
		detail: opensimplex.New(cfg.Seed + 1),
	}, nil
}

func (g *Generator) Palette() []string { return palette }

// HeightAt returns the terrain surface Y of world column (x, z).
func (g *Generator) HeightAt(x, z int) int {
	s := g.cfg.NoiseScale
	fx, fz := float64(x)*s, float64(z)*s
	n := g.height.Eval2(fx, fz) + 0.25*g.detail.Eval2(fx*4, fz*4)
	h := g.cfg.BaseHeight + int(n*float64(g.cfg.Amplitude))
	return mathx.ClampInt(h, 1, g.cfg.MaxHeight-8)
}

// Generate fills an empty chunk. It only touches c, so chunks may be
// generated concurrently.
func (g *Generator) Generate(c *chunk.Chunk) {
	minX, minZ := c.Min()
	for lx := 0; lx < c.Size(); lx++ {
		for lz := 0; lz < c.Size(); lz++ {
			g.column(c, lx, lz, minX+lx, minZ+lz)
		}
	}
	c.GenerateHeightMap()
}

func (g *Generator) column(c *chunk.Chunk, lx, lz, x, z int) {
	h := g.HeightAt(x, z)
	biome := BiomeAt(g.cfg.Seed, x, z, g.cfg.BiomeRegionSize)
	sea := g.cfg.SeaLevel

	top, filler := g.ids.grass, g.ids.dirt
	switch {
	case biome == Desert || h <= sea+1:
		top, filler = g.ids.sand, g.ids.sand
	case h > g.cfg.BaseHeight+g.cfg.Amplitude*3/4:
		top = g.ids.snow
	}

	for y := 0; y <= h; y++ {
		id := g.ids.stone
		switch {
		case y == h:
			id = top
		case y >= h-3:
			id = filler
		}
		c.SetLocalVoxel(lx, y, lz, id)
	}
	for y := h + 1; y <= sea; y++ {
		c.SetLocalVoxel(lx, y, lz, g.ids.water)
	}

	if vein := h - 6; vein > 1 && InCluster(g.cfg.Seed+101, x, z, 32, 2, uint64(ClampPermille(g.cfg.GlowPermille))) {
		c.SetLocalVoxel(lx, vein, lz, g.ids.glow)
	}

	if top == g.ids.grass && h+1 < c.Height() {
		roll := int(mathx.Hash2(g.cfg.Seed+7, x, z) % 1000)
		switch {
		case roll < ClampPermille(g.cfg.PlantPermille)/8:
			c.SetLocalVoxel(lx, h+1, lz, g.ids.flower)
		case roll < ClampPermille(g.cfg.PlantPermille):
			c.SetLocalVoxel(lx, h+1, lz, g.ids.tallGrass)
		}
	}
}
