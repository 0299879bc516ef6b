package world

import (
	"voxelmine.ai/internal/sim/tuning"
	"voxelmine.ai/internal/sim/world/mesh"
)

type Config struct {
	ChunkSize     int
	MaxHeight     int
	MaxLightLevel uint8

	TickRateHz     int
	SaveEveryTicks int

	RenderRadius      int
	MaxChunks         int
	GenerationWorkers int

	// EditsPerWindow voxel updates per session every EditWindowTicks; 0 disables.
	EditWindowTicks int
	EditsPerWindow  int

	Seed int64
	Mesh mesh.Options
}

func ConfigFromTuning(t tuning.Tuning) Config {
	return Config{
		ChunkSize:         t.ChunkSize,
		MaxHeight:         t.MaxHeight,
		MaxLightLevel:     uint8(t.MaxLightLevel),
		TickRateHz:        t.TickRateHz,
		SaveEveryTicks:    t.SaveEveryTicks,
		RenderRadius:      t.RenderRadius,
		MaxChunks:         t.MaxChunks,
		GenerationWorkers: t.GenerationWorkers,
		EditWindowTicks:   t.RateLimits.EditWindowTicks,
		EditsPerWindow:    t.RateLimits.EditsPerWindow,
		Seed:              t.WorldGen.Seed,
		Mesh: mesh.Options{
			Seed:            t.WorldGen.Seed,
			PlantShrink:     t.Mesher.PlantShrink,
			PlantJitter:     t.Mesher.PlantJitter,
			PlantNoiseScale: t.Mesher.PlantNoiseScale,
		},
	}
}

func (c *Config) normalize() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 16
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 128
	}
	if c.MaxLightLevel == 0 || c.MaxLightLevel > 15 {
		c.MaxLightLevel = 15
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.RenderRadius <= 0 {
		c.RenderRadius = 4
	}
	if c.GenerationWorkers <= 0 {
		c.GenerationWorkers = 1
	}
}
