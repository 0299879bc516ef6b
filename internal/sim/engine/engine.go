// Package engine wires the production terrain generator and tree decorator
// into a world built from the engine configuration.
package engine

import (
	"fmt"

	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/tuning"
	"voxelmine.ai/internal/sim/world"
	"voxelmine.ai/internal/sim/world/terrain/decor"
	"voxelmine.ai/internal/sim/world/terrain/gen"
)

func NewWorld(tu tuning.Tuning, reg *registry.Registry, opts world.Options) (*world.World, error) {
	wg := tu.WorldGen
	g, err := gen.New(gen.Config{
		Seed:            wg.Seed,
		MaxHeight:       tu.MaxHeight,
		SeaLevel:        wg.SeaLevel,
		BaseHeight:      wg.BaseHeight,
		Amplitude:       wg.Amplitude,
		NoiseScale:      wg.NoiseScale,
		BiomeRegionSize: wg.BiomeRegionSize,
		PlantPermille:   wg.PlantPermille,
		GlowPermille:    wg.GlowPermille,
	}, reg)
	if err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	trees, err := decor.NewTrees(wg.Seed, wg.TreePermille, reg)
	if err != nil {
		return nil, fmt.Errorf("decorator: %w", err)
	}
	return world.New(world.ConfigFromTuning(tu), reg, g, trees, opts)
}
