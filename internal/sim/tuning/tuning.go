// Package tuning loads the engine configuration (configs/engine.yaml).
package tuning

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	ChunkSize     int `yaml:"chunk_size"`
	MaxHeight     int `yaml:"max_height"`
	MaxLightLevel int `yaml:"max_light_level"`

	TickRateHz     int `yaml:"tick_rate_hz"`
	SaveEveryTicks int `yaml:"save_every_ticks"`

	RenderRadius      int `yaml:"render_radius"`
	MaxChunks         int `yaml:"max_chunks"`
	GenerationWorkers int `yaml:"generation_workers"`

	RateLimits RateLimits `yaml:"rate_limits"`

	Store    Store    `yaml:"store"`
	WorldGen WorldGen `yaml:"worldgen"`
	Mesher   Mesher   `yaml:"mesher"`
}

type RateLimits struct {
	// EditsPerWindow caps voxel updates per session per window; 0 disables.
	EditWindowTicks int `yaml:"edit_window_ticks"`
	EditsPerWindow  int `yaml:"edits_per_window"`
}

type Store struct {
	// Backend is one of "sqlite", "leveldb", "memory".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type WorldGen struct {
	Seed            int64   `yaml:"seed"`
	SeaLevel        int     `yaml:"sea_level"`
	BaseHeight      int     `yaml:"base_height"`
	Amplitude       int     `yaml:"amplitude"`
	NoiseScale      float64 `yaml:"noise_scale"`
	BiomeRegionSize int     `yaml:"biome_region_size"`

	TreePermille  int `yaml:"tree_permille"`
	PlantPermille int `yaml:"plant_permille"`
	GlowPermille  int `yaml:"glow_cluster_permille"`
}

type Mesher struct {
	PlantShrink     float64 `yaml:"plant_shrink"`
	PlantJitter     float64 `yaml:"plant_jitter"`
	PlantNoiseScale float64 `yaml:"plant_noise_scale"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:   "1.0",
		ChunkSize:         16,
		MaxHeight:         128,
		MaxLightLevel:     15,
		TickRateHz:        20,
		SaveEveryTicks:    600,
		RenderRadius:      4,
		MaxChunks:         1024,
		GenerationWorkers: 4,
		RateLimits:        RateLimits{EditWindowTicks: 20, EditsPerWindow: 64},
		Store:             Store{Backend: "sqlite", Path: "data/chunks.sqlite"},
		WorldGen: WorldGen{
			Seed:            1337,
			SeaLevel:        40,
			BaseHeight:      44,
			Amplitude:       24,
			NoiseScale:      0.01,
			BiomeRegionSize: 128,
			TreePermille:    8,
			PlantPermille:   60,
			GlowPermille:    40,
		},
		Mesher: Mesher{PlantShrink: 0.6, PlantJitter: 0.15, PlantNoiseScale: 0.3},
	}
}

// Load reads path on top of Defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("engine.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("engine.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	d := Defaults()
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = d.ProtocolVersion
	}
	if t.MaxLightLevel == 0 {
		t.MaxLightLevel = d.MaxLightLevel
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.GenerationWorkers <= 0 {
		t.GenerationWorkers = 1
	}
	t.Store.Backend = strings.ToLower(strings.TrimSpace(t.Store.Backend))
	if t.Store.Backend == "" {
		t.Store.Backend = d.Store.Backend
	}
	if t.WorldGen.NoiseScale <= 0 {
		t.WorldGen.NoiseScale = d.WorldGen.NoiseScale
	}
	if t.WorldGen.BiomeRegionSize <= 0 {
		t.WorldGen.BiomeRegionSize = d.WorldGen.BiomeRegionSize
	}
	if t.Mesher.PlantNoiseScale <= 0 {
		t.Mesher.PlantNoiseScale = d.Mesher.PlantNoiseScale
	}
}

func (t Tuning) Validate() error {
	if t.ChunkSize < 1 || t.ChunkSize > 64 {
		return fmt.Errorf("chunk_size %d out of range [1,64]", t.ChunkSize)
	}
	if t.MaxHeight < 1 || t.MaxHeight > 1024 {
		return fmt.Errorf("max_height %d out of range [1,1024]", t.MaxHeight)
	}
	if t.MaxLightLevel < 1 || t.MaxLightLevel > 15 {
		return fmt.Errorf("max_light_level %d out of range [1,15]", t.MaxLightLevel)
	}
	if t.RenderRadius < 0 {
		return fmt.Errorf("render_radius must be >= 0")
	}
	if t.MaxChunks < 9 {
		return fmt.Errorf("max_chunks %d must allow at least one 3x3 neighborhood", t.MaxChunks)
	}
	if t.RateLimits.EditWindowTicks < 0 || t.RateLimits.EditsPerWindow < 0 {
		return fmt.Errorf("rate_limits must be >= 0")
	}
	if t.SaveEveryTicks < 0 {
		return fmt.Errorf("save_every_ticks must be >= 0")
	}
	switch t.Store.Backend {
	case "memory":
	case "sqlite", "leveldb":
		if strings.TrimSpace(t.Store.Path) == "" {
			return fmt.Errorf("store.path required for backend %s", t.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store.backend %q", t.Store.Backend)
	}
	if t.WorldGen.SeaLevel < 0 || t.WorldGen.SeaLevel >= t.MaxHeight {
		return fmt.Errorf("worldgen.sea_level %d outside [0,%d)", t.WorldGen.SeaLevel, t.MaxHeight)
	}
	if t.WorldGen.BaseHeight+t.WorldGen.Amplitude >= t.MaxHeight-8 {
		return fmt.Errorf("worldgen.base_height+amplitude leaves no headroom under max_height %d", t.MaxHeight)
	}
	for name, p := range map[string]int{
		"tree_permille":         t.WorldGen.TreePermille,
		"plant_permille":        t.WorldGen.PlantPermille,
		"glow_cluster_permille": t.WorldGen.GlowPermille,
	} {
		if p < 0 || p > 1000 {
			return fmt.Errorf("worldgen.%s %d out of range [0,1000]", name, p)
		}
	}
	if t.Mesher.PlantShrink <= 0 || t.Mesher.PlantShrink > 1 {
		return fmt.Errorf("mesher.plant_shrink %v out of range (0,1]", t.Mesher.PlantShrink)
	}
	if t.Mesher.PlantJitter < 0 || t.Mesher.PlantJitter > 0.5 {
		return fmt.Errorf("mesher.plant_jitter %v out of range [0,0.5]", t.Mesher.PlantJitter)
	}
	return nil
}

func (t Tuning) TickInterval() time.Duration {
	return time.Second / time.Duration(t.TickRateHz)
}
