// Package registry maps voxel type ids to their physical properties.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Air is the reserved empty voxel type.
const Air uint8 = 0

const MaxLightLevel = 15

type BlockDef struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`

	IsBlock       bool  `json:"is_block"`
	IsEmpty       bool  `json:"is_empty"`
	IsSolid       bool  `json:"is_solid"`
	IsTransparent bool  `json:"is_transparent"`
	IsFluid       bool  `json:"is_fluid"`
	IsLight       bool  `json:"is_light"`
	LightLevel    uint8 `json:"light_level,omitempty"`
	IsPlant       bool  `json:"is_plant"`

	// Textures maps a face selector ("all", "top", "side", "bottom") to a texture name.
	Textures map[string]string `json:"textures,omitempty"`
}

type Registry struct {
	defs    [256]BlockDef
	known   [256]bool
	byName  map[string]uint8
	ordered []BlockDef

	Digest string
}

func New(defs []BlockDef) (*Registry, error) {
	r := &Registry{byName: make(map[string]uint8, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("block %d: empty name", d.ID)
		}
		if r.known[d.ID] {
			return nil, fmt.Errorf("block %d: duplicate id (%s, %s)", d.ID, r.defs[d.ID].Name, d.Name)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("block %s: duplicate name", d.Name)
		}
		if d.LightLevel > MaxLightLevel {
			return nil, fmt.Errorf("block %s: light_level %d exceeds %d", d.Name, d.LightLevel, MaxLightLevel)
		}
		if d.IsLight != (d.LightLevel > 0) {
			return nil, fmt.Errorf("block %s: is_light=%v with light_level %d", d.Name, d.IsLight, d.LightLevel)
		}
		if d.IsPlant && !d.IsTransparent {
			return nil, fmt.Errorf("block %s: plants must be transparent", d.Name)
		}
		if d.IsEmpty && !d.IsTransparent {
			return nil, fmt.Errorf("block %s: empty blocks must be transparent", d.Name)
		}
		r.defs[d.ID] = d
		r.known[d.ID] = true
		r.byName[d.Name] = d.ID
	}
	if !r.known[Air] {
		return nil, fmt.Errorf("missing block 0 (air)")
	}
	if !r.defs[Air].IsEmpty {
		return nil, fmt.Errorf("block 0 (%s) must be empty", r.defs[Air].Name)
	}
	for i := range r.known {
		if r.known[i] {
			r.ordered = append(r.ordered, r.defs[i])
		}
	}
	if r.Digest == "" {
		raw, _ := json.Marshal(r.ordered)
		r.Digest = sha256Hex(raw)
	}
	return r, nil
}

// Load reads a JSON array of block definitions.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	r, err := New(defs)
	if err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	r.Digest = sha256Hex(raw)
	return r, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Get returns the definition for id. Unknown ids read as air.
func (r *Registry) Get(id uint8) BlockDef {
	if !r.known[id] {
		return r.defs[Air]
	}
	return r.defs[id]
}

func (r *Registry) Known(id uint8) bool { return r.known[id] }

func (r *Registry) ByName(name string) (BlockDef, bool) {
	id, ok := r.byName[name]
	if !ok {
		return BlockDef{}, false
	}
	return r.defs[id], true
}

// MustID panics when name is not registered. Intended for callers that ran Require.
func (r *Registry) MustID(name string) uint8 {
	id, ok := r.byName[name]
	if !ok {
		panic("registry: unknown block " + name)
	}
	return id
}

// Require reports every name that is not registered.
func (r *Registry) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := r.byName[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing blocks: %v", missing)
}

func (r *Registry) Defs() []BlockDef {
	out := make([]BlockDef, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Transparent(id uint8) bool { return r.Get(id).IsTransparent }
func (r *Registry) Opaque(id uint8) bool      { return !r.Get(id).IsTransparent }
func (r *Registry) Empty(id uint8) bool       { return r.Get(id).IsEmpty }
func (r *Registry) Plant(id uint8) bool       { return r.Get(id).IsPlant }

// Emission is the torchlight level a block emits, 0 for non-emitters.
func (r *Registry) Emission(id uint8) uint8 {
	d := r.Get(id)
	if !d.IsLight {
		return 0
	}
	return d.LightLevel
}

// Texture resolves the texture for a face selector, falling back to "side" then "all".
func (d BlockDef) Texture(face string) string {
	if t, ok := d.Textures[face]; ok {
		return t
	}
	if face != "top" && face != "bottom" {
		if t, ok := d.Textures["side"]; ok {
			return t
		}
	}
	return d.Textures["all"]
}
