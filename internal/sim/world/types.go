package world

import "voxelmine.ai/internal/sim/world/chunk"

// TerrainGenerator fills a fresh chunk. It must only touch that chunk.
type TerrainGenerator interface {
	Generate(c *chunk.Chunk)
	Palette() []string
}

// Decorator builds structures over generated terrain. Updates may fall in the
// chunk itself or any of its 8 neighbors.
type Decorator interface {
	Build(c *chunk.Chunk, r chunk.Reader) []chunk.VoxelUpdate
	Palette() []string
}

type EditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor,omitempty"`
	Reason string `json:"reason,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Z      int    `json:"z"`
	From   uint8  `json:"from"`
	To     uint8  `json:"to"`
}

type EditLogger interface {
	WriteEdit(e EditEntry) error
}

const (
	ReasonPlayer     = "player"
	ReasonDecoration = "decoration"
)
