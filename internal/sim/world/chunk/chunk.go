// Package chunk stores the voxel, light and height buffers of one vertical column of the world.
package chunk

import (
	"fmt"

	"voxelmine.ai/internal/sim/world/logic/mathx"
)

// Channel selects one nibble of the packed light byte.
type Channel uint8

const (
	Torch Channel = iota
	Sun
)

func (ch Channel) String() string {
	if ch == Sun {
		return "sun"
	}
	return "torch"
}

// Chunk is a size x height x size column. All public accessors take world coordinates.
// Buffers are indexed (lx*height+y)*size+lz.
type Chunk struct {
	Key Key

	size   int
	height int
	minX   int
	minZ   int

	voxels    []uint8
	light     []uint8
	heightMap []int
	topY      int

	stage       Stage
	empty       bool
	needsSaving bool
	meshDirty   bool
}

func New(key Key, size, height int) *Chunk {
	return &Chunk{
		Key:       key,
		size:      size,
		height:    height,
		minX:      key.CX * size,
		minZ:      key.CZ * size,
		voxels:    make([]uint8, size*height*size),
		light:     make([]uint8, size*height*size),
		heightMap: make([]int, size*size),
		empty:     true,
		meshDirty: true,
	}
}

func (c *Chunk) Size() int   { return c.size }
func (c *Chunk) Height() int { return c.height }

// Min returns the world-space min corner on x and z.
func (c *Chunk) Min() (x, z int) { return c.minX, c.minZ }

// Max returns the exclusive world-space max corner on x and z.
func (c *Chunk) Max() (x, z int) { return c.minX + c.size, c.minZ + c.size }

func (c *Chunk) TopY() int     { return c.topY }
func (c *Chunk) IsEmpty() bool { return c.empty }

func (c *Chunk) index(lx, y, lz int) int { return (lx*c.height+y)*c.size + lz }

func (c *Chunk) local(x, y, z int) (lx, lz int, ok bool) {
	lx, lz = x-c.minX, z-c.minZ
	if lx < 0 || lx >= c.size || lz < 0 || lz >= c.size || y < 0 || y >= c.height {
		return 0, 0, false
	}
	return lx, lz, true
}

// Contains reports whether (x, y, z) falls inside the chunk widened by padding on x and z.
// Vertical bounds are never padded.
func (c *Chunk) Contains(x, y, z, padding int) bool {
	lx, lz := x-c.minX, z-c.minZ
	return lx >= -padding && lx <= c.size-1+padding &&
		lz >= -padding && lz <= c.size-1+padding &&
		y >= 0 && y < c.height
}

// OnBorder reports which horizontal edges a local-in-chunk coordinate touches.
// dx and dz are -1, 0 or 1.
func (c *Chunk) OnBorder(x, z int) (dx, dz int) {
	lx, lz := x-c.minX, z-c.minZ
	switch lx {
	case 0:
		dx = -1
	case c.size - 1:
		dx = 1
	}
	switch lz {
	case 0:
		dz = -1
	case c.size - 1:
		dz = 1
	}
	return dx, dz
}

func (c *Chunk) Voxel(x, y, z int) uint8 {
	lx, lz, ok := c.local(x, y, z)
	if !ok || c.voxels == nil {
		return 0
	}
	return c.voxels[c.index(lx, y, lz)]
}

// SetVoxel writes a voxel type. It does not touch light or the height map.
func (c *Chunk) SetVoxel(x, y, z int, id uint8) bool {
	lx, lz, ok := c.local(x, y, z)
	if !ok || c.voxels == nil {
		return false
	}
	i := c.index(lx, y, lz)
	if c.voxels[i] == id {
		return true
	}
	c.voxels[i] = id
	c.needsSaving = true
	c.meshDirty = true
	return true
}

// LocalVoxel and SetLocalVoxel skip translation and bounds checks for generators.
func (c *Chunk) LocalVoxel(lx, y, lz int) uint8 { return c.voxels[c.index(lx, y, lz)] }

func (c *Chunk) SetLocalVoxel(lx, y, lz int, id uint8) {
	c.voxels[c.index(lx, y, lz)] = id
	c.needsSaving = true
}

func (c *Chunk) Light(x, y, z int, ch Channel) uint8 {
	lx, lz, ok := c.local(x, y, z)
	if !ok || c.light == nil {
		return 0
	}
	v := c.light[c.index(lx, y, lz)]
	if ch == Sun {
		return v >> 4
	}
	return v & 0x0F
}

func (c *Chunk) SetLight(x, y, z int, ch Channel, level uint8) bool {
	lx, lz, ok := c.local(x, y, z)
	if !ok || c.light == nil {
		return false
	}
	i := c.index(lx, y, lz)
	v := c.light[i]
	if ch == Sun {
		v = v&0x0F | (level&0x0F)<<4
	} else {
		v = v&0xF0 | level&0x0F
	}
	if c.light[i] != v {
		c.light[i] = v
		c.needsSaving = true
		c.meshDirty = true
	}
	return true
}

func (c *Chunk) TorchLight(x, y, z int) uint8 { return c.Light(x, y, z, Torch) }
func (c *Chunk) Sunlight(x, y, z int) uint8   { return c.Light(x, y, z, Sun) }

func (c *Chunk) SetTorchLight(x, y, z int, level uint8) bool {
	return c.SetLight(x, y, z, Torch, level)
}

func (c *Chunk) SetSunlight(x, y, z int, level uint8) bool {
	return c.SetLight(x, y, z, Sun, level)
}

// MaxHeight returns the topmost non-air local Y of world column (x, z), 0 outside the chunk.
func (c *Chunk) MaxHeight(x, z int) int {
	lx, lz, ok := c.local(x, 0, z)
	if !ok || c.heightMap == nil {
		return 0
	}
	return c.heightMap[lx*c.size+lz]
}

// SetMaxHeight stores a column height. topY only grows.
func (c *Chunk) SetMaxHeight(x, z, h int) {
	lx, lz, ok := c.local(x, 0, z)
	if !ok || c.heightMap == nil {
		return
	}
	h = mathx.ClampInt(h, 0, c.height-1)
	c.heightMap[lx*c.size+lz] = h
	if h > c.topY {
		c.topY = h
	}
	if h > 0 || c.voxels[c.index(lx, 0, lz)] != 0 {
		c.empty = false
	}
}

// GenerateHeightMap rescans every column top-down and recomputes topY and emptiness.
func (c *Chunk) GenerateHeightMap() {
	c.topY = 0
	c.empty = true
	for lx := 0; lx < c.size; lx++ {
		for lz := 0; lz < c.size; lz++ {
			h := 0
			for y := c.height - 1; y >= 0; y-- {
				if c.voxels[c.index(lx, y, lz)] != 0 {
					h = y
					c.empty = false
					break
				}
			}
			c.heightMap[lx*c.size+lz] = h
			if h > c.topY {
				c.topY = h
			}
		}
	}
}

func (c *Chunk) NeedsSaving() bool { return c.needsSaving }
func (c *Chunk) MarkSaved()        { c.needsSaving = false }
func (c *Chunk) MarkNeedsSaving()  { c.needsSaving = true }

func (c *Chunk) MeshDirty() bool  { return c.meshDirty }
func (c *Chunk) MarkMeshDirty()   { c.meshDirty = true }
func (c *Chunk) ClearMeshDirty()  { c.meshDirty = false }
func (c *Chunk) Released() bool   { return c.voxels == nil }
func (c *Chunk) Voxels() []uint8  { return c.voxels }
func (c *Chunk) Lights() []uint8  { return c.light }
func (c *Chunk) HeightMap() []int { return c.heightMap }
func (c *Chunk) VolumeLen() int   { return c.size * c.height * c.size }
func (c *Chunk) String() string   { return fmt.Sprintf("chunk(%s %s)", c.Key, c.stage) }

// Snapshot is a consistent copy of the persisted buffers.
type Snapshot struct {
	Key              Key
	NeedsPropagation bool
	Voxels           []uint8
	Lights           []uint8
}

func (c *Chunk) Snapshot() Snapshot {
	s := Snapshot{
		Key:              c.Key,
		NeedsPropagation: c.NeedsPropagation(),
		Voxels:           make([]uint8, len(c.voxels)),
		Lights:           make([]uint8, len(c.light)),
	}
	copy(s.Voxels, c.voxels)
	copy(s.Lights, c.light)
	return s
}

// Restore loads persisted buffers into an unloaded chunk. A chunk saved before its
// light was propagated comes back as Decorated and re-propagates on top of the
// light its neighbors already flooded into it.
func (c *Chunk) Restore(voxels, lights []uint8, needsPropagation bool) error {
	if c.stage != Unloaded {
		return fmt.Errorf("chunk %s: restore in stage %s: %w", c.Key, c.stage, ErrIllegalTransition)
	}
	n := c.size * c.height * c.size
	if len(voxels) != n {
		return fmt.Errorf("chunk %s: voxel buffer length mismatch: got %d want %d", c.Key, len(voxels), n)
	}
	if len(lights) != n {
		return fmt.Errorf("chunk %s: light buffer length mismatch: got %d want %d", c.Key, len(lights), n)
	}
	if c.voxels == nil {
		c.voxels = make([]uint8, n)
		c.light = make([]uint8, n)
		c.heightMap = make([]int, c.size*c.size)
	}
	copy(c.voxels, voxels)
	copy(c.light, lights)
	c.GenerateHeightMap()
	c.needsSaving = false
	c.meshDirty = true
	if needsPropagation {
		return c.Advance(Decorated)
	}
	return c.Advance(Ready)
}

// Release drops all buffers and returns the chunk to Unloaded.
func (c *Chunk) Release() {
	c.voxels = nil
	c.light = nil
	c.heightMap = nil
	c.topY = 0
	c.empty = true
	c.stage = Unloaded
}
