// Package light floods torchlight and sunlight through world space.
//
// The propagator never owns voxel data: it works through a Space, which
// resolves every world coordinate to whichever chunk owns it, so floods cross
// chunk borders without special cases.
package light

import (
	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world/chunk"
)

// Space is the world-space view the propagator reads and writes.
type Space interface {
	VoxelAt(x, y, z int) uint8
	Light(x, y, z int, ch chunk.Channel) uint8
	// SetLight reports false when no loaded chunk owns the coordinate.
	SetLight(x, y, z int, ch chunk.Channel, level uint8) bool
	MaxHeightAt(x, z int) int
	SetMaxHeightAt(x, z, h int)
}

type Node struct{ X, Y, Z int }

// Region is the horizontal footprint of one chunk.
type Region struct {
	MinX, MinZ int
	Size       int
}

type Change struct {
	X, Y, Z  int
	Old, New uint8
}

type Propagator struct {
	reg       *registry.Registry
	maxHeight int
	maxLevel  uint8
}

func New(reg *registry.Registry, maxHeight int, maxLevel uint8) *Propagator {
	return &Propagator{reg: reg, maxHeight: maxHeight, maxLevel: maxLevel}
}

func (p *Propagator) MaxLevel() uint8 { return p.maxLevel }

var dirs = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

const down = 3

func (p *Propagator) decay(ch chunk.Channel, dir int, level uint8) uint8 {
	if ch == chunk.Sun && dir == down && level == p.maxLevel {
		return level
	}
	return level - 1
}

// Propagate seeds both channels for one chunk footprint and floods them.
func (p *Propagator) Propagate(s Space, r Region) {
	var sun, torch []Node
	for x := r.MinX; x < r.MinX+r.Size; x++ {
		for z := r.MinZ; z < r.MinZ+r.Size; z++ {
			h := s.MaxHeightAt(x, z)
			for y := p.maxHeight - 1; y > h; y-- {
				s.SetLight(x, y, z, chunk.Sun, p.maxLevel)
				if p.shadedNeighbor(s, x, y, z) {
					sun = append(sun, Node{x, y, z})
				}
			}
			// A transparent column top (glass, leaves, water, or an all-air
			// column) passes full sunlight further down.
			if p.reg.Transparent(s.VoxelAt(x, h, z)) {
				s.SetLight(x, h, z, chunk.Sun, p.maxLevel)
				sun = append(sun, Node{x, h, z})
			}
			for y := 0; y <= h; y++ {
				e := p.reg.Emission(s.VoxelAt(x, y, z))
				if e == 0 {
					continue
				}
				if s.Light(x, y, z, chunk.Torch) < e {
					s.SetLight(x, y, z, chunk.Torch, e)
				}
				torch = append(torch, Node{x, y, z})
			}
		}
	}
	p.Flood(s, sun, chunk.Sun)
	p.Flood(s, torch, chunk.Torch)
}

// shadedNeighbor reports whether a horizontal neighbor column is taller than y,
// so sky light at this cell has to spread sideways under it.
func (p *Propagator) shadedNeighbor(s Space, x, y, z int) bool {
	return s.MaxHeightAt(x+1, z) > y || s.MaxHeightAt(x-1, z) > y ||
		s.MaxHeightAt(x, z+1) > y || s.MaxHeightAt(x, z-1) > y
}

// Flood spreads light breadth-first from queue. Levels are read from storage
// when a node is dequeued, so stale or retracted seeds flood nothing.
func (p *Propagator) Flood(s Space, queue []Node, ch chunk.Channel) {
	for head := 0; head < len(queue); head++ {
		n := queue[head]
		level := s.Light(n.X, n.Y, n.Z, ch)
		if level == 0 {
			continue
		}
		for d, off := range dirs {
			ny := n.Y + off[1]
			if ny < 0 || ny >= p.maxHeight {
				continue
			}
			nx, nz := n.X+off[0], n.Z+off[2]
			next := p.decay(ch, d, level)
			if next == 0 {
				continue
			}
			if p.reg.Opaque(s.VoxelAt(nx, ny, nz)) {
				continue
			}
			if s.Light(nx, ny, nz, ch) >= next {
				continue
			}
			if !s.SetLight(nx, ny, nz, ch, next) {
				continue
			}
			queue = append(queue, Node{nx, ny, nz})
		}
	}
}

type retracted struct {
	Node
	level uint8
}

// RemoveLight retracts the light at (x, y, z) and every level that could only
// have come from it, then refloods from the surviving brighter neighbors.
func (p *Propagator) RemoveLight(s Space, x, y, z int, ch chunk.Channel) {
	level := s.Light(x, y, z, ch)
	if level == 0 {
		return
	}
	s.SetLight(x, y, z, ch, 0)

	queue := []retracted{{Node{x, y, z}, level}}
	var refill []Node
	for head := 0; head < len(queue); head++ {
		e := queue[head]
		for d, off := range dirs {
			ny := e.Y + off[1]
			if ny < 0 || ny >= p.maxHeight {
				continue
			}
			nx, nz := e.X+off[0], e.Z+off[2]
			nl := s.Light(nx, ny, nz, ch)
			if nl == 0 {
				continue
			}
			straightSun := ch == chunk.Sun && d == down && e.level == p.maxLevel && nl == p.maxLevel
			if nl >= e.level && !straightSun {
				refill = append(refill, Node{nx, ny, nz})
				continue
			}
			// Emitters keep their own level and relight what was retracted.
			var floor uint8
			if ch == chunk.Torch {
				floor = p.reg.Emission(s.VoxelAt(nx, ny, nz))
			}
			s.SetLight(nx, ny, nz, ch, floor)
			queue = append(queue, retracted{Node{nx, ny, nz}, nl})
			if floor > 0 {
				refill = append(refill, Node{nx, ny, nz})
			}
		}
	}
	p.Flood(s, refill, ch)
}
