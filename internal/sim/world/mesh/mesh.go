// Package mesh turns lit voxels into per-chunk surface geometry.
package mesh

import (
	"github.com/brentp/intintmap"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"

	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/logic/mathx"
)

// Space reads voxels and light in world coordinates. Out of range
// coordinates read as air with no light.
type Space interface {
	VoxelAt(x, y, z int) uint8
	Light(x, y, z int, ch chunk.Channel) uint8
}

// Region bounds one chunk: x in [MinX, MinX+Size), y in [0, TopY], z likewise.
type Region struct {
	MinX, MinZ int
	Size       int
	TopY       int
	MaxHeight  int
}

type Geometry struct {
	Positions   []float32 `json:"positions"`
	Indices     []uint32  `json:"indices"`
	UVs         []float32 `json:"uvs"`
	AOs         []float32 `json:"aos"`
	Sunlights   []float32 `json:"sunlights"`
	TorchLights []float32 `json:"torch_lights"`
}

func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	return len(g.Positions) / 3
}

func newGeometry(quads int) *Geometry {
	return &Geometry{
		Positions:   make([]float32, 0, quads*12),
		Indices:     make([]uint32, 0, quads*6),
		UVs:         make([]float32, 0, quads*8),
		AOs:         make([]float32, 0, quads*4),
		Sunlights:   make([]float32, 0, quads*4),
		TorchLights: make([]float32, 0, quads*4),
	}
}

type Options struct {
	Seed            int64
	PlantShrink     float64
	PlantJitter     float64
	PlantNoiseScale float64
}

type Mesher struct {
	reg   *registry.Registry
	opts  Options
	noise opensimplex.Noise
}

func New(reg *registry.Registry, opts Options) *Mesher {
	if opts.PlantShrink <= 0 {
		opts.PlantShrink = 1
	}
	return &Mesher{reg: reg, opts: opts, noise: opensimplex.New(opts.Seed)}
}

type quad struct {
	x, y, z int
	face    int
	plant   bool
	ao      [4]uint8
	slots   [4]int64
}

type vertexLight struct {
	torch, sun float32
}

// Build meshes one pass of a region. The transparent pass returns nil when
// it has nothing to draw.
func (m *Mesher) Build(s Space, r Region, transparent bool) *Geometry {
	top := r.TopY + 1
	if top > r.MaxHeight {
		top = r.MaxHeight
	}

	// Pass 1: pick faces and average the light of every vertex they touch.
	slots := intintmap.New(1024, 0.6)
	var lights []vertexLight
	var quads []quad
	for x := r.MinX; x < r.MinX+r.Size; x++ {
		for z := r.MinZ; z < r.MinZ+r.Size; z++ {
			for y := 0; y < top; y++ {
				def := m.reg.Get(s.VoxelAt(x, y, z))
				if def.IsEmpty || def.IsTransparent != transparent {
					continue
				}
				if def.IsPlant {
					quads = append(quads, quad{x: x, y: y, z: z, plant: true})
					continue
				}
				for f := range faces {
					if !m.visible(s, x, y, z, f, transparent, r.MaxHeight) {
						continue
					}
					q := quad{x: x, y: y, z: z, face: f}
					for c, cn := range faces[f].corners {
						q.ao[c] = m.occlusionAt(s, x, y, z, f, c)
						vx, vy, vz := x+cn.pos[0], y+cn.pos[1], z+cn.pos[2]
						key := mathx.PackVertex(vx, vy, vz)
						slot, ok := slots.Get(key)
						if !ok {
							slot = int64(len(lights))
							slots.Put(key, slot)
							lights = append(lights, m.sampleVertex(s, vx, vy, vz, r.MaxHeight))
						}
						q.slots[c] = slot
					}
					quads = append(quads, q)
				}
			}
		}
	}
	if len(quads) == 0 && transparent {
		return nil
	}

	// Pass 2: emit.
	g := newGeometry(len(quads))
	for _, q := range quads {
		if q.plant {
			m.emitPlant(s, g, q.x, q.y, q.z)
			continue
		}
		var torch [4]float32
		base := uint32(g.VertexCount())
		for c, cn := range faces[q.face].corners {
			l := lights[q.slots[c]]
			torch[c] = l.torch
			g.Positions = append(g.Positions, float32(q.x+cn.pos[0]), float32(q.y+cn.pos[1]), float32(q.z+cn.pos[2]))
			g.UVs = append(g.UVs, cn.uv[0], cn.uv[1])
			g.AOs = append(g.AOs, aoLevels[q.ao[c]])
			g.Sunlights = append(g.Sunlights, l.sun)
			g.TorchLights = append(g.TorchLights, l.torch)
		}
		idx := indicesDefault
		if flipQuad(q.ao, torch) {
			idx = indicesFlipped
		}
		for _, i := range idx {
			g.Indices = append(g.Indices, base+i)
		}
	}
	return g
}

// visible applies the culling rule: the neighbor must be transparent, and
// for the transparent pass also empty.
func (m *Mesher) visible(s Space, x, y, z, f int, transparent bool, maxHeight int) bool {
	d := faces[f].dir
	ny := y + d[1]
	if ny < 0 {
		return false
	}
	if ny >= maxHeight {
		return true
	}
	n := m.reg.Get(s.VoxelAt(x+d[0], ny, z+d[2]))
	if !n.IsTransparent {
		return false
	}
	return !transparent || n.IsEmpty
}

func (m *Mesher) occlusionAt(s Space, x, y, z, f, c int) uint8 {
	o := &aoSamples[f][c]
	side1 := m.reg.Opaque(s.VoxelAt(x+o[0][0], y+o[0][1], z+o[0][2]))
	side2 := m.reg.Opaque(s.VoxelAt(x+o[1][0], y+o[1][1], z+o[1][2]))
	cn := m.reg.Opaque(s.VoxelAt(x+o[2][0], y+o[2][1], z+o[2][2]))
	return occlusion(side1, side2, cn)
}

// sampleVertex averages both channels over the transparent cells among the
// 8 that share lattice point (vx, vy, vz).
func (m *Mesher) sampleVertex(s Space, vx, vy, vz, maxHeight int) vertexLight {
	var torch, sun, n int
	for dx := -1; dx <= 0; dx++ {
		for dy := -1; dy <= 0; dy++ {
			for dz := -1; dz <= 0; dz++ {
				x, y, z := vx+dx, vy+dy, vz+dz
				if y < 0 || y >= maxHeight || m.reg.Opaque(s.VoxelAt(x, y, z)) {
					continue
				}
				torch += int(s.Light(x, y, z, chunk.Torch))
				sun += int(s.Light(x, y, z, chunk.Sun))
				n++
			}
		}
	}
	if n == 0 {
		return vertexLight{}
	}
	return vertexLight{torch: float32(torch) / float32(n), sun: float32(sun) / float32(n)}
}

// Plant crosses: two diagonal quads through the cell center, shrunk about it.
var plantCorners = [2][4]mgl32.Vec3{
	{{-0.5, 0, -0.5}, {0.5, 0, 0.5}, {-0.5, 1, -0.5}, {0.5, 1, 0.5}},
	{{-0.5, 0, 0.5}, {0.5, 0, -0.5}, {-0.5, 1, 0.5}, {0.5, 1, -0.5}},
}

var plantUVs = [4][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

// PlantOffset is the per-column horizontal jitter of a plant cross.
func (m *Mesher) PlantOffset(x, z int) (dx, dz float32) {
	sc := m.opts.PlantNoiseScale
	fx, fz := float64(x)*sc, float64(z)*sc
	dx = float32(m.noise.Eval3(fx, 0, fz) * m.opts.PlantJitter)
	dz = float32(m.noise.Eval3(fx, 64, fz) * m.opts.PlantJitter)
	return dx, dz
}

func (m *Mesher) emitPlant(s Space, g *Geometry, x, y, z int) {
	dx, dz := m.PlantOffset(x, z)
	center := mgl32.Vec3{float32(x) + 0.5 + dx, float32(y) + 0.5, float32(z) + 0.5 + dz}
	shrink := float32(m.opts.PlantShrink)
	torch := float32(s.Light(x, y, z, chunk.Torch))
	sun := float32(s.Light(x, y, z, chunk.Sun))
	for _, plane := range plantCorners {
		base := uint32(g.VertexCount())
		for c, off := range plane {
			p := center.Add(off.Sub(mgl32.Vec3{0, 0.5, 0}).Mul(shrink))
			g.Positions = append(g.Positions, p.X(), p.Y(), p.Z())
			g.UVs = append(g.UVs, plantUVs[c][0], plantUVs[c][1])
			g.AOs = append(g.AOs, aoLevels[3])
			g.Sunlights = append(g.Sunlights, sun)
			g.TorchLights = append(g.TorchLights, torch)
		}
		for _, i := range indicesDefault {
			g.Indices = append(g.Indices, base+i)
		}
	}
}
