// Package world owns the loaded chunks and drives them through generation,
// decoration, light propagation and meshing. All state belongs to the world
// loop goroutine; other goroutines talk to it through channels.
package world

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"

	"voxelmine.ai/internal/persistence/chunkstore"
	"voxelmine.ai/internal/protocol"
	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/light"
	"voxelmine.ai/internal/sim/world/mesh"
)

var (
	ErrDecorationOutOfBounds = errors.New("decoration outside neighboring chunks")
	ErrChunkNotReady         = errors.New("chunk not ready")
	ErrOutOfWorld            = errors.New("position outside loaded world")
	ErrUnknownBlock          = errors.New("unknown block")
)

type Options struct {
	// Store is optional; without it chunks are always generated.
	Store  *chunkstore.Store
	Edits  EditLogger
	Logger *log.Logger
}

type World struct {
	cfg Config
	reg *registry.Registry

	terrain TerrainGenerator
	decor   Decorator

	store  *chunkstore.Store
	saver  *chunkstore.Saver
	edits  EditLogger
	logger *log.Logger

	light  *light.Propagator
	mesher *mesh.Mesher
	pool   pond.Pool

	chunks   map[chunk.Key]*chunk.Chunk
	meshes   map[chunk.Key]protocol.ChunkMesh
	versions map[chunk.Key]uint64
	meshSeq  uint64

	tick atomic.Uint64

	join      chan JoinRequest
	leave     chan string
	requests  chan ViewRequest
	editReqs  chan EditRequest
	stop      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once

	clients map[string]*clientState

	metrics atomic.Value
}

func New(cfg Config, reg *registry.Registry, terrain TerrainGenerator, decor Decorator, opts Options) (*World, error) {
	cfg.normalize()
	if reg == nil {
		return nil, fmt.Errorf("nil registry")
	}
	if terrain == nil {
		return nil, fmt.Errorf("nil terrain generator")
	}
	if err := reg.Require(terrain.Palette()...); err != nil {
		return nil, fmt.Errorf("terrain palette: %w", err)
	}
	if decor != nil {
		if err := reg.Require(decor.Palette()...); err != nil {
			return nil, fmt.Errorf("decorator palette: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	w := &World{
		cfg:      cfg,
		reg:      reg,
		terrain:  terrain,
		decor:    decor,
		store:    opts.Store,
		edits:    opts.Edits,
		logger:   logger,
		light:    light.New(reg, cfg.MaxHeight, cfg.MaxLightLevel),
		mesher:   mesh.New(reg, cfg.Mesh),
		pool:     pond.NewPool(cfg.GenerationWorkers),
		chunks:   map[chunk.Key]*chunk.Chunk{},
		meshes:   map[chunk.Key]protocol.ChunkMesh{},
		versions: map[chunk.Key]uint64{},
		join:     make(chan JoinRequest, 64),
		leave:    make(chan string, 64),
		requests: make(chan ViewRequest, 256),
		editReqs: make(chan EditRequest, 256),
		stop:     make(chan struct{}),
		clients:  map[string]*clientState{},
	}
	if w.store != nil {
		w.saver = chunkstore.NewSaver(w.store, 256, logger)
	}
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

func (w *World) Config() Config               { return w.cfg }
func (w *World) Registry() *registry.Registry { return w.reg }
func (w *World) CurrentTick() uint64          { return w.tick.Load() }

// Close flushes every dirty chunk and waits for pending writes. Call it after
// Run has returned.
func (w *World) Close() {
	w.closeOnce.Do(func() {
		w.pool.StopAndWait()
		w.SaveDirty()
		if w.saver != nil {
			w.saver.Close()
		}
	})
}

func (w *World) chunkAt(x, z int) *chunk.Chunk {
	c := w.chunks[chunk.KeyOf(x, z, w.cfg.ChunkSize)]
	if c == nil || c.Released() {
		return nil
	}
	return c
}

// Chunk returns a loaded chunk.
func (w *World) Chunk(key chunk.Key) (*chunk.Chunk, bool) {
	c, ok := w.chunks[key]
	return c, ok
}

// Neighbors returns the 8 surrounding chunks in chunk.Key.Neighbors order,
// nil where a neighbor is not loaded.
func (w *World) Neighbors(key chunk.Key) [8]*chunk.Chunk {
	var out [8]*chunk.Chunk
	for i, k := range key.Neighbors() {
		out[i] = w.chunks[k]
	}
	return out
}

func (w *World) Loaded() int { return len(w.chunks) }

func (w *World) VoxelAt(x, y, z int) uint8 {
	if c := w.chunkAt(x, z); c != nil {
		return c.Voxel(x, y, z)
	}
	return registry.Air
}

func (w *World) BlockAt(x, y, z int) registry.BlockDef {
	return w.reg.Get(w.VoxelAt(x, y, z))
}

func (w *World) MaxHeightAt(x, z int) int {
	if c := w.chunkAt(x, z); c != nil {
		return c.MaxHeight(x, z)
	}
	return 0
}

func (w *World) SetMaxHeightAt(x, z, h int) {
	if c := w.chunkAt(x, z); c != nil {
		c.SetMaxHeight(x, z, h)
	}
}

func (w *World) Light(x, y, z int, ch chunk.Channel) uint8 {
	if c := w.chunkAt(x, z); c != nil {
		return c.Light(x, y, z, ch)
	}
	return 0
}

func (w *World) SetLight(x, y, z int, ch chunk.Channel, level uint8) bool {
	c := w.chunkAt(x, z)
	if c == nil {
		return false
	}
	prev := c.Light(x, y, z, ch)
	if !c.SetLight(x, y, z, ch, level) {
		return false
	}
	// Neighbor meshes sample border light for smoothing and AO.
	if prev != level&0x0F {
		if dx, dz := c.OnBorder(x, z); dx != 0 || dz != 0 {
			w.markBorder(c.Key, dx, dz)
		}
	}
	return true
}

func (w *World) TorchLight(x, y, z int) uint8 { return w.Light(x, y, z, chunk.Torch) }
func (w *World) Sunlight(x, y, z int) uint8   { return w.Light(x, y, z, chunk.Sun) }

func (w *World) SetTorchLight(x, y, z int, level uint8) bool {
	return w.SetLight(x, y, z, chunk.Torch, level)
}

func (w *World) SetSunlight(x, y, z int, level uint8) bool {
	return w.SetLight(x, y, z, chunk.Sun, level)
}

// markMeshes flags the chunk at key and its neighbors for remeshing.
func (w *World) markMeshes(key chunk.Key) {
	if c := w.chunks[key]; c != nil {
		c.MarkMeshDirty()
	}
	for _, n := range w.Neighbors(key) {
		if n != nil {
			n.MarkMeshDirty()
		}
	}
}
