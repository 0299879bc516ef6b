package world

import (
	"context"
	"fmt"
	"sync"

	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/light"
)

// EnsureChunks loads or generates every missing key as one parallel batch,
// waits for the whole batch, then runs the decoration and propagation gates
// around it in sorted key order.
func (w *World) EnsureChunks(ctx context.Context, keys []chunk.Key) error {
	var fresh []*chunk.Chunk
	for _, k := range keys {
		if _, ok := w.chunks[k]; ok {
			continue
		}
		c := chunk.New(k, w.cfg.ChunkSize, w.cfg.MaxHeight)
		w.chunks[k] = c
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	loaded := make([]chunk.Key, 0, len(fresh))
	for _, c := range fresh {
		if ctx.Err() != nil {
			delete(w.chunks, c.Key)
			continue
		}
		c := c
		wg.Add(1)
		w.pool.Submit(func() {
			defer wg.Done()
			w.loadOrGenerate(ctx, c)
		})
		loaded = append(loaded, c.Key)
	}
	wg.Wait()

	for _, k := range loaded {
		w.markMeshes(k)
	}
	w.advance(loaded)
	return ctx.Err()
}

// loadOrGenerate runs on a pool worker and touches only c.
func (w *World) loadOrGenerate(ctx context.Context, c *chunk.Chunk) {
	if w.store != nil {
		// A record still queued for writing is newer than the stored one.
		if rec, ok := w.saver.Pending(c.Key); ok {
			err := c.Restore(rec.Voxels, rec.Lights, rec.NeedsPropagation)
			if err == nil {
				return
			}
			w.logger.Printf("chunk %s: restore of queued record failed: %v", c.Key, err)
		}
		rec, ok, err := w.store.Load(ctx, c.Key)
		switch {
		case err != nil:
			w.logger.Printf("chunk %s: load failed, regenerating: %v", c.Key, err)
		case ok:
			if err := c.Restore(rec.Voxels, rec.Lights, rec.NeedsPropagation); err != nil {
				w.logger.Printf("chunk %s: restore failed, regenerating: %v", c.Key, err)
			} else {
				w.saver.Remember(rec)
				return
			}
		}
	}
	if err := c.Advance(chunk.Generating); err != nil {
		w.logger.Printf("%v", err)
		return
	}
	w.terrain.Generate(c)
	if err := c.Advance(chunk.Generated); err != nil {
		w.logger.Printf("%v", err)
	}
}

// advance runs both gates for every loaded chunk within two chunks of keys.
// Decoration of a chunk can unblock propagation of its neighbors, so all
// decoration runs first.
func (w *World) advance(keys []chunk.Key) {
	seen := map[chunk.Key]struct{}{}
	var around []chunk.Key
	for _, k := range keys {
		for dx := -2; dx <= 2; dx++ {
			for dz := -2; dz <= 2; dz++ {
				n := chunk.Key{CX: k.CX + dx, CZ: k.CZ + dz}
				if _, ok := seen[n]; ok {
					continue
				}
				seen[n] = struct{}{}
				if _, ok := w.chunks[n]; ok {
					around = append(around, n)
				}
			}
		}
	}
	chunk.SortKeys(around)

	for _, k := range around {
		if _, err := w.CheckDecoration(w.chunks[k]); err != nil {
			w.logger.Printf("decorate %s: %v", k, err)
		}
	}
	for _, k := range around {
		if _, err := w.CheckPropagation(w.chunks[k]); err != nil {
			w.logger.Printf("propagate %s: %v", k, err)
		}
	}
}

// CheckDecoration decorates c once it and all 8 neighbors have terrain.
// Updates reaching past the neighbors are rejected as a whole; the chunk
// still advances so the pipeline does not stall on it.
func (w *World) CheckDecoration(c *chunk.Chunk) (bool, error) {
	if c == nil || c.Stage() != chunk.Generated {
		return false, nil
	}
	for _, n := range w.Neighbors(c.Key) {
		if n == nil || n.NeedsTerrain() {
			return false, nil
		}
	}
	if err := c.Advance(chunk.Decorating); err != nil {
		return false, err
	}

	var ups []chunk.VoxelUpdate
	if w.decor != nil {
		ups = w.decor.Build(c, w)
	}
	berr := w.validateDecoration(c.Key, ups)
	if berr == nil {
		w.apply(ups, "", ReasonDecoration)
	}
	c.GenerateHeightMap()
	c.MarkNeedsSaving()
	if err := c.Advance(chunk.Decorated); err != nil {
		return false, err
	}
	return true, berr
}

func (w *World) validateDecoration(key chunk.Key, ups []chunk.VoxelUpdate) error {
	for _, u := range ups {
		k := chunk.KeyOf(u.X, u.Z, w.cfg.ChunkSize)
		if !key.Adjacent(k) || u.Y < 0 || u.Y >= w.cfg.MaxHeight {
			return fmt.Errorf("chunk %s: update at (%d,%d,%d): %w", key, u.X, u.Y, u.Z, ErrDecorationOutOfBounds)
		}
		if !w.reg.Known(u.Type) {
			return fmt.Errorf("chunk %s: update type %d: %w", key, u.Type, ErrUnknownBlock)
		}
	}
	return nil
}

// CheckPropagation lights c once it and all 8 neighbors are decorated.
func (w *World) CheckPropagation(c *chunk.Chunk) (bool, error) {
	if c == nil || c.Stage() != chunk.Decorated {
		return false, nil
	}
	for _, n := range w.Neighbors(c.Key) {
		if n == nil || n.NeedsDecoration() {
			return false, nil
		}
	}
	if err := c.Advance(chunk.PropagationPending); err != nil {
		return false, err
	}
	minX, minZ := c.Min()
	w.light.Propagate(w, light.Region{MinX: minX, MinZ: minZ, Size: c.Size()})
	if err := c.Advance(chunk.Ready); err != nil {
		return false, err
	}
	c.MarkNeedsSaving()
	w.markMeshes(c.Key)
	return true, nil
}
