package world

import (
	"fmt"

	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/light"
)

// Update writes one voxel and repairs light around it.
func (w *World) Update(x, y, z int, id uint8) error {
	return w.UpdateMany([]chunk.VoxelUpdate{{X: x, Y: y, Z: z, Type: id}})
}

// UpdateMany validates the whole batch before writing any of it.
func (w *World) UpdateMany(ups []chunk.VoxelUpdate) error {
	return w.updateAs(ups, "", ReasonPlayer)
}

func (w *World) updateAs(ups []chunk.VoxelUpdate, actor, reason string) error {
	for _, u := range ups {
		if u.Y < 0 || u.Y >= w.cfg.MaxHeight || w.chunkAt(u.X, u.Z) == nil {
			return fmt.Errorf("update at (%d,%d,%d): %w", u.X, u.Y, u.Z, ErrOutOfWorld)
		}
		if !w.reg.Known(u.Type) {
			return fmt.Errorf("update type %d: %w", u.Type, ErrUnknownBlock)
		}
	}
	w.apply(ups, actor, reason)
	return nil
}

// apply writes pre-validated updates. Light is only maintained where some
// chunk in the 3x3 around the target has been propagated; elsewhere the later
// propagation pass computes it from scratch.
func (w *World) apply(ups []chunk.VoxelUpdate, actor, reason string) {
	tick := w.tick.Load()
	for _, u := range ups {
		c := w.chunkAt(u.X, u.Z)
		if c == nil {
			continue
		}
		old := c.Voxel(u.X, u.Y, u.Z)
		if old == u.Type || !c.SetVoxel(u.X, u.Y, u.Z, u.Type) {
			continue
		}
		ch := light.Change{X: u.X, Y: u.Y, Z: u.Z, Old: old, New: u.Type}
		if w.lit(c.Key) {
			w.light.Update(w, ch)
		} else {
			w.light.UpdateHeight(w, ch)
		}
		if dx, dz := c.OnBorder(u.X, u.Z); dx != 0 || dz != 0 {
			w.markBorder(c.Key, dx, dz)
		}
		if w.edits != nil {
			e := EditEntry{Tick: tick, Actor: actor, Reason: reason, X: u.X, Y: u.Y, Z: u.Z, From: old, To: u.Type}
			if err := w.edits.WriteEdit(e); err != nil {
				w.logger.Printf("edit log: %v", err)
			}
		}
	}
}

func (w *World) lit(key chunk.Key) bool {
	if c := w.chunks[key]; c != nil && c.Stage() == chunk.Ready {
		return true
	}
	for _, n := range w.Neighbors(key) {
		if n != nil && n.Stage() == chunk.Ready {
			return true
		}
	}
	return false
}

// markBorder flags the neighbors that share the edited border column.
func (w *World) markBorder(key chunk.Key, dx, dz int) {
	mark := func(k chunk.Key) {
		if n := w.chunks[k]; n != nil {
			n.MarkMeshDirty()
		}
	}
	if dx != 0 {
		mark(chunk.Key{CX: key.CX + dx, CZ: key.CZ})
	}
	if dz != 0 {
		mark(chunk.Key{CX: key.CX, CZ: key.CZ + dz})
	}
	if dx != 0 && dz != 0 {
		mark(chunk.Key{CX: key.CX + dx, CZ: key.CZ + dz})
	}
}
