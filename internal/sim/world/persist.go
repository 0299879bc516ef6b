package world

import (
	"voxelmine.ai/internal/persistence/chunkstore"
	"voxelmine.ai/internal/sim/world/chunk"
)

// SaveDirty snapshots every dirty chunk that finished decoration and hands
// the copies to the saver. Chunks still waiting on terrain or decoration are
// regenerated instead of restored.
func (w *World) SaveDirty() int {
	if w.saver == nil {
		return 0
	}
	keys := make([]chunk.Key, 0, len(w.chunks))
	for k, c := range w.chunks {
		if c.NeedsSaving() && !c.Released() && c.Stage() >= chunk.Decorated {
			keys = append(keys, k)
		}
	}
	chunk.SortKeys(keys)
	for _, k := range keys {
		w.save(w.chunks[k])
	}
	return len(keys)
}

func (w *World) save(c *chunk.Chunk) {
	if w.saver == nil || c.Stage() < chunk.Decorated {
		return
	}
	if w.saver.Enqueue(chunkstore.FromSnapshot(c.Snapshot())) {
		c.MarkSaved()
	}
}

// Unload saves key if needed, drops its buffers and flags neighbors for
// remeshing since their border faces now face air.
func (w *World) Unload(key chunk.Key) bool {
	c, ok := w.chunks[key]
	if !ok {
		return false
	}
	if c.NeedsSaving() {
		w.save(c)
	}
	c.Release()
	delete(w.chunks, key)
	delete(w.meshes, key)
	delete(w.versions, key)
	w.markMeshes(key)
	return true
}
