package world

import (
	"fmt"

	"voxelmine.ai/internal/protocol"
	"voxelmine.ai/internal/sim/encoding"
	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/mesh"
)

// MeshChunk builds one pass of a ready chunk's geometry.
func (w *World) MeshChunk(c *chunk.Chunk, transparent bool) (*mesh.Geometry, error) {
	if c == nil || c.Stage() != chunk.Ready {
		return nil, ErrChunkNotReady
	}
	minX, minZ := c.Min()
	r := mesh.Region{MinX: minX, MinZ: minZ, Size: c.Size(), TopY: c.TopY(), MaxHeight: w.cfg.MaxHeight}
	return w.mesher.Build(w, r, transparent), nil
}

// meshFor returns the cached geometry of key, rebuilding it when the chunk
// or a neighbor changed since the last build.
func (w *World) meshFor(c *chunk.Chunk) (protocol.ChunkMesh, uint64, error) {
	if c == nil || c.Stage() != chunk.Ready {
		return protocol.ChunkMesh{}, 0, ErrChunkNotReady
	}
	if m, ok := w.meshes[c.Key]; ok && !c.MeshDirty() {
		return m, w.versions[c.Key], nil
	}
	opaque, err := w.MeshChunk(c, false)
	if err != nil {
		return protocol.ChunkMesh{}, 0, err
	}
	transparent, err := w.MeshChunk(c, true)
	if err != nil {
		return protocol.ChunkMesh{}, 0, err
	}
	m := protocol.ChunkMesh{Opaque: opaque, Transparent: transparent}
	w.meshes[c.Key] = m
	w.meshSeq++
	w.versions[c.Key] = w.meshSeq
	c.ClearMeshDirty()
	return m, w.versions[c.Key], nil
}

// Protocol builds the CHUNK message for key.
func (w *World) Protocol(key chunk.Key, needsVoxels bool) (protocol.ChunkMsg, error) {
	c, ok := w.chunks[key]
	if !ok {
		return protocol.ChunkMsg{}, fmt.Errorf("chunk %s: %w", key, ErrChunkNotReady)
	}
	m, _, err := w.meshFor(c)
	if err != nil {
		return protocol.ChunkMsg{}, fmt.Errorf("chunk %s: %w", key, err)
	}
	msg := protocol.ChunkMsg{
		Type:            protocol.TypeChunk,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick.Load(),
		X:               key.CX,
		Z:               key.CZ,
		Meshes:          []protocol.ChunkMesh{m},
	}
	if needsVoxels {
		msg.Voxels = encoding.EncodeRLE(c.Voxels())
	}
	return msg, nil
}
