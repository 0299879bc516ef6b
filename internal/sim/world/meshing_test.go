package world

import (
	"errors"
	"testing"

	"voxelmine.ai/internal/sim/encoding"
	"voxelmine.ai/internal/sim/world/chunk"
)

func TestProtocolRequiresReady(t *testing.T) {
	w := newTestWorld(t, nil, Options{})
	ensure(t, w, square(0, 0, 1))
	if _, err := w.Protocol(chunk.Key{}, false); !errors.Is(err, ErrChunkNotReady) {
		t.Fatalf("expected ErrChunkNotReady, got %v", err)
	}
	if _, err := w.Protocol(chunk.Key{CX: 9, CZ: 9}, false); !errors.Is(err, ErrChunkNotReady) {
		t.Fatalf("expected ErrChunkNotReady for a missing chunk, got %v", err)
	}
}

func TestProtocolBuildsAndCachesMeshes(t *testing.T) {
	w := newTestWorld(t, nil, Options{})
	ensure(t, w, square(0, 0, 2))

	msg, err := w.Protocol(chunk.Key{}, true)
	if err != nil {
		t.Fatalf("Protocol: %v", err)
	}
	if msg.Type != "CHUNK" || msg.X != 0 || msg.Z != 0 || len(msg.Meshes) != 1 {
		t.Fatalf("unexpected message header: %+v", msg)
	}
	m := msg.Meshes[0]
	// The flat top of the ground: one quad per column.
	if got := m.Opaque.VertexCount(); got != 4*testSize*testSize {
		t.Fatalf("opaque vertices=%d want %d", got, 4*testSize*testSize)
	}
	if m.Transparent != nil {
		t.Fatalf("transparent pass should be nil without transparent blocks")
	}
	voxels, err := encoding.DecodeRLE(msg.Voxels, testSize*testSize*testHeight)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(voxels) != testSize*testSize*testHeight {
		t.Fatalf("voxel payload length=%d", len(voxels))
	}

	c, _ := w.Chunk(chunk.Key{})
	_, v1, _ := w.meshFor(c)
	_, v2, _ := w.meshFor(c)
	if v1 != v2 {
		t.Fatalf("clean chunk was remeshed")
	}
	if err := w.Update(1, testGround+1, 1, w.reg.MustID("glass")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	m3, v3, _ := w.meshFor(c)
	if v3 == v2 {
		t.Fatalf("edit did not trigger a remesh")
	}
	if m3.Transparent == nil || m3.Transparent.VertexCount() == 0 {
		t.Fatalf("glass should appear in the transparent pass")
	}
}

func TestBorderLightDirtiesNeighborMesh(t *testing.T) {
	w := newTestWorld(t, nil, Options{})
	ensure(t, w, square(0, 0, 2))
	c, _ := w.Chunk(chunk.Key{})
	_, v1, err := w.meshFor(c)
	if err != nil {
		t.Fatalf("meshFor: %v", err)
	}

	// West neighbor's east column feeds the vertex light of this chunk.
	if !w.SetTorchLight(-1, testGround+2, 1, 9) {
		t.Fatalf("SetTorchLight rejected a loaded cell")
	}
	if !c.MeshDirty() {
		t.Fatalf("light change on the shared border should dirty the neighbor mesh")
	}
	_, v2, _ := w.meshFor(c)
	if v2 == v1 {
		t.Fatalf("neighbor mesh was not rebuilt")
	}

	w.SetTorchLight(-1, testGround+2, 1, 9)
	if c.MeshDirty() {
		t.Fatalf("rewriting the same level should not dirty the neighbor")
	}

	// Interior cells of the west chunk leave this chunk alone.
	w.SetTorchLight(-3, testGround+2, 1, 9)
	if c.MeshDirty() {
		t.Fatalf("interior light write dirtied a neighbor")
	}
}
