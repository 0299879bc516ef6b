package main

import (
	"context"
	"path/filepath"
	"testing"

	"voxelmine.ai/internal/persistence/chunkstore"
	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world"
	"voxelmine.ai/internal/sim/world/chunk"
)

const (
	testSize   = 4
	testHeight = 8
)

func testRecord(key chunk.Key) *chunkstore.Record {
	n := testSize * testSize * testHeight
	r := &chunkstore.Record{Key: key, Voxels: make([]byte, n), Lights: make([]byte, n)}
	for i := range r.Lights {
		r.Lights[i] = 0xF0
	}
	return r
}

func TestApplyRollbackRestoresOldestFrom(t *testing.T) {
	k := chunk.Key{CX: -1, CZ: 0}
	chunks := map[chunk.Key]*chunkstore.Record{
		k:              testRecord(k),
		{CX: 5, CZ: 5}: nil,
	}
	// Newest first, as readEdits orders them.
	recs := []editRec{
		{Seq: 3, Entry: world.EditEntry{Tick: 9, X: -1, Y: 2, Z: 3, From: 2, To: 3}},
		{Seq: 2, Entry: world.EditEntry{Tick: 5, X: -1, Y: 2, Z: 3, From: 1, To: 2}},
		{Seq: 1, Entry: world.EditEntry{Tick: 4, X: 21, Y: 2, Z: 21, From: 1, To: 0}},
		{Seq: 0, Entry: world.EditEntry{Tick: 4, X: -1, Y: 99, Z: 3, From: 1, To: 0}},
	}
	applied, skipped, touched := applyRollback(chunks, recs, testSize, testHeight)
	if applied != 2 || skipped != 2 {
		t.Fatalf("applied=%d skipped=%d", applied, skipped)
	}
	if len(touched) != 1 || touched[0] != k {
		t.Fatalf("touched=%v", touched)
	}
	rec := chunks[k]
	lx, lz := 3, 3 // x=-1 -> local 3 in chunk -1
	if got := rec.Voxels[(lx*testHeight+2)*testSize+lz]; got != 1 {
		t.Fatalf("voxel=%d want 1", got)
	}
	if !rec.NeedsPropagation {
		t.Fatalf("rolled back chunk must be flagged for propagation")
	}
	for i, l := range rec.Lights {
		if l != 0 {
			t.Fatalf("light %d not cleared: %#x", i, l)
		}
	}
}

func TestParseAABBOrdersCorners(t *testing.T) {
	min, max, err := parseAABB("5,1,-2:0,3,4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if min != [3]int{0, 1, -2} || max != [3]int{5, 3, 4} {
		t.Fatalf("min=%v max=%v", min, max)
	}
	if _, _, err := parseAABB("1,2:3,4"); err == nil {
		t.Fatalf("expected error for short vector")
	}
	if !withinAABB([3]int{0, 1, -2}, min, max) || withinAABB([3]int{6, 1, 0}, min, max) {
		t.Fatalf("withinAABB mismatch")
	}
}

func TestInspectCountsBlocksAndLight(t *testing.T) {
	reg := registry.Default()
	stone := reg.MustID("stone")
	rec := testRecord(chunk.Key{})
	rec.Voxels[0] = stone
	rec.Voxels[1] = stone
	rec.Lights[2] = 0x37

	r := inspect(*rec, reg)
	if r.Blocks["stone"] != 2 {
		t.Fatalf("stone=%d", r.Blocks["stone"])
	}
	if r.MaxSun != 15 || r.MaxTorch != 7 {
		t.Fatalf("max sun=%d torch=%d", r.MaxSun, r.MaxTorch)
	}
	if r.LitVoxels != len(rec.Lights) {
		t.Fatalf("lit=%d", r.LitVoxels)
	}
}

func TestQueryStatsOnChunkTable(t *testing.T) {
	sq, err := chunkstore.OpenSQLite(filepath.Join(t.TempDir(), "chunks.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := chunkstore.New(sq)
	defer s.Close()

	ctx := context.Background()
	for _, k := range []chunk.Key{{CX: -2, CZ: 1}, {CX: 3, CZ: -4}} {
		if err := s.Save(ctx, *testRecord(k)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	st, err := queryStats(sq.DB())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Chunks != 2 || st.MinCX != -2 || st.MaxCX != 3 || st.MinCZ != -4 || st.MaxCZ != 1 {
		t.Fatalf("stats=%+v", st)
	}
	if st.TotalBytes <= 0 || st.UpdatedAt == "" {
		t.Fatalf("stats=%+v", st)
	}
	rows, err := queryRecent(sq.DB(), 1)
	if err != nil || len(rows) != 1 {
		t.Fatalf("recent rows=%v err=%v", rows, err)
	}
}
