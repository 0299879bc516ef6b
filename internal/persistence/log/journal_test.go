package log

import (
	"testing"
	"time"

	"voxelmine.ai/internal/sim/world"
)

func TestEditLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewEditLog(dir)
	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	l.j.now = func() time.Time { return day }

	in := []world.EditEntry{
		{Tick: 1, Actor: "s1", X: 1, Y: 2, Z: 3, From: 0, To: 1},
		{Tick: 2, Actor: "s1", X: -4, Y: 60, Z: 9, From: 1, To: 0},
	}
	if err := l.WriteEdit(in[0]); err != nil {
		t.Fatalf("write: %v", err)
	}
	day = day.Add(2 * time.Minute)
	if err := l.WriteEdit(in[1]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	paths, err := Segments(dir+"/edits", "edits")
	if err != nil || len(paths) != 2 {
		t.Fatalf("segments=%v err=%v", paths, err)
	}

	var got []world.EditEntry
	if err := ReadEdits(dir, func(e world.EditEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d entries", len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("entry %d: got %+v want %+v", i, got[i], in[i])
		}
	}
}

func TestEditLogAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		l := NewEditLog(dir)
		if err := l.WriteEdit(world.EditEntry{Tick: uint64(i), To: 1}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	n := 0
	if err := ReadEdits(dir, func(world.EditEntry) error { n++; return nil }); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 2 {
		t.Fatalf("entries=%d", n)
	}
}
