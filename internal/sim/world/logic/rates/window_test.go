package rates

import "testing"

func TestWindowBudget(t *testing.T) {
	var w Window
	if ok, _ := w.Allow(10, 20, 5, 3); !ok {
		t.Fatalf("first spend denied")
	}
	ok, cooldown := w.Allow(15, 20, 5, 3)
	if ok || cooldown != 15 {
		t.Fatalf("over budget ok=%v cooldown=%d", ok, cooldown)
	}
	if w.Count != 3 {
		t.Fatalf("denied spend must not count: %d", w.Count)
	}
	if ok, _ := w.Allow(16, 20, 5, 2); !ok {
		t.Fatalf("exact budget denied")
	}
	if ok, _ := w.Allow(30, 20, 5, 5); !ok {
		t.Fatalf("new window denied")
	}
	if w.Start != 30 || w.Count != 5 {
		t.Fatalf("window not reset: %+v", w)
	}
}

func TestWindowDisabled(t *testing.T) {
	var w Window
	for i := 0; i < 100; i++ {
		if ok, _ := w.Allow(1, 0, 1, 10); !ok {
			t.Fatalf("disabled window denied")
		}
	}
}

func TestWindowAnchorsAtFirstSpend(t *testing.T) {
	var w Window
	if ok, _ := w.Allow(1000, 20, 2, 2); !ok {
		t.Fatalf("first spend denied")
	}
	ok, cooldown := w.Allow(1019, 20, 2, 1)
	if ok || cooldown != 1 {
		t.Fatalf("ok=%v cooldown=%d want denied with 1 tick left", ok, cooldown)
	}
	if w.Start != 1000 {
		t.Fatalf("start=%d want 1000", w.Start)
	}
}
