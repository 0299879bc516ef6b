package mathx

import "testing"

func TestFloorDivAndMod(t *testing.T) {
	cases := []struct{ a, b, q, m int }{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.q {
			t.Fatalf("FloorDiv(%d,%d)=%d want %d", c.a, c.b, got, c.q)
		}
		if got := Mod(c.a, c.b); got != c.m {
			t.Fatalf("Mod(%d,%d)=%d want %d", c.a, c.b, got, c.m)
		}
	}
}

func TestPackVertexDistinct(t *testing.T) {
	seen := map[int64][3]int{}
	for x := -3; x <= 3; x++ {
		for y := 0; y <= 3; y++ {
			for z := -3; z <= 3; z++ {
				k := PackVertex(x, y, z)
				if prev, ok := seen[k]; ok {
					t.Fatalf("collision %v and %v", prev, [3]int{x, y, z})
				}
				seen[k] = [3]int{x, y, z}
			}
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	if Hash2(7, 3, -4) != Hash2(7, 3, -4) {
		t.Fatalf("Hash2 not deterministic")
	}
	if Hash2(7, 3, -4) == Hash2(8, 3, -4) {
		t.Fatalf("Hash2 ignores seed")
	}
}
