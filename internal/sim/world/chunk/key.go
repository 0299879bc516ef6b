package chunk

import (
	"fmt"
	"sort"

	"voxelmine.ai/internal/sim/world/logic/mathx"
)

type Key struct {
	CX int `json:"cx"`
	CZ int `json:"cz"`
}

// KeyOf returns the chunk owning world column (x, z).
func KeyOf(x, z, size int) Key {
	return Key{CX: mathx.FloorDiv(x, size), CZ: mathx.FloorDiv(z, size)}
}

func (k Key) String() string { return fmt.Sprintf("%d:%d", k.CX, k.CZ) }

// neighborOffsets lists the 8 surrounding chunks in row-major order.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

func (k Key) Neighbors() [8]Key {
	var out [8]Key
	for i, o := range neighborOffsets {
		out[i] = Key{CX: k.CX + o[0], CZ: k.CZ + o[1]}
	}
	return out
}

// Adjacent reports whether o is one of k's 8 neighbors or k itself.
func (k Key) Adjacent(o Key) bool {
	return mathx.AbsInt(k.CX-o.CX) <= 1 && mathx.AbsInt(k.CZ-o.CZ) <= 1
}

func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
}

// VoxelUpdate is a single voxel write in world coordinates.
type VoxelUpdate struct {
	X    int   `json:"x"`
	Y    int   `json:"y"`
	Z    int   `json:"z"`
	Type uint8 `json:"type"`
}

// Reader is a read-only world view spanning several chunks.
type Reader interface {
	VoxelAt(x, y, z int) uint8
	MaxHeightAt(x, z int) int
}
