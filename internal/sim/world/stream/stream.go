// Package stream decides which chunks a set of viewers needs, nearest first.
package stream

import (
	"sort"

	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/logic/mathx"
)

// LoadMargin is how far past the view radius chunks are loaded so that every
// chunk inside the radius can reach the ready stage.
const LoadMargin = 2

// ComputeWanted returns every chunk within radius (square) of any center,
// ordered by Manhattan distance to the closest center, then by key.
// The result is clipped to max entries.
func ComputeWanted(centers []chunk.Key, radius, max int) []chunk.Key {
	if radius < 0 {
		radius = 0
	}
	if max <= 0 {
		max = 1024
	}
	type item struct {
		k    chunk.Key
		dist int
	}
	dist := map[chunk.Key]int{}
	for _, c := range centers {
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				k := chunk.Key{CX: c.CX + dx, CZ: c.CZ + dz}
				d := mathx.AbsInt(dx) + mathx.AbsInt(dz)
				if prev, ok := dist[k]; !ok || d < prev {
					dist[k] = d
				}
			}
		}
	}
	items := make([]item, 0, len(dist))
	for k, d := range dist {
		items = append(items, item{k: k, dist: d})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].dist != items[j].dist {
			return items[i].dist < items[j].dist
		}
		if items[i].k.CX != items[j].k.CX {
			return items[i].k.CX < items[j].k.CX
		}
		return items[i].k.CZ < items[j].k.CZ
	})
	if len(items) > max {
		items = items[:max]
	}
	out := make([]chunk.Key, 0, len(items))
	for _, it := range items {
		out = append(out, it.k)
	}
	return out
}

// ClampRadius applies def to an unset radius and bounds it to [0, max].
func ClampRadius(v, max, def int) int {
	if v == 0 {
		v = def
	}
	return mathx.ClampInt(v, 0, max)
}
