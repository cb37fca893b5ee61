package main

import "github.com/go-gl/mathgl/mgl64"

// Arena dimensions
const (
	ArenaExtent = 40.0 // half-extent, meters
)

// NewArenaWorld builds the static geometry every session simulates against:
// a bounded ground plane, a few crate stacks and low walls, and the spawn
// ring the admission path hands poses out from.
func NewArenaWorld() *StaticWorld {
	return &StaticWorld{
		Extent: ArenaExtent,
		Boxes: []AABB{
			// central platform
			box(-4, 0, -4, 4, 1, 4),
			// low walls flanking the platform
			box(-12, 0, -1.5, -8, 2, 1.5),
			box(8, 0, -1.5, 12, 2, 1.5),
			// perimeter crates
			box(-20, 0, 14, -18, 2, 16),
			box(18, 0, 14, 20, 2, 16),
			box(-20, 0, -16, -18, 2, -14),
			box(18, 0, -16, 20, 2, -14),
			// a tall pillar
			box(-1, 0, 18, 1, 6, 20),
		},
		SpawnPoints: []mgl64.Vec3{
			{0, 0, -30},
			{0, 0, 30},
			{-30, 0, 0},
			{30, 0, 0},
			{-22, 0, -22},
			{22, 0, 22},
			{-22, 0, 22},
			{22, 0, -22},
		},
	}
}

func box(minX, minY, minZ, maxX, maxY, maxZ float64) AABB {
	return AABB{
		Min: mgl64.Vec3{minX, minY, minZ},
		Max: mgl64.Vec3{maxX, maxY, maxZ},
	}
}
