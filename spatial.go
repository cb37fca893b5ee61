package main

import "github.com/go-gl/mathgl/mgl64"

const (
	SpatialCellSize = 4.0 // ~2x the largest prop extent
	SpatialCols     = 21  // ceil(2*ArenaExtent / cell) + 1
	SpatialRows     = 21
)

// SpatialGrid is a fixed-size broad-phase grid over the XZ plane, indexing
// holdables by slice position. Rebuilt each tick before grab resolution.
type SpatialGrid struct {
	cells [SpatialCols * SpatialRows][]int
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func cellIdx(x, z float64) int {
	cx := int((x + ArenaExtent) / SpatialCellSize)
	cz := int((z + ArenaExtent) / SpatialCellSize)
	if cx < 0 {
		cx = 0
	} else if cx >= SpatialCols {
		cx = SpatialCols - 1
	}
	if cz < 0 {
		cz = 0
	} else if cz >= SpatialRows {
		cz = SpatialRows - 1
	}
	return cz*SpatialCols + cx
}

// Insert adds a holdable index at the given position
func (g *SpatialGrid) Insert(x, z float64, idx int) {
	c := cellIdx(x, z)
	g.cells[c] = append(g.cells[c], idx)
}

// QueryBuf appends the indices in cells overlapping the XZ square around
// (x,z) to buf, avoiding per-call allocation.
func (g *SpatialGrid) QueryBuf(x, z, radius float64, buf []int) []int {
	minCX := int((x - radius + ArenaExtent) / SpatialCellSize)
	maxCX := int((x + radius + ArenaExtent) / SpatialCellSize)
	minCZ := int((z - radius + ArenaExtent) / SpatialCellSize)
	maxCZ := int((z + radius + ArenaExtent) / SpatialCellSize)
	if minCX < 0 {
		minCX = 0
	}
	if maxCX >= SpatialCols {
		maxCX = SpatialCols - 1
	}
	if minCZ < 0 {
		minCZ = 0
	}
	if maxCZ >= SpatialRows {
		maxCZ = SpatialRows - 1
	}
	for cz := minCZ; cz <= maxCZ; cz++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cz*SpatialCols+cx]...)
		}
	}
	return buf
}

// FindHoldableNear returns the holdable closest to point within radius, or
// nil. Used by the grab path to resolve the object the interaction layer is
// pointing at.
func FindHoldableNear(grid *SpatialGrid, holdables []*Holdable, point mgl64.Vec3, radius float64) *Holdable {
	idxs := grid.QueryBuf(point.X(), point.Z(), radius, nil)
	var best *Holdable
	bestDist := radius
	for _, i := range idxs {
		h := holdables[i]
		d := h.Body.Position.Sub(point).Len()
		if d <= bestDist {
			best = h
			bestDist = d
		}
	}
	return best
}
