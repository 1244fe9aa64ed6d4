package collide

import (
	"slices"
	"sync/atomic"

	"github.com/akmonengine/collide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// cellRange is the inclusive block of cells covered by one AABB
type cellRange struct {
	min, max CellKey
	valid    bool
}

// SpatialGrid is a uniform grid over the bounding region of the scene.
// Buckets are stored as compressed rows: the entries of cell c are
// Entries[Offsets[c]:Offsets[c+1]], sorted by slot index.
type SpatialGrid struct {
	Region   actor.AABB
	CellSize mgl64.Vec3
	Bins     [3]int

	Offsets []int32
	Entries []int32

	// particles use their own bucket table over the same cells
	ParticleOffsets []int32
	ParticleEntries []int32

	ranges         []cellRange
	particleRanges []cellRange
	counts         []int32
}

// NumCells returns the number of cells of the grid
func (sg *SpatialGrid) NumCells() int {
	return sg.Bins[0] * sg.Bins[1] * sg.Bins[2]
}

// Cell returns the sorted shape slots of cell index
func (sg *SpatialGrid) Cell(index int) []int32 {
	return sg.Entries[sg.Offsets[index]:sg.Offsets[index+1]]
}

// ParticleCell returns the sorted particles of cell index
func (sg *SpatialGrid) ParticleCell(index int) []int32 {
	if len(sg.ParticleOffsets) == 0 {
		return nil
	}
	return sg.ParticleEntries[sg.ParticleOffsets[index]:sg.ParticleOffsets[index+1]]
}

func (sg *SpatialGrid) reset() {
	sg.Region = actor.EmptyAABB()
	sg.CellSize = mgl64.Vec3{}
	sg.Bins = [3]int{}
	sg.Offsets = sg.Offsets[:0]
	sg.Entries = sg.Entries[:0]
	sg.ParticleOffsets = sg.ParticleOffsets[:0]
	sg.ParticleEntries = sg.ParticleEntries[:0]
}

// worldToCell returns the cell holding pos, clamped to the grid
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	var cell [3]int
	for i := 0; i < 3; i++ {
		f := (pos[i] - sg.Region.Min[i]) / sg.CellSize[i]
		// clamped as a float: far coordinates do not fit an int
		cell[i] = int(clamp(f, 0, float64(sg.Bins[i]-1)))
	}
	return CellKey{cell[0], cell[1], cell[2]}
}

// cellIndex linearizes key, x major. Index order is the lexicographic order of keys.
func (sg *SpatialGrid) cellIndex(key CellKey) int {
	return (key.X*sg.Bins[1]+key.Y)*sg.Bins[2] + key.Z
}

func (sg *SpatialGrid) cellKey(index int) CellKey {
	z := index % sg.Bins[2]
	index /= sg.Bins[2]
	return CellKey{X: index / sg.Bins[1], Y: index % sg.Bins[1], Z: z}
}

func (sg *SpatialGrid) rangeOf(aabb actor.AABB) cellRange {
	return cellRange{min: sg.worldToCell(aabb.Min), max: sg.worldToCell(aabb.Max), valid: true}
}

func (sg *SpatialGrid) forEachCell(r cellRange, fn func(index int)) {
	if !r.valid {
		return
	}
	for x := r.min.X; x <= r.max.X; x++ {
		for y := r.min.Y; y <= r.max.Y; y++ {
			for z := r.min.Z; z <= r.max.Z; z++ {
				fn(sg.cellIndex(CellKey{x, y, z}))
			}
		}
	}
}

// firstSharedCell returns the lowest cell covered by both ranges. A pair is
// only emitted from that cell, which removes duplicates without a set.
func firstSharedCell(a, b cellRange) CellKey {
	return CellKey{
		X: max(a.min.X, b.min.X),
		Y: max(a.min.Y, b.min.Y),
		Z: max(a.min.Z, b.min.Z),
	}
}

// bin fills a bucket table from cell ranges: an atomic count pass, an
// exclusive prefix sum, then an atomic fill pass. Buckets are sorted last
// since the fill order depends on scheduling.
func (sg *SpatialGrid) bin(ranges []cellRange, offsets, entries []int32, workers int) ([]int32, []int32) {
	cells := sg.NumCells()
	counts := resize(sg.counts, cells)
	clear(counts)

	task(workers, ranges, func(_ int, r cellRange) {
		sg.forEachCell(r, func(c int) {
			atomic.AddInt32(&counts[c], 1)
		})
	})

	offsets = resize(offsets, cells+1)
	offsets[0] = 0
	for c := 0; c < cells; c++ {
		offsets[c+1] = offsets[c] + counts[c]
	}

	// counts now serve as fill cursors
	copy(counts, offsets[:cells])
	entries = resize(entries, int(offsets[cells]))

	task(workers, ranges, func(i int, r cellRange) {
		sg.forEachCell(r, func(c int) {
			slot := atomic.AddInt32(&counts[c], 1) - 1
			entries[slot] = int32(i)
		})
	})

	parallelFor(workers, cells, func(c int) {
		if bucket := entries[offsets[c]:offsets[c+1]]; len(bucket) > 1 {
			slices.Sort(bucket)
		}
	})

	sg.counts = counts
	return offsets, entries
}
