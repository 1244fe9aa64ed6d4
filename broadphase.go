package collide

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/akmonengine/collide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// BroadphaseCallback vetoes a candidate pair when it returns false
type BroadphaseCallback func(modelA, modelB *actor.Model) bool

// cellGrowth enlarges the cell size until the grid fits MaxCells
const cellGrowth = 1.25

// Broadphase finds the candidate pairs of overlapping AABBs with a uniform grid.
type Broadphase struct {
	GridDensity    float64
	MaxCells       int
	MaxBinsPerAxis int
	SnapSize       float64
	Callback       BroadphaseCallback
	Logger         *slog.Logger

	// per worker output, reused between runs
	buffers         [][]Pair
	particleBuffers [][]ParticlePair

	bounded  int
	edgeSum  float64
	lastBins [3]int
}

// Run rebuilds the grid and the sorted candidate lists of data.
func (b *Broadphase) Run(data *CollisionData, workers int) {
	data.Pairs = data.Pairs[:0]
	data.ParticlePairs = data.ParticlePairs[:0]

	if !b.DetermineBoundingBox(data, workers) {
		data.Grid.reset()
		return
	}
	b.OffsetAABB(data)
	b.ComputeTopLevelResolution(data)
	b.RigidBoundingBox(data, workers)
	b.FluidBoundingBox(data, workers)
}

type regionPartial struct {
	region  actor.AABB
	active  int
	bounded int
	edgeSum float64
}

// DetermineBoundingBox computes the region covered by every bounded active shape
// and every particle. Unbounded shapes such as planes are left out and clamped
// into the grid later. It reports false when nothing is active.
func (b *Broadphase) DetermineBoundingBox(data *CollisionData, workers int) bool {
	partials := make([]regionPartial, max(workers, 1))

	used := parallelChunks(workers, len(data.slots), func(w, start, end int) {
		p := regionPartial{region: actor.EmptyAABB()}
		for i := start; i < end; i++ {
			if !data.shapeActive(i) {
				continue
			}
			p.active++
			aabb := data.AABBs[i]
			if !aabb.IsBounded() {
				continue
			}
			p.bounded++
			e := aabb.Extent()
			p.edgeSum += (e.X() + e.Y() + e.Z()) / 3
			p.region = p.region.Union(aabb)
		}
		partials[w] = p
	})

	region := actor.EmptyAABB()
	active := 0
	b.bounded, b.edgeSum = 0, 0
	for _, p := range partials[:used] {
		region = region.Union(p.region)
		active += p.active
		b.bounded += p.bounded
		b.edgeSum += p.edgeSum
	}
	if active == 0 {
		return false
	}

	for _, aabb := range data.ParticleAABBs {
		region = region.Union(aabb)
	}
	if region.IsEmpty() {
		// only unbounded shapes: any small grid will do
		half := b.SnapSize * 0.5
		region = actor.AABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{half, half, half})
	}

	data.Grid.Region = region
	return true
}

// OffsetAABB snaps the region outward to multiples of SnapSize so that cell
// boundaries do not drift with small motions.
func (b *Broadphase) OffsetAABB(data *CollisionData) {
	region := &data.Grid.Region
	for i := 0; i < 3; i++ {
		region.Min[i] = math.Floor(region.Min[i]/b.SnapSize) * b.SnapSize
		region.Max[i] = math.Ceil(region.Max[i]/b.SnapSize) * b.SnapSize
		if region.Max[i] <= region.Min[i] {
			region.Max[i] = region.Min[i] + b.SnapSize
		}
	}
}

// ComputeTopLevelResolution picks the number of bins per axis. The cell edge
// aims at GridDensity cells per shape but is never smaller than the average
// shape edge, then grows until the grid fits MaxCells.
func (b *Broadphase) ComputeTopLevelResolution(data *CollisionData) {
	grid := &data.Grid
	extent := grid.Region.Extent()
	volume := extent.X() * extent.Y() * extent.Z()

	cell := math.Cbrt(volume / (float64(max(b.bounded, 1)) * b.GridDensity))
	if b.bounded > 0 {
		cell = math.Max(cell, b.edgeSum/float64(b.bounded))
	}
	if !(cell > 0) || math.IsInf(cell, 0) {
		cell = math.Max(extent.X(), math.Max(extent.Y(), extent.Z()))
	}

	for {
		for i := 0; i < 3; i++ {
			grid.Bins[i] = clamp(int(math.Ceil(extent[i]/cell)), 1, b.MaxBinsPerAxis)
		}
		if grid.Bins[0]*grid.Bins[1]*grid.Bins[2] <= b.MaxCells {
			break
		}
		cell *= cellGrowth
	}

	for i := 0; i < 3; i++ {
		grid.CellSize[i] = extent[i] / float64(grid.Bins[i])
	}

	if grid.Bins != b.lastBins {
		b.lastBins = grid.Bins
		b.logger().Debug("broadphase grid resized",
			"bins", grid.Bins,
			"cell_size", grid.CellSize,
			"region_min", grid.Region.Min,
			"region_max", grid.Region.Max,
		)
	}
}

// RigidBoundingBox bins the active shapes and emits every filtered pair
// whose AABBs overlap, sorted by (A, B).
func (b *Broadphase) RigidBoundingBox(data *CollisionData, workers int) {
	grid := &data.Grid
	ranges := resize(grid.ranges, len(data.slots))
	parallelFor(workers, len(ranges), func(i int) {
		if data.shapeActive(i) {
			ranges[i] = grid.rangeOf(data.AABBs[i])
		} else {
			ranges[i] = cellRange{}
		}
	})
	grid.ranges = ranges
	grid.Offsets, grid.Entries = grid.bin(ranges, grid.Offsets, grid.Entries, workers)

	b.buffers = resizeBuffers(b.buffers, workers)
	used := parallelChunks(workers, grid.NumCells(), func(w, start, end int) {
		out := b.buffers[w][:0]
		for c := start; c < end; c++ {
			key := grid.cellKey(c)
			bucket := grid.Cell(c)
			for x := 0; x < len(bucket); x++ {
				i := int(bucket[x])
				for y := x + 1; y < len(bucket); y++ {
					j := int(bucket[y])
					if firstSharedCell(ranges[i], ranges[j]) != key {
						continue
					}
					if !data.AABBs[i].Overlaps(data.AABBs[j]) {
						continue
					}
					if !b.accept(data, i, j) {
						continue
					}
					out = append(out, Pair{A: i, B: j})
				}
			}
		}
		b.buffers[w] = out
	})

	for _, buf := range b.buffers[:used] {
		data.Pairs = append(data.Pairs, buf...)
	}
	slices.SortFunc(data.Pairs, func(p, q Pair) int {
		return cmp.Or(cmp.Compare(p.A, q.A), cmp.Compare(p.B, q.B))
	})
}

// FluidBoundingBox bins the particles over the same grid and pairs them with
// the shapes of the cells they share, sorted by (Particle, Shape).
func (b *Broadphase) FluidBoundingBox(data *CollisionData, workers int) {
	grid := &data.Grid
	if len(data.Particles) == 0 {
		grid.ParticleOffsets = grid.ParticleOffsets[:0]
		grid.ParticleEntries = grid.ParticleEntries[:0]
		return
	}

	ranges := resize(grid.particleRanges, len(data.Particles))
	parallelFor(workers, len(ranges), func(i int) {
		ranges[i] = grid.rangeOf(data.ParticleAABBs[i])
	})
	grid.particleRanges = ranges
	grid.ParticleOffsets, grid.ParticleEntries = grid.bin(ranges, grid.ParticleOffsets, grid.ParticleEntries, workers)

	b.particleBuffers = resizeBuffers(b.particleBuffers, workers)
	used := parallelChunks(workers, grid.NumCells(), func(w, start, end int) {
		out := b.particleBuffers[w][:0]
		for c := start; c < end; c++ {
			particles := grid.ParticleCell(c)
			if len(particles) == 0 {
				continue
			}
			key := grid.cellKey(c)
			for _, s := range grid.Cell(c) {
				shape := int(s)
				for _, p := range particles {
					particle := int(p)
					if firstSharedCell(ranges[particle], grid.ranges[shape]) != key {
						continue
					}
					if !data.ParticleAABBs[particle].Overlaps(data.AABBs[shape]) {
						continue
					}
					out = append(out, ParticlePair{Particle: particle, Shape: shape})
				}
			}
		}
		b.particleBuffers[w] = out
	})

	for _, buf := range b.particleBuffers[:used] {
		data.ParticlePairs = append(data.ParticlePairs, buf...)
	}
	slices.SortFunc(data.ParticlePairs, func(p, q ParticlePair) int {
		return cmp.Or(cmp.Compare(p.Particle, q.Particle), cmp.Compare(p.Shape, q.Shape))
	})
}

// accept applies the pair filters: same body, both static, both sleeping,
// collision families and the user callback.
func (b *Broadphase) accept(data *CollisionData, i, j int) bool {
	slotA, slotB := &data.slots[i], &data.slots[j]
	if slotA.body == slotB.body {
		return false
	}

	bodyA, bodyB := data.bodies[slotA.body], data.bodies[slotB.body]
	if bodyA.IsStatic() && bodyB.IsStatic() {
		return false
	}
	if bodyA.IsSleeping && bodyB.IsSleeping {
		return false
	}
	if !actor.CanCollide(slotA.model.Family, slotB.model.Family) {
		return false
	}
	if b.Callback != nil && !b.Callback(slotA.model, slotB.model) {
		return false
	}

	return true
}

func (b *Broadphase) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func resizeBuffers[T any](buffers [][]T, workers int) [][]T {
	workers = max(workers, 1)
	for len(buffers) < workers {
		buffers = append(buffers, nil)
	}
	return buffers
}
