// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects an overlap. It expands a polytope (starting from GJK's
// final simplex) inside the Minkowski difference until it finds the face closest to the
// origin, which gives the minimum translation: the contact normal and the penetration depth.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/akmonengine/collide/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations limits polytope expansion.
	// Typical convergence: 5-15 iterations for simple shapes.
	EPAMaxIterations = 64

	// EPAConvergenceTolerance defines when EPA has converged: the new support
	// point improves the closest face distance by less than this.
	EPAConvergenceTolerance = 1e-4

	// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the depth reported when the simplex
	// cannot be completed into a tetrahedron.
	DegeneratePenetrationEstimate = 0.01

	visibilityEpsilon = 1e-9

	// completion needs support points at least this far from the current simplex
	completionEpsilon = 1e-6

	polytopeInitialCapacity = 4
)

// Result is the minimum translation found by EPA.
type Result struct {
	// Normal points from A toward B
	Normal mgl64.Vec3
	// Depth is the overlap along Normal, always >= 0
	Depth float64
	// Converged is false when the iteration limit was hit or the simplex was
	// degenerate, the result is then the best estimate available.
	Converged bool
}

// EPA computes the penetration normal and depth of two overlapping convex volumes.
// simplex is the final simplex of a successful gjk.GJK call; it may be modified.
func EPA(a, b gjk.Convex, simplex *gjk.Simplex) Result {
	if !completeSimplex(a, b, simplex) {
		return degenerateResult(a, b, simplex)
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialFaces(simplex); err != nil {
		return degenerateResult(a, b, simplex)
	}

	var closest Face
	for i := 0; i < EPAMaxIterations; i++ {
		closestIndex := builder.FindClosestFaceIndex()
		if closestIndex < 0 || builder.faces[closestIndex].Distance == math.MaxFloat64 {
			break
		}
		closest = builder.faces[closestIndex]

		support := gjk.MinkowskiSupport(a, b, closest.Normal)
		if support.Dot(closest.Normal)-closest.Distance < EPAConvergenceTolerance {
			return Result{Normal: closest.Normal, Depth: closest.Distance, Converged: true}
		}

		if !builder.AddPointAndRebuildFaces(support) {
			return Result{Normal: closest.Normal, Depth: closest.Distance, Converged: true}
		}
	}

	if closest.Normal.LenSqr() == 0 {
		return degenerateResult(a, b, simplex)
	}

	// best estimate so far
	return Result{Normal: closest.Normal, Depth: closest.Distance}
}

// completeSimplex grows a 1-3 point simplex into a non-degenerate tetrahedron
// using extra support queries. Returns false if the Minkowski difference is flat.
func completeSimplex(a, b gjk.Convex, simplex *gjk.Simplex) bool {
	axes := [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

	if simplex.Count == 0 {
		simplex.Points[0] = gjk.MinkowskiSupport(a, b, axes[0])
		simplex.Count = 1
	}

	if simplex.Count == 1 {
		for _, axis := range axes {
			p := gjk.MinkowskiSupport(a, b, axis)
			if p.Sub(simplex.Points[0]).Len() > completionEpsilon {
				simplex.Points[1] = p
				simplex.Count = 2
				break
			}
		}
		if simplex.Count < 2 {
			return false
		}
	}

	if simplex.Count == 2 {
		lineDir := simplex.Points[1].Sub(simplex.Points[0]).Normalize()
		perp := lineDir.Cross(leastAlignedAxis(lineDir)).Normalize()

		for k := 0; k < 6; k++ {
			dir := mgl64.QuatRotate(float64(k)*math.Pi/3, lineDir).Rotate(perp)
			p := gjk.MinkowskiSupport(a, b, dir)
			if pointLineDistance(p, simplex.Points[0], lineDir) > completionEpsilon {
				simplex.Points[2] = p
				simplex.Count = 3
				break
			}
		}
		if simplex.Count < 3 {
			return false
		}
	}

	if simplex.Count == 3 {
		normal := simplex.Points[1].Sub(simplex.Points[0]).Cross(simplex.Points[2].Sub(simplex.Points[0]))
		if normal.LenSqr() < 1e-18 {
			return false
		}
		normal = normal.Normalize()

		for _, dir := range [2]mgl64.Vec3{normal, normal.Mul(-1)} {
			p := gjk.MinkowskiSupport(a, b, dir)
			if math.Abs(p.Sub(simplex.Points[0]).Dot(normal)) > completionEpsilon {
				simplex.Points[3] = p
				simplex.Count = 4
				break
			}
		}
		if simplex.Count < 4 {
			return false
		}
	}

	// reject flat tetrahedra
	p0 := simplex.Points[0]
	volume := simplex.Points[1].Sub(p0).Cross(simplex.Points[2].Sub(p0)).Dot(simplex.Points[3].Sub(p0))
	return math.Abs(volume) > 1e-12
}

// degenerateResult estimates a contact when no tetrahedron can be built:
// the closest simplex point gives the depth, the center line the normal.
func degenerateResult(a, b gjk.Convex, simplex *gjk.Simplex) Result {
	normal := b.Center().Sub(a.Center())
	if l := normal.Len(); l > NormalSnapThreshold && !math.IsNaN(l) {
		normal = normal.Mul(1.0 / l)
	} else {
		normal = mgl64.Vec3{1, 0, 0}
	}

	depth := DegeneratePenetrationEstimate
	if simplex.Count > 0 {
		depth = math.MaxFloat64
		for i := 0; i < simplex.Count; i++ {
			depth = math.Min(depth, simplex.Points[i].Len())
		}
	}

	return Result{Normal: normal, Depth: depth}
}

func leastAlignedAxis(dir mgl64.Vec3) mgl64.Vec3 {
	x, y, z := math.Abs(dir.X()), math.Abs(dir.Y()), math.Abs(dir.Z())
	switch {
	case x <= y && x <= z:
		return mgl64.Vec3{1, 0, 0}
	case y <= z:
		return mgl64.Vec3{0, 1, 0}
	default:
		return mgl64.Vec3{0, 0, 1}
	}
}

func pointLineDistance(p, origin, dir mgl64.Vec3) float64 {
	rel := p.Sub(origin)
	return rel.Sub(dir.Mul(rel.Dot(dir))).Len()
}
