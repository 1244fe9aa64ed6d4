package epa

import (
	"fmt"
	"sync"

	"github.com/akmonengine/collide/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// PolytopeBuilder manages polytope expansion with reusable buffers.
// Every buffer is an ordered slice so that expansion is deterministic.
type PolytopeBuilder struct {
	faces []Face

	// Normalized edges (A < B) of the visible region with occurrence count
	edges []EdgeEntry

	visibleIndices []int

	// interior is a point inside the initial tetrahedron. The polytope only
	// grows so it stays inside.
	interior mgl64.Vec3
}

// EdgeEntry is an edge with its occurrence count among visible faces.
// Count == 1 marks a boundary edge of the hole left by the visible faces.
type EdgeEntry struct {
	A, B  mgl64.Vec3
	Count int
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			faces:          make([]Face, 0, polytopeInitialCapacity),
			edges:          make([]EdgeEntry, 0, polytopeInitialCapacity),
			visibleIndices: make([]int, 0, polytopeInitialCapacity),
		}
	},
}

// Reset prepares the builder for reuse
func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.edges = b.edges[:0]
	b.visibleIndices = b.visibleIndices[:0]
	b.interior = mgl64.Vec3{}
}

// BuildInitialFaces creates the 4 faces of a tetrahedral simplex.
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return fmt.Errorf("invalid simplex count: %d (expected 4)", simplex.Count)
	}

	p0, p1, p2, p3 := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	b.interior = p0.Add(p1).Add(p2).Add(p3).Mul(0.25)

	b.faces = append(b.faces,
		newFace(p0, p1, p2, b.interior),
		newFace(p0, p2, p3, b.interior),
		newFace(p0, p3, p1, b.interior),
		newFace(p1, p3, p2, b.interior),
	)

	return nil
}

// FindClosestFaceIndex returns the index of the face closest to the origin,
// the lowest index on ties. Returns -1 if no faces exist.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	if len(b.faces) == 0 {
		return -1
	}

	closestIndex := 0
	for i := 1; i < len(b.faces); i++ {
		if b.faces[i].Distance < b.faces[closestIndex].Distance {
			closestIndex = i
		}
	}

	return closestIndex
}

// AddPointAndRebuildFaces expands the polytope with a support point:
// faces that see the point are removed and the boundary of the hole is
// connected to it. Returns false when no face sees the point.
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support mgl64.Vec3) bool {
	b.visibleIndices = b.visibleIndices[:0]
	for i := range b.faces {
		if b.faces[i].sees(support) {
			b.visibleIndices = append(b.visibleIndices, i)
		}
	}
	if len(b.visibleIndices) == 0 {
		return false
	}

	b.collectBoundaryEdges()
	b.removeVisibleFaces()

	for i := range b.edges {
		if b.edges[i].Count != 1 {
			continue
		}
		b.faces = append(b.faces, newFace(b.edges[i].A, b.edges[i].B, support, b.interior))
	}

	return len(b.faces) > 0
}

func (b *PolytopeBuilder) collectBoundaryEdges() {
	b.edges = b.edges[:0]

	for _, faceIdx := range b.visibleIndices {
		face := &b.faces[faceIdx]
		for j := 0; j < 3; j++ {
			edgeA, edgeB := face.Points[j], face.Points[(j+1)%3]
			if compareVec3(edgeA, edgeB) > 0 {
				edgeA, edgeB = edgeB, edgeA
			}

			if idx := b.findEdgeIndex(edgeA, edgeB); idx >= 0 {
				b.edges[idx].Count++
				continue
			}
			b.edges = append(b.edges, EdgeEntry{A: edgeA, B: edgeB, Count: 1})
		}
	}
}

// findEdgeIndex is a linear search, edge counts stay small
func (b *PolytopeBuilder) findEdgeIndex(edgeA, edgeB mgl64.Vec3) int {
	for i := range b.edges {
		if b.edges[i].A == edgeA && b.edges[i].B == edgeB {
			return i
		}
	}
	return -1
}

// removeVisibleFaces compacts the face slice, keeping the relative order of
// the remaining faces.
func (b *PolytopeBuilder) removeVisibleFaces() {
	kept := b.faces[:0]
	next := 0
	for i := range b.faces {
		if next < len(b.visibleIndices) && b.visibleIndices[next] == i {
			next++
			continue
		}
		kept = append(kept, b.faces[i])
	}
	b.faces = kept
}
