package collide

import (
	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Pair is a candidate pair of shape slots, with A < B.
type Pair struct {
	A, B int
}

// ParticlePair is a candidate between a particle and a shape slot
type ParticlePair struct {
	Particle int
	Shape    int
}

// shapeSlot is one leaf shape registered in the system.
// Removed slots stay in place so that indices never move.
type shapeSlot struct {
	model    *actor.Model
	shape    actor.Shape
	offset   actor.Transform
	leaf     int // index of the leaf within its model
	body     int
	envelope float64
	removed  bool
}

// CollisionData is the state shared by every phase of the pipeline.
type CollisionData struct {
	slots  []shapeSlot
	bodies []*actor.RigidBody
	// live slots of each body, empty once every model of the body is removed
	bodyShapes [][]int

	// Per shape slot
	Transforms []actor.Transform
	AABBs      []actor.AABB

	// Per body, false when removed or outside the active box
	BodyActive []bool

	ActiveBox        actor.AABB
	ActiveBoxEnabled bool

	Particles      []mgl64.Vec3
	ParticleRadius float64
	ParticleAABBs  []actor.AABB

	Grid SpatialGrid

	Pairs         []Pair
	ParticlePairs []ParticlePair

	// Manifolds follow the order of Pairs. ShapeA and ShapeB are slot indices.
	Manifolds        []constraint.ContactConstraint
	ParticleContacts []constraint.ParticleContact
}

// shapeActive reports whether slot i takes part in the current step
func (d *CollisionData) shapeActive(i int) bool {
	slot := &d.slots[i]
	return !slot.removed && d.BodyActive[slot.body]
}

func (d *CollisionData) collider(i int) actor.Collider {
	return actor.Collider{Shape: d.slots[i].shape, Transform: d.Transforms[i]}
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resize returns s with length n, reusing its storage when possible
func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
