package constraint

import (
	"github.com/akmonengine/collide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactPoint is one point of a contact manifold.
// Position lies halfway between both surfaces.
type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64 // > 0 overlapping, < 0 separated within the envelope
}

// ContactConstraint is the contact manifold of one candidate pair.
// Normal points from shape A toward shape B.
type ContactConstraint struct {
	ShapeA, ShapeB int
	BodyA          *actor.RigidBody
	BodyB          *actor.RigidBody
	Points         []ContactPoint
	Normal         mgl64.Vec3
}

// Deepest returns the largest penetration of the manifold
func (c *ContactConstraint) Deepest() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	deepest := c.Points[0].Penetration
	for _, p := range c.Points[1:] {
		if p.Penetration > deepest {
			deepest = p.Penetration
		}
	}
	return deepest
}

// Flip swaps both sides of the manifold and reverses its normal
func (c *ContactConstraint) Flip() {
	c.ShapeA, c.ShapeB = c.ShapeB, c.ShapeA
	c.BodyA, c.BodyB = c.BodyB, c.BodyA
	c.Normal = c.Normal.Mul(-1)
}

// ContactInfo is a single contact as handed to the solver.
type ContactInfo struct {
	ModelA, ModelB *actor.Model
	ShapeA, ShapeB int

	// PointA and PointB lie on the surface of each shape
	PointA mgl64.Vec3
	PointB mgl64.Vec3
	Normal mgl64.Vec3 // from A toward B
	// Distance is the signed separation: negative when overlapping
	Distance float64

	Material CompositeMaterial
}

// Point returns the midpoint between both surfaces
func (c ContactInfo) Point() mgl64.Vec3 {
	return c.PointA.Add(c.PointB).Mul(0.5)
}

// Penetration returns the overlap depth, positive when overlapping
func (c ContactInfo) Penetration() float64 {
	return -c.Distance
}

// NewContactInfo expands a manifold point into the surface points of both shapes.
func NewContactInfo(modelA, modelB *actor.Model, manifold *ContactConstraint, point ContactPoint) ContactInfo {
	half := manifold.Normal.Mul(point.Penetration * 0.5)

	return ContactInfo{
		ModelA:   modelA,
		ModelB:   modelB,
		ShapeA:   manifold.ShapeA,
		ShapeB:   manifold.ShapeB,
		PointA:   point.Position.Add(half),
		PointB:   point.Position.Sub(half),
		Normal:   manifold.Normal,
		Distance: -point.Penetration,
		Material: Combine(modelA.Material, modelB.Material),
	}
}

// ParticleContact is a contact between a particle and a rigid shape.
// Normal points from the shape toward the particle.
type ParticleContact struct {
	Particle int
	Shape    int
	Model    *actor.Model
	Point    mgl64.Vec3 // on the shape surface
	Normal   mgl64.Vec3
	Depth    float64
}
