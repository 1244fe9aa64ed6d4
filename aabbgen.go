package collide

import (
	"github.com/akmonengine/collide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// AABBGenerator computes the world pose and the bounding box of every shape slot.
type AABBGenerator struct {
	MinExtent float64
}

// Generate fills data.Transforms, data.AABBs and data.ParticleAABBs
func (g AABBGenerator) Generate(data *CollisionData, workers int) {
	n := len(data.slots)
	data.Transforms = resize(data.Transforms, n)
	data.AABBs = resize(data.AABBs, n)

	task(workers, data.slots, func(i int, slot shapeSlot) {
		if slot.removed {
			data.AABBs[i] = actor.EmptyAABB()
			return
		}
		world := data.bodies[slot.body].Transform.Mul(slot.offset)
		data.Transforms[i] = world
		data.AABBs[i] = g.Compute(slot.shape, world, slot.envelope)
	})

	data.ParticleAABBs = resize(data.ParticleAABBs, len(data.Particles))
	half := mgl64.Vec3{data.ParticleRadius, data.ParticleRadius, data.ParticleRadius}
	task(workers, data.Particles, func(i int, position mgl64.Vec3) {
		data.ParticleAABBs[i] = g.clean(actor.AABBFromCenter(position, half))
	})
}

// Compute returns the AABB of shape at the world pose, grown by envelope.
// Every axis is at least MinExtent wide.
func (g AABBGenerator) Compute(shape actor.Shape, world actor.Transform, envelope float64) actor.AABB {
	return g.clean(shape.ComputeAABB(world).Inflate(envelope))
}

// clean replaces a non finite box by a MinExtent box at the origin
func (g AABBGenerator) clean(aabb actor.AABB) actor.AABB {
	if !aabb.IsFinite() || aabb.IsEmpty() {
		half := g.MinExtent * 0.5
		return actor.AABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{half, half, half})
	}
	return aabb.ClampExtent(g.MinExtent)
}
