package collide

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/akmonengine/collide/epa"
	"github.com/akmonengine/collide/gjk"
	"github.com/akmonengine/collide/manifold"
	"github.com/akmonengine/collide/primitive"
	"github.com/go-gl/mathgl/mgl64"
)

// dispatchTable holds one analytic test per pair of shape kinds, indexed with
// the lower kind first. Empty entries use the generic convex test.
type dispatchTable [actor.NumShapeTypes][actor.NumShapeTypes]primitive.Func

func newDispatchTable() *dispatchTable {
	var t dispatchTable
	t.register(actor.ShapeTypeSphere, actor.ShapeTypeSphere, primitive.SphereSphere)
	t.register(actor.ShapeTypeSphere, actor.ShapeTypeBox, primitive.SphereBox)
	t.register(actor.ShapeTypeSphere, actor.ShapeTypePlane, primitive.SpherePlane)
	t.register(actor.ShapeTypeSphere, actor.ShapeTypeCylinder, primitive.SphereCylinder)
	t.register(actor.ShapeTypeSphere, actor.ShapeTypeCapsule, primitive.SphereCapsule)
	t.register(actor.ShapeTypeBox, actor.ShapeTypeBox, primitive.BoxBox)
	t.register(actor.ShapeTypeBox, actor.ShapeTypePlane, primitive.BoxPlane)
	t.register(actor.ShapeTypeCylinder, actor.ShapeTypePlane, primitive.ConvexPlane)
	t.register(actor.ShapeTypeEllipsoid, actor.ShapeTypePlane, primitive.ConvexPlane)
	t.register(actor.ShapeTypeCapsule, actor.ShapeTypePlane, primitive.CapsulePlane)
	t.register(actor.ShapeTypeCapsule, actor.ShapeTypeCapsule, primitive.CapsuleCapsule)
	t.register(actor.ShapeTypePlane, actor.ShapeTypePlane, planePlane)
	return &t
}

// register stores fn, which takes its shapes as (first, second)
func (t *dispatchTable) register(first, second actor.ShapeType, fn primitive.Func) {
	if first > second {
		t[second][first] = flipped(fn)
		return
	}
	t[first][second] = fn
}

func flipped(fn primitive.Func) primitive.Func {
	return func(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
		normal, points := fn(b, a, envelope)
		return normal.Mul(-1), points
	}
}

// planePlane never reports contacts: half-spaces only bound the scene
func planePlane(_, _ actor.Collider, _ float64) (mgl64.Vec3, []constraint.ContactPoint) {
	return mgl64.Vec3{}, nil
}

// Narrowphase turns candidate pairs into contact manifolds.
type Narrowphase struct {
	// Margin inflates both shapes of the generic convex test
	Margin float64
	Logger *slog.Logger

	table *dispatchTable
	// generic fallback already reported for a pair of kinds
	fallbackSeen [actor.NumShapeTypes][actor.NumShapeTypes]atomic.Bool

	manifolds []constraint.ContactConstraint
	offsets   []int
}

// NewNarrowphase returns a narrow phase with every analytic test registered
func NewNarrowphase(margin float64, logger *slog.Logger) *Narrowphase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrowphase{
		Margin: margin,
		Logger: logger,
		table:  newDispatchTable(),
	}
}

// Run computes one manifold per candidate pair. Pairs without contact points
// are dropped, the others keep the order of data.Pairs.
func (n *Narrowphase) Run(data *CollisionData, workers int) {
	pairs := data.Pairs
	results := resize(n.manifolds, len(pairs))
	n.manifolds = results

	var total atomic.Int64
	parallelFor(workers, len(pairs), func(k int) {
		results[k] = n.collidePair(data, pairs[k])
		if len(results[k].Points) > 0 {
			total.Add(1)
		}
	})

	// exclusive prefix sum of the non empty manifolds
	offsets := resize(n.offsets, len(pairs))
	n.offsets = offsets
	next := 0
	for k := range results {
		offsets[k] = next
		if len(results[k].Points) > 0 {
			next++
		}
	}

	data.Manifolds = resize(data.Manifolds, int(total.Load()))
	parallelFor(workers, len(pairs), func(k int) {
		if len(results[k].Points) > 0 {
			data.Manifolds[offsets[k]] = results[k]
		}
	})
}

// RunParticles tests every particle pair as a sphere of the particle radius.
func (n *Narrowphase) RunParticles(data *CollisionData, workers int) {
	pairs := data.ParticlePairs
	contacts := make([][]constraint.ParticleContact, len(pairs))

	parallelFor(workers, len(pairs), func(k int) {
		pair := pairs[k]
		slot := &data.slots[pair.Shape]

		particle := actor.Collider{
			Shape:     &actor.Sphere{Radius: data.ParticleRadius},
			Transform: actor.Transform{Position: data.Particles[pair.Particle], Rotation: mgl64.QuatIdent()},
		}
		normal, points := n.Collide(particle, data.collider(pair.Shape), slot.envelope)

		for _, p := range points {
			if p.Penetration < 0 {
				continue
			}
			contacts[k] = append(contacts[k], constraint.ParticleContact{
				Particle: pair.Particle,
				Shape:    slot.leaf,
				Model:    slot.model,
				Point:    p.Position.Sub(normal.Mul(p.Penetration * 0.5)),
				Normal:   normal.Mul(-1),
				Depth:    p.Penetration,
			})
		}
	})

	data.ParticleContacts = data.ParticleContacts[:0]
	for _, c := range contacts {
		data.ParticleContacts = append(data.ParticleContacts, c...)
	}
}

func (n *Narrowphase) collidePair(data *CollisionData, pair Pair) constraint.ContactConstraint {
	slotA, slotB := &data.slots[pair.A], &data.slots[pair.B]
	envelope := slotA.envelope + slotB.envelope

	// tested in canonical order, then flipped back to the pair order
	first, second := pair.A, pair.B
	if slotB.shape.Type() < slotA.shape.Type() {
		first, second = second, first
	}

	normal, points := n.Collide(data.collider(first), data.collider(second), envelope)

	manifold := constraint.ContactConstraint{
		ShapeA: first,
		ShapeB: second,
		BodyA:  data.bodies[data.slots[first].body],
		BodyB:  data.bodies[data.slots[second].body],
		Points: points,
		Normal: normal,
	}
	if first != pair.A {
		manifold.Flip()
	}
	return manifold
}

// Collide tests two posed shapes. The normal points from a toward b; points
// separated by more than envelope are not reported.
func (n *Narrowphase) Collide(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	ta, tb := a.Shape.Type(), b.Shape.Type()
	swapped := ta > tb
	if swapped {
		a, b = b, a
		ta, tb = tb, ta
	}

	fn := n.table[ta][tb]
	if fn == nil {
		if n.fallbackSeen[ta][tb].CompareAndSwap(false, true) {
			n.Logger.Debug("no analytic test, using generic convex test", "first", ta, "second", tb)
		}
		fn = n.convex
	}

	normal, points := fn(a, b, envelope)
	if len(points) == 0 {
		return normal, nil
	}
	if swapped {
		normal = normal.Mul(-1)
	}

	return sanitize(normal, points)
}

// convex is the generic test: GJK and EPA on both shapes inflated by half the
// envelope plus Margin, then a clipped manifold on the original shapes.
func (n *Narrowphase) convex(a, b actor.Collider, envelope float64) (mgl64.Vec3, []constraint.ContactPoint) {
	inflation := envelope*0.5 + n.Margin
	a.Margin, b.Margin = inflation, inflation

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(a, b, simplex) {
		return mgl64.Vec3{}, nil
	}

	result := epa.EPA(a, b, simplex)
	depth := result.Depth - 2*inflation
	if -depth > envelope {
		return mgl64.Vec3{}, nil
	}

	a.Margin, b.Margin = 0, 0
	return result.Normal, manifold.Generate(a, b, result.Normal, depth, envelope)
}

// sanitize keeps non finite values out of the manifolds
func sanitize(normal mgl64.Vec3, points []constraint.ContactPoint) (mgl64.Vec3, []constraint.ContactPoint) {
	if !finite(normal) || math.Abs(normal.Len()-1) > 1e-3 {
		normal = actor.FallbackNormal
	}

	kept := points[:0]
	for _, p := range points {
		if finite(p.Position) && !math.IsNaN(p.Penetration) && !math.IsInf(p.Penetration, 0) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return normal, nil
	}
	return normal, kept
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
