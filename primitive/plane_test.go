package primitive

import (
	"math"
	"testing"

	"github.com/akmonengine/collide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func TestSpherePlane(t *testing.T) {
	runPairCases(t, []pairCase{
		{
			name:   "sphere sinking into the ground",
			test:   SpherePlane,
			a:      posed(sphere(1), mgl64.Vec3{0, 0.5, 0}),
			b:      posed(ground(), mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.5,
		},
		{
			name:   "plane body is moved",
			test:   SpherePlane,
			a:      posed(sphere(1), mgl64.Vec3{3, -1.5, 0}),
			b:      posed(ground(), mgl64.Vec3{0, -2, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.5,
		},
		{
			name:      "tilted plane",
			test:      SpherePlane,
			a:         posed(sphere(1), mgl64.Vec3{0.5, 0, 0}),
			b:         posedRotated(ground(), mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 1}, -math.Pi/2),
			count:     1,
			normal:    mgl64.Vec3{-1, 0, 0},
			depth:     0.5,
			tolerance: 1e-9,
		},
		{
			name:   "plane distance",
			test:   SpherePlane,
			a:      posed(sphere(1), mgl64.Vec3{0, 1.5, 0}),
			b:      posed(&actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: -1}, mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.5,
		},
		{
			name:     "above the plane",
			test:     SpherePlane,
			a:        posed(sphere(1), mgl64.Vec3{0, 1.5, 0}),
			b:        posed(ground(), mgl64.Vec3{0, 0, 0}),
			envelope: 0.1,
		},
	})
}

func TestSpherePlane_Position(t *testing.T) {
	_, points := SpherePlane(posed(sphere(1), mgl64.Vec3{0, 0.5, 0}), posed(ground(), mgl64.Vec3{0, 0, 0}), 0)
	if len(points) != 1 || !vec3Equal(points[0].Position, mgl64.Vec3{0, -0.25, 0}, 1e-9) {
		t.Errorf("points = %+v, want one point at (0,-0.25,0)", points)
	}
}

func TestBoxPlane(t *testing.T) {
	runPairCases(t, []pairCase{
		{
			name:     "resting on the ground",
			test:     BoxPlane,
			a:        posed(box(1, 1, 1), mgl64.Vec3{0, 1, 0}),
			b:        posed(ground(), mgl64.Vec3{0, 0, 0}),
			envelope: 0.01,
			count:    4,
			normal:   mgl64.Vec3{0, -1, 0},
			depth:    0,
		},
		{
			name:      "standing on an edge",
			test:      BoxPlane,
			a:         posedRotated(box(1, 1, 1), mgl64.Vec3{0, 1.3, 0}, mgl64.Vec3{0, 0, 1}, math.Pi/4),
			b:         posed(ground(), mgl64.Vec3{0, 0, 0}),
			count:     2,
			normal:    mgl64.Vec3{0, -1, 0},
			depth:     math.Sqrt2 - 1.3,
			tolerance: 1e-9,
		},
		{
			name:   "fully below the plane",
			test:   BoxPlane,
			a:      posed(box(1, 1, 1), mgl64.Vec3{0, -5, 0}),
			b:      posed(ground(), mgl64.Vec3{0, 0, 0}),
			count:  4,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  6,
		},
		{
			name: "above the plane",
			test: BoxPlane,
			a:    posed(box(1, 1, 1), mgl64.Vec3{0, 2, 0}),
			b:    posed(ground(), mgl64.Vec3{0, 0, 0}),
		},
	})
}

func TestCapsulePlane(t *testing.T) {
	runPairCases(t, []pairCase{
		{
			name:      "lying capsule",
			test:      CapsulePlane,
			a:         posedRotated(capsule(0.5, 1), mgl64.Vec3{0, 0.4, 0}, mgl64.Vec3{0, 0, 1}, math.Pi/2),
			b:         posed(ground(), mgl64.Vec3{0, 0, 0}),
			count:     2,
			normal:    mgl64.Vec3{0, -1, 0},
			depth:     0.1,
			tolerance: 1e-9,
		},
		{
			name:   "standing capsule",
			test:   CapsulePlane,
			a:      posed(capsule(0.5, 1), mgl64.Vec3{0, 1.4, 0}),
			b:      posed(ground(), mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.1,
		},
		{
			name: "above the plane",
			test: CapsulePlane,
			a:    posed(capsule(0.5, 1), mgl64.Vec3{0, 2, 0}),
			b:    posed(ground(), mgl64.Vec3{0, 0, 0}),
		},
	})
}

func TestConvexPlane(t *testing.T) {
	cylinder := &actor.Cylinder{Radius: 1, HalfHeight: 1}

	runPairCases(t, []pairCase{
		{
			name:      "upright cylinder",
			test:      ConvexPlane,
			a:         posed(cylinder, mgl64.Vec3{0, 0.9, 0}),
			b:         posed(ground(), mgl64.Vec3{0, 0, 0}),
			count:     4,
			normal:    mgl64.Vec3{0, -1, 0},
			depth:     0.1,
			tolerance: 1e-9,
		},
		{
			name:      "tilted cylinder",
			test:      ConvexPlane,
			a:         posedRotated(cylinder, mgl64.Vec3{0, math.Sqrt(3)/2 + 0.5 - 0.1, 0}, mgl64.Vec3{0, 0, 1}, math.Pi/6),
			b:         posed(ground(), mgl64.Vec3{0, 0, 0}),
			count:     1,
			normal:    mgl64.Vec3{0, -1, 0},
			depth:     0.1,
			tolerance: 1e-9,
		},
		{
			name:      "ellipsoid",
			test:      ConvexPlane,
			a:         posed(&actor.Ellipsoid{Radii: mgl64.Vec3{1, 0.5, 1}}, mgl64.Vec3{0, 0.4, 0}),
			b:         posed(ground(), mgl64.Vec3{0, 0, 0}),
			count:     1,
			normal:    mgl64.Vec3{0, -1, 0},
			depth:     0.1,
			tolerance: 1e-9,
		},
		{
			name: "above the plane",
			test: ConvexPlane,
			a:    posed(cylinder, mgl64.Vec3{0, 3, 0}),
			b:    posed(ground(), mgl64.Vec3{0, 0, 0}),
		},
	})
}
