package primitive

import (
	"math"
	"testing"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func posed(shape actor.Shape, position mgl64.Vec3) actor.Collider {
	return actor.Collider{Shape: shape, Transform: actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}}
}

func posedRotated(shape actor.Shape, position, axis mgl64.Vec3, angle float64) actor.Collider {
	return actor.Collider{Shape: shape, Transform: actor.Transform{Position: position, Rotation: mgl64.QuatRotate(angle, axis)}}
}

func sphere(r float64) *actor.Sphere { return &actor.Sphere{Radius: r} }
func box(hx, hy, hz float64) *actor.Box { return &actor.Box{HalfExtents: mgl64.Vec3{hx, hy, hz}} }
func ground() *actor.Plane { return &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}} }
func capsule(r, hh float64) *actor.Capsule { return &actor.Capsule{Radius: r, HalfHeight: hh} }

func deepest(points []constraint.ContactPoint) float64 {
	d := -math.MaxFloat64
	for _, p := range points {
		d = math.Max(d, p.Penetration)
	}
	return d
}

type pairCase struct {
	name      string
	test      Func
	a, b      actor.Collider
	envelope  float64
	count     int // -1 accepts any non-empty result
	normal    mgl64.Vec3
	depth     float64
	tolerance float64
}

func runPairCases(t *testing.T, tests []pairCase) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normal, points := tt.test(tt.a, tt.b, tt.envelope)

			if tt.count == 0 {
				if len(points) != 0 {
					t.Fatalf("got %d points, want none", len(points))
				}
				return
			}
			if tt.count > 0 && len(points) != tt.count {
				t.Fatalf("got %d points, want %d", len(points), tt.count)
			}
			if len(points) == 0 {
				t.Fatal("got no points")
			}

			tolerance := tt.tolerance
			if tolerance == 0 {
				tolerance = 1e-9
			}
			if !vec3Equal(normal, tt.normal, tolerance) {
				t.Errorf("normal = %v, want %v", normal, tt.normal)
			}
			if !floatEqual(normal.Len(), 1, 1e-9) {
				t.Errorf("normal %v is not unit length", normal)
			}
			if d := deepest(points); !floatEqual(d, tt.depth, tolerance) {
				t.Errorf("deepest penetration = %v, want %v", d, tt.depth)
			}
			for i, p := range points {
				if math.IsNaN(p.Position.X()) || math.IsNaN(p.Position.Y()) || math.IsNaN(p.Position.Z()) || math.IsNaN(p.Penetration) {
					t.Errorf("point %d is NaN: %+v", i, p)
				}
			}
		})
	}
}

func TestSphereSphere(t *testing.T) {
	runPairCases(t, []pairCase{
		{
			name:   "overlapping along X",
			test:   SphereSphere,
			a:      posed(sphere(1), mgl64.Vec3{0, 0, 0}),
			b:      posed(sphere(1), mgl64.Vec3{1.5, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{1, 0, 0},
			depth:  0.5,
		},
		{
			name:   "reversed order flips the normal",
			test:   SphereSphere,
			a:      posed(sphere(1), mgl64.Vec3{1.5, 0, 0}),
			b:      posed(sphere(1), mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{-1, 0, 0},
			depth:  0.5,
		},
		{
			name:     "within the envelope",
			test:     SphereSphere,
			a:        posed(sphere(1), mgl64.Vec3{0, 0, 0}),
			b:        posed(sphere(1), mgl64.Vec3{0, 2.05, 0}),
			envelope: 0.1,
			count:    1,
			normal:   mgl64.Vec3{0, 1, 0},
			depth:    -0.05,
		},
		{
			name:     "beyond the envelope",
			test:     SphereSphere,
			a:        posed(sphere(1), mgl64.Vec3{0, 0, 0}),
			b:        posed(sphere(1), mgl64.Vec3{3, 0, 0}),
			envelope: 0.1,
		},
		{
			name:   "coincident centers use the fallback normal",
			test:   SphereSphere,
			a:      posed(sphere(1), mgl64.Vec3{2, 2, 2}),
			b:      posed(sphere(0.5), mgl64.Vec3{2, 2, 2}),
			count:  1,
			normal: actor.FallbackNormal,
			depth:  1.5,
		},
	})
}

func TestSphereSphere_Position(t *testing.T) {
	_, points := SphereSphere(posed(sphere(1), mgl64.Vec3{0, 0, 0}), posed(sphere(1), mgl64.Vec3{1.5, 0, 0}), 0)
	if len(points) != 1 || !vec3Equal(points[0].Position, mgl64.Vec3{0.75, 0, 0}, 1e-9) {
		t.Errorf("points = %+v, want one point at (0.75,0,0)", points)
	}
}

func TestSphereBox(t *testing.T) {
	runPairCases(t, []pairCase{
		{
			name:   "sphere above face",
			test:   SphereBox,
			a:      posed(sphere(1), mgl64.Vec3{0, 1.5, 0}),
			b:      posed(box(1, 1, 1), mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.5,
		},
		{
			name:   "center inside the box",
			test:   SphereBox,
			a:      posed(sphere(1), mgl64.Vec3{0, 0.8, 0}),
			b:      posed(box(1, 1, 1), mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  1.2,
		},
		{
			name:   "center inside toward -X",
			test:   SphereBox,
			a:      posed(sphere(0.5), mgl64.Vec3{-1.7, 0, 0}),
			b:      posed(box(2, 3, 3), mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{1, 0, 0},
			depth:  0.8,
		},
		{
			name:      "rotated box corner",
			test:      SphereBox,
			a:         posed(sphere(1), mgl64.Vec3{0, 2, 0}),
			b:         posedRotated(box(1, 1, 1), mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 1}, math.Pi/4),
			count:     1,
			normal:    mgl64.Vec3{0, -1, 0},
			depth:     math.Sqrt2 - 1,
			tolerance: 1e-6,
		},
		{
			name: "separated",
			test: SphereBox,
			a:    posed(sphere(1), mgl64.Vec3{0, 3, 0}),
			b:    posed(box(1, 1, 1), mgl64.Vec3{0, 0, 0}),
		},
	})
}

func TestSphereBox_Position(t *testing.T) {
	_, points := SphereBox(posed(sphere(1), mgl64.Vec3{0, 1.5, 0}), posed(box(1, 1, 1), mgl64.Vec3{0, 0, 0}), 0)
	if len(points) != 1 || !vec3Equal(points[0].Position, mgl64.Vec3{0, 0.75, 0}, 1e-9) {
		t.Errorf("points = %+v, want one point at (0,0.75,0)", points)
	}
}

func TestSphereCylinder(t *testing.T) {
	cylinder := &actor.Cylinder{Radius: 1, HalfHeight: 1}

	runPairCases(t, []pairCase{
		{
			name:   "against the side",
			test:   SphereCylinder,
			a:      posed(sphere(0.5), mgl64.Vec3{1.3, 0, 0}),
			b:      posed(cylinder, mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{-1, 0, 0},
			depth:  0.2,
		},
		{
			name:   "on the cap",
			test:   SphereCylinder,
			a:      posed(sphere(0.5), mgl64.Vec3{0.2, 1.4, 0}),
			b:      posed(cylinder, mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.1,
		},
		{
			name:   "center inside near the top",
			test:   SphereCylinder,
			a:      posed(sphere(0.5), mgl64.Vec3{0, 0.9, 0}),
			b:      posed(cylinder, mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.6,
		},
		{
			name:   "lying cylinder",
			test:   SphereCylinder,
			a:      posed(sphere(0.5), mgl64.Vec3{0, 1.3, 0}),
			b:      posedRotated(cylinder, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 1}, math.Pi/2),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.2,
		},
		{
			name: "separated",
			test: SphereCylinder,
			a:    posed(sphere(0.5), mgl64.Vec3{3, 0, 0}),
			b:    posed(cylinder, mgl64.Vec3{0, 0, 0}),
		},
	})
}

func TestSphereCapsule(t *testing.T) {
	runPairCases(t, []pairCase{
		{
			name:   "against the core",
			test:   SphereCapsule,
			a:      posed(sphere(0.5), mgl64.Vec3{0.8, 0.5, 0}),
			b:      posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{-1, 0, 0},
			depth:  0.2,
		},
		{
			name:   "on the rounded end",
			test:   SphereCapsule,
			a:      posed(sphere(0.5), mgl64.Vec3{0, 1.9, 0}),
			b:      posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}),
			count:  1,
			normal: mgl64.Vec3{0, -1, 0},
			depth:  0.1,
		},
		{
			name: "beyond the end",
			test: SphereCapsule,
			a:    posed(sphere(0.5), mgl64.Vec3{0, 2.3, 0}),
			b:    posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}),
		},
	})
}

func TestCapsuleCapsule(t *testing.T) {
	runPairCases(t, []pairCase{
		{
			name:   "crossing cores",
			test:   CapsuleCapsule,
			a:      posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}),
			b:      posedRotated(capsule(0.5, 1), mgl64.Vec3{0, 0, 0.8}, mgl64.Vec3{0, 0, 1}, math.Pi/2),
			count:  1,
			normal: mgl64.Vec3{0, 0, 1},
			depth:  0.2,
		},
		{
			name:   "parallel cores",
			test:   CapsuleCapsule,
			a:      posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}),
			b:      posed(capsule(0.5, 1), mgl64.Vec3{0.8, 0.5, 0}),
			count:  2,
			normal: mgl64.Vec3{1, 0, 0},
			depth:  0.2,
		},
		{
			name:   "end to end",
			test:   CapsuleCapsule,
			a:      posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}),
			b:      posed(capsule(0.5, 1), mgl64.Vec3{0, 2.9, 0}),
			count:  1,
			normal: mgl64.Vec3{0, 1, 0},
			depth:  0.1,
		},
		{
			name: "separated",
			test: CapsuleCapsule,
			a:    posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}),
			b:    posed(capsule(0.5, 1), mgl64.Vec3{2, 0, 0}),
		},
	})
}

func TestCapsuleCapsule_ParallelPoints(t *testing.T) {
	_, points := CapsuleCapsule(posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}), posed(capsule(0.5, 1), mgl64.Vec3{0.8, 0.5, 0}), 0)
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}

	want := []mgl64.Vec3{{0.4, -0.5, 0}, {0.4, 1, 0}}
	for i, p := range points {
		if !vec3Equal(p.Position, want[i], 1e-9) {
			t.Errorf("point %d = %v, want %v", i, p.Position, want[i])
		}
	}
}

func TestClosestPointsSegments(t *testing.T) {
	tests := []struct {
		name           string
		p1, q1, p2, q2 mgl64.Vec3
		wantA, wantB   mgl64.Vec3
	}{
		{
			name:  "crossing",
			p1:    mgl64.Vec3{-1, 0, 0},
			q1:    mgl64.Vec3{1, 0, 0},
			p2:    mgl64.Vec3{0, -1, 1},
			q2:    mgl64.Vec3{0, 1, 1},
			wantA: mgl64.Vec3{0, 0, 0},
			wantB: mgl64.Vec3{0, 0, 1},
		},
		{
			name:  "end points",
			p1:    mgl64.Vec3{0, 0, 0},
			q1:    mgl64.Vec3{1, 0, 0},
			p2:    mgl64.Vec3{2, 1, 0},
			q2:    mgl64.Vec3{3, 1, 0},
			wantA: mgl64.Vec3{1, 0, 0},
			wantB: mgl64.Vec3{2, 1, 0},
		},
		{
			name:  "degenerate first segment",
			p1:    mgl64.Vec3{0, 2, 0},
			q1:    mgl64.Vec3{0, 2, 0},
			p2:    mgl64.Vec3{-1, 0, 0},
			q2:    mgl64.Vec3{1, 0, 0},
			wantA: mgl64.Vec3{0, 2, 0},
			wantB: mgl64.Vec3{0, 0, 0},
		},
		{
			name:  "both degenerate",
			p1:    mgl64.Vec3{1, 1, 1},
			q1:    mgl64.Vec3{1, 1, 1},
			p2:    mgl64.Vec3{2, 2, 2},
			q2:    mgl64.Vec3{2, 2, 2},
			wantA: mgl64.Vec3{1, 1, 1},
			wantB: mgl64.Vec3{2, 2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := closestPointsSegments(tt.p1, tt.q1, tt.p2, tt.q2)
			if !vec3Equal(a, tt.wantA, 1e-9) || !vec3Equal(b, tt.wantB, 1e-9) {
				t.Errorf("closestPointsSegments() = %v, %v, want %v, %v", a, b, tt.wantA, tt.wantB)
			}
		})
	}
}

// Deep overlaps always give a positive depth and a unit normal
func TestDeepOverlapProperty(t *testing.T) {
	tests := []struct {
		name string
		test Func
		a, b actor.Collider
	}{
		{"sphere-sphere", SphereSphere, posed(sphere(1), mgl64.Vec3{0, 0, 0}), posed(sphere(1), mgl64.Vec3{0.3, 0.2, 0.1})},
		{"sphere-box", SphereBox, posed(sphere(1), mgl64.Vec3{0.1, 0.1, 0.1}), posed(box(1, 1, 1), mgl64.Vec3{0, 0, 0})},
		{"box-box", BoxBox, posed(box(1, 1, 1), mgl64.Vec3{0, 0, 0}), posedRotated(box(1, 1, 1), mgl64.Vec3{0.2, 0.3, 0}, mgl64.Vec3{1, 1, 0}.Normalize(), 0.3)},
		{"sphere-plane", SpherePlane, posed(sphere(1), mgl64.Vec3{0, -0.5, 0}), posed(ground(), mgl64.Vec3{0, 0, 0})},
		{"box-plane", BoxPlane, posedRotated(box(1, 1, 1), mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 1}, 0.4), posed(ground(), mgl64.Vec3{0, 0, 0})},
		{"capsule-plane", CapsulePlane, posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}), posed(ground(), mgl64.Vec3{0, 0, 0})},
		{"sphere-cylinder", SphereCylinder, posed(sphere(1), mgl64.Vec3{0, 0, 0}), posed(&actor.Cylinder{Radius: 1, HalfHeight: 1}, mgl64.Vec3{0, 0, 0})},
		{"sphere-capsule", SphereCapsule, posed(sphere(1), mgl64.Vec3{0.1, 0, 0}), posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0})},
		{"capsule-capsule", CapsuleCapsule, posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0}), posed(capsule(0.5, 1), mgl64.Vec3{0, 0, 0})},
		{"ellipsoid-plane", ConvexPlane, posed(&actor.Ellipsoid{Radii: mgl64.Vec3{1, 2, 1}}, mgl64.Vec3{0, 0, 0}), posed(ground(), mgl64.Vec3{0, 0, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normal, points := tt.test(tt.a, tt.b, 0)
			if len(points) == 0 {
				t.Fatal("got no points")
			}
			if !floatEqual(normal.Len(), 1, 1e-9) {
				t.Errorf("normal %v is not unit length", normal)
			}
			if deepest(points) <= 0 {
				t.Errorf("deepest penetration = %v, want > 0", deepest(points))
			}
		})
	}
}
