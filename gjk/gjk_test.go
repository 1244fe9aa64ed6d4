package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/collide/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func createBox(position mgl64.Vec3, halfExtents mgl64.Vec3) actor.Collider {
	return actor.Collider{
		Shape:     &actor.Box{HalfExtents: halfExtents},
		Transform: actor.Transform{Position: position, Rotation: mgl64.QuatIdent()},
	}
}

func createSphere(position mgl64.Vec3, radius float64) actor.Collider {
	return actor.Collider{
		Shape:     &actor.Sphere{Radius: radius},
		Transform: actor.Transform{Position: position, Rotation: mgl64.QuatIdent()},
	}
}

func TestMinkowskiSupport(t *testing.T) {
	tests := []struct {
		name      string
		a, b      actor.Collider
		direction mgl64.Vec3
		expectedX float64
	}{
		{
			// max(A.x) - min(B.x) = 1 - 2
			name:      "separated spheres",
			a:         createSphere(mgl64.Vec3{0, 0, 0}, 1),
			b:         createSphere(mgl64.Vec3{3, 0, 0}, 1),
			direction: mgl64.Vec3{1, 0, 0},
			expectedX: -1,
		},
		{
			name:      "overlapping spheres",
			a:         createSphere(mgl64.Vec3{0, 0, 0}, 1),
			b:         createSphere(mgl64.Vec3{1.5, 0, 0}, 1),
			direction: mgl64.Vec3{1, 0, 0},
			expectedX: 0.5,
		},
		{
			name:      "unnormalized direction",
			a:         createSphere(mgl64.Vec3{0, 0, 0}, 1),
			b:         createSphere(mgl64.Vec3{1.5, 0, 0}, 1),
			direction: mgl64.Vec3{10, 0, 0},
			expectedX: 0.5,
		},
		{
			name:      "opposite direction",
			a:         createSphere(mgl64.Vec3{0, 0, 0}, 1),
			b:         createSphere(mgl64.Vec3{3, 0, 0}, 1),
			direction: mgl64.Vec3{-1, 0, 0},
			expectedX: -5,
		},
		{
			name:      "boxes",
			a:         createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			b:         createBox(mgl64.Vec3{4, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
			direction: mgl64.Vec3{1, 0, 0},
			expectedX: -2.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			support := MinkowskiSupport(tt.a, tt.b, tt.direction)
			if math.Abs(support.X()-tt.expectedX) > 1e-12 {
				t.Errorf("support.X = %v, want %v", support.X(), tt.expectedX)
			}
		})
	}
}

func TestMinkowskiSupport_Margin(t *testing.T) {
	a := createSphere(mgl64.Vec3{0, 0, 0}, 1)
	b := createSphere(mgl64.Vec3{3, 0, 0}, 1)
	a.Margin = 0.25
	b.Margin = 0.25

	support := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
	if math.Abs(support.X()-(-0.5)) > 1e-12 {
		t.Errorf("support.X = %v, want -0.5", support.X())
	}
}

func TestGJK(t *testing.T) {
	rotated := createBox(mgl64.Vec3{2.3, 0, 0}, mgl64.Vec3{1, 1, 1})
	rotated.Transform.Rotation = mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})

	tests := []struct {
		name     string
		a, b     actor.Collider
		expected bool
	}{
		{"overlapping spheres", createSphere(mgl64.Vec3{0, 0, 0}, 1), createSphere(mgl64.Vec3{1.5, 0, 0}, 1), true},
		{"diagonal overlapping spheres", createSphere(mgl64.Vec3{0, 0, 0}, 1), createSphere(mgl64.Vec3{1, 1, 1}, 1), true},
		{"concentric spheres", createSphere(mgl64.Vec3{2, 2, 2}, 1), createSphere(mgl64.Vec3{2, 2, 2}, 0.5), true},
		{"sphere inside box", createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{5, 5, 5}), createSphere(mgl64.Vec3{1, 1, 1}, 0.5), true},
		{"separated spheres", createSphere(mgl64.Vec3{0, 0, 0}, 1), createSphere(mgl64.Vec3{3, 0, 0}, 1), false},
		{"diagonal separated spheres", createSphere(mgl64.Vec3{0, 0, 0}, 1), createSphere(mgl64.Vec3{2, 2, 2}, 1), false},
		{"overlapping boxes", createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), createBox(mgl64.Vec3{1.5, 0.5, -0.3}, mgl64.Vec3{1, 1, 1}), true},
		{"separated boxes", createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), createBox(mgl64.Vec3{0, 2.5, 0}, mgl64.Vec3{1, 1, 1}), false},
		{"rotated box corner reaches", createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), rotated, true},
		{"sphere near box corner", createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), createSphere(mgl64.Vec3{1.8, 1.8, 0}, 1), false},
		{"sphere on box face", createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), createSphere(mgl64.Vec3{0, 1.9, 0}, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var simplex Simplex
			if got := GJK(tt.a, tt.b, &simplex); got != tt.expected {
				t.Errorf("GJK() = %v, want %v", got, tt.expected)
			}
			if got := GJK(tt.b, tt.a, &simplex); got != tt.expected {
				t.Errorf("GJK() swapped = %v, want %v", got, tt.expected)
			}
		})
	}
}

// The margin inflates both volumes
func TestGJK_Margin(t *testing.T) {
	a := createSphere(mgl64.Vec3{0, 0, 0}, 1)
	b := createSphere(mgl64.Vec3{2.1, 0, 0}, 1)

	var simplex Simplex
	if GJK(a, b, &simplex) {
		t.Fatal("spheres 0.1 apart should not overlap")
	}

	a.Margin = 0.1
	b.Margin = 0.1
	if !GJK(a, b, &simplex) {
		t.Error("spheres 0.1 apart should overlap once inflated by 0.1 each")
	}
}

func TestGJK_FlatShapes(t *testing.T) {
	a := createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 1})
	b := createBox(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 0, 1})

	var simplex Simplex
	if GJK(a, b, &simplex) {
		t.Error("separated flat boxes should not overlap")
	}

	// overlapping flat boxes must terminate, whatever the answer
	b.Transform.Position = mgl64.Vec3{0.5, 0, 0}
	GJK(a, b, &simplex)
	if simplex.Count < 1 || simplex.Count > 4 {
		t.Errorf("simplex count = %d", simplex.Count)
	}
}

func TestLine(t *testing.T) {
	t.Run("origin beside the segment", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{-1, 1, 0}, {1, 1, 0}}, Count: 2}
		var direction mgl64.Vec3

		if line(&simplex, &direction) {
			t.Fatal("line() should not contain the origin")
		}
		if simplex.Count != 2 {
			t.Errorf("Count = %d, want 2", simplex.Count)
		}
		if direction.Y() >= 0 || math.Abs(direction.X()) > 1e-12 {
			t.Errorf("direction = %v, want toward -Y", direction)
		}
	})

	t.Run("origin behind the newest point", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{2, 1, 0}, {1, 1, 0}}, Count: 2}
		var direction mgl64.Vec3

		if line(&simplex, &direction) {
			t.Fatal("line() should not contain the origin")
		}
		if simplex.Count != 1 || simplex.Points[0] != (mgl64.Vec3{1, 1, 0}) {
			t.Errorf("simplex = %v (count %d), want the newest point only", simplex.Points[0], simplex.Count)
		}
		if direction != (mgl64.Vec3{-1, -1, 0}) {
			t.Errorf("direction = %v, want (-1,-1,0)", direction)
		}
	})

	t.Run("origin on the segment", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}}, Count: 2}
		var direction mgl64.Vec3

		if !line(&simplex, &direction) {
			t.Error("line() should contain the origin")
		}
	})
}

func TestTriangle(t *testing.T) {
	t.Run("origin below the triangle", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{-1, -1, 1}, {1, -1, 1}, {0, 1, 1}}, Count: 3}
		var direction mgl64.Vec3

		if triangle(&simplex, &direction) {
			t.Fatal("triangle() should never contain the origin")
		}
		if simplex.Count != 3 {
			t.Errorf("Count = %d, want 3", simplex.Count)
		}
		if direction.Z() >= 0 {
			t.Errorf("direction = %v, want toward -Z", direction)
		}
	})

	t.Run("origin above the triangle", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{-1, -1, -1}, {1, -1, -1}, {0, 1, -1}}, Count: 3}
		var direction mgl64.Vec3

		triangle(&simplex, &direction)
		if simplex.Count != 3 {
			t.Errorf("Count = %d, want 3", simplex.Count)
		}
		if direction.Z() <= 0 {
			t.Errorf("direction = %v, want toward +Z", direction)
		}
		// newest point stays last
		if simplex.Points[2] != (mgl64.Vec3{0, 1, -1}) {
			t.Errorf("newest point = %v, want (0,1,-1)", simplex.Points[2])
		}
	})

	t.Run("origin outside an edge", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{1, 1, 0}, {3, 1, 0}, {2, 3, 0}}, Count: 3}
		var direction mgl64.Vec3

		triangle(&simplex, &direction)
		if simplex.Count != 2 {
			t.Errorf("Count = %d, want 2", simplex.Count)
		}
	})
}

func TestTetrahedron(t *testing.T) {
	points := [4]mgl64.Vec3{{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}

	t.Run("contains origin", func(t *testing.T) {
		simplex := Simplex{Points: points, Count: 4}
		var direction mgl64.Vec3

		if !tetrahedron(&simplex, &direction) {
			t.Error("tetrahedron() should contain the origin")
		}
	})

	t.Run("origin outside", func(t *testing.T) {
		shifted := points
		for i := range shifted {
			shifted[i] = shifted[i].Add(mgl64.Vec3{5, 0, 0})
		}
		simplex := Simplex{Points: shifted, Count: 4}
		var direction mgl64.Vec3

		if tetrahedron(&simplex, &direction) {
			t.Fatal("tetrahedron() should not contain the origin")
		}
		if simplex.Count >= 4 {
			t.Errorf("Count = %d, want a reduced simplex", simplex.Count)
		}
		newest := simplex.Points[simplex.Count-1]
		if direction.Dot(newest.Mul(-1)) <= 0 {
			t.Errorf("direction = %v, want toward the origin", direction)
		}
	})
}

func BenchmarkGJK_Spheres(b *testing.B) {
	a := createSphere(mgl64.Vec3{0, 0, 0}, 1)
	c := createSphere(mgl64.Vec3{1.5, 0, 0}, 1)
	var simplex Simplex

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GJK(a, c, &simplex)
	}
}

func BenchmarkGJK_Boxes(b *testing.B) {
	a := createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	c := createBox(mgl64.Vec3{1.5, 0.5, 0}, mgl64.Vec3{1, 1, 1})
	var simplex Simplex

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GJK(a, c, &simplex)
	}
}
