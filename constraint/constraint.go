package constraint

import (
	"math"

	"github.com/akmonengine/collide/actor"
)

// CompositeMaterial is the effective material of a contact between two models
type CompositeMaterial struct {
	StaticFriction  float64
	DynamicFriction float64
	Restitution     float64
	Compliance      float64
}

// Combine mixes the materials of both sides of a contact
func Combine(matA, matB actor.Material) CompositeMaterial {
	return CompositeMaterial{
		StaticFriction:  ComputeStaticFriction(matA, matB),
		DynamicFriction: ComputeDynamicFriction(matA, matB),
		Restitution:     ComputeRestitution(matA, matB),
		Compliance:      ComputeCompliance(matA, matB),
	}
}

func ComputeRestitution(matA, matB actor.Material) float64 {
	// Average (more realistic than max or geometric mean)
	return (matA.Restitution + matB.Restitution) / 2.0
}

func ComputeStaticFriction(matA, matB actor.Material) float64 {
	// Geometric mean, the usual physics convention
	return math.Sqrt(matA.StaticFriction * matB.StaticFriction)
}

func ComputeDynamicFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.DynamicFriction * matB.DynamicFriction)
}

// ComputeCompliance adds both compliances: two springs in series
func ComputeCompliance(matA, matB actor.Material) float64 {
	return matA.Compliance + matB.Compliance
}
