package actor

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are moved by the solver
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are fixed (e.g., ground, walls)
	// Two static bodies are never tested against each other
	BodyTypeStatic
)

type Material struct {
	Restitution float64 // 0= no rebound, 1= perfect restitution

	StaticFriction  float64
	DynamicFriction float64
	Compliance      float64 // inverse stiffness of the contact, 0= rigid
}

// Compliance of common materials, in m/N
const (
	CONCRETE_COMPLIANCE = 0.04e-9
	WOOD_COMPLIANCE     = 0.16e-9
	LEATHER_COMPLIANCE  = 14e-8
	TENDON_COMPLIANCE   = 0.2e-7
	RUBBER_COMPLIANCE   = 1e-6
	MUSCLE_COMPLIANCE   = 0.2e-3
	FAT_COMPLIANCE      = 1e-3
)

// DefaultMaterial is used by models created without an explicit material
func DefaultMaterial() Material {
	return Material{
		Restitution:     0.0,
		StaticFriction:  0.6,
		DynamicFriction: 0.4,
		Compliance:      0.0,
	}
}

// RigidBody is the collision view of a solver body: a pose and the flags
// the collision pipeline filters on. Mass and velocities stay in the solver.
type RigidBody struct {
	// Id is an opaque identifier echoed back in reported contacts
	Id any

	Transform Transform
	BodyType  BodyType // Dynamic or Static

	IsSleeping bool
	// Trigger bodies raise trigger events but are never reported as contacts
	IsTrigger bool
}

// NewRigidBody creates a new rigid body with the given pose and type
func NewRigidBody(transform Transform, bodyType BodyType) *RigidBody {
	return &RigidBody{
		Transform: transform,
		BodyType:  bodyType,
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
}

// IsStatic reports whether the body never moves
func (rb *RigidBody) IsStatic() bool {
	return rb.BodyType == BodyTypeStatic
}
