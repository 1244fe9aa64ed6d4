package collide

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidThreadCount is returned for a thread count below 1
	ErrInvalidThreadCount = errors.New("thread count must be at least 1")
	ErrNilModel           = errors.New("model is nil")
	ErrModelAlreadyAdded  = errors.New("model already added")
)

// System runs the collision pipeline over every registered model: AABB
// generation, broad phase, narrow phase, then events. Contacts of the last
// Run are handed to the solver with ReportContacts.
//
// A System is not safe for concurrent use. Each phase is parallel internally.
type System struct {
	Logger *slog.Logger

	config     Config
	numThreads int

	data          CollisionData
	aabbGenerator AABBGenerator
	broadphase    Broadphase
	narrowphase   *Narrowphase
	events        Events

	models    map[*actor.Model][]int
	bodyIndex map[*actor.RigidBody]int

	timerBroad  Timer
	timerNarrow Timer
}

// NewSystem creates an empty collision system
func NewSystem(config Config) (*System, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("collide: new system: %w", err)
	}
	logger := config.logger()

	s := &System{
		Logger:        logger,
		config:        config,
		numThreads:    config.Threads,
		aabbGenerator: AABBGenerator{MinExtent: config.MinExtent},
		broadphase: Broadphase{
			GridDensity:    config.GridDensity,
			MaxCells:       config.MaxCells,
			MaxBinsPerAxis: config.MaxBinsPerAxis,
			SnapSize:       config.SnapSize,
			Logger:         logger,
		},
		narrowphase: NewNarrowphase(config.Margin, logger),
		events:      NewEvents(),
		models:      make(map[*actor.Model][]int),
		bodyIndex:   make(map[*actor.RigidBody]int),
	}

	if config.ActiveBox != nil {
		s.SetAABB(config.ActiveBox.bounds())
	}

	return s, nil
}

// Add registers every shape of model, compounds flattened into one slot per
// child. Invalid shapes are rejected before anything is registered.
func (s *System) Add(model *actor.Model) error {
	if model == nil {
		return ErrNilModel
	}
	if _, ok := s.models[model]; ok {
		return ErrModelAlreadyAdded
	}
	if err := model.Validate(); err != nil {
		return fmt.Errorf("collide: add model: %w", err)
	}

	d := &s.data
	body, ok := s.bodyIndex[model.Body]
	if !ok {
		body = len(d.bodies)
		s.bodyIndex[model.Body] = body
		d.bodies = append(d.bodies, model.Body)
		d.bodyShapes = append(d.bodyShapes, nil)
		d.BodyActive = append(d.BodyActive, true)
	}

	envelope := model.Envelope
	if envelope == 0 {
		envelope = s.config.Envelope
	}

	leaves := model.Leaves()
	slots := make([]int, 0, len(leaves))
	for leaf, instance := range leaves {
		slot := len(d.slots)
		d.slots = append(d.slots, shapeSlot{
			model:    model,
			shape:    instance.Shape,
			offset:   instance.Offset,
			leaf:     leaf,
			body:     body,
			envelope: envelope,
		})
		d.bodyShapes[body] = append(d.bodyShapes[body], slot)
		slots = append(slots, slot)

		s.warnDegenerate(instance, leaf)
	}
	s.models[model] = slots

	return nil
}

// warnDegenerate logs shapes whose AABB gets widened to MinExtent
func (s *System) warnDegenerate(instance actor.ShapeInstance, leaf int) {
	extent := instance.Shape.ComputeAABB(instance.Offset).Extent()
	for i := 0; i < 3; i++ {
		if extent[i] < s.config.MinExtent {
			s.Logger.Warn("degenerate shape, AABB clamped to min extent",
				"shape", instance.Shape.Type(),
				"leaf", leaf,
				"extent", extent,
				"min_extent", s.config.MinExtent,
			)
			return
		}
	}
}

// Remove unregisters model. Its slots are tombstoned and skipped by every
// phase; slot indices of other models never change. It reports false when
// model was not registered.
func (s *System) Remove(model *actor.Model) bool {
	slots, ok := s.models[model]
	if !ok {
		return false
	}

	d := &s.data
	for _, i := range slots {
		d.slots[i].removed = true
	}

	body := s.bodyIndex[model.Body]
	live := d.bodyShapes[body][:0]
	for _, i := range d.bodyShapes[body] {
		if !d.slots[i].removed {
			live = append(live, i)
		}
	}
	d.bodyShapes[body] = live
	delete(s.models, model)

	return true
}

// SetNumThreads sets the worker count of the next Run
func (s *System) SetNumThreads(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidThreadCount, n)
	}
	s.numThreads = n
	return nil
}

func (s *System) NumThreads() int {
	return s.numThreads
}

// Run performs a full collision detection pass. It never fails: degenerate
// input produces clamped boxes and fallback normals.
func (s *System) Run() {
	workers := s.numThreads

	s.timerBroad.Start()
	s.runBroadphase(workers)
	s.timerBroad.Stop()

	s.timerNarrow.Start()
	s.narrowphase.Run(&s.data, workers)
	s.narrowphase.RunParticles(&s.data, workers)
	s.timerNarrow.Stop()

	s.events.flush(&s.data)
}

// RunBroadphase only updates the AABBs and the candidate pairs.
// Contacts of the previous Run are left untouched.
func (s *System) RunBroadphase() {
	s.timerBroad.Start()
	s.runBroadphase(s.numThreads)
	s.timerBroad.Stop()
}

func (s *System) runBroadphase(workers int) {
	s.aabbGenerator.Generate(&s.data, workers)
	s.updateActiveFlags(workers)
	s.broadphase.Run(&s.data, workers)
}

// updateActiveFlags marks removed bodies, and bodies entirely outside the
// active box when it is enabled, as inactive.
func (s *System) updateActiveFlags(workers int) {
	d := &s.data
	d.BodyActive = resize(d.BodyActive, len(d.bodies))

	parallelFor(workers, len(d.bodies), func(b int) {
		shapes := d.bodyShapes[b]
		if len(shapes) == 0 {
			d.BodyActive[b] = false
			return
		}
		if !d.ActiveBoxEnabled {
			d.BodyActive[b] = true
			return
		}

		bounds := actor.EmptyAABB()
		for _, i := range shapes {
			if d.ActiveBox.Contains(d.AABBs[i]) {
				d.BodyActive[b] = true
				return
			}
			bounds = bounds.Union(d.AABBs[i])
		}
		d.BodyActive[b] = bounds.Overlaps(d.ActiveBox)
	})
}

// ReportContacts hands the contacts of the last Run to container. Contacts
// involving a trigger body only raise events. Calling it twice reports the
// same contacts twice.
func (s *System) ReportContacts(container constraint.ContactContainer) {
	d := &s.data

	container.BeginAddContact()
	for k := range d.Manifolds {
		m := &d.Manifolds[k]
		if m.BodyA.IsTrigger || m.BodyB.IsTrigger {
			continue
		}

		slotA, slotB := &d.slots[m.ShapeA], &d.slots[m.ShapeB]
		for _, point := range m.Points {
			info := constraint.NewContactInfo(slotA.model, slotB.model, m, point)
			info.ShapeA, info.ShapeB = slotA.leaf, slotB.leaf
			container.AddContact(info)
		}
	}
	container.EndAddContact()
}

// ReportParticleContacts hands the particle contacts of the last Run to container
func (s *System) ReportParticleContacts(container constraint.ParticleContactContainer) {
	container.BeginAddParticleContact()
	for _, contact := range s.data.ParticleContacts {
		container.AddParticleContact(contact)
	}
	container.EndAddParticleContact()
}

// SetParticles replaces the particles tested against the rigid shapes
func (s *System) SetParticles(positions []mgl64.Vec3, radius float64) {
	s.data.Particles = append(s.data.Particles[:0], positions...)
	s.data.ParticleRadius = radius
}

// SetAABB enables the active box. Bodies lying entirely outside are skipped
// from the next Run.
func (s *System) SetAABB(min, max mgl64.Vec3) {
	s.data.ActiveBox = actor.AABB{Min: min, Max: max}
	s.data.ActiveBoxEnabled = true
}

// DisableAABB makes every body active again
func (s *System) DisableAABB() {
	s.data.ActiveBoxEnabled = false
}

// GetAABB returns the active box and whether it is enabled
func (s *System) GetAABB() (mgl64.Vec3, mgl64.Vec3, bool) {
	return s.data.ActiveBox.Min, s.data.ActiveBox.Max, s.data.ActiveBoxEnabled
}

// GetOverlappingAABB reports, for every body in registration order, whether
// one of its shape AABBs from the last Run overlaps [min, max].
func (s *System) GetOverlappingAABB(min, max mgl64.Vec3) []bool {
	d := &s.data
	query := actor.AABB{Min: min, Max: max}
	result := make([]bool, len(d.bodies))

	for b, shapes := range d.bodyShapes {
		for _, i := range shapes {
			if i < len(d.AABBs) && d.AABBs[i].Overlaps(query) {
				result[b] = true
				break
			}
		}
	}
	return result
}

// GetOverlappingPairs returns a copy of the candidate pairs of the last broad phase
func (s *System) GetOverlappingPairs() []Pair {
	return append([]Pair(nil), s.data.Pairs...)
}

// GetBoundingBox returns the snapped region covered by the broad-phase grid.
// It is empty when the last Run had nothing active.
func (s *System) GetBoundingBox() actor.AABB {
	return s.data.Grid.Region
}

// Bodies returns the registered bodies, indexed like GetOverlappingAABB
func (s *System) Bodies() []*actor.RigidBody {
	return s.data.bodies
}

// Manifolds returns the contact manifolds of the last Run, in pair order.
// Shape indices are system slots, as in GetOverlappingPairs.
func (s *System) Manifolds() []constraint.ContactConstraint {
	return s.data.Manifolds
}

// SetBroadphaseCallback installs a filter called for every candidate pair.
// A nil callback accepts every pair.
func (s *System) SetBroadphaseCallback(fn BroadphaseCallback) {
	s.broadphase.Callback = fn
}

// Subscribe registers listener for the events raised at the end of each Run
func (s *System) Subscribe(eventType EventType, listener EventListener) {
	s.events.Subscribe(eventType, listener)
}

func (s *System) ResetTimers() {
	s.timerBroad.Reset()
	s.timerNarrow.Reset()
}

// GetTimerCollisionBroad returns the seconds spent in AABB generation and broad phase
func (s *System) GetTimerCollisionBroad() float64 {
	return s.timerBroad.Seconds()
}

// GetTimerCollisionNarrow returns the seconds spent in the narrow phase
func (s *System) GetTimerCollisionNarrow() float64 {
	return s.timerNarrow.Seconds()
}

// RayHit is not supported and always reports no hit
func (s *System) RayHit(from, to mgl64.Vec3) bool {
	return false
}
