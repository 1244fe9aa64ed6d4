package collide

import (
	"cmp"
	"slices"

	"github.com/akmonengine/collide/actor"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
)

type EventType uint8

// Event is implemented by every event
type Event interface {
	Type() EventType
}

type TriggerEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

type CollisionEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// EventListener is called synchronously at the end of System.Run
type EventListener func(event Event)

// bodyPair holds two body indices, a < b
type bodyPair struct {
	a, b int
}

func compareBodyPairs(p, q bodyPair) int {
	return cmp.Or(cmp.Compare(p.a, q.a), cmp.Compare(p.b, q.b))
}

// Events tracks touching bodies between runs and raises Enter, Stay and Exit
// events. Pairs are kept sorted so that events come in a stable order.
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event

	previousActivePairs []bodyPair
	currentActivePairs  []bodyPair
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 256),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollisions collects the body pairs touching in the current manifolds
func (e *Events) recordCollisions(data *CollisionData) {
	current := e.currentActivePairs[:0]
	for _, m := range data.Manifolds {
		a, b := data.slots[m.ShapeA].body, data.slots[m.ShapeB].body
		if a > b {
			a, b = b, a
		}
		current = append(current, bodyPair{a, b})
	}
	slices.SortFunc(current, compareBodyPairs)
	e.currentActivePairs = slices.Compact(current)
}

// processCollisionEvents walks previous and current pairs together, both sorted
func (e *Events) processCollisionEvents(bodies []*actor.RigidBody) {
	previous, current := e.previousActivePairs, e.currentActivePairs
	i, j := 0, 0
	for i < len(previous) || j < len(current) {
		switch {
		case j == len(current) || (i < len(previous) && compareBodyPairs(previous[i], current[j]) < 0):
			e.emitExit(bodies, previous[i])
			i++
		case i == len(previous) || compareBodyPairs(previous[i], current[j]) > 0:
			e.emitEnterOrStay(bodies, current[j], false)
			j++
		default:
			e.emitEnterOrStay(bodies, current[j], true)
			i++
			j++
		}
	}

	// swap for the next run
	e.previousActivePairs, e.currentActivePairs = current, previous[:0]
}

func (e *Events) emitEnterOrStay(bodies []*actor.RigidBody, pair bodyPair, stay bool) {
	bodyA, bodyB := bodies[pair.a], bodies[pair.b]
	// sleeping pairs stay tracked without spamming events
	if bodyA.IsSleeping && bodyB.IsSleeping {
		return
	}

	isTrigger := bodyA.IsTrigger || bodyB.IsTrigger
	switch {
	case stay && isTrigger:
		e.buffer = append(e.buffer, TriggerStayEvent{BodyA: bodyA, BodyB: bodyB})
	case stay:
		e.buffer = append(e.buffer, CollisionStayEvent{BodyA: bodyA, BodyB: bodyB})
	case isTrigger:
		e.buffer = append(e.buffer, TriggerEnterEvent{BodyA: bodyA, BodyB: bodyB})
	default:
		e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: bodyA, BodyB: bodyB})
	}
}

func (e *Events) emitExit(bodies []*actor.RigidBody, pair bodyPair) {
	bodyA, bodyB := bodies[pair.a], bodies[pair.b]
	if bodyA.IsTrigger || bodyB.IsTrigger {
		e.buffer = append(e.buffer, TriggerExitEvent{BodyA: bodyA, BodyB: bodyB})
		return
	}
	e.buffer = append(e.buffer, CollisionExitEvent{BodyA: bodyA, BodyB: bodyB})
}

// flush computes the events of the run and sends them to the listeners
func (e *Events) flush(data *CollisionData) {
	e.recordCollisions(data)
	e.processCollisionEvents(data.bodies)

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
