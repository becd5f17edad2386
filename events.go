package xpbd

import (
	"bytes"

	"github.com/akmonengine/xpbd/actor"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type pairKey struct {
	bodyA actor.BodyID
	bodyB actor.BodyID
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(bodyA, bodyB *actor.RigidBody) pairKey {
	if bytes.Compare(bodyB.ID[:], bodyA.ID[:]) < 0 {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA.ID, bodyB: bodyB.ID}
}

type EventType uint8

func (t EventType) String() string {
	switch t {
	case COLLISION_ENTER:
		return "collision_enter"
	case COLLISION_STAY:
		return "collision_stay"
	case COLLISION_EXIT:
		return "collision_exit"
	case ON_SLEEP:
		return "sleep"
	case ON_WAKE:
		return "wake"
	default:
		return "unknown"
	}
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Collision events, BodyA and BodyB are ordered by ID
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

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

type activePair struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection, one entry per touching pair
	previousActivePairs map[pairKey]activePair
	currentActivePairs  map[pairKey]activePair

	// Active state of every body seen at the previous flush
	activeStates map[actor.BodyID]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]activePair),
		currentActivePairs:  make(map[pairKey]activePair),
		activeStates:        make(map[actor.BodyID]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollision is called during substeps for every pair with at least one contact
func (e *Events) recordCollision(bodyA, bodyB *actor.RigidBody) {
	key := makePairKey(bodyA, bodyB)
	if key.bodyA != bodyA.ID {
		bodyA, bodyB = bodyB, bodyA
	}
	e.currentActivePairs[key] = activePair{bodyA: bodyA, bodyB: bodyB}
}

// keepCollision carries a pair touching at the previous flush over to the current one
func (e *Events) keepCollision(bodyA, bodyB *actor.RigidBody) {
	key := makePairKey(bodyA, bodyB)
	if pair, ok := e.previousActivePairs[key]; ok {
		e.currentActivePairs[key] = pair
	}
}

// forget drops every tracked state referencing the body
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.activeStates, body.ID)
	for key := range e.previousActivePairs {
		if key.bodyA == body.ID || key.bodyB == body.ID {
			delete(e.previousActivePairs, key)
		}
	}
	for key := range e.currentActivePairs {
		if key.bodyA == body.ID || key.bodyB == body.ID {
			delete(e.currentActivePairs, key)
		}
	}
}

// processCollisionEvents compares current and previous pairs to detect Enter/Stay/Exit
// Should be called after all substeps
func (e *Events) processCollisionEvents() {
	// Detect Enter and Stay events
	for key, pair := range e.currentActivePairs {
		if _, ok := e.previousActivePairs[key]; ok {
			// Skip if neither body can move, to avoid spamming events
			if !pair.bodyA.IsMovable() && !pair.bodyB.IsMovable() {
				continue
			}
			// Pair was active before and still is, Stay
			e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			// New pair, Enter
			e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	// Detect Exit events
	for key, pair := range e.previousActivePairs {
		if _, ok := e.currentActivePairs[key]; !ok {
			// Pair was active but is no longer, Exit
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		wasActive, exists := e.activeStates[body.ID]
		if !exists {
			e.activeStates[body.ID] = body.Active
			continue
		}

		if wasActive && !body.Active {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
		} else if !wasActive && body.Active {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
		}
		e.activeStates[body.ID] = body.Active
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
