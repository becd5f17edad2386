package xpbd

import (
	"testing"

	"github.com/akmonengine/xpbd/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// createTestBody creates a minimal RigidBody for event testing
func createTestBody(t *testing.T, active bool) *actor.RigidBody {
	t.Helper()

	rb, err := actor.NewRigidBody(actor.BodyConfig{
		Transform: actor.NewTransform(),
		Mass:      1.0,
		Inactive:  !active,
		Colliders: []actor.Collider{actor.NewSphere(1.0)},
	})
	if err != nil {
		t.Fatalf("NewRigidBody() error = %v", err)
	}
	return rb
}

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) count() int {
	return len(ec.events)
}

func (ec *eventCapture) hasEventType(eventType EventType) bool {
	for _, e := range ec.events {
		if e.Type() == eventType {
			return true
		}
	}
	return false
}

// =============================================================================
// Subscribe and Listeners Tests
// =============================================================================

func TestEvents_MultipleListeners(t *testing.T) {
	events := NewEvents()
	capture1 := &eventCapture{}
	capture2 := &eventCapture{}

	events.Subscribe(COLLISION_ENTER, capture1.capture)
	events.Subscribe(COLLISION_ENTER, capture2.capture)

	if len(events.listeners[COLLISION_ENTER]) != 2 {
		t.Errorf("Expected 2 listeners for COLLISION_ENTER, got %d", len(events.listeners[COLLISION_ENTER]))
	}

	events.recordCollision(createTestBody(t, true), createTestBody(t, true))
	events.flush()

	if capture1.count() != 1 {
		t.Errorf("Capture1 expected 1 event, got %d", capture1.count())
	}
	if capture2.count() != 1 {
		t.Errorf("Capture2 expected 1 event, got %d", capture2.count())
	}
}

func TestEvents_DifferentEventTypes(t *testing.T) {
	events := NewEvents()
	captureEnter := &eventCapture{}
	captureSleep := &eventCapture{}

	events.Subscribe(COLLISION_ENTER, captureEnter.capture)
	events.Subscribe(ON_SLEEP, captureSleep.capture)

	events.recordCollision(createTestBody(t, true), createTestBody(t, true))
	events.flush()

	if captureEnter.count() != 1 {
		t.Errorf("Enter capture expected 1 event, got %d", captureEnter.count())
	}
	if captureSleep.count() != 0 {
		t.Errorf("Sleep capture expected 0 events, got %d", captureSleep.count())
	}
}

// =============================================================================
// makePairKey Tests
// =============================================================================

func TestMakePairKey_Normalization(t *testing.T) {
	bodyA := createTestBody(t, true)
	bodyB := createTestBody(t, true)

	if makePairKey(bodyA, bodyB) != makePairKey(bodyB, bodyA) {
		t.Error("makePairKey should normalize pairs to consistent ordering")
	}
}

func TestMakePairKey_DifferentPairs(t *testing.T) {
	bodyA := createTestBody(t, true)
	bodyB := createTestBody(t, true)
	bodyC := createTestBody(t, true)

	if makePairKey(bodyA, bodyB) == makePairKey(bodyA, bodyC) {
		t.Error("makePairKey should produce different keys for different pairs")
	}
}

// =============================================================================
// Collision Enter/Stay/Exit Tests
// =============================================================================

func TestEvents_RecordCollision_OrdersBodies(t *testing.T) {
	events := NewEvents()
	bodyA := createTestBody(t, true)
	bodyB := createTestBody(t, true)

	events.recordCollision(bodyB, bodyA)
	key := makePairKey(bodyA, bodyB)
	pair, ok := events.currentActivePairs[key]
	if !ok {
		t.Fatal("Pair should be recorded in currentActivePairs")
	}
	if pair.bodyA.ID != key.bodyA || pair.bodyB.ID != key.bodyB {
		t.Error("Recorded bodies should follow the key ordering")
	}

	// Recording the same pair again during another substep keeps one entry
	events.recordCollision(bodyA, bodyB)
	if len(events.currentActivePairs) != 1 {
		t.Errorf("Expected 1 active pair, got %d", len(events.currentActivePairs))
	}
}

func TestEvents_CollisionLifecycle(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_ENTER, capture.capture)
	events.Subscribe(COLLISION_STAY, capture.capture)
	events.Subscribe(COLLISION_EXIT, capture.capture)

	bodyA := createTestBody(t, true)
	bodyB := createTestBody(t, true)

	frames := []struct {
		touching bool
		expected []EventType
	}{
		{touching: true, expected: []EventType{COLLISION_ENTER}},
		{touching: true, expected: []EventType{COLLISION_STAY}},
		{touching: true, expected: []EventType{COLLISION_STAY}},
		{touching: false, expected: []EventType{COLLISION_EXIT}},
		{touching: false, expected: nil},
		{touching: true, expected: []EventType{COLLISION_ENTER}},
	}

	for i, frame := range frames {
		capture.reset()
		if frame.touching {
			events.recordCollision(bodyA, bodyB)
		}
		events.flush()

		if capture.count() != len(frame.expected) {
			t.Fatalf("Frame %d: expected %d events, got %d", i, len(frame.expected), capture.count())
		}
		for j, eventType := range frame.expected {
			if capture.events[j].Type() != eventType {
				t.Errorf("Frame %d: expected %v, got %v", i, eventType, capture.events[j].Type())
			}
		}
	}
}

func TestEvents_CollisionStay_SleepingBodies(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_STAY, capture.capture)
	events.Subscribe(COLLISION_EXIT, capture.capture)

	bodyA := createTestBody(t, true)
	bodyB := createTestBody(t, true)

	events.recordCollision(bodyA, bodyB)
	events.flush()

	bodyA.Sleep()
	bodyB.Sleep()

	// Sleeping pairs are not tested by the narrow phase, the contact is kept
	events.keepCollision(bodyA, bodyB)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no Stay nor Exit event for a sleeping pair, got %d events", capture.count())
	}
}

func TestEvents_KeepCollision_UnknownPair(t *testing.T) {
	events := NewEvents()
	events.keepCollision(createTestBody(t, false), createTestBody(t, false))

	if len(events.currentActivePairs) != 0 {
		t.Error("keepCollision should not create new pairs")
	}
}

// =============================================================================
// Sleep/Wake Tests
// =============================================================================

func TestEvents_SleepWakeWorkflow(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(ON_SLEEP, capture.capture)
	events.Subscribe(ON_WAKE, capture.capture)

	body := createTestBody(t, true)
	bodies := []*actor.RigidBody{body}

	// First frame only records the state
	events.processSleepEvents(bodies)
	events.flush()
	if capture.count() != 0 {
		t.Errorf("Expected no event on the first frame, got %d", capture.count())
	}

	body.Sleep()
	events.processSleepEvents(bodies)
	events.flush()
	if !capture.hasEventType(ON_SLEEP) {
		t.Error("Expected ON_SLEEP event")
	}

	// Still sleeping, nothing new
	capture.reset()
	events.processSleepEvents(bodies)
	events.flush()
	if capture.count() != 0 {
		t.Errorf("Expected no event while sleeping, got %d", capture.count())
	}

	body.AddForce(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, false)
	events.processSleepEvents(bodies)
	events.flush()
	if !capture.hasEventType(ON_WAKE) {
		t.Error("Expected ON_WAKE event")
	}
}

func TestEvents_Forget(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(COLLISION_EXIT, capture.capture)

	bodyA := createTestBody(t, true)
	bodyB := createTestBody(t, true)

	events.recordCollision(bodyA, bodyB)
	events.processSleepEvents([]*actor.RigidBody{bodyA, bodyB})
	events.flush()

	events.forget(bodyA)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("A removed body should not produce an Exit event, got %d", capture.count())
	}
	if _, ok := events.activeStates[bodyA.ID]; ok {
		t.Error("Sleep state of the removed body should be dropped")
	}
}

func TestEvents_Flush_ClearsBuffer(t *testing.T) {
	events := NewEvents()
	events.recordCollision(createTestBody(t, true), createTestBody(t, true))
	events.flush()

	if len(events.buffer) != 0 {
		t.Errorf("Expected empty buffer after flush, got %d", len(events.buffer))
	}
}

func TestEventType_String(t *testing.T) {
	if COLLISION_ENTER.String() != "collision_enter" || ON_WAKE.String() != "wake" {
		t.Error("Unexpected event type names")
	}
	if EventType(200).String() != "unknown" {
		t.Error("Expected unknown for an undefined event type")
	}
}
