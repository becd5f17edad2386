package xpbd

import (
	"math"
	"testing"

	"github.com/akmonengine/xpbd/actor"
	"github.com/akmonengine/xpbd/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

func TestCollide(t *testing.T) {
	tests := []struct {
		name             string
		bodyA            func(t *testing.T) *actor.RigidBody
		bodyB            func(t *testing.T) *actor.RigidBody
		expectedContacts int
		expectedNormal   mgl64.Vec3
		expectedDepth    float64
	}{
		{
			name:             "sphere sphere",
			bodyA:            func(t *testing.T) *actor.RigidBody { return createSphere(t, mgl64.Vec3{0, 0, 0}, 1, false) },
			bodyB:            func(t *testing.T) *actor.RigidBody { return createSphere(t, mgl64.Vec3{1.5, 0, 0}, 1, false) },
			expectedContacts: 1,
			expectedNormal:   mgl64.Vec3{1, 0, 0},
			expectedDepth:    0.5,
		},
		{
			name:             "separated spheres",
			bodyA:            func(t *testing.T) *actor.RigidBody { return createSphere(t, mgl64.Vec3{0, 0, 0}, 1, false) },
			bodyB:            func(t *testing.T) *actor.RigidBody { return createSphere(t, mgl64.Vec3{2.05, 0, 0}, 1, false) },
			expectedContacts: 0,
		},
		{
			name:             "stacked boxes",
			bodyA:            func(t *testing.T) *actor.RigidBody { return createBox(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}, true) },
			bodyB:            func(t *testing.T) *actor.RigidBody { return createBox(t, mgl64.Vec3{0, 1.9, 0}, mgl64.Vec3{1, 1, 1}, false) },
			expectedContacts: 4,
			expectedNormal:   mgl64.Vec3{0, 1, 0},
			expectedDepth:    0.1,
		},
		{
			name:             "separated boxes",
			bodyA:            func(t *testing.T) *actor.RigidBody { return createBox(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}, false) },
			bodyB:            func(t *testing.T) *actor.RigidBody { return createBox(t, mgl64.Vec3{2.5, 0, 0}, mgl64.Vec3{1, 1, 1}, false) },
			expectedContacts: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := tt.bodyA(t), tt.bodyB(t)

			contacts := Collide(a, b)
			if len(contacts) != tt.expectedContacts {
				t.Fatalf("Expected %d contacts, got %d", tt.expectedContacts, len(contacts))
			}

			for _, contact := range contacts {
				if contact.Normal.Sub(tt.expectedNormal).Len() > 1e-3 {
					t.Errorf("Expected normal %v, got %v", tt.expectedNormal, contact.Normal)
				}
				if math.Abs(contact.Penetration()-tt.expectedDepth) > 1e-3 {
					t.Errorf("Expected depth %v, got %v", tt.expectedDepth, contact.Penetration())
				}
			}
		})
	}
}

func TestCollide_MultipleColliders(t *testing.T) {
	// Dumbbell: two spheres on either side of the origin
	left := actor.NewSphere(0.5)
	left.Center = mgl64.Vec3{-1, 0, 0}
	right := actor.NewSphere(0.5)
	right.Center = mgl64.Vec3{1, 0, 0}

	transform := actor.NewTransform()
	transform.Position = mgl64.Vec3{0, 0.4, 0}
	dumbbell, err := actor.NewRigidBody(actor.BodyConfig{
		Transform: transform,
		Mass:      2,
		Colliders: []actor.Collider{left, right},
	})
	if err != nil {
		t.Fatalf("NewRigidBody() error = %v", err)
	}

	ground := createSphere(t, mgl64.Vec3{0, -10, 0}, 10, true)

	contacts := Collide(ground, dumbbell)
	if len(contacts) != 2 {
		t.Fatalf("Expected one contact per sphere, got %d", len(contacts))
	}
	if contacts[0].PointB.X() > 0 || contacts[1].PointB.X() < 0 {
		t.Errorf("Expected contacts under each sphere in collider order, got %v and %v", contacts[0].PointB, contacts[1].PointB)
	}
}

func TestCollectCollisions_SkipsUnmovablePairs(t *testing.T) {
	world := NewWorld(DefaultConfig())
	a := createSphere(t, mgl64.Vec3{0, 0, 0}, 1, true)
	b := createSphere(t, mgl64.Vec3{1.5, 0, 0}, 1, false)
	b.Sleep()
	world.AddBody(a)
	world.AddBody(b)

	constraints := world.collectCollisions([]Pair{{BodyA: a, BodyB: b}})
	if len(constraints) != 0 {
		t.Errorf("Expected no constraint between a fixed and a sleeping body, got %d", len(constraints))
	}
}

func TestCollectCollisions_WakesSleepingBody(t *testing.T) {
	world := NewWorld(DefaultConfig())
	a := createSphere(t, mgl64.Vec3{0, 0, 0}, 1, false)
	b := createSphere(t, mgl64.Vec3{1.5, 0, 0}, 1, false)
	b.Sleep()
	world.AddBody(a)
	world.AddBody(b)

	constraints := world.collectCollisions([]Pair{{BodyA: a, BodyB: b}})
	if len(constraints) != 1 {
		t.Fatalf("Expected 1 constraint, got %d", len(constraints))
	}
	if !b.Active {
		t.Error("A sleeping body touched by an active one should be woken")
	}
}

func TestCollectCollisions_Idempotent(t *testing.T) {
	world := NewWorld(DefaultConfig())
	ground := createBox(t, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0.5, 2}, true)
	box := createBox(t, mgl64.Vec3{0.3, 0.95, -0.2}, mgl64.Vec3{0.5, 0.5, 0.5}, false)
	world.AddBody(ground)
	world.AddBody(box)

	pairs := BroadPhase(world.Bodies(), nil)

	first := make([]constraint.CollisionConstraint, 0)
	for _, c := range world.collectCollisions(pairs) {
		c.SolvePosition(0.01)
		first = append(first, *c)
	}
	if len(first) == 0 {
		t.Fatal("Expected collision constraints")
	}

	// Undo the correction: same body states, same pairs
	box.Transform.Position = mgl64.Vec3{0.3, 0.95, -0.2}
	box.Transform.SetRotation(mgl64.QuatIdent())

	second := world.collectCollisions(pairs)
	if len(second) != len(first) {
		t.Fatalf("Expected %d constraints, got %d", len(first), len(second))
	}
	for i, c := range second {
		if c.Normal != first[i].Normal || c.LocalPointA != first[i].LocalPointA || c.LocalPointB != first[i].LocalPointB {
			t.Errorf("Constraint %d differs after rebuild", i)
		}
		if c.LambdaN != 0 || c.LambdaT != 0 {
			t.Errorf("Constraint %d should start with zeroed multipliers", i)
		}
	}
}
