package physics

import (
	"testing"

	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/vmath"
)

func TestColliderParentLookup(t *testing.T) {
	w := NewWorld()
	b := w.AddBody(RigidBody{Position: vmath.V3(0, 1, 0)})
	c, err := w.AddCollider(b, Collider{Radius: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	parent, ok := w.ColliderParent(c)
	if !ok || parent != b {
		t.Fatalf("parent = %v, %v; want %v", parent, ok, b)
	}
	body, _ := w.Body(b)
	if cs := body.Colliders(); len(cs) != 1 || cs[0] != c {
		t.Fatalf("colliders = %v", cs)
	}
}

func TestAddColliderToMissingBody(t *testing.T) {
	w := NewWorld()
	if _, err := w.AddCollider(BodyID(0), Collider{Radius: 1}); err == nil {
		t.Fatal("expected error for missing body")
	}
}

func TestRemoveBodyIsIdempotent(t *testing.T) {
	w := NewWorld()
	b := w.AddBody(RigidBody{})
	c, _ := w.AddCollider(b, Collider{Radius: 1})

	if !w.RemoveBody(b) {
		t.Fatal("first remove reported false")
	}
	if w.RemoveBody(b) {
		t.Fatal("second remove reported true")
	}
	if _, ok := w.Collider(c); ok {
		t.Fatal("collider outlived its body")
	}
	if w.BodyCount() != 0 || w.ColliderCount() != 0 {
		t.Fatalf("counts = %d/%d", w.BodyCount(), w.ColliderCount())
	}
}

func TestStepGravityAndGround(t *testing.T) {
	w := NewWorld()
	b := w.AddBody(RigidBody{Position: vmath.V3(0, 0.01, 0)})
	for i := 0; i < 10; i++ {
		w.Step(1.0 / 60)
	}
	body, _ := w.Body(b)
	if body.Position.Y != 0 || body.LinVel.Y != 0 {
		t.Fatalf("body not resting on ground: pos %v vel %v", body.Position, body.LinVel)
	}

	body.SetLinVel(vmath.V3(1, 0, 0))
	w.Step(0.5)
	if body.Position.X != 0.5 {
		t.Fatalf("x = %v, want 0.5", body.Position.X)
	}
}

func TestContactStartedAndStopped(t *testing.T) {
	w := NewWorld()
	w.Gravity = vmath.Vec3{}
	pad := w.AddBody(RigidBody{Type: Static})
	padCol, _ := w.AddCollider(pad, Collider{Radius: 1, Sensor: true})
	mover := w.AddBody(RigidBody{Position: vmath.V3(5, 0, 0)})
	moverCol, _ := w.AddCollider(mover, Collider{Radius: 0.5})

	w.Step(0)
	if ev := w.DrainEvents(); len(ev) != 0 {
		t.Fatalf("unexpected events %v", ev)
	}

	body, _ := w.Body(mover)
	body.Position = vmath.V3(1, 0, 0)
	w.Step(0)
	ev := w.DrainEvents()
	if len(ev) != 1 || ev[0].Kind != ContactStarted {
		t.Fatalf("events = %v, want one started", ev)
	}
	if !(ev[0].A == padCol && ev[0].B == moverCol) && !(ev[0].A == moverCol && ev[0].B == padCol) {
		t.Fatalf("event colliders = %v", ev[0])
	}

	// Still touching: no new event.
	w.Step(0)
	if ev := w.DrainEvents(); len(ev) != 0 {
		t.Fatalf("repeated events %v", ev)
	}

	body.Position = vmath.V3(5, 0, 0)
	w.Step(0)
	ev = w.DrainEvents()
	if len(ev) != 1 || ev[0].Kind != ContactStopped {
		t.Fatalf("events = %v, want one stopped", ev)
	}
}

func TestVisitRoundTrip(t *testing.T) {
	w := NewWorld()
	a := w.AddBody(RigidBody{Position: vmath.V3(1, 2, 3), LinVel: vmath.V3(0, 4, 0)})
	ca, _ := w.AddCollider(a, Collider{Radius: 0.4, Offset: vmath.V3(0, 0.5, 0)})
	s := w.AddBody(RigidBody{Type: Static})
	w.AddCollider(s, Collider{Radius: 2, Sensor: true})
	gone := w.AddBody(RigidBody{})
	w.RemoveBody(gone)

	wr := visit.NewWriter()
	if err := w.Visit("Physics", wr); err != nil {
		t.Fatal(err)
	}
	data, err := wr.Save()
	if err != nil {
		t.Fatal(err)
	}
	rd, err := visit.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	out := NewWorld()
	if err := out.Visit("Physics", rd); err != nil {
		t.Fatal(err)
	}

	body, ok := out.Body(a)
	if !ok || body.Position != vmath.V3(1, 2, 3) || body.LinVel != vmath.V3(0, 4, 0) {
		t.Fatalf("body = %+v, %v", body, ok)
	}
	if cs := body.Colliders(); len(cs) != 1 || cs[0] != ca {
		t.Fatalf("colliders = %v", cs)
	}
	if _, ok := out.Body(gone); ok {
		t.Fatal("removed body came back")
	}
	if sb, _ := out.Body(s); sb.Type != Static {
		t.Fatal("body type lost")
	}
}
