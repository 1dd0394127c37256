package scene

import (
	"testing"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/physics"
	"github.com/arenashooter/core/internal/vmath"
)

func TestGlobalPosition(t *testing.T) {
	g := NewGraph()
	root := g.Add(Node{Name: "root", Position: vmath.V3(10, 0, 0)})
	child := g.Add(Node{Name: "pivot", Parent: root, Position: vmath.V3(0, 1, 2)})

	got, err := g.GlobalPosition(child)
	if err != nil {
		t.Fatal(err)
	}
	if got != vmath.V3(10, 1, 2) {
		t.Fatalf("global = %v", got)
	}

	g.Remove(root)
	if _, err := g.GlobalPosition(child); err == nil {
		t.Fatal("expected error for dangling parent")
	}
}

func TestContainerRemove(t *testing.T) {
	c := NewContainer()
	s := New()
	s.Physics.AddBody(physics.RigidBody{})
	h := c.Add(s)
	if got, err := c.Get(h); err != nil || got != s {
		t.Fatalf("get = %v, %v", got, err)
	}
	if !c.Remove(h) {
		t.Fatal("remove reported false")
	}
	if c.Remove(h) {
		t.Fatal("second remove reported true")
	}
	if s.Physics.BodyCount() != 0 {
		t.Fatal("physics not released")
	}
	if _, err := c.Get(h); err == nil {
		t.Fatal("removed scene still resolves")
	}
	if c.Remove(pool.None) {
		t.Fatal("None removed")
	}
}
