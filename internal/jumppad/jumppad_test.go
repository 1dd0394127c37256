package jumppad

import (
	"testing"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/physics"
	"github.com/arenashooter/core/internal/vmath"
)

func TestContainerVisit(t *testing.T) {
	c := NewContainer()
	c.Add(New(physics.BodyID(pool.NewHandle(2, 1)), vmath.Vec3{Y: 12}))
	c.Add(New(physics.BodyID(pool.NewHandle(5, 3)), vmath.Vec3{X: 4, Y: 9, Z: -1}))

	w := visit.NewWriter()
	if err := c.Visit("JumpPads", w); err != nil {
		t.Fatal(err)
	}
	data, err := w.Save()
	if err != nil {
		t.Fatal(err)
	}
	r, err := visit.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	out := NewContainer()
	if err := out.Visit("JumpPads", r); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("len = %d", out.Len())
	}
	for i, p := range out.Iter() {
		want := c.Iter()[i]
		if p.RigidBody() != want.RigidBody() || p.Force() != want.Force() {
			t.Fatalf("pad %d = %+v, want %+v", i, p, want)
		}
	}
}
