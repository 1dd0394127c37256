package item

import (
	"testing"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
)

func TestPickUpAndReactivate(t *testing.T) {
	it := New(Medkit, pool.NewHandle(0, 1))
	it.PickUp()
	if !it.IsPickedUp() {
		t.Fatal("not picked up")
	}
	it.Update(ReactivationDelay - 1)
	if !it.IsPickedUp() {
		t.Fatal("reactivated early")
	}
	it.Update(1)
	if it.IsPickedUp() {
		t.Fatal("did not reactivate")
	}
}

func TestContainerVisit(t *testing.T) {
	c := NewContainer()
	a := c.Add(New(Medkit, pool.NewHandle(3, 1)))
	b := c.Add(New(Armor, pool.NewHandle(4, 1)))
	it, _ := c.Get(b)
	it.PickUp()

	w := visit.NewWriter()
	if err := c.Visit("Items", w); err != nil {
		t.Fatal(err)
	}
	data, _ := w.Save()
	r, _ := visit.Load(data)
	out := NewContainer()
	if err := out.Visit("Items", r); err != nil {
		t.Fatal(err)
	}

	ga, err := out.Get(a)
	if err != nil || ga.Kind() != Medkit || ga.Pivot() != pool.NewHandle(3, 1) {
		t.Fatalf("a = %+v, %v", ga, err)
	}
	gb, _ := out.Get(b)
	if !gb.IsPickedUp() || gb.ReactivatesIn() != ReactivationDelay {
		t.Fatalf("b = %+v", gb)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("armor"); err != nil || k != Armor {
		t.Fatalf("parse = %v, %v", k, err)
	}
	if _, err := ParseKind("railgun"); err == nil {
		t.Fatal("expected error")
	}
}
