// Package item holds the pick-ups placed in a level.
package item

import (
	"errors"
	"fmt"
	"iter"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/scene"
)

var ErrUnknownKind = errors.New("unknown item kind")

type Kind uint32

const (
	Medkit Kind = iota
	Armor
)

func (k Kind) String() string {
	switch k {
	case Medkit:
		return "medkit"
	case Armor:
		return "armor"
	}
	return fmt.Sprintf("item(%d)", uint32(k))
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "medkit":
		return Medkit, nil
	case "armor":
		return Armor, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

// ReactivationDelay is how long a picked-up item stays hidden, in seconds.
const ReactivationDelay float32 = 20

type Item struct {
	kind         Kind
	pivot        scene.NodeID
	pickedUp     bool
	reactivateIn float32
}

func New(kind Kind, pivot scene.NodeID) Item {
	return Item{kind: kind, pivot: pivot}
}

func (i *Item) Kind() Kind             { return i.kind }
func (i *Item) Pivot() scene.NodeID    { return i.pivot }
func (i *Item) IsPickedUp() bool       { return i.pickedUp }
func (i *Item) ReactivatesIn() float32 { return i.reactivateIn }

// PickUp hides the item until ReactivationDelay has passed.
func (i *Item) PickUp() {
	i.pickedUp = true
	i.reactivateIn = ReactivationDelay
}

// Update counts down the reactivation timer.
func (i *Item) Update(dt float32) {
	if !i.pickedUp {
		return
	}
	i.reactivateIn -= dt
	if i.reactivateIn <= 0 {
		i.pickedUp = false
		i.reactivateIn = 0
	}
}

func (i *Item) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	kind := uint32(i.kind)
	if err := v.VisitU32("Kind", &kind); err != nil {
		return err
	}
	if kind > uint32(Armor) {
		return fmt.Errorf("item kind %d: %w", kind, ErrUnknownKind)
	}
	i.kind = Kind(kind)
	if err := pool.VisitHandle(v, "Pivot", &i.pivot); err != nil {
		return err
	}
	if err := v.VisitBool("PickedUp", &i.pickedUp); err != nil {
		return err
	}
	if err := v.VisitF32("ReactivateIn", &i.reactivateIn); err != nil {
		return err
	}
	return v.LeaveRegion()
}

// Container owns a level's items.
type Container struct {
	pool *pool.Pool[Item]
}

func NewContainer() *Container {
	return &Container{pool: pool.New[Item]()}
}

func (c *Container) Add(i Item) pool.Handle           { return c.pool.Spawn(i) }
func (c *Container) Get(h pool.Handle) (*Item, error) { return c.pool.Get(h) }
func (c *Container) Contains(h pool.Handle) bool      { return c.pool.Contains(h) }
func (c *Container) Count() uint32                    { return c.pool.Count() }

// All yields (handle, item) pairs in pool order.
func (c *Container) All() iter.Seq2[pool.Handle, *Item] { return c.pool.All() }

func (c *Container) Update(dt float32) {
	for it := range c.pool.Values() {
		it.Update(dt)
	}
}

func (c *Container) Visit(name string, v *visit.Visitor) error {
	return pool.VisitPool(c.pool, name, v)
}
