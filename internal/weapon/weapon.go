// Package weapon holds the guns carried by actors. A level owns every
// weapon; characters only keep handles to the ones they carry.
package weapon

import (
	"errors"
	"fmt"
	"iter"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
)

var ErrUnknownKind = errors.New("unknown weapon kind")

type Kind uint32

const (
	Rifle Kind = iota
)

func (k Kind) String() string {
	switch k {
	case Rifle:
		return "rifle"
	}
	return fmt.Sprintf("weapon(%d)", uint32(k))
}

type stats struct {
	ammo     uint32
	damage   float32
	interval float32 // seconds between shots
	rng      float32
}

var kinds = map[Kind]stats{
	Rifle: {ammo: 30, damage: 10, interval: 1, rng: 20},
}

type Weapon struct {
	kind     Kind
	ammo     uint32
	cooldown float32
}

// New returns a weapon of the given kind with a full magazine.
func New(kind Kind) Weapon {
	return Weapon{kind: kind, ammo: kinds[kind].ammo}
}

func (w *Weapon) Kind() Kind        { return w.kind }
func (w *Weapon) Ammo() uint32      { return w.ammo }
func (w *Weapon) Damage() float32   { return kinds[w.kind].damage }
func (w *Weapon) Range() float32    { return kinds[w.kind].rng }
func (w *Weapon) Cooldown() float32 { return w.cooldown }
func (w *Weapon) SetAmmo(n uint32)  { w.ammo = n }
func (w *Weapon) CanShoot() bool    { return w.ammo > 0 && w.cooldown <= 0 }

// Shoot spends one round and starts the cooldown. It reports false, and
// changes nothing, when the weapon is empty or still cooling down.
func (w *Weapon) Shoot() bool {
	if !w.CanShoot() {
		return false
	}
	w.ammo--
	w.cooldown = kinds[w.kind].interval
	return true
}

func (w *Weapon) Update(dt float32) {
	if w.cooldown > 0 {
		w.cooldown = max(w.cooldown-dt, 0)
	}
}

func (w *Weapon) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	kind := uint32(w.kind)
	if err := v.VisitU32("Kind", &kind); err != nil {
		return err
	}
	if _, ok := kinds[Kind(kind)]; !ok {
		return fmt.Errorf("weapon kind %d: %w", kind, ErrUnknownKind)
	}
	w.kind = Kind(kind)
	if err := v.VisitU32("Ammo", &w.ammo); err != nil {
		return err
	}
	if err := v.VisitF32("Cooldown", &w.cooldown); err != nil {
		return err
	}
	return v.LeaveRegion()
}

// Container owns a level's weapons.
type Container struct {
	pool *pool.Pool[Weapon]
}

func NewContainer() *Container {
	return &Container{pool: pool.New[Weapon]()}
}

func (c *Container) Add(w Weapon) pool.Handle           { return c.pool.Spawn(w) }
func (c *Container) Get(h pool.Handle) (*Weapon, error) { return c.pool.Get(h) }
func (c *Container) Contains(h pool.Handle) bool        { return c.pool.Contains(h) }
func (c *Container) Count() uint32                      { return c.pool.Count() }

// Free releases a weapon. Stale handles are ignored.
func (c *Container) Free(h pool.Handle) {
	if c.pool.Contains(h) {
		_, _ = c.pool.Free(h)
	}
}

// All yields (handle, weapon) pairs in pool order.
func (c *Container) All() iter.Seq2[pool.Handle, *Weapon] { return c.pool.All() }

// Update counts down every cooldown.
func (c *Container) Update(dt float32) {
	for w := range c.pool.Values() {
		w.Update(dt)
	}
}

func (c *Container) Clear() { c.pool.Clear() }

func (c *Container) Visit(name string, v *visit.Visitor) error {
	return pool.VisitPool(c.pool, name, v)
}
