// Package physics is the headless rigid-body collaborator the simulation
// core talks to: body and collider registries keyed by stable identifiers,
// velocity integration against a ground plane, and a contact-event stream.
package physics

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/vmath"
)

// BodyID identifies a rigid body. The zero value never resolves.
type BodyID pool.Handle

// ColliderID identifies a collider. The zero value never resolves.
type ColliderID pool.Handle

func (id BodyID) IsNone() bool     { return pool.Handle(id).IsNone() }
func (id ColliderID) IsNone() bool { return pool.Handle(id).IsNone() }

func (id BodyID) String() string     { return "body " + pool.Handle(id).String() }
func (id ColliderID) String() string { return "collider " + pool.Handle(id).String() }

type BodyType uint8

const (
	Dynamic BodyType = iota
	Static
	Kinematic
)

// DefaultGravity pulls along -Y in world units per second squared.
var DefaultGravity = vmath.V3(0, -9.81, 0)

type RigidBody struct {
	Type     BodyType
	Position vmath.Vec3
	LinVel   vmath.Vec3

	colliders []ColliderID
}

// Colliders returns the body's colliders in attachment order.
func (b *RigidBody) Colliders() []ColliderID { return b.colliders }

func (b *RigidBody) SetLinVel(v vmath.Vec3) { b.LinVel = v }

func (b *RigidBody) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	kind := uint32(b.Type)
	if err := v.VisitU32("Type", &kind); err != nil {
		return err
	}
	b.Type = BodyType(kind)
	if err := b.Position.Visit("Position", v); err != nil {
		return err
	}
	if err := b.LinVel.Visit("LinVel", v); err != nil {
		return err
	}
	raw := make([]byte, 8*len(b.colliders))
	for i, id := range b.colliders {
		binary.LittleEndian.PutUint64(raw[8*i:], uint64(id))
	}
	if err := v.VisitBytes("Colliders", &raw); err != nil {
		return err
	}
	if v.IsReading() {
		if len(raw)%8 != 0 {
			return fmt.Errorf("collider list: %w", visit.ErrCorrupt)
		}
		b.colliders = make([]ColliderID, 0, len(raw)/8)
		for off := 0; off < len(raw); off += 8 {
			b.colliders = append(b.colliders, ColliderID(binary.LittleEndian.Uint64(raw[off:])))
		}
	}
	return v.LeaveRegion()
}

// Collider is a sphere attached to a body. Sensors report contacts but
// are otherwise inert.
type Collider struct {
	Radius float32
	Offset vmath.Vec3
	Sensor bool

	parent BodyID
}

func (c *Collider) Parent() BodyID { return c.parent }

func (c *Collider) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitF32("Radius", &c.Radius); err != nil {
		return err
	}
	if err := c.Offset.Visit("Offset", v); err != nil {
		return err
	}
	if err := v.VisitBool("Sensor", &c.Sensor); err != nil {
		return err
	}
	parent := pool.Handle(c.parent)
	if err := pool.VisitHandle(v, "Parent", &parent); err != nil {
		return err
	}
	c.parent = BodyID(parent)
	return v.LeaveRegion()
}

type ContactKind uint8

const (
	ContactStarted ContactKind = iota
	ContactStopped
)

func (k ContactKind) String() string {
	if k == ContactStarted {
		return "started"
	}
	return "stopped"
}

// ContactEvent reports that two colliders began or stopped touching.
type ContactEvent struct {
	Kind ContactKind
	A, B ColliderID
}

type pair struct{ a, b ColliderID }

func makePair(a, b ColliderID) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// World owns bodies and colliders. Single goroutine only.
type World struct {
	Gravity vmath.Vec3

	bodies    *pool.Pool[RigidBody]
	colliders *pool.Pool[Collider]
	touching  map[pair]struct{}
	events    []ContactEvent
}

func NewWorld() *World {
	return &World{
		Gravity:   DefaultGravity,
		bodies:    pool.New[RigidBody](),
		colliders: pool.New[Collider](),
		touching:  make(map[pair]struct{}),
	}
}

func (w *World) AddBody(b RigidBody) BodyID {
	b.colliders = nil
	return BodyID(w.bodies.Spawn(b))
}

// AddCollider attaches a collider to a live body.
func (w *World) AddCollider(parent BodyID, c Collider) (ColliderID, error) {
	body, err := w.bodies.Get(pool.Handle(parent))
	if err != nil {
		return 0, fmt.Errorf("attach collider to %s: %w", parent, err)
	}
	c.parent = parent
	id := ColliderID(w.colliders.Spawn(c))
	// Spawn may have grown the collider pool, never the body pool, so body is still valid.
	body.colliders = append(body.colliders, id)
	return id, nil
}

func (w *World) Body(id BodyID) (*RigidBody, bool) {
	b, err := w.bodies.Get(pool.Handle(id))
	return b, err == nil
}

func (w *World) Collider(id ColliderID) (*Collider, bool) {
	c, err := w.colliders.Get(pool.Handle(id))
	return c, err == nil
}

// ColliderParent resolves a collider to its owning body.
func (w *World) ColliderParent(id ColliderID) (BodyID, bool) {
	c, ok := w.Collider(id)
	if !ok {
		return 0, false
	}
	return c.parent, true
}

// RemoveBody removes a body and its colliders. Removing an already removed
// body is a no-op and reports false.
func (w *World) RemoveBody(id BodyID) bool {
	b, err := w.bodies.Free(pool.Handle(id))
	if err != nil {
		return false
	}
	for _, cid := range b.colliders {
		w.colliders.Free(pool.Handle(cid))
		for p := range w.touching {
			if p.a == cid || p.b == cid {
				delete(w.touching, p)
			}
		}
	}
	return true
}

func (w *World) BodyCount() uint32     { return w.bodies.Count() }
func (w *World) ColliderCount() uint32 { return w.colliders.Count() }

// Clear removes every body and collider.
func (w *World) Clear() {
	w.bodies.Clear()
	w.colliders.Clear()
	clear(w.touching)
	w.events = w.events[:0]
}

// Step integrates dynamic bodies over dt seconds, keeps them above the
// ground plane y=0, and records contact transitions.
func (w *World) Step(dt float32) {
	for b := range w.bodies.Values() {
		if b.Type != Dynamic {
			continue
		}
		b.LinVel = b.LinVel.Add(w.Gravity.Scale(dt))
		b.Position = b.Position.Add(b.LinVel.Scale(dt))
		if b.Position.Y < 0 {
			b.Position.Y = 0
			if b.LinVel.Y < 0 {
				b.LinVel.Y = 0
			}
		}
	}
	w.detectContacts()
}

// detectContacts is a brute-force pairwise sphere test; fine for arena-sized
// worlds with a few dozen colliders.
func (w *World) detectContacts() {
	type placed struct {
		id     ColliderID
		parent BodyID
		center vmath.Vec3
		radius float32
		static bool
	}
	all := make([]placed, 0, w.colliders.Count())
	for h, c := range w.colliders.All() {
		b, ok := w.Body(c.parent)
		if !ok {
			continue
		}
		all = append(all, placed{
			id:     ColliderID(h),
			parent: c.parent,
			center: b.Position.Add(c.Offset),
			radius: c.Radius,
			static: b.Type == Static,
		})
	}

	now := make(map[pair]struct{}, len(w.touching))
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if a.parent == b.parent || (a.static && b.static) {
				continue
			}
			r := a.radius + b.radius
			if a.center.Sub(b.center).NormSq() >= r*r {
				continue
			}
			p := makePair(a.id, b.id)
			now[p] = struct{}{}
			if _, was := w.touching[p]; !was {
				w.events = append(w.events, ContactEvent{Kind: ContactStarted, A: a.id, B: b.id})
			}
		}
	}
	var stopped []pair
	for p := range w.touching {
		if _, still := now[p]; !still {
			stopped = append(stopped, p)
		}
	}
	sort.Slice(stopped, func(i, j int) bool {
		if stopped[i].a != stopped[j].a {
			return stopped[i].a < stopped[j].a
		}
		return stopped[i].b < stopped[j].b
	})
	for _, p := range stopped {
		w.events = append(w.events, ContactEvent{Kind: ContactStopped, A: p.a, B: p.b})
	}
	w.touching = now
}

// DrainEvents returns and clears the contact events recorded so far.
func (w *World) DrainEvents() []ContactEvent {
	out := w.events
	w.events = nil
	return out
}

// Visit persists bodies and colliders. Contact state is not saved; touching
// pairs report Started again on the first step after a load.
func (w *World) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := w.Gravity.Visit("Gravity", v); err != nil {
		return err
	}
	if err := pool.VisitPool(w.bodies, "Bodies", v); err != nil {
		return err
	}
	if err := pool.VisitPool(w.colliders, "Colliders", v); err != nil {
		return err
	}
	if v.IsReading() {
		clear(w.touching)
		w.events = nil
		for h, b := range w.bodies.All() {
			for _, cid := range b.colliders {
				c, ok := w.Collider(cid)
				if !ok || c.parent != BodyID(h) {
					return fmt.Errorf("%s of body %s: %w", cid, pool.Handle(h), visit.ErrCorrupt)
				}
			}
		}
	}
	return v.LeaveRegion()
}
