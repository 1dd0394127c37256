package actor

import (
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/item"
	"github.com/arenashooter/core/internal/jumppad"
	"github.com/arenashooter/core/internal/message"
	"github.com/arenashooter/core/internal/physics"
	"github.com/arenashooter/core/internal/scene"
	"github.com/arenashooter/core/internal/vmath"
	"github.com/arenashooter/core/internal/weapon"
)

// PickUpRadius is the strict upper bound on the distance between an actor
// body and an item pivot for a pick-up request.
const PickUpRadius float32 = 1.25

// UpdateContext carries what actors read during a tick.
type UpdateContext struct {
	Dt       float32 // seconds
	Scene    *scene.Scene
	Items    *item.Container
	JumpPads *jumppad.Container
	Weapons  *weapon.Container
}

// Container owns every actor of a level and the per-tick target snapshot.
type Container struct {
	pool    *pool.Pool[Actor]
	targets []TargetDescriptor
	log     *zap.Logger
}

func NewContainer(log *zap.Logger) *Container {
	if log == nil {
		log = zap.NewNop()
	}
	return &Container{pool: pool.New[Actor](), log: log}
}

// Add takes ownership of a. Only actors built with FromBot or FromPlayer
// are accepted.
func (c *Container) Add(a Actor) (pool.Handle, error) {
	if !a.valid() {
		return pool.None, fmt.Errorf("add %s: %w", a.kind, ErrEmptyActor)
	}
	return c.pool.Spawn(a), nil
}

func (c *Container) Get(h pool.Handle) (*Actor, error) { return c.pool.Get(h) }
func (c *Container) Contains(h pool.Handle) bool       { return c.pool.Contains(h) }
func (c *Container) Count() uint32                     { return c.pool.Count() }

// MustGet panics on a stale handle.
func (c *Container) MustGet(h pool.Handle) *Actor { return c.pool.MustGet(h) }

// Values yields live actors in pool order.
func (c *Container) Values() iter.Seq[*Actor] { return c.pool.Values() }

// All yields (handle, actor) pairs in pool order.
func (c *Container) All() iter.Seq2[pool.Handle, *Actor] { return c.pool.All() }

// Targets returns the snapshot built by the last Update. Read only.
func (c *Container) Targets() []TargetDescriptor { return c.targets }

// Free tells every bot to drop references to h, then releases the slot.
// The actor's physics body is not touched; call CleanUp first.
func (c *Container) Free(h pool.Handle) (Actor, error) {
	if !c.pool.Contains(h) {
		return Actor{}, fmt.Errorf("free actor %s: %w", h, pool.ErrInvalidHandle)
	}
	for a := range c.pool.Values() {
		if b, ok := a.Bot(); ok {
			b.OnActorRemoved(h)
		}
	}
	return c.pool.Free(h)
}

// SetMessageSender points every actor at tx. Used after a load, since
// senders are not saved.
func (c *Container) SetMessageSender(tx message.Sender) {
	for a := range c.pool.Values() {
		a.Character().Sender = tx
	}
}

// Update runs one simulation tick:
//
//  1. rebuild the target snapshot from all live actors;
//  2. for each actor, record whether it was dead, then update it;
//  3. an actor that was alive before its update requests every item
//     closer than PickUpRadius that is not already picked up;
//  4. an actor that can be removed requests a respawn.
func (c *Container) Update(ctx *UpdateContext) {
	phys := ctx.Scene.Physics

	c.targets = c.targets[:0]
	for h, a := range c.pool.All() {
		ch := a.Character()
		c.targets = append(c.targets, TargetDescriptor{
			Handle:   h,
			Health:   ch.Health,
			Position: ch.Position(phys),
		})
	}

	for h, a := range c.pool.All() {
		ch := a.Character()
		wasDead := ch.IsDead()

		c.deliver(h, a.Update(h, ctx, c.targets))

		if !wasDead && ctx.Items != nil {
			if body, ok := phys.Body(ch.Body()); ok {
				for ih, it := range ctx.Items.All() {
					pivot, err := ctx.Scene.Graph.GlobalPosition(it.Pivot())
					if err != nil {
						c.log.Warn("item pivot missing", zap.Stringer("item", ih), zap.Error(err))
						continue
					}
					if vmath.Distance(pivot, body.Position) < PickUpRadius && !it.IsPickedUp() {
						c.deliver(h, ch.send(message.PickUpItem{Actor: h, Item: ih}))
					}
				}
			} else {
				c.log.Warn("actor has no body", zap.String("name", ch.Name), zap.Stringer("actor", h))
			}
		}

		if a.CanBeRemoved() {
			c.deliver(h, ch.send(message.RespawnActor{Actor: h}))
		}
	}
}

func (c *Container) deliver(h pool.Handle, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, message.ErrDisconnected) {
		c.log.Debug("message dropped, receiver closed", zap.Stringer("actor", h))
		return
	}
	c.log.Warn("actor update", zap.Stringer("actor", h), zap.Error(err))
}

// HandleContact launches actors whose capsule started touching a jump
// pad body. Cost is actors times pads per event.
func (c *Container) HandleContact(ev physics.ContactEvent, ctx *UpdateContext) {
	if ev.Kind != physics.ContactStarted || ctx.JumpPads == nil || ctx.JumpPads.Len() == 0 {
		return
	}
	phys := ctx.Scene.Physics
	parentA, okA := phys.ColliderParent(ev.A)
	parentB, okB := phys.ColliderParent(ev.B)

	for a := range c.pool.Values() {
		body, ok := phys.Body(a.Character().Body())
		if !ok || len(body.Colliders()) == 0 {
			continue
		}
		capsule := body.Colliders()[0]
		for _, pad := range ctx.JumpPads.Iter() {
			padBody := pad.RigidBody()
			if (capsule == ev.A && okB && parentB == padBody) ||
				(capsule == ev.B && okA && parentA == padBody) {
				body.SetLinVel(pad.Force())
			}
		}
	}
}

// Destroy cleans up every actor and empties the container.
func (c *Container) Destroy(world *physics.World) {
	for a := range c.pool.Values() {
		a.CleanUp(world)
	}
	c.pool.Clear()
	c.targets = c.targets[:0]
}

// Visit persists the actor pool. Target snapshots are rebuilt every tick
// and are not saved.
func (c *Container) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := pool.VisitPool(c.pool, "Pool", v); err != nil {
		return err
	}
	if v.IsReading() {
		c.targets = c.targets[:0]
	}
	return v.LeaveRegion()
}
