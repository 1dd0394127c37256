package actor

import (
	"encoding/binary"
	"fmt"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/message"
	"github.com/arenashooter/core/internal/physics"
	"github.com/arenashooter/core/internal/vmath"
	"github.com/arenashooter/core/internal/weapon"
)

const (
	DefaultHealth float32 = 100

	// Capsule approximated as a sphere lifted to chest height.
	capsuleRadius float32 = 0.5
	capsuleHeight float32 = 0.9
)

// Character is the state every actor kind shares. The physics body is
// owned by the physics world; the character only keeps its id. Weapon
// handles point into the level's weapon.Container and are never owned here.
type Character struct {
	Name   string
	Health float32
	Armor  float32
	Sender message.Sender

	body          physics.BodyID
	weapons       []pool.Handle
	currentWeapon int
	deathTimer    float32
}

// NewCharacter creates the character's body with its capsule as the
// first collider.
func NewCharacter(name string, world *physics.World, at vmath.Vec3, sender message.Sender) (Character, error) {
	body := world.AddBody(physics.RigidBody{Type: physics.Dynamic, Position: at})
	if _, err := world.AddCollider(body, physics.Collider{
		Radius: capsuleRadius,
		Offset: vmath.V3(0, capsuleHeight, 0),
	}); err != nil {
		world.RemoveBody(body)
		return Character{}, fmt.Errorf("character %s capsule: %w", name, err)
	}
	return Character{
		Name:   name,
		Health: DefaultHealth,
		Sender: sender,
		body:   body,
	}, nil
}

func (c *Character) Body() physics.BodyID { return c.body }

func (c *Character) IsDead() bool { return c.Health <= 0 }

// DeathTimer is the number of seconds spent dead.
func (c *Character) DeathTimer() float32 { return c.deathTimer }

// Position returns the body translation, or the origin if the body is gone.
func (c *Character) Position(world *physics.World) vmath.Vec3 {
	if b, ok := world.Body(c.body); ok {
		return b.Position
	}
	return vmath.Vec3{}
}

func (c *Character) AddWeapon(h pool.Handle) {
	c.weapons = append(c.weapons, h)
	c.currentWeapon = len(c.weapons) - 1
}

func (c *Character) Weapons() []pool.Handle { return c.weapons }

// CurrentWeapon returns pool.None when the character is unarmed.
func (c *Character) CurrentWeapon() pool.Handle {
	if c.currentWeapon < 0 || c.currentWeapon >= len(c.weapons) {
		return pool.None
	}
	return c.weapons[c.currentWeapon]
}

// gun resolves the current weapon, nil when unarmed or the handle is stale.
func (c *Character) gun(weapons *weapon.Container) *weapon.Weapon {
	if weapons == nil {
		return nil
	}
	w, err := weapons.Get(c.CurrentWeapon())
	if err != nil {
		return nil
	}
	return w
}

// fire shoots the current weapon at target. Nothing is sent when the
// character is unarmed, out of ammo or still cooling down.
func (c *Character) fire(self pool.Handle, weapons *weapon.Container, target pool.Handle) error {
	w := c.gun(weapons)
	if w == nil || !w.Shoot() {
		return nil
	}
	return c.send(message.DamageActor{Actor: target, Who: self, Amount: w.Damage()})
}

// CleanUp releases the physics body. Calling it again is a no-op.
func (c *Character) CleanUp(world *physics.World) {
	if c.body.IsNone() {
		return
	}
	world.RemoveBody(c.body)
	c.body = 0
}

func (c *Character) tickDeath(dt float32) {
	if c.IsDead() {
		c.deathTimer += dt
	}
}

// send delivers m through the actor's sender. A live actor without a
// sender is a construction bug and panics. The only error is
// message.ErrDisconnected, seen while the game is shutting down.
func (c *Character) send(m message.Message) error {
	if c.Sender.IsZero() {
		panic(fmt.Sprintf("actor %q has no message sender (sending %s)", c.Name, m.Kind()))
	}
	return c.Sender.Send(m)
}

func (c *Character) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitString("Name", &c.Name); err != nil {
		return err
	}
	if err := v.VisitF32("Health", &c.Health); err != nil {
		return err
	}
	if err := v.VisitF32("Armor", &c.Armor); err != nil {
		return err
	}
	body := pool.Handle(c.body)
	if err := pool.VisitHandle(v, "Body", &body); err != nil {
		return err
	}
	c.body = physics.BodyID(body)
	if err := v.VisitF32("DeathTimer", &c.deathTimer); err != nil {
		return err
	}

	raw := make([]byte, 8*len(c.weapons))
	for i, h := range c.weapons {
		binary.LittleEndian.PutUint64(raw[8*i:], uint64(h))
	}
	if err := v.VisitBytes("Weapons", &raw); err != nil {
		return err
	}
	current := int32(c.currentWeapon)
	if err := v.VisitI32("CurrentWeapon", &current); err != nil {
		return err
	}
	if v.IsReading() {
		if len(raw)%8 != 0 {
			return fmt.Errorf("weapons of %q: %w", c.Name, visit.ErrCorrupt)
		}
		c.weapons = nil
		for off := 0; off < len(raw); off += 8 {
			c.weapons = append(c.weapons, pool.Handle(binary.LittleEndian.Uint64(raw[off:])))
		}
		c.currentWeapon = int(current)
	}
	return v.LeaveRegion()
}
