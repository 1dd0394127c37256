// Package jumppad holds the launch pads placed in a level.
package jumppad

import (
	"fmt"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/physics"
	"github.com/arenashooter/core/internal/vmath"
)

// JumpPad launches any actor touching its rigid body with Force as the
// new linear velocity.
type JumpPad struct {
	body  physics.BodyID
	force vmath.Vec3
}

func New(body physics.BodyID, force vmath.Vec3) JumpPad {
	return JumpPad{body: body, force: force}
}

func (j *JumpPad) RigidBody() physics.BodyID { return j.body }
func (j *JumpPad) Force() vmath.Vec3         { return j.force }

func (j *JumpPad) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	body := pool.Handle(j.body)
	if err := pool.VisitHandle(v, "Body", &body); err != nil {
		return err
	}
	j.body = physics.BodyID(body)
	if err := j.force.Visit("Force", v); err != nil {
		return err
	}
	return v.LeaveRegion()
}

// Container is a small ordered list; levels carry a handful of pads.
type Container struct {
	pads []JumpPad
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(j JumpPad) { c.pads = append(c.pads, j) }

// Iter returns the pads in insertion order. Callers must not retain the slice.
func (c *Container) Iter() []JumpPad { return c.pads }

func (c *Container) Len() int { return len(c.pads) }

func (c *Container) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	n := uint32(len(c.pads))
	if err := v.VisitU32("Count", &n); err != nil {
		return err
	}
	if v.IsReading() {
		if n > 4096 {
			return fmt.Errorf("jump pads: %d: %w", n, visit.ErrCorrupt)
		}
		c.pads = make([]JumpPad, n)
	}
	for i := range c.pads {
		if err := c.pads[i].Visit(fmt.Sprintf("Pad%d", i), v); err != nil {
			return err
		}
	}
	return v.LeaveRegion()
}
