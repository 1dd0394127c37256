package actor

import (
	"math"

	"github.com/arenashooter/core/internal/controls"
	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/vmath"
)

const PlayerDespawnDelay float32 = 2

// aimCone is the minimum cosine between the look direction and a target
// for a shot to hit it.
const aimCone float32 = 0.95

// Input is the per-frame state written by the input layer.
type Input struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Jump     bool
	Fire     bool
	Yaw      float32 // radians, 0 faces +Z
}

// Player is driven by Input and the shared control scheme.
type Player struct {
	Character

	controls *controls.Shared
	input    Input
}

func NewPlayer(c Character, cs *controls.Shared) Player {
	return Player{Character: c, controls: cs}
}

// SetControlScheme reattaches the shared scheme, e.g. after a load.
func (p *Player) SetControlScheme(cs *controls.Shared) { p.controls = cs }

func (p *Player) SetInput(in Input) { p.input = in }

func (p *Player) Input() Input { return p.input }

func (p *Player) Update(self pool.Handle, ctx *UpdateContext, targets []TargetDescriptor) error {
	p.tickDeath(ctx.Dt)
	body, ok := ctx.Scene.Physics.Body(p.body)
	if !ok {
		return nil
	}
	if p.IsDead() {
		body.SetLinVel(vmath.V3(0, body.LinVel.Y, 0))
		return nil
	}

	scheme := controls.Default()
	if p.controls != nil {
		scheme = p.controls.Get()
	}

	sin, cos := math.Sincos(float64(p.input.Yaw))
	forward := vmath.V3(float32(sin), 0, float32(cos))
	right := vmath.V3(float32(cos), 0, float32(-sin))

	var move vmath.Vec3
	if p.input.Forward {
		move = move.Add(forward)
	}
	if p.input.Backward {
		move = move.Sub(forward)
	}
	if p.input.Right {
		move = move.Add(right)
	}
	if p.input.Left {
		move = move.Sub(right)
	}
	move = move.Normalize().Scale(scheme.MoveSpeed)

	vy := body.LinVel.Y
	if p.input.Jump && body.Position.Y <= 0 && vy <= 0 {
		vy = scheme.JumpSpeed
	}
	body.SetLinVel(vmath.V3(move.X, vy, move.Z))

	if !p.input.Fire {
		return nil
	}
	w := p.gun(ctx.Weapons)
	if w == nil {
		return nil
	}
	t, found := aim(self, body.Position, forward, w.Range(), targets)
	if !found {
		// A miss still spends the round.
		w.Shoot()
		return nil
	}
	return p.fire(self, ctx.Weapons, t.Handle)
}

// aim returns the closest live target within rng whose direction from the
// shooter lies inside aimCone around forward.
func aim(self pool.Handle, from, forward vmath.Vec3, rng float32, targets []TargetDescriptor) (TargetDescriptor, bool) {
	var (
		best  TargetDescriptor
		found bool
		bestD float32
	)
	for _, t := range targets {
		if t.Handle == self || t.Health <= 0 {
			continue
		}
		d := vmath.Distance(from, t.Position)
		if d > rng {
			continue
		}
		dir := t.Position.Sub(from).Horizontal().Normalize()
		if dir.Dot(forward) < aimCone {
			continue
		}
		if !found || d < bestD {
			best, bestD, found = t, d, true
		}
	}
	return best, found
}

func (p *Player) CanBeRemoved() bool {
	return p.IsDead() && p.deathTimer >= PlayerDespawnDelay
}

// Visit saves the character and look direction. The control scheme is
// not part of the save; the level reattaches it after loading.
func (p *Player) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := p.Character.Visit("Character", v); err != nil {
		return err
	}
	if err := v.VisitF32("Yaw", &p.input.Yaw); err != nil {
		return err
	}
	return v.LeaveRegion()
}
