package actor

import (
	"fmt"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/vmath"
)

type BotState uint32

const (
	BotIdle BotState = iota
	BotPursue
	BotAttack
)

func (s BotState) String() string {
	switch s {
	case BotIdle:
		return "idle"
	case BotPursue:
		return "pursue"
	case BotAttack:
		return "attack"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

const (
	botMoveSpeed   float32 = 4
	botAttackRange float32 = 8

	BotDespawnDelay float32 = 3
)

// Bot chases the closest living actor and shoots its current weapon when
// in range. The weapon decides the fire rate and damage.
type Bot struct {
	Character

	state  BotState
	target pool.Handle
}

func NewBot(c Character) Bot {
	return Bot{Character: c}
}

func (b *Bot) State() BotState     { return b.state }
func (b *Bot) Target() pool.Handle { return b.target }

// SelectTarget returns the closest target with positive health, skipping
// the entry for self. Ties keep the earliest entry in snapshot order.
func SelectTarget(self pool.Handle, from vmath.Vec3, targets []TargetDescriptor) (TargetDescriptor, bool) {
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
		if !found || d < bestD {
			best, bestD, found = t, d, true
		}
	}
	return best, found
}

// Update runs one tick of bot logic. self is the bot's own handle and
// targets the snapshot taken at the start of the tick.
func (b *Bot) Update(self pool.Handle, ctx *UpdateContext, targets []TargetDescriptor) error {
	b.tickDeath(ctx.Dt)
	body, ok := ctx.Scene.Physics.Body(b.body)
	if !ok {
		return nil
	}
	stop := func() {
		body.SetLinVel(vmath.V3(0, body.LinVel.Y, 0))
	}
	if b.IsDead() {
		b.state, b.target = BotIdle, pool.None
		stop()
		return nil
	}

	t, found := SelectTarget(self, body.Position, targets)
	if !found {
		b.state, b.target = BotIdle, pool.None
		stop()
		return nil
	}
	b.target = t.Handle

	if vmath.Distance(body.Position, t.Position) > botAttackRange {
		b.state = BotPursue
		dir := t.Position.Sub(body.Position).Horizontal().Normalize().Scale(botMoveSpeed)
		body.SetLinVel(vmath.V3(dir.X, body.LinVel.Y, dir.Z))
		return nil
	}

	b.state = BotAttack
	stop()
	return b.fire(self, ctx.Weapons, t.Handle)
}

// OnActorRemoved drops any reference to an actor that is about to be freed.
func (b *Bot) OnActorRemoved(h pool.Handle) {
	if b.target == h {
		b.target = pool.None
		b.state = BotIdle
	}
}

func (b *Bot) CanBeRemoved() bool {
	return b.IsDead() && b.deathTimer >= BotDespawnDelay
}

func (b *Bot) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := b.Character.Visit("Character", v); err != nil {
		return err
	}
	state := uint32(b.state)
	if err := v.VisitU32("State", &state); err != nil {
		return err
	}
	if state > uint32(BotAttack) {
		return fmt.Errorf("bot state %d: %w", state, visit.ErrCorrupt)
	}
	b.state = BotState(state)
	if err := pool.VisitHandle(v, "Target", &b.target); err != nil {
		return err
	}
	return v.LeaveRegion()
}
