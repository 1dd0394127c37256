// Package actor implements the characters living in a level: the shared
// character state, the bot and player variants, and the container that
// drives them each tick.
package actor

import (
	"errors"
	"fmt"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/physics"
	"github.com/arenashooter/core/internal/vmath"
)

var (
	ErrUnknownKind = errors.New("unknown actor kind")
	ErrEmptyActor  = errors.New("actor has no variant")
)

// Kind is the persisted variant tag.
type Kind uint32

const (
	KindPlayer Kind = 0
	KindBot    Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindBot:
		return "bot"
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// TargetDescriptor is a per-tick snapshot of one live actor.
type TargetDescriptor struct {
	Handle   pool.Handle
	Health   float32
	Position vmath.Vec3
}

// Actor is either a Bot or a Player. Exactly one of the pointers is set
// for an actor built with FromBot or FromPlayer.
type Actor struct {
	kind   Kind
	bot    *Bot
	player *Player
}

func FromBot(b Bot) Actor       { return Actor{kind: KindBot, bot: &b} }
func FromPlayer(p Player) Actor { return Actor{kind: KindPlayer, player: &p} }

func (a *Actor) Kind() Kind { return a.kind }

// valid reports whether the variant pointer matching the kind is set. The
// zero Actor is not valid.
func (a *Actor) valid() bool {
	switch a.kind {
	case KindBot:
		return a.bot != nil
	case KindPlayer:
		return a.player != nil
	}
	return false
}

// Bot returns the bot variant, if a is one.
func (a *Actor) Bot() (*Bot, bool) { return a.bot, a.kind == KindBot && a.bot != nil }

// Player returns the player variant, if a is one.
func (a *Actor) Player() (*Player, bool) {
	return a.player, a.kind == KindPlayer && a.player != nil
}

// Character returns the state shared by both variants.
func (a *Actor) Character() *Character {
	switch a.kind {
	case KindBot:
		return &a.bot.Character
	case KindPlayer:
		return &a.player.Character
	}
	panic(fmt.Sprintf("actor: %s", a.kind))
}

// Update dispatches to the variant. Both need their own handle and the
// target snapshot to aim.
func (a *Actor) Update(self pool.Handle, ctx *UpdateContext, targets []TargetDescriptor) error {
	switch a.kind {
	case KindBot:
		return a.bot.Update(self, ctx, targets)
	case KindPlayer:
		return a.player.Update(self, ctx, targets)
	}
	panic(fmt.Sprintf("actor: %s", a.kind))
}

func (a *Actor) CanBeRemoved() bool {
	if !a.valid() {
		return false
	}
	switch a.kind {
	case KindBot:
		return a.bot.CanBeRemoved()
	case KindPlayer:
		return a.player.CanBeRemoved()
	}
	return false
}

// CleanUp releases everything the actor registered with the physics
// world. Safe to call more than once.
func (a *Actor) CleanUp(world *physics.World) {
	if !a.valid() {
		return
	}
	a.Character().CleanUp(world)
}

// Visit writes the kind tag as "KindId" followed by the variant payload
// under "Data". On read the tag selects which variant is constructed.
func (a *Actor) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	id := uint32(a.kind)
	if err := v.VisitU32("KindId", &id); err != nil {
		return err
	}
	if v.IsReading() {
		switch Kind(id) {
		case KindBot:
			*a = Actor{kind: KindBot, bot: &Bot{}}
		case KindPlayer:
			*a = Actor{kind: KindPlayer, player: &Player{}}
		default:
			return fmt.Errorf("actor %s: %w", Kind(id), ErrUnknownKind)
		}
	}
	var err error
	switch a.kind {
	case KindBot:
		err = a.bot.Visit("Data", v)
	case KindPlayer:
		err = a.player.Visit("Data", v)
	}
	if err != nil {
		return err
	}
	return v.LeaveRegion()
}
