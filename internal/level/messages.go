package level

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/core/pool"
	"github.com/arenashooter/core/internal/message"
	"github.com/arenashooter/core/internal/scripting"
)

// HandleMessage applies a drained message to the level. Messages that
// refer to actors or items which no longer exist are dropped.
func (l *Level) HandleMessage(m message.Message) {
	switch m := m.(type) {
	case message.PickUpItem:
		l.pickUp(m)
	case message.DamageActor:
		l.damage(m)
	case message.RespawnActor:
		l.removeForRespawn(m)
	}
}

func (l *Level) notify(text string) {
	if err := l.sender.Send(message.AddNotification{Text: text}); err != nil && !errors.Is(err, message.ErrDisconnected) {
		l.log.Warn("send notification", zap.Error(err))
	}
}

func (l *Level) pickUp(m message.PickUpItem) {
	a, err := l.actors.Get(m.Actor)
	if err != nil {
		return
	}
	it, err := l.items.Get(m.Item)
	if err != nil || it.IsPickedUp() {
		// Another actor got there first this tick.
		return
	}
	ch := a.Character()
	if ch.IsDead() {
		return
	}
	r := l.script.ItemPickup(scripting.PickupContext{
		Kind:   it.Kind().String(),
		Health: ch.Health,
		Armor:  ch.Armor,
	})
	if !r.Consumed {
		return
	}
	ch.Health, ch.Armor = r.Health, r.Armor
	it.PickUp()
	if m.Actor == l.player {
		l.notify(fmt.Sprintf("Picked up %s", it.Kind()))
	}
}

func (l *Level) damage(m message.DamageActor) {
	a, err := l.actors.Get(m.Actor)
	if err != nil {
		return
	}
	ch := a.Character()
	if ch.IsDead() || m.Amount <= 0 {
		return
	}
	r := l.script.BotDamage(scripting.DamageContext{
		Amount: m.Amount,
		Health: ch.Health,
		Armor:  ch.Armor,
	})
	ch.Armor = max(ch.Armor-r.ArmorLoss, 0)
	ch.Health = max(ch.Health-r.HealthLoss, 0)
	if !ch.IsDead() {
		return
	}

	victim := ch.Name
	killer := ""
	if k, err := l.actors.Get(m.Who); err == nil {
		killer = k.Character().Name
	}
	switch {
	case m.Who == m.Actor:
		l.board.Suicide(victim)
		l.notify(fmt.Sprintf("%s committed suicide", victim))
	case killer != "":
		l.board.AddKill(killer)
		l.board.AddDeath(victim)
		l.notify(fmt.Sprintf("%s killed %s", killer, victim))
	default:
		l.board.AddDeath(victim)
		l.notify(fmt.Sprintf("%s died", victim))
	}
}

// removeForRespawn frees a dead actor and queues its replacement.
func (l *Level) removeForRespawn(m message.RespawnActor) {
	a, err := l.actors.Get(m.Actor)
	if err != nil {
		return
	}
	kind, name := a.Kind(), a.Character().Name
	for _, w := range a.Character().Weapons() {
		l.weapons.Free(w)
	}
	a.CleanUp(l.scene.Physics)
	if _, err := l.actors.Free(m.Actor); err != nil {
		l.log.Error("free actor", zap.Stringer("actor", m.Actor), zap.Error(err))
		return
	}
	if m.Actor == l.player {
		l.player = pool.None
	}

	delay := l.script.RespawnDelay(kind.String())
	if delay <= 0 {
		l.respawn(kind, name)
		return
	}
	l.pending = append(l.pending, pendingSpawn{kind: kind, name: name, in: delay})
}

