package level

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/actor"
	coresys "github.com/arenashooter/core/internal/core/system"
	"github.com/arenashooter/core/internal/match"
	"github.com/arenashooter/core/internal/message"
)

func seconds(dt time.Duration) float32 { return float32(dt.Seconds()) }

// inputSystem hands buffered input to the player. Phase 0 (Input). The
// player keeps its last input until new input arrives.
type inputSystem struct{ l *Level }

func (s *inputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *inputSystem) Update(time.Duration) {
	l := s.l
	if !l.inputFresh {
		return
	}
	a, err := l.actors.Get(l.player)
	if err != nil {
		return
	}
	if p, ok := a.Player(); ok {
		p.SetInput(l.input)
		l.inputFresh = false
	}
}

// actorSystem runs the actor update driver. Phase 1 (Update).
type actorSystem struct{ l *Level }

func (s *actorSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *actorSystem) Update(dt time.Duration) {
	s.l.updCtx.Dt = seconds(dt)
	s.l.actors.Update(&s.l.updCtx)
}

// physicsSystem steps the world and feeds contact events to the actors.
// Phase 2 (Physics).
type physicsSystem struct{ l *Level }

func (s *physicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *physicsSystem) Update(dt time.Duration) {
	phys := s.l.scene.Physics
	phys.Step(seconds(dt))
	for _, ev := range phys.DrainEvents() {
		s.l.actors.HandleContact(ev, &s.l.updCtx)
	}
}

// itemSystem counts down item reactivation. Phase 3 (PostUpdate).
type itemSystem struct{ l *Level }

func (s *itemSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *itemSystem) Update(dt time.Duration) {
	s.l.items.Update(seconds(dt))
}

// weaponSystem counts down weapon cooldowns. Phase 3 (PostUpdate).
type weaponSystem struct{ l *Level }

func (s *weaponSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *weaponSystem) Update(dt time.Duration) {
	s.l.weapons.Update(seconds(dt))
}

// matchSystem advances the match clock and ends the match once a limit is
// reached. Phase 3 (PostUpdate).
type matchSystem struct{ l *Level }

func (s *matchSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *matchSystem) Update(dt time.Duration) {
	l := s.l
	if l.ended {
		return
	}
	l.time += seconds(dt)
	if l.options.TimeLimit > 0 && l.time >= l.options.TimeLimit {
		l.endMatch("time limit")
		return
	}
	if l.fragLimitReached() {
		l.endMatch("frag limit")
	}
}

// Capture the flag has no flags to score yet, so only its clock applies.
func (l *Level) fragLimitReached() bool {
	if l.options.FragLimit == 0 || l.options.Mode == match.ModeCaptureTheFlag {
		return false
	}
	return l.board.TopKills() >= int32(l.options.FragLimit)
}

func (l *Level) endMatch(reason string) {
	l.ended = true
	l.log.Info("match over", zap.String("reason", reason), zap.Float32("time", l.time))
	if err := l.sender.Send(message.EndMatch{}); err != nil && !errors.Is(err, message.ErrDisconnected) {
		l.log.Warn("send end match", zap.Error(err))
	}
}

// respawnSystem spawns replacements for removed actors once their delay
// has passed. Phase 4 (Cleanup).
type respawnSystem struct{ l *Level }

func (s *respawnSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *respawnSystem) Update(dt time.Duration) {
	l := s.l
	if len(l.pending) == 0 {
		return
	}
	step := seconds(dt)
	kept := l.pending[:0]
	var due []pendingSpawn
	for _, p := range l.pending {
		p.in -= step
		if p.in <= 0 {
			due = append(due, p)
			continue
		}
		kept = append(kept, p)
	}
	l.pending = kept
	for _, p := range due {
		l.respawn(p.kind, p.name)
	}
}

func (l *Level) respawn(kind actor.Kind, name string) {
	at := l.nextSpawnPoint()
	h, err := l.spawn(kind, name, at)
	if err != nil {
		l.log.Error("respawn", zap.String("name", name), zap.Error(err))
		return
	}
	l.log.Debug("actor respawned", zap.String("name", name), zap.Stringer("kind", kind), zap.Stringer("actor", h))
}
