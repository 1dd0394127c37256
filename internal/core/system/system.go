package system

import "time"

// Phase defines execution ordering within a single simulation tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: apply translated input to players
	PhaseUpdate                  // 1: actor update driver (AI, pickup, respawn requests)
	PhasePhysics                 // 2: integrate bodies, dispatch contact events
	PhasePostUpdate              // 3: item timers, weapon cooldowns, match clock
	PhaseCleanup                 // 4: delayed respawns
)

// System is the interface every per-tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
