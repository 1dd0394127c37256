// Package controls holds the control scheme shared by the menu, the
// player, and save/load. One writer (the options menu) and many readers.
package controls

import "sync"

type ControlScheme struct {
	MoveForward  string
	MoveBackward string
	MoveLeft     string
	MoveRight    string
	Jump         string
	Shoot        string

	MouseSens float32
	InvertY   bool
	MoveSpeed float32 // world units per second
	JumpSpeed float32 // initial vertical velocity
}

func Default() ControlScheme {
	return ControlScheme{
		MoveForward:  "W",
		MoveBackward: "S",
		MoveLeft:     "A",
		MoveRight:    "D",
		Jump:         "Space",
		Shoot:        "MouseLeft",
		MouseSens:    0.3,
		MoveSpeed:    6,
		JumpSpeed:    5,
	}
}

// Shared guards a ControlScheme passed explicitly to every reader.
type Shared struct {
	mu     sync.RWMutex
	scheme ControlScheme
}

func NewShared(cs ControlScheme) *Shared {
	return &Shared{scheme: cs}
}

// Get returns a snapshot.
func (s *Shared) Get() ControlScheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme
}

func (s *Shared) Set(cs ControlScheme) {
	s.mu.Lock()
	s.scheme = cs
	s.mu.Unlock()
}

// Update applies fn under the write lock.
func (s *Shared) Update(fn func(*ControlScheme)) {
	s.mu.Lock()
	fn(&s.scheme)
	s.mu.Unlock()
}
