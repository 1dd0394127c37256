package pool

import (
	"errors"
	"fmt"
	"iter"
)

// ErrInvalidHandle is returned when a handle refers to a freed or out-of-range slot.
var ErrInvalidHandle = errors.New("invalid handle")

// Handle encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generations start at 1, so the zero Handle never
// refers to a live slot.
type Handle uint64

// None is the handle that never resolves.
const None Handle = 0

func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsNone() bool       { return h.Generation() == 0 }
func (h Handle) IsSome() bool       { return !h.IsNone() }

func (h Handle) String() string {
	if h.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%d:%d", h.Index(), h.Generation())
}

type slot[T any] struct {
	generation uint32
	occupied   bool
	value      T
}

// Pool stores values in generation-tagged slots with a free list.
// Freed slots are reused, so iteration order is slot index order, not
// insertion order. Pointers returned by Get and the iterators stay valid
// until the next Spawn. Not safe for concurrent use.
type Pool[T any] struct {
	slots    []slot[T]
	freeList []uint32
	alive    uint32
}

func New[T any]() *Pool[T] {
	return &Pool[T]{
		slots:    make([]slot[T], 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Spawn stores v and returns its handle.
func (p *Pool[T]) Spawn(v T) Handle {
	p.alive++
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		s := &p.slots[idx]
		s.occupied = true
		s.value = v
		return NewHandle(idx, s.generation)
	}
	idx := uint32(len(p.slots))
	p.slots = append(p.slots, slot[T]{generation: 1, occupied: true, value: v})
	return NewHandle(idx, 1)
}

// Contains reports whether h refers to a live slot.
func (p *Pool[T]) Contains(h Handle) bool {
	idx := h.Index()
	if h.IsNone() || int(idx) >= len(p.slots) {
		return false
	}
	s := &p.slots[idx]
	return s.occupied && s.generation == h.Generation()
}

// Get returns the value behind h or ErrInvalidHandle.
func (p *Pool[T]) Get(h Handle) (*T, error) {
	if !p.Contains(h) {
		return nil, fmt.Errorf("get %s: %w", h, ErrInvalidHandle)
	}
	return &p.slots[h.Index()].value, nil
}

// MustGet is Get for callers that already hold a validated handle.
// It panics on an invalid handle instead of aliasing a reused slot.
func (p *Pool[T]) MustGet(h Handle) *T {
	v, err := p.Get(h)
	if err != nil {
		panic(err)
	}
	return v
}

// Free releases the slot behind h and bumps its generation, so every copy
// of h becomes stale. The removed value is returned.
func (p *Pool[T]) Free(h Handle) (T, error) {
	var zero T
	if !p.Contains(h) {
		return zero, fmt.Errorf("free %s: %w", h, ErrInvalidHandle)
	}
	idx := h.Index()
	s := &p.slots[idx]
	v := s.value
	s.value = zero
	s.occupied = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	p.freeList = append(p.freeList, idx)
	p.alive--
	return v, nil
}

// Count returns the number of live values.
func (p *Pool[T]) Count() uint32 { return p.alive }

// Capacity returns the number of slots ever allocated, live or not.
func (p *Pool[T]) Capacity() int { return len(p.slots) }

// HandleOf returns the live handle at a slot index, or None.
func (p *Pool[T]) HandleOf(index uint32) Handle {
	if int(index) >= len(p.slots) || !p.slots[index].occupied {
		return None
	}
	return NewHandle(index, p.slots[index].generation)
}

// Values yields every live value in slot index order.
func (p *Pool[T]) Values() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := range p.slots {
			s := &p.slots[i]
			if !s.occupied {
				continue
			}
			if !yield(&s.value) {
				return
			}
		}
	}
}

// All yields (handle, value) pairs in slot index order.
func (p *Pool[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for i := range p.slots {
			s := &p.slots[i]
			if !s.occupied {
				continue
			}
			if !yield(NewHandle(uint32(i), s.generation), &s.value) {
				return
			}
		}
	}
}

// Clear frees every live slot. Generations are bumped so outstanding
// handles stay invalid.
func (p *Pool[T]) Clear() {
	for i := range p.slots {
		if p.slots[i].occupied {
			p.Free(NewHandle(uint32(i), p.slots[i].generation))
		}
	}
}
