package controls

import (
	"sync"
	"testing"
)

func TestSharedReadersSeeWrites(t *testing.T) {
	s := NewShared(Default())
	reader := s // a second holder of the same object

	s.Update(func(cs *ControlScheme) { cs.MouseSens = 0.9 })
	if got := reader.Get().MouseSens; got != 0.9 {
		t.Fatalf("sens = %v", got)
	}

	snap := reader.Get()
	s.Set(ControlScheme{MoveSpeed: 1})
	if snap.MoveSpeed != Default().MoveSpeed {
		t.Fatal("snapshot changed after Set")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewShared(Default())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Get()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Update(func(cs *ControlScheme) { cs.InvertY = !cs.InvertY })
			}
		}()
	}
	wg.Wait()
}
