package system

import (
	"testing"
	"time"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"physics", PhasePhysics, &log})
	r.Register(recorder{"actors", PhaseUpdate, &log})
	r.Register(recorder{"items", PhasePostUpdate, &log})
	r.Register(recorder{"clock", PhasePostUpdate, &log})
	r.Register(recorder{"input", PhaseInput, &log})

	r.Tick(time.Second / 60)

	want := []string{"input", "actors", "physics", "items", "clock", "cleanup"}
	if len(log) != len(want) {
		t.Fatalf("ran %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("ran %v, want %v", log, want)
		}
	}
}
