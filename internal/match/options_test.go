package match

import (
	"errors"
	"testing"

	"github.com/arenashooter/core/internal/core/visit"
)

func TestOptionsRoundTrip(t *testing.T) {
	for _, in := range []Options{
		DeathMatch(300, 20),
		TeamDeathMatch(600, 50),
		CaptureTheFlag(0, 3),
	} {
		w := visit.NewWriter()
		if err := in.Visit("Options", w); err != nil {
			t.Fatal(err)
		}
		data, _ := w.Save()
		r, err := visit.Load(data)
		if err != nil {
			t.Fatal(err)
		}
		var out Options
		if err := out.Visit("Options", r); err != nil {
			t.Fatal(err)
		}
		if out != in {
			t.Fatalf("round trip %+v -> %+v", in, out)
		}
	}
}

func TestUnknownModeTag(t *testing.T) {
	w := visit.NewWriter()
	w.EnterRegion("Options")
	id := uint32(9)
	w.VisitU32("Id", &id)
	w.LeaveRegion()
	data, _ := w.Save()
	r, _ := visit.Load(data)

	var out Options
	if err := out.Visit("Options", r); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("team_deathmatch")
	if err != nil || m != ModeTeamDeathMatch {
		t.Fatalf("parse = %v, %v", m, err)
	}
	if _, err := ParseMode("king_of_the_hill"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("err = %v", err)
	}
}
