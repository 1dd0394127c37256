// Package match describes the rule set a level is played under.
package match

import (
	"errors"
	"fmt"

	"github.com/arenashooter/core/internal/core/visit"
)

// ErrUnknownMode is returned when saved data carries an unknown mode id.
var ErrUnknownMode = errors.New("unknown match mode")

type Mode uint32

const (
	ModeDeathMatch Mode = iota
	ModeTeamDeathMatch
	ModeCaptureTheFlag
)

func (m Mode) String() string {
	switch m {
	case ModeDeathMatch:
		return "deathmatch"
	case ModeTeamDeathMatch:
		return "team_deathmatch"
	case ModeCaptureTheFlag:
		return "capture_the_flag"
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// ParseMode accepts the names produced by String.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeDeathMatch, ModeTeamDeathMatch, ModeCaptureTheFlag} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownMode)
}

// Options is a closed variant: Mode selects which of the limit fields apply.
// TimeLimit is in seconds, zero meaning unlimited; FragLimit counts frags
// per player (deathmatch), per team (team deathmatch) or captured flags.
type Options struct {
	Mode      Mode
	TimeLimit float32
	FragLimit uint32
}

func DeathMatch(timeLimit float32, fragLimit uint32) Options {
	return Options{Mode: ModeDeathMatch, TimeLimit: timeLimit, FragLimit: fragLimit}
}

func TeamDeathMatch(timeLimit float32, teamFragLimit uint32) Options {
	return Options{Mode: ModeTeamDeathMatch, TimeLimit: timeLimit, FragLimit: teamFragLimit}
}

func CaptureTheFlag(timeLimit float32, flagLimit uint32) Options {
	return Options{Mode: ModeCaptureTheFlag, TimeLimit: timeLimit, FragLimit: flagLimit}
}

// limitField is the saved name of FragLimit for each mode.
func (m Mode) limitField() string {
	switch m {
	case ModeTeamDeathMatch:
		return "TeamFragLimit"
	case ModeCaptureTheFlag:
		return "FlagLimit"
	}
	return "FragLimit"
}

// Visit writes an Id tag first and reads it back before the mode's data
// block, mirroring how actors are persisted.
func (o *Options) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	id := uint32(o.Mode)
	if err := v.VisitU32("Id", &id); err != nil {
		return err
	}
	if v.IsReading() {
		if id > uint32(ModeCaptureTheFlag) {
			return fmt.Errorf("match options %d: %w", id, ErrUnknownMode)
		}
		*o = Options{Mode: Mode(id)}
	}
	if err := v.EnterRegion("Data"); err != nil {
		return err
	}
	if err := v.VisitF32("TimeLimit", &o.TimeLimit); err != nil {
		return err
	}
	if err := v.VisitU32(o.Mode.limitField(), &o.FragLimit); err != nil {
		return err
	}
	if err := v.LeaveRegion(); err != nil {
		return err
	}
	return v.LeaveRegion()
}
