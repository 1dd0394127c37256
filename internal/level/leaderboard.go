package level

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arenashooter/core/internal/core/visit"
)

// Score is one participant's line on the leader board.
type Score struct {
	Name   string
	Kills  int32
	Deaths int32
}

// LeaderBoard tracks kills and deaths by actor name. Names survive
// respawns, handles do not.
type LeaderBoard struct {
	scores map[string]*Score
}

func NewLeaderBoard() *LeaderBoard {
	return &LeaderBoard{scores: make(map[string]*Score)}
}

func (lb *LeaderBoard) entry(name string) *Score {
	s, ok := lb.scores[name]
	if !ok {
		s = &Score{Name: name}
		lb.scores[name] = s
	}
	return s
}

// Register adds a zero line so participants show up before scoring.
func (lb *LeaderBoard) Register(name string) { lb.entry(name) }

func (lb *LeaderBoard) AddKill(name string)  { lb.entry(name).Kills++ }
func (lb *LeaderBoard) AddDeath(name string) { lb.entry(name).Deaths++ }

// Suicide costs a kill as well as adding a death.
func (lb *LeaderBoard) Suicide(name string) {
	s := lb.entry(name)
	s.Kills--
	s.Deaths++
}

func (lb *LeaderBoard) Score(name string) (Score, bool) {
	s, ok := lb.scores[name]
	if !ok {
		return Score{}, false
	}
	return *s, true
}

// Ranked returns all lines, most kills first, then fewest deaths, then name.
func (lb *LeaderBoard) Ranked() []Score {
	out := make([]Score, 0, len(lb.scores))
	for _, s := range lb.scores {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Score) int {
		if a.Kills != b.Kills {
			return int(b.Kills - a.Kills)
		}
		if a.Deaths != b.Deaths {
			return int(a.Deaths - b.Deaths)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// TopKills is the highest kill count, 0 for an empty board.
func (lb *LeaderBoard) TopKills() int32 {
	var top int32
	for _, s := range lb.scores {
		top = max(top, s.Kills)
	}
	return top
}

func (lb *LeaderBoard) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	var lines []Score
	if !v.IsReading() {
		lines = lb.Ranked()
	}
	n := uint32(len(lines))
	if err := v.VisitU32("Count", &n); err != nil {
		return err
	}
	if v.IsReading() {
		if n > 1<<16 {
			return fmt.Errorf("leader board: %d lines: %w", n, visit.ErrCorrupt)
		}
		lines = make([]Score, n)
	}
	for i := range lines {
		s := &lines[i]
		if err := v.EnterRegion(fmt.Sprintf("Line%d", i)); err != nil {
			return err
		}
		if err := v.VisitString("Name", &s.Name); err != nil {
			return err
		}
		if err := v.VisitI32("Kills", &s.Kills); err != nil {
			return err
		}
		if err := v.VisitI32("Deaths", &s.Deaths); err != nil {
			return err
		}
		if err := v.LeaveRegion(); err != nil {
			return err
		}
	}
	if v.IsReading() {
		lb.scores = make(map[string]*Score, len(lines))
		for i := range lines {
			lb.scores[lines[i].Name] = &lines[i]
		}
	}
	return v.LeaveRegion()
}
