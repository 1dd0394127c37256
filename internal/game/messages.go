package game

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/message"
	"github.com/arenashooter/core/internal/persist"
)

func (g *Game) drain() {
	for {
		m, ok := g.rx.TryRecv()
		if !ok {
			return
		}
		g.handle(m)
		if g.cfg.Feed != nil {
			g.cfg.Feed.Publish(g.tick, m)
		}
	}
}

func (g *Game) handle(m message.Message) {
	switch m := m.(type) {
	case message.StartNewGame:
		if err := g.StartNewGame(m.Options); err != nil {
			g.log.Warn("start new game", zap.Error(err))
		}
	case message.SaveGame:
		if err := g.SaveGame(g.ctx); err != nil {
			g.log.Error("save game", zap.String("slot", g.cfg.Slot), zap.Error(err))
			g.hud.Notify(g.ui, "Save failed")
			return
		}
		g.hud.Notify(g.ui, "Game saved")
	case message.LoadGame:
		if err := g.LoadGame(g.ctx); err != nil {
			g.log.Error("load game", zap.String("slot", g.cfg.Slot), zap.Error(err))
			text := "Load failed"
			if errors.Is(err, persist.ErrSlotNotFound) {
				text = "No saved game"
			}
			g.hud.Notify(g.ui, text)
			return
		}
		g.hud.Notify(g.ui, "Game loaded")
	case message.QuitGame:
		g.quitting = true
	case message.EndMatch:
		g.endMatch()
	case message.AddNotification:
		g.hud.Notify(g.ui, m.Text)
	default:
		if g.level != nil {
			g.level.HandleMessage(m)
		}
	}
}

// endMatch shows the final standings, records them and returns to the menu.
func (g *Game) endMatch() {
	l := g.level
	if l == nil {
		return
	}
	ranked := l.LeaderBoard().Ranked()
	lines := make([]string, len(ranked))
	for i, s := range ranked {
		lines[i] = fmt.Sprintf("%d. %s %d %d", i+1, s.Name, s.Kills, s.Deaths)
	}
	g.hud.ShowLeaderBoard(g.ui, lines)

	result := persist.MatchResult{
		Level:    l.Name(),
		Mode:     l.Options().Mode.String(),
		Duration: l.Time(),
		EndedAt:  time.Now(),
	}
	if len(ranked) > 0 {
		result.Winner = ranked[0].Name
	}
	if err := g.cfg.Store.RecordMatch(g.ctx, result); err != nil {
		g.log.Error("record match", zap.Error(err))
	}
	g.log.Info("match ended",
		zap.String("level", result.Level),
		zap.String("winner", result.Winner),
		zap.Float32("duration", result.Duration),
	)

	g.destroyLevel()
	g.ui.SetVisible(g.menu.Root, true)
}
