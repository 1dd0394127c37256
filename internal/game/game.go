// Package game owns the main loop: the current level, the async loader,
// save/load, the UI screens and the message drain.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/actor"
	"github.com/arenashooter/core/internal/controls"
	"github.com/arenashooter/core/internal/core/visit"
	"github.com/arenashooter/core/internal/level"
	"github.com/arenashooter/core/internal/match"
	"github.com/arenashooter/core/internal/message"
	"github.com/arenashooter/core/internal/persist"
	"github.com/arenashooter/core/internal/resource"
	"github.com/arenashooter/core/internal/scene"
	"github.com/arenashooter/core/internal/ui"
)

// FixedFPS is the simulation rate when Config leaves it unset.
const FixedFPS = 60

// maxFrameLag bounds how much simulation time one Frame may catch up.
const maxFrameLag = 250 * time.Millisecond

// saveRegion is the root region of a save blob.
const saveRegion = "Level"

var (
	ErrLoadInProgress = errors.New("level load already in progress")
	ErrNoLevel        = errors.New("no level running")
)

// Publisher receives every drained message. feed.Hub implements it.
type Publisher interface {
	Publish(tick uint64, m message.Message)
}

type Config struct {
	Resources  *resource.Manager
	Store      persist.Store
	Controls   *controls.Shared
	LevelName  string
	ScriptsDir string
	Slot       string
	FixedFPS   int
	Feed       Publisher // optional
	Build      BuildFunc // defaults to level.New
	Log        *zap.Logger
}

type Game struct {
	cfg  Config
	log  *zap.Logger
	step time.Duration

	scenes  *scene.Container
	ui      *ui.UI
	menu    ui.Menu
	loading ui.LoadingScreen
	hud     ui.HUD

	level *level.Level
	load  *LoadContext

	tx message.Sender
	rx *message.Receiver

	ctx    context.Context
	cancel context.CancelFunc

	tick     uint64
	acc      time.Duration
	last     time.Time
	quitting bool
}

func New(cfg Config) *Game {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Build == nil {
		cfg.Build = level.New
	}
	if cfg.FixedFPS <= 0 {
		cfg.FixedFPS = FixedFPS
	}
	if cfg.Controls == nil {
		cfg.Controls = controls.NewShared(controls.Default())
	}
	tx, rx := message.NewChannel()
	ctx, cancel := context.WithCancel(context.Background())
	u := ui.New()
	return &Game{
		cfg:     cfg,
		log:     cfg.Log,
		step:    time.Second / time.Duration(cfg.FixedFPS),
		scenes:  scene.NewContainer(),
		ui:      u,
		menu:    ui.NewMenu(u),
		loading: ui.NewLoadingScreen(u),
		hud:     ui.NewHUD(u),
		tx:      tx,
		rx:      rx,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (g *Game) UI() *ui.UI                      { return g.ui }
func (g *Game) Menu() ui.Menu                   { return g.menu }
func (g *Game) LoadingScreen() ui.LoadingScreen { return g.loading }
func (g *Game) HUD() ui.HUD                     { return g.hud }
func (g *Game) Level() *level.Level             { return g.level }
func (g *Game) Scenes() *scene.Container        { return g.scenes }
func (g *Game) Sender() message.Sender          { return g.tx }
func (g *Game) Controls() *controls.Shared      { return g.cfg.Controls }
func (g *Game) Loading() bool                   { return g.load != nil }
func (g *Game) Quitting() bool                  { return g.quitting }
func (g *Game) Ticks() uint64                   { return g.tick }

func (g *Game) deps() level.Deps {
	return level.Deps{
		Resources:  g.cfg.Resources,
		Controls:   g.cfg.Controls,
		Sender:     g.tx,
		LevelName:  g.cfg.LevelName,
		ScriptsDir: g.cfg.ScriptsDir,
		Log:        g.log,
	}
}

// StartNewGame tears down the current level and builds a new one on a
// background goroutine. Poll picks the result up.
func (g *Game) StartNewGame(options match.Options) error {
	if g.load != nil {
		return ErrLoadInProgress
	}
	g.destroyLevel()

	g.ui.SetVisible(g.menu.Root, false)
	g.ui.SetVisible(g.hud.Root, false)
	g.ui.SetVisible(g.loading.Root, true)
	g.ui.SetText(g.loading.Text, "Loading...")
	g.ui.SetProgress(g.loading.ProgressBar, 0)
	g.cfg.Resources.Reset()

	lc := newLoadContext()
	g.load = lc
	go lc.run(g.ctx, g.cfg.Build, g.deps(), options)

	g.log.Info("level load started",
		zap.String("level", g.cfg.LevelName),
		zap.String("mode", options.Mode.String()),
	)
	return nil
}

// Poll checks the loader without blocking. It reports whether a level
// was committed this call.
func (g *Game) Poll() bool {
	lc := g.load
	if lc == nil {
		return false
	}
	r, ok := lc.poll()
	if !ok {
		g.ui.SetProgress(g.loading.ProgressBar, float32(g.cfg.Resources.LoadingProgress())/100)
		return false
	}
	g.load = nil

	if r.err != nil {
		g.log.Error("level load failed", zap.String("level", g.cfg.LevelName), zap.Error(r.err))
		g.ui.SetText(g.loading.Text, fmt.Sprintf("Failed to load level: %v", r.err))
		g.ui.SetVisible(g.menu.Root, true)
		return false
	}
	g.commit(r.level)
	return true
}

func (g *Game) commit(l *level.Level) {
	l.SetSceneHandle(g.scenes.Add(l.Scene()))
	g.level = l

	g.ui.SetVisible(g.loading.Root, false)
	g.ui.SetVisible(g.menu.Root, false)
	g.ui.SetVisible(g.hud.Root, true)
	g.ui.SetVisible(g.hud.LeaderBoard, false)
	g.syncHUD()
	g.log.Info("level committed",
		zap.String("level", l.Name()),
		zap.Uint32("actors", l.Actors().Count()),
	)
}

func (g *Game) destroyLevel() {
	if g.level == nil {
		return
	}
	h := g.level.SceneHandle()
	g.level.Destroy()
	g.scenes.Remove(h)
	g.level = nil
}

// SaveGame writes the running level to the configured slot.
func (g *Game) SaveGame(ctx context.Context) error {
	if g.level == nil {
		return ErrNoLevel
	}
	v := visit.NewWriter()
	if err := g.level.Visit(saveRegion, v); err != nil {
		return fmt.Errorf("serialize level: %w", err)
	}
	payload, err := v.Save()
	if err != nil {
		return fmt.Errorf("serialize level: %w", err)
	}
	blob := persist.EncodeBlob(payload)
	if err := g.cfg.Store.Save(ctx, g.cfg.Slot, blob); err != nil {
		return err
	}
	g.log.Info("game saved", zap.String("slot", g.cfg.Slot), zap.Int("bytes", len(blob)))
	return nil
}

// LoadGame reads the configured slot into a fresh level. The running
// level is replaced only when the whole load succeeds.
func (g *Game) LoadGame(ctx context.Context) error {
	if g.load != nil {
		return ErrLoadInProgress
	}
	blob, err := g.cfg.Store.Load(ctx, g.cfg.Slot)
	if err != nil {
		return err
	}
	payload, err := persist.DecodeBlob(blob)
	if err != nil {
		return err
	}
	v, err := visit.Load(payload)
	if err != nil {
		return err
	}
	l, err := level.Load(v, saveRegion, g.deps())
	if err != nil {
		return err
	}
	g.destroyLevel()
	g.commit(l)
	g.log.Info("game loaded", zap.String("slot", g.cfg.Slot))
	return nil
}

// SetPlayerInput forwards this frame's input to the player, if any.
func (g *Game) SetPlayerInput(in actor.Input) {
	if g.level != nil {
		g.level.SetPlayerInput(in)
	}
}

// Frame advances the simulation by whole fixed steps for the wall time
// elapsed since the previous call. It returns the number of ticks run.
func (g *Game) Frame(now time.Time) int {
	if g.last.IsZero() {
		g.last = now
		return 0
	}
	g.acc += now.Sub(g.last)
	g.last = now
	if g.acc > maxFrameLag {
		g.acc = maxFrameLag
	}
	n := 0
	for g.acc >= g.step {
		g.Tick(g.step)
		g.acc -= g.step
		n++
	}
	return n
}

// Tick runs one fixed step: loader poll, level update, HUD, messages.
func (g *Game) Tick(dt time.Duration) {
	g.tick++
	g.Poll()
	if g.level != nil {
		g.level.Update(dt)
		g.syncHUD()
	}
	g.drain()
}

func (g *Game) syncHUD() {
	l := g.level
	g.hud.SetTime(g.ui, l.Time())
	ammo, armed := l.CurrentAmmo()
	g.hud.SetAmmo(g.ui, ammo, armed)
	a, err := l.Actors().Get(l.Player())
	if err != nil {
		g.hud.SetIsDied(g.ui, true)
		return
	}
	ch := a.Character()
	g.hud.SetHealth(g.ui, ch.Health)
	g.hud.SetArmor(g.ui, ch.Armor)
	g.hud.SetIsDied(g.ui, ch.IsDead())
}

// Close stops accepting messages, waits for an in-flight load and
// releases every level.
func (g *Game) Close() {
	g.cancel()
	if lc := g.load; lc != nil {
		if l := lc.wait(); l != nil {
			l.Destroy()
		}
		g.load = nil
	}
	g.destroyLevel()
	g.rx.Close()
}
