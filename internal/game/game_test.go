package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arenashooter/core/internal/level"
	"github.com/arenashooter/core/internal/match"
	"github.com/arenashooter/core/internal/message"
	"github.com/arenashooter/core/internal/persist"
	"github.com/arenashooter/core/internal/resource"
)

type recordingFeed struct {
	kinds []string
}

func (f *recordingFeed) Publish(tick uint64, m message.Message) { f.kinds = append(f.kinds, m.Kind()) }

func newTestGame(t *testing.T, build BuildFunc) (*Game, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := persist.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	assets := filepath.Join("..", "..", "assets")
	g := New(Config{
		Resources:  resource.NewManager(assets, nil),
		Store:      store,
		LevelName:  "arena",
		ScriptsDir: filepath.Join(assets, "scripts"),
		Slot:       "quicksave",
		Build:      build,
	})
	t.Cleanup(g.Close)
	return g, dir
}

// startAndCommit runs a full load and commits it.
func startAndCommit(t *testing.T, g *Game) *level.Level {
	t.Helper()
	if err := g.StartNewGame(match.DeathMatch(0, 0)); err != nil {
		t.Fatal(err)
	}
	<-g.load.done
	if !g.Poll() {
		t.Fatal("finished load was not committed")
	}
	return g.Level()
}

func TestAsyncLoadCommitsExactlyOnce(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	g, _ := newTestGame(t, func(ctx context.Context, deps level.Deps, opts match.Options) (*level.Level, error) {
		close(started)
		<-gate
		return level.New(ctx, deps, opts)
	})

	if err := g.StartNewGame(match.DeathMatch(300, 10)); err != nil {
		t.Fatal(err)
	}
	<-started
	u := g.UI()
	for i := 0; i < 20; i++ {
		if g.Poll() {
			t.Fatalf("poll %d committed before the build finished", i)
		}
		if g.Level() != nil || !u.IsVisible(g.LoadingScreen().Root) {
			t.Fatalf("poll %d: level=%v loading visible=%v", i, g.Level(), u.IsVisible(g.LoadingScreen().Root))
		}
	}
	if u.IsVisible(g.Menu().Root) {
		t.Fatal("menu visible while loading")
	}
	if err := g.StartNewGame(match.DeathMatch(0, 0)); !errors.Is(err, ErrLoadInProgress) {
		t.Fatalf("overlapping start: err = %v", err)
	}

	close(gate)
	<-g.load.done
	if !g.Poll() {
		t.Fatal("first poll after the build did not commit")
	}
	if g.Level() == nil || g.Loading() || u.IsVisible(g.LoadingScreen().Root) {
		t.Fatal("level not swapped in or loading screen still visible")
	}
	if g.Poll() {
		t.Fatal("level committed twice")
	}
	if g.Scenes().Count() != 1 {
		t.Fatalf("scenes = %d, want 1", g.Scenes().Count())
	}
	if g.Level().Options().TimeLimit != 300 {
		t.Fatalf("options = %+v", g.Level().Options())
	}
}

func TestLoadFailureReturnsToMenu(t *testing.T) {
	g, _ := newTestGame(t, func(context.Context, level.Deps, match.Options) (*level.Level, error) {
		return nil, errors.New("missing level asset")
	})
	if err := g.StartNewGame(match.DeathMatch(0, 0)); err != nil {
		t.Fatal(err)
	}
	<-g.load.done
	if g.Poll() {
		t.Fatal("failed load committed")
	}
	u := g.UI()
	if g.Loading() || g.Level() != nil {
		t.Fatal("still loading after failure")
	}
	if !u.IsVisible(g.Menu().Root) {
		t.Fatal("menu hidden after failure")
	}
	if txt := u.Text(g.LoadingScreen().Text); !strings.Contains(txt, "missing level asset") {
		t.Fatalf("loading text = %q", txt)
	}
}

func TestStartNewGameReplacesLevel(t *testing.T) {
	g, _ := newTestGame(t, nil)
	first := startAndCommit(t, g)
	second := startAndCommit(t, g)
	if first == second {
		t.Fatal("level not rebuilt")
	}
	if g.Scenes().Count() != 1 {
		t.Fatalf("scenes = %d, old scene leaked", g.Scenes().Count())
	}
	if first.Scene().Physics.BodyCount() != 0 {
		t.Fatal("old level still owns physics bodies")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g, _ := newTestGame(t, nil)
	l := startAndCommit(t, g)
	g.Tick(g.step)

	a, err := l.Actors().Get(l.Player())
	if err != nil {
		t.Fatal(err)
	}
	a.Character().Health = 42
	a.Character().Armor = 7
	gun, err := l.Weapons().Get(a.Character().CurrentWeapon())
	if err != nil {
		t.Fatal(err)
	}
	gun.SetAmmo(3)
	if err := g.SaveGame(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	a.Character().Health = 5

	if err := g.LoadGame(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded := g.Level()
	if loaded == l {
		t.Fatal("level not replaced")
	}
	p, err := loaded.Actors().Get(loaded.Player())
	if err != nil {
		t.Fatalf("player handle after load: %v", err)
	}
	if ch := p.Character(); ch.Health != 42 || ch.Armor != 7 {
		t.Fatalf("player health=%v armor=%v", ch.Health, ch.Armor)
	}
	if loaded.Actors().Count() != 4 || g.Scenes().Count() != 1 {
		t.Fatalf("actors=%d scenes=%d", loaded.Actors().Count(), g.Scenes().Count())
	}
	if got := g.UI().Text(g.HUD().Health); got != "42" {
		t.Fatalf("hud health = %q", got)
	}
	if got := g.UI().Text(g.HUD().Ammo); got != "3" {
		t.Fatalf("hud ammo = %q", got)
	}
	// The loaded level keeps simulating.
	g.Tick(g.step)
}

func TestCorruptSaveKeepsCurrentLevel(t *testing.T) {
	g, dir := newTestGame(t, nil)
	l := startAndCommit(t, g)

	if err := g.SaveGame(context.Background()); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "quicksave.sav")
	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	blob[len(blob)/2] ^= 0xff
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := g.LoadGame(context.Background()); !errors.Is(err, persist.ErrChecksum) {
		t.Fatalf("err = %v, want ErrChecksum", err)
	}
	if g.Level() != l || l.Actors().Count() != 4 {
		t.Fatal("current level disturbed by failed load")
	}
}

func TestLoadMissingSlotNotifies(t *testing.T) {
	g, _ := newTestGame(t, nil)
	g.Sender().Send(message.LoadGame{})
	g.Tick(g.step)
	if got := g.UI().Text(g.HUD().Notification); got != "No saved game" {
		t.Fatalf("notification = %q", got)
	}
}

func TestMessagesDrainInOrder(t *testing.T) {
	feed := &recordingFeed{}
	g, _ := newTestGame(t, nil)
	g.cfg.Feed = feed

	tx := g.Sender()
	tx.Send(message.AddNotification{Text: "first"})
	tx.Send(message.AddNotification{Text: "second"})
	tx.Send(message.QuitGame{})
	g.Tick(g.step)

	if got := g.UI().Text(g.HUD().Notification); got != "second" {
		t.Fatalf("notification = %q", got)
	}
	if !g.Quitting() {
		t.Fatal("quit not handled")
	}
	want := []string{"add_notification", "add_notification", "quit_game"}
	if strings.Join(feed.kinds, ",") != strings.Join(want, ",") {
		t.Fatalf("feed = %v", feed.kinds)
	}
}

func TestEndMatchShowsBoardAndRecordsResult(t *testing.T) {
	g, dir := newTestGame(t, nil)
	startAndCommit(t, g)

	g.Sender().Send(message.EndMatch{})
	g.Tick(g.step)

	u := g.UI()
	if g.Level() != nil || g.Scenes().Count() != 0 {
		t.Fatal("level survived end of match")
	}
	if !u.IsVisible(g.HUD().LeaderBoard) || !u.IsVisible(g.Menu().Root) {
		t.Fatal("leader board or menu not shown")
	}
	if board := u.Text(g.HUD().LeaderBoard); !strings.Contains(board, "Player") {
		t.Fatalf("board = %q", board)
	}
	data, err := os.ReadFile(filepath.Join(dir, "results.jsonl"))
	if err != nil {
		t.Fatalf("match result not recorded: %v", err)
	}
	if !strings.Contains(string(data), `"level":"arena"`) {
		t.Fatalf("results = %s", data)
	}
}

func TestFrameRunsFixedSteps(t *testing.T) {
	g, _ := newTestGame(t, nil)
	t0 := time.Unix(1000, 0)
	if n := g.Frame(t0); n != 0 {
		t.Fatalf("first frame ran %d ticks", n)
	}
	if n := g.Frame(t0.Add(50 * time.Millisecond)); n != 3 {
		t.Fatalf("50ms ran %d ticks, want 3", n)
	}
	if n := g.Frame(t0.Add(10 * time.Second)); n != int(maxFrameLag/g.step) {
		t.Fatalf("long stall ran %d ticks", n)
	}
	if g.Ticks() == 0 {
		t.Fatal("tick counter not advanced")
	}
}

func TestSaveWithoutLevel(t *testing.T) {
	g, _ := newTestGame(t, nil)
	if err := g.SaveGame(context.Background()); !errors.Is(err, ErrNoLevel) {
		t.Fatalf("err = %v", err)
	}
}
