package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arenashooter/core/internal/config"
	"github.com/arenashooter/core/internal/controls"
	"github.com/arenashooter/core/internal/feed"
	"github.com/arenashooter/core/internal/game"
	"github.com/arenashooter/core/internal/match"
	"github.com/arenashooter/core/internal/message"
	"github.com/arenashooter/core/internal/persist"
	"github.com/arenashooter/core/internal/resource"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(level string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             Arena Core  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mLevel:\033[0m %s\n\n", level)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Game.Level)

	// 3. Save store
	printSection("Storage")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()
	printOK(fmt.Sprintf("%s store ready", cfg.Storage.Backend))
	if slots, err := store.List(ctx); err == nil {
		printOK(fmt.Sprintf("%d saved games", len(slots)))
	}
	fmt.Println()

	options, err := matchOptions(cfg.Game)
	if err != nil {
		return err
	}

	// 4. Observer feed
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	var hub *feed.Hub
	if cfg.Feed.Enabled {
		hub = feed.NewHub(cfg.Feed.QueueSize, log)
		defer hub.Close()
		go func() {
			if err := hub.Serve(runCtx, cfg.Feed.BindAddress); err != nil {
				log.Error("feed server", zap.Error(err))
			}
		}()
	}

	// 5. Game
	cs := controls.Default()
	cs.MouseSens = cfg.Controls.MouseSens
	cs.InvertY = cfg.Controls.InvertY
	cs.MoveSpeed = cfg.Controls.MoveSpeed
	cs.JumpSpeed = cfg.Controls.JumpSpeed

	gcfg := game.Config{
		Resources:  resource.NewManager(cfg.Assets.Root, log),
		Store:      store,
		Controls:   controls.NewShared(cs),
		LevelName:  cfg.Game.Level,
		ScriptsDir: cfg.Assets.Scripts,
		Slot:       cfg.Storage.Slot,
		FixedFPS:   cfg.Game.FixedFPS,
		Log:        log,
	}
	if hub != nil {
		gcfg.Feed = hub
	}
	g := game.New(gcfg)
	defer g.Close()

	tx := g.Sender()
	if cfg.Game.AutoStart {
		if err := tx.Send(message.StartNewGame{Options: options}); err != nil {
			return fmt.Errorf("auto start: %w", err)
		}
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	step := time.Second / time.Duration(cfg.Game.FixedFPS)
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	var autosave <-chan time.Time
	if cfg.Game.AutosaveInterval > 0 {
		t := time.NewTicker(cfg.Game.AutosaveInterval)
		defer t.Stop()
		autosave = t.C
	}

	printSection("Ready")
	printReady(fmt.Sprintf("game loop running (%d fps)", cfg.Game.FixedFPS))
	if hub != nil {
		printReady(fmt.Sprintf("observer feed at ws://%s%s", cfg.Feed.BindAddress, feed.Path))
	}
	fmt.Println()

	for {
		select {
		case now := <-ticker.C:
			g.Frame(now)
			if g.Quitting() {
				log.Info("quit requested")
				return nil
			}
		case <-autosave:
			if g.Level() != nil {
				if err := tx.Send(message.SaveGame{}); err != nil {
					log.Warn("queue autosave", zap.Error(err))
				}
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			if g.Level() != nil {
				if err := g.SaveGame(context.Background()); err != nil {
					log.Error("final save", zap.Error(err))
				}
			}
			return nil
		}
	}
}

func matchOptions(cfg config.GameConfig) (match.Options, error) {
	mode, err := match.ParseMode(cfg.Mode)
	if err != nil {
		return match.Options{}, fmt.Errorf("game.mode: %w", err)
	}
	switch mode {
	case match.ModeTeamDeathMatch:
		return match.TeamDeathMatch(cfg.TimeLimit, cfg.FragLimit), nil
	case match.ModeCaptureTheFlag:
		return match.CaptureTheFlag(cfg.TimeLimit, cfg.FragLimit), nil
	}
	return match.DeathMatch(cfg.TimeLimit, cfg.FragLimit), nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (persist.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := persist.OpenSQLite(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := persist.NewPGStore(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := persist.NewFileStore(filepath.Clean(cfg.Dir))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newLogger builds a JSON production logger or a compact colored console
// logger. An unparsable level is an error rather than a silent fallback.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format != "json" {
		zapCfg = zap.NewDevelopmentConfig()
		enc := &zapCfg.EncoderConfig
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc.ConsoleSeparator = " "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.InitialFields = map[string]any{"app": "arena"}
	return zapCfg.Build()
}
