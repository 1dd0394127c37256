package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "arena.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Game.FixedFPS != 60 || cfg.Game.AutosaveInterval != 5*time.Minute {
		t.Fatalf("game = %+v", cfg.Game)
	}
	if cfg.Storage.Backend != "file" || cfg.Storage.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
}

func TestDefaultsFillGaps(t *testing.T) {
	cfg, err := Parse([]byte("[logging]\nlevel = \"debug\"\n"), "inline")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Game.Level != "arena" || cfg.Storage.Slot != "quicksave" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"syntax":  "[game\n",
		"fps":     "[game]\nfixed_fps = 0\n",
		"backend": "[storage]\nbackend = \"redis\"\n",
		"slot":    "[storage]\nslot = \"\"\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src), name); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "/tmp/other.toml")
	if Path() != "/tmp/other.toml" {
		t.Fatalf("path = %s", Path())
	}
	t.Setenv(EnvPath, "")
	if Path() != DefaultPath {
		t.Fatalf("path = %s", Path())
	}
}
