package main

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/arenashooter/core/internal/config"
	"github.com/arenashooter/core/internal/match"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := newLogger(config.LoggingConfig{Level: "warn", Format: format})
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if log.Core().Enabled(zapcore.InfoLevel) || !log.Core().Enabled(zapcore.WarnLevel) {
			t.Fatalf("%s: level not applied", format)
		}
	}
	if _, err := newLogger(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("unknown level accepted")
	}
}

func TestMatchOptions(t *testing.T) {
	opts, err := matchOptions(config.GameConfig{Mode: "capture_the_flag", TimeLimit: 300, FragLimit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Mode != match.ModeCaptureTheFlag || opts.TimeLimit != 300 {
		t.Fatalf("options = %+v", opts)
	}
	if _, err := matchOptions(config.GameConfig{Mode: "tag"}); err == nil {
		t.Fatal("unknown mode accepted")
	}
}
