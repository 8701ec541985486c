package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		t.Run(env, func(t *testing.T) {
			l, err := New(env, Options{Component: "api"})
			if err != nil {
				t.Fatalf("New(%q): %v", env, err)
			}
			_ = l.Sync()
		})
	}
}

func TestNew_UnknownEnvironment(t *testing.T) {
	if _, err := New("staging", Options{}); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestNew_LevelOverride(t *testing.T) {
	l, err := New("prod", Options{Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info must be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn must be enabled")
	}

	if _, err := New("prod", Options{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestFromContext_Nop(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a no-op logger")
	}
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx = WithFields(ctx, zap.String("return_type", "id"))
	FromContext(ctx).Info("evaluated")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["return_type"]; got != "id" {
		t.Errorf("return_type = %v, want id", got)
	}
}

func TestWithFields_NoLogger(t *testing.T) {
	ctx := context.Background()
	if WithFields(ctx, zap.String("k", "v")) != ctx {
		t.Error("context without a logger must be returned unchanged")
	}
}
