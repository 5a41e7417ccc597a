package config

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestReloaderTriggersOnChange(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	r, err := NewReloader(path, ReloadConfig{Enabled: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}
	defer r.Stop()

	ch := make(chan AppConfig, 1)
	r.OnUpdate(func(cfg AppConfig) { ch <- cfg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-ch:
		if cfg.Env != "dev" {
			t.Fatalf("unexpected reloaded config: %+v", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected update callback")
	}
	if r.LastReloadTime().IsZero() {
		t.Fatal("last reload time not recorded")
	}
}

func TestReloaderDropsInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	r, err := NewReloader(path, ReloadConfig{Enabled: true}, zap.NewNop())
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}
	defer r.Stop()

	ch := make(chan AppConfig, 1)
	r.OnUpdate(func(cfg AppConfig) { ch <- cfg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := os.WriteFile(path, []byte("env: \n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-ch:
		t.Fatalf("invalid config delivered: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
	if !r.LastReloadTime().IsZero() {
		t.Fatal("failed reload must not bump the reload time")
	}
}

func TestReloaderDisabled(t *testing.T) {
	r, err := NewReloader("does-not-exist.yaml", ReloadConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("disabled start must not fail: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
