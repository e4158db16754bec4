package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development default, got %q", cfg.Env)
	}
	if cfg.SendBuffer <= 0 || cfg.InboundBuffer <= 0 {
		t.Fatalf("buffers must default to positive sizes: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("M4E_ADDR", ":9999")
	t.Setenv("M4E_ENV", "production")
	t.Setenv("M4E_PING_INTERVAL", "3s")
	t.Setenv("M4E_SEND_BUFFER", "8")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Fatalf("addr override ignored: %q", cfg.Addr)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("env override ignored: %q", cfg.Env)
	}
	if cfg.PingInterval != 3*time.Second {
		t.Fatalf("ping interval override ignored: %v", cfg.PingInterval)
	}
	if cfg.SendBuffer != 8 {
		t.Fatalf("send buffer override ignored: %d", cfg.SendBuffer)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("M4E_SEND_BUFFER", "minus one")
	t.Setenv("M4E_PING_INTERVAL", "soon")

	cfg := Load()
	if cfg.SendBuffer != 64 {
		t.Fatalf("expected fallback send buffer, got %d", cfg.SendBuffer)
	}
	if cfg.PingInterval != 25*time.Second {
		t.Fatalf("expected fallback ping interval, got %v", cfg.PingInterval)
	}
}
