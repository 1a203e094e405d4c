package config

import (
	"testing"
	"time"
)

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MONGODB_URI", "")

	if _, err := Load(); err == nil {
		t.Error("Load() succeeded without JWT_SECRET and MONGODB_URI")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("PORT", "")
	t.Setenv("TYPING_TTL", "")
	t.Setenv("TOKEN_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", cfg.Port)
	}
	if cfg.TypingTTL != 8*time.Second {
		t.Errorf("TypingTTL = %v, want 8s", cfg.TypingTTL)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", cfg.TokenTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("PORT", "9999")
	t.Setenv("TYPING_TTL", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.TypingTTL != 3*time.Second {
		t.Errorf("TypingTTL = %v, want 3s", cfg.TypingTTL)
	}
}
