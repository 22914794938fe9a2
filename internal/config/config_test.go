package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")
	configViper.Set("db.name", "steepline")
	configViper.Set("db.user", "steepline")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address %s", cfg.HTTPAddress)
	}
	if cfg.DBDriver != "postgres" || cfg.DBHost != "localhost" || cfg.DBPort != "5432" {
		t.Fatalf("unexpected db defaults %+v", cfg)
	}
	if cfg.TokenTTL != 30*24*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level %s", cfg.LogLevel)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %+v", cfg.AllowedOrigins)
	}
}

func TestLoadRequiresSigningSecret(t *testing.T) {
	configViper := NewViper()
	configViper.Set("db.name", "steepline")
	configViper.Set("db.user", "steepline")

	if _, err := Load(configViper); err == nil || !strings.Contains(err.Error(), "signing_secret") {
		t.Fatalf("expected signing secret error, got %v", err)
	}
}

func TestLoadValidatesDriverRequirements(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")

	if _, err := Load(configViper); err == nil || !strings.Contains(err.Error(), "db.name") {
		t.Fatalf("expected postgres db.name error, got %v", err)
	}

	configViper.Set("db.driver", "sqlite")
	configViper.Set("db.path", "")
	if _, err := Load(configViper); err == nil || !strings.Contains(err.Error(), "db.path") {
		t.Fatalf("expected sqlite db.path error, got %v", err)
	}

	configViper.Set("db.driver", "oracle")
	if _, err := Load(configViper); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestLoadNormalizesDriverCase(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")
	configViper.Set("db.driver", "PostgreSQL")
	configViper.Set("db.name", "steepline")
	configViper.Set("db.user", "steepline")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBDriver != "postgresql" {
		t.Fatalf("expected lowercased driver, got %s", cfg.DBDriver)
	}
}
