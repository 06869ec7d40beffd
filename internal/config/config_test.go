package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "SERVER_PORT", "BASE_URL", "SESSION_MAX_AGE",
		"DISCOVERY_TIMEOUT", "RATE_LIMIT_LOGIN", "COOKIE_DOMAIN",
	} {
		t.Setenv(key, "")
	}
}

// 環境変数なしでデフォルト値が使われることを検証
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DatabaseURL != "whatsfordinner.db" {
		t.Errorf("DatabaseURL = %q, want whatsfordinner.db", cfg.DatabaseURL)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want http://localhost:8080", cfg.BaseURL)
	}
	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want 86400", cfg.SessionMaxAge)
	}
	if cfg.DiscoveryTimeout != 10*time.Second {
		t.Errorf("DiscoveryTimeout = %v, want 10s", cfg.DiscoveryTimeout)
	}
	if cfg.RateLimitLogin != 10 {
		t.Errorf("RateLimitLogin = %d, want 10", cfg.RateLimitLogin)
	}
	if cfg.CookieSecure {
		t.Error("expected CookieSecure false for http BASE_URL")
	}
}

// 環境変数が優先されることを検証
func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/dinner")
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("BASE_URL", "https://dinner.example.com/")
	t.Setenv("SESSION_MAX_AGE", "3600")
	t.Setenv("DISCOVERY_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://localhost:5432/dinner" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.ServerPort != "3000" {
		t.Errorf("ServerPort = %q, want 3000", cfg.ServerPort)
	}
	// 末尾スラッシュは取り除かれる
	if cfg.BaseURL != "https://dinner.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.SessionMaxAge != 3600 {
		t.Errorf("SessionMaxAge = %d, want 3600", cfg.SessionMaxAge)
	}
	if cfg.DiscoveryTimeout != 5*time.Second {
		t.Errorf("DiscoveryTimeout = %v, want 5s", cfg.DiscoveryTimeout)
	}
	if !cfg.CookieSecure {
		t.Error("expected CookieSecure true for https BASE_URL")
	}
}

// スキームのないBASE_URLが拒否されることを検証
func TestLoad_InvalidBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "dinner.example.com")

	if _, err := Load(); err == nil {
		t.Error("expected error for BASE_URL without scheme")
	}
}

// 不正な数値・期間はデフォルトに落ちることを検証
func TestLoad_MalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_MAX_AGE", "not-a-number")
	t.Setenv("DISCOVERY_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SessionMaxAge != 86400 {
		t.Errorf("SessionMaxAge = %d, want default 86400", cfg.SessionMaxAge)
	}
	if cfg.DiscoveryTimeout != 10*time.Second {
		t.Errorf("DiscoveryTimeout = %v, want default 10s", cfg.DiscoveryTimeout)
	}
}
