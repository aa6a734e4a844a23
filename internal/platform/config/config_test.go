package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	content := []byte(`
server:
  port: "9090"
  auth_secret: from-file
  token_ttl: 2h
console:
  api_base_url: http://api.local
  timeout: 5s
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("AUTH_SECRET", "from-env")
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Server.AuthSecret != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.Server.AuthSecret)
	}
	if cfg.Server.TokenTTL != 2*time.Hour || cfg.Console.Timeout != 5*time.Second {
		t.Fatalf("durations not parsed: %v %v", cfg.Server.TokenTTL, cfg.Console.Timeout)
	}
	if cfg.Console.APIBaseURL != "http://api.local" {
		t.Fatalf("unexpected api base url %q", cfg.Console.APIBaseURL)
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("ValidateServer: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Console.Timeout != 15*time.Second {
		t.Fatalf("expected default 15s timeout, got %v", cfg.Console.Timeout)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Fatalf("expected missing secret error")
	}
	if cfg.Server.Google.Enabled() {
		t.Fatalf("google should be disabled by default")
	}
}

func TestLoad_BadDurationEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("TOKEN_TTL", "forever")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for bad TOKEN_TTL")
	}
}

func TestLoad_TrustProxyEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.TrustProxy {
		t.Fatalf("proxy headers must not be trusted by default")
	}

	t.Setenv("TRUST_PROXY", "true")
	if cfg, err = Load(""); err != nil || !cfg.Server.TrustProxy {
		t.Fatalf("expected TrustProxy from env, got %v %v", cfg.Server.TrustProxy, err)
	}

	t.Setenv("TRUST_PROXY", "sometimes")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for bad TRUST_PROXY")
	}
}
