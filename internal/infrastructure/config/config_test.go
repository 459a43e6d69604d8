package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.RateLimit.Backend != "memory" || cfg.RateLimit.Window() != time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Gateway.DemoUsername != "demo" || cfg.Gateway.MaxBodyBytes != 1<<20 {
		t.Errorf("unexpected gateway defaults: %+v", cfg.Gateway)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	yaml := `
server:
  port: 9000
gateway:
  base_url: https://file.example
rate_limit:
  backend: redis
  redis:
    addr: redis:6379
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PUBLIC_BASE_URL", "https://env.example")
	t.Setenv("RATE_LIMIT_WINDOW_SEC", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Gateway.BaseURL != "https://env.example" {
		t.Errorf("env should win over file, got %q", cfg.Gateway.BaseURL)
	}
	if cfg.RateLimit.Backend != "redis" || cfg.RateLimit.Redis.Addr != "redis:6379" || cfg.RateLimit.Window() != 30*time.Second {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected YAML parse error")
	}

	t.Setenv("RATE_LIMIT_BACKEND", "memcached")
	if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("expected unknown backend to be rejected")
	}
}

func TestValidate_TLSPair(t *testing.T) {
	cfg := Default()
	if cfg.Server.TLSEnabled() {
		t.Fatal("TLS must be off by default")
	}
	cfg.Server.TLSCertFile = "certs/server.crt"
	if err := cfg.Validate(); err == nil {
		t.Error("expected a lone cert file to be rejected")
	}
	cfg.Server.TLSKeyFile = "certs/server.key"
	if err := cfg.Validate(); err != nil || !cfg.Server.TLSEnabled() {
		t.Errorf("cert+key should enable TLS, err=%v", err)
	}
}
