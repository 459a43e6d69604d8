package config

import (
    "errors"
    "fmt"
    "io/fs"
    "os"
    "strconv"
    "time"

    "gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "configs/app.yaml"

type ServerConfig struct {
    Host            string `yaml:"host"`
    Port            int    `yaml:"port"`
    ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
    WriteTimeoutSec int    `yaml:"write_timeout_sec"`
    TLSCertFile     string `yaml:"tls_cert_file"`
    TLSKeyFile      string `yaml:"tls_key_file"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// TLSEnabled reports whether the server should terminate TLS itself.
func (s ServerConfig) TLSEnabled() bool { return s.TLSCertFile != "" && s.TLSKeyFile != "" }

type DatabaseConfig struct {
    Driver   string `yaml:"driver"`
    Database string `yaml:"database"`
}

type GatewayConfig struct {
    // BaseURL is the public origin used in profile URLs and discovery.
    BaseURL      string `yaml:"base_url"`
    Endpoint     string `yaml:"endpoint"`
    DemoUsername string `yaml:"demo_username"`
    MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

type RedisConfig struct {
    Addr     string `yaml:"addr"`
    Password string `yaml:"password"`
    DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
    // Backend is "memory" or "redis".
    Backend   string      `yaml:"backend"`
    WindowSec int         `yaml:"window_sec"`
    Redis     RedisConfig `yaml:"redis"`
}

// Window is the quota period.
func (r RateLimitConfig) Window() time.Duration { return time.Duration(r.WindowSec) * time.Second }

type LoggingConfig struct {
    Level string `yaml:"level"`
}

type ApplicationConfig struct {
    Name    string `yaml:"name"`
    Version string `yaml:"version"`
}

type Config struct {
    Server      ServerConfig      `yaml:"server"`
    Database    DatabaseConfig    `yaml:"database"`
    Gateway     GatewayConfig     `yaml:"gateway"`
    RateLimit   RateLimitConfig   `yaml:"rate_limit"`
    Logging     LoggingConfig     `yaml:"logging"`
    Application ApplicationConfig `yaml:"application"`
}

// Default returns a config populated with sensible defaults
func Default() *Config {
    return &Config{
        Server: ServerConfig{
            Host:            "0.0.0.0",
            Port:            8080,
            ReadTimeoutSec:  15,
            WriteTimeoutSec: 30,
        },
        Database: DatabaseConfig{
            Driver:   "sqlite",
            Database: "data/linkhub.db",
        },
        Gateway: GatewayConfig{
            BaseURL:      "http://localhost:8080",
            Endpoint:     "mcp",
            DemoUsername: "demo",
            MaxBodyBytes: 1 << 20,
        },
        RateLimit: RateLimitConfig{
            Backend:   "memory",
            WindowSec: 60,
            Redis:     RedisConfig{Addr: "localhost:6379"},
        },
        Logging: LoggingConfig{Level: "INFO"},
        Application: ApplicationConfig{
            Name:    "linkhub-gateway",
            Version: "v1.0.0",
        },
    }
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
    cfg := Default()
    if path == "" { path = DefaultPath }

    b, err := os.ReadFile(path)
    switch {
    case err == nil:
        if err := yaml.Unmarshal(b, cfg); err != nil {
            return nil, fmt.Errorf("parse %s: %w", path, err)
        }
    case errorsIsNotExist(err):
    default:
        return nil, fmt.Errorf("read %s: %w", path, err)
    }

    applyEnv(cfg)
    if err := cfg.Validate(); err != nil { return nil, err }
    return cfg, nil
}

// Environment overrides (non-fatal)
func applyEnv(cfg *Config) {
    if v := os.Getenv("SERVER_HOST"); v != "" {
        cfg.Server.Host = v
    }
    if v := os.Getenv("SERVER_PORT"); v != "" {
        if p, err := strconv.Atoi(v); err == nil { cfg.Server.Port = p }
    }
    if v := os.Getenv("DB_PATH"); v != "" {
        cfg.Database.Database = v
    }
    if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
        cfg.Gateway.BaseURL = v
    }
    if v := os.Getenv("RATE_LIMIT_BACKEND"); v != "" {
        cfg.RateLimit.Backend = v
    }
    if v := os.Getenv("REDIS_ADDR"); v != "" {
        cfg.RateLimit.Redis.Addr = v
    }
    if v := os.Getenv("RATE_LIMIT_WINDOW_SEC"); v != "" {
        if n, err := strconv.Atoi(v); err == nil { cfg.RateLimit.WindowSec = n }
    }
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
    if c.Server.Port <= 0 || c.Server.Port > 65535 {
        return fmt.Errorf("server.port out of range: %d", c.Server.Port)
    }
    if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
        return errors.New("server.tls_cert_file and server.tls_key_file must be set together")
    }
    if c.Database.Database == "" {
        return errors.New("database.database is required")
    }
    switch c.RateLimit.Backend {
    case "memory", "redis":
    default:
        return fmt.Errorf("rate_limit.backend must be memory or redis, got %q", c.RateLimit.Backend)
    }
    if c.RateLimit.WindowSec <= 0 {
        return fmt.Errorf("rate_limit.window_sec must be positive, got %d", c.RateLimit.WindowSec)
    }
    if c.Gateway.MaxBodyBytes <= 0 {
        return fmt.Errorf("gateway.max_body_bytes must be positive, got %d", c.Gateway.MaxBodyBytes)
    }
    if c.Gateway.Endpoint == "" {
        return errors.New("gateway.endpoint is required")
    }
    return nil
}

// helpers
func errorsIsNotExist(err error) bool {
    if err == nil { return false }
    if errors.Is(err, fs.ErrNotExist) { return true }
    return os.IsNotExist(err)
}
