// Package config loads the resolvd service configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/resolvd/internal/core/policy"
)

// CurrentVersion is written into new config files.
const CurrentVersion = "1"

// Order lookup sources
const (
	OrdersFixtures = "fixtures"
	OrdersHTTP     = "http"
)

// Case sinks
const (
	CasesLocal  = "local"
	CasesRemote = "remote"
)

// Session lock backends
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config is the resolvd configuration file.
type Config struct {
	Version     string            `yaml:"version"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Orders      OrdersConfig      `yaml:"orders"`
	Cases       CasesConfig       `yaml:"cases"`
	Policy      policy.Document   `yaml:"policy"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	SessionLock SessionLockConfig `yaml:"session_lock"`
	Log         LogConfig         `yaml:"log"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// OrdersConfig selects the order lookup. Source "fixtures" reads a YAML
// catalogue; "http" calls the order system at URL.
type OrdersConfig struct {
	Source       string        `yaml:"source"`
	URL          string        `yaml:"url,omitempty"`
	APIKey       string        `yaml:"api_key,omitempty"`
	FixturesPath string        `yaml:"fixtures_path,omitempty"`
	Timeout      time.Duration `yaml:"timeout"`
}

// CasesConfig selects where finished negotiations are emitted. Sink "local"
// stores cases in this process; "remote" POSTs them to another resolvd hub.
type CasesConfig struct {
	Sink    string        `yaml:"sink"`
	URL     string        `yaml:"url,omitempty"`
	Token   string        `yaml:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type SessionLockConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr,omitempty"`
	RedisPassword string        `yaml:"redis_password,omitempty"`
	RedisDB       int           `yaml:"redis_db,omitempty"`
	TTL           time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

// Default returns a configuration that runs a self-contained instance:
// SQLite under ~/.resolvd, fixture orders, local case store, in-process locks.
func Default() *Config {
	dbPath := "resolvd.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".resolvd", "resolvd.db")
	}
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{Path: dbPath},
		Auth: AuthConfig{
			Issuer:   "resolvd",
			TokenTTL: 12 * time.Hour,
		},
		Orders: OrdersConfig{
			Source:  OrdersFixtures,
			Timeout: 5 * time.Second,
		},
		Cases: CasesConfig{
			Sink:    CasesLocal,
			Timeout: 5 * time.Second,
		},
		Policy: policy.DefaultDocument(),
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             20,
		},
		SessionLock: SessionLockConfig{
			Backend: LockMemory,
			TTL:     30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			ServiceName: "resolvd",
		},
	}
}

// DefaultPath returns ~/.resolvd/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".resolvd", "config.yaml"), nil
}

// LoadConfig reads the YAML file at path over the defaults and applies
// RESOLVD_* environment overrides. A missing file is not an error; the
// defaults are used.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating its directory.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("RESOLVD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("RESOLVD_DB"); v != "" {
		c.Database.Path = v
	}
	if v := getenv("RESOLVD_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("RESOLVD_ORDERS_URL"); v != "" {
		c.Orders.Source = OrdersHTTP
		c.Orders.URL = v
	}
	if v := getenv("RESOLVD_CASES_URL"); v != "" {
		c.Cases.Sink = CasesRemote
		c.Cases.URL = v
	}
	if v := getenv("RESOLVD_REDIS_ADDR"); v != "" {
		c.SessionLock.Backend = LockRedis
		c.SessionLock.RedisAddr = v
	}
	if v := getenv("RESOLVD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("RESOLVD_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
}

// Validate checks the settings that cannot be defaulted. The policy section
// is validated by CompilePolicy.
func (c *Config) Validate() error {
	var problems []string

	switch c.Orders.Source {
	case OrdersFixtures:
	case OrdersHTTP:
		if c.Orders.URL == "" {
			problems = append(problems, "orders.url is required when orders.source is http")
		}
	default:
		problems = append(problems, fmt.Sprintf("orders.source must be %q or %q, got %q", OrdersFixtures, OrdersHTTP, c.Orders.Source))
	}

	switch c.Cases.Sink {
	case CasesLocal:
	case CasesRemote:
		if c.Cases.URL == "" {
			problems = append(problems, "cases.url is required when cases.sink is remote")
		}
	default:
		problems = append(problems, fmt.Sprintf("cases.sink must be %q or %q, got %q", CasesLocal, CasesRemote, c.Cases.Sink))
	}

	switch c.SessionLock.Backend {
	case LockMemory:
	case LockRedis:
		if c.SessionLock.RedisAddr == "" {
			problems = append(problems, "session_lock.redis_addr is required when session_lock.backend is redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("session_lock.backend must be %q or %q, got %q", LockMemory, LockRedis, c.SessionLock.Backend))
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		problems = append(problems, "rate_limit.requests_per_second and rate_limit.burst must be positive")
	}
	if c.Database.Path == "" {
		problems = append(problems, "database.path is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// CompilePolicy builds the immutable policy from the policy section.
func (c *Config) CompilePolicy() (*policy.Policy, error) {
	p, err := policy.Compile(c.Policy)
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}
