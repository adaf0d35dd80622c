package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

// Path matching modes for exempt routes.
const (
	MatchExact  = "exact"
	MatchPrefix = "prefix"
)

type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	Environment     string        `yaml:"environment" env:"APP_ENV"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Name     string `yaml:"name" env:"DB_NAME"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
}

// DSN returns URL when set, otherwise a lib/pq key/value connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	parts := []string{
		fmt.Sprintf("host=%s", d.Host),
		fmt.Sprintf("port=%d", d.Port),
		fmt.Sprintf("user=%s", d.User),
		fmt.Sprintf("dbname=%s", d.Name),
		fmt.Sprintf("sslmode=%s", d.SSLMode),
	}
	if d.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", d.Password))
	}
	return strings.Join(parts, " ")
}

// ExemptPath is one entry of the unauthenticated route list.
type ExemptPath struct {
	Path  string `yaml:"path"`
	Match string `yaml:"match"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
	TokenHeader    string        `yaml:"token_header" env:"TOKEN_HEADER"`
	IdentityHeader string        `yaml:"identity_header" env:"IDENTITY_HEADER"`
	ExemptPaths    []ExemptPath  `yaml:"exempt_paths"`
}

type NexmoConfig struct {
	BaseURL   string        `yaml:"base_url" env:"NEXMO_BASE_URL"`
	APIKey    string        `yaml:"api_key" env:"NEXMO_KEY"`
	APISecret string        `yaml:"api_secret" env:"NEXMO_SECRET"`
	Brand     string        `yaml:"brand" env:"NEXMO_BRAND"`
	Timeout   time.Duration `yaml:"timeout" env:"NEXMO_TIMEOUT"`
	DryRun    bool          `yaml:"dry_run" env:"NEXMO_DRY_RUN"`
}

// AdminConfig guards the token ban endpoint. An empty hash disables it.
type AdminConfig struct {
	PassCodeHash string `yaml:"pass_code_hash" env:"ADMIN_PASS_CODE_HASH"`
}

type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
	Key string `yaml:"key" env:"REDIS_BANNED_KEY"`
}

type NATSConfig struct {
	URL           string `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Nexmo    NexmoConfig    `yaml:"nexmo"`
	Admin    AdminConfig    `yaml:"admin"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the configuration used before the file and the environment are applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Environment:     "development",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Name:     "postgres",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Auth: AuthConfig{
			TokenTTL:       365 * 24 * time.Hour,
			TokenHeader:    "t",
			IdentityHeader: "userID",
			ExemptPaths: []ExemptPath{
				{Path: "/v1/auth", Match: MatchPrefix},
				{Path: "/", Match: MatchExact},
				{Path: "/v1/", Match: MatchExact},
				{Path: "/healthz", Match: MatchExact},
				{Path: "/swagger", Match: MatchPrefix},
			},
		},
		Nexmo: NexmoConfig{
			BaseURL: "https://api.nexmo.com",
			Brand:   "Athlete CF",
			Timeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Key: "auth:banned_tokens",
		},
		NATS: NATSConfig{
			SubjectPrefix: "auth",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path (a missing file is not an error), then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing required value at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	}
	if strings.TrimSpace(c.Nexmo.APIKey) == "" {
		errs = append(errs, errors.New("nexmo.api_key (NEXMO_KEY) is required"))
	}
	if strings.TrimSpace(c.Nexmo.APISecret) == "" {
		errs = append(errs, errors.New("nexmo.api_secret (NEXMO_SECRET) is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if strings.TrimSpace(c.Auth.TokenHeader) == "" {
		errs = append(errs, errors.New("auth.token_header is required"))
	}
	for i, p := range c.Auth.ExemptPaths {
		if p.Path == "" {
			errs = append(errs, fmt.Errorf("auth.exempt_paths[%d]: path is required", i))
		}
		if p.Match != MatchExact && p.Match != MatchPrefix {
			errs = append(errs, fmt.Errorf("auth.exempt_paths[%d]: unknown match %q", i, p.Match))
		}
	}
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Port == 0) {
		errs = append(errs, errors.New("database host and port are required"))
	}
	return errors.Join(errs...)
}
