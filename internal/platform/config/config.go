// Package config carga la configuración de api y console.
//
// Orden: defaults, luego archivo YAML (RENT_CONSOLE_CONFIG o --config),
// luego variables de entorno. Los flags de cada cmd pisan al final.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvConfigPath = "RENT_CONSOLE_CONFIG"

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Console ConsoleConfig `yaml:"console"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	App    string `yaml:"app"`
}

type ServerConfig struct {
	Port string `yaml:"port"`

	// Vacío => repos in-memory.
	DBDSN string `yaml:"db_dsn"`

	AuthSecret string        `yaml:"auth_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`

	// Vacío => denylist in-memory.
	RedisAddr string `yaml:"redis_addr"`

	// URL pública del console; destino del redirect OAuth.
	ConsoleURL string `yaml:"console_url"`
	// URL pública de esta API; base del callback OAuth.
	PublicURL string `yaml:"public_url"`

	Google GoogleConfig `yaml:"google"`

	AuthRatePerSecond float64 `yaml:"auth_rate_per_second"`
	AuthRateBurst     int     `yaml:"auth_rate_burst"`

	// Confiar en X-Forwarded-For / X-Real-IP (solo detrás de un proxy).
	TrustProxy bool `yaml:"trust_proxy"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

func (g GoogleConfig) Enabled() bool {
	return strings.TrimSpace(g.ClientID) != "" && strings.TrimSpace(g.ClientSecret) != ""
}

type ConsoleConfig struct {
	APIBaseURL string        `yaml:"api_base_url"`
	StatePath  string        `yaml:"state_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Port:              "8080",
			TokenTTL:          24 * time.Hour,
			ConsoleURL:        "http://localhost:5173",
			PublicURL:         "http://localhost:8080",
			AuthRatePerSecond: 5,
			AuthRateBurst:     10,
		},
		Console: ConsoleConfig{
			APIBaseURL: "http://localhost:8080",
			StatePath:  defaultStatePath(),
			Timeout:    15 * time.Second,
		},
	}
}

// Load arma la config. path vacío => usa RENT_CONSOLE_CONFIG si está.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if strings.TrimSpace(path) != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Log.App, "APP_NAME")

	setString(&c.Server.Port, "PORT")
	setString(&c.Server.DBDSN, "DB_DSN")
	setString(&c.Server.AuthSecret, "AUTH_SECRET")
	setString(&c.Server.RedisAddr, "REDIS_ADDR")
	setString(&c.Server.ConsoleURL, "CONSOLE_URL")
	setString(&c.Server.PublicURL, "PUBLIC_URL")
	setString(&c.Server.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Server.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")

	setString(&c.Console.APIBaseURL, "API_BASE_URL")
	setString(&c.Console.StatePath, "CONSOLE_STATE_PATH")

	if err := setDuration(&c.Server.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.Console.Timeout, "API_TIMEOUT"); err != nil {
		return err
	}

	if v := strings.TrimSpace(os.Getenv("AUTH_RATE_PER_SECOND")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_PER_SECOND: %w", err)
		}
		c.Server.AuthRatePerSecond = f
	}
	if v := strings.TrimSpace(os.Getenv("AUTH_RATE_BURST")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_BURST: %w", err)
		}
		c.Server.AuthRateBurst = n
	}
	if v := strings.TrimSpace(os.Getenv("TRUST_PROXY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRUST_PROXY: %w", err)
		}
		c.Server.TrustProxy = b
	}
	return nil
}

// ValidateServer chequea lo mínimo para levantar la API.
func (c Config) ValidateServer() error {
	if strings.TrimSpace(c.Server.AuthSecret) == "" {
		return errors.New("auth secret is not configured (AUTH_SECRET)")
	}
	if c.Server.TokenTTL <= 0 {
		return errors.New("token ttl must be greater than zero")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", "rent-console-state.yaml")
	}
	return filepath.Join(dir, "rent-console", "state.yaml")
}
