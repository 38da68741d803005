// Package config loads the API configuration from the environment, an
// optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // timezone lookups must not depend on the host

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds every setting the API reads at startup.
type Config struct {
	HTTPAddr    string `yaml:"http_addr" validate:"required"`
	DSNPrimary  string `yaml:"-" validate:"required"`
	DSNReadOnly string `yaml:"-"`

	JWTSecret string        `yaml:"-" validate:"required,min=32"`
	TokenTTL  time.Duration `yaml:"token_ttl" validate:"gt=0"`

	CORSOrigin string `yaml:"cors_origin"`

	AllowOverdraft bool   `yaml:"allow_overdraft"`
	Timezone       string `yaml:"timezone" validate:"required"`
	Currency       string `yaml:"currency" validate:"required,len=3"`

	DefaultPageSize int `yaml:"default_page_size" validate:"gt=0,ltefield=MaxPageSize"`
	MaxPageSize     int `yaml:"max_page_size" validate:"gt=0"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps" validate:"gt=0"`
	RateLimitBurst int     `yaml:"rate_limit_burst" validate:"gt=0"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	GeminiAPIKey string `yaml:"-"`
	GeminiModel  string `yaml:"gemini_model"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		TokenTTL:        72 * time.Hour,
		CORSOrigin:      "http://localhost:5173",
		AllowOverdraft:  true,
		Timezone:        "UTC",
		Currency:        "XOF",
		DefaultPageSize: 20,
		MaxPageSize:     100,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
		LogLevel:        "info",
		GeminiModel:     "gemini-1.5-flash",
	}
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// AssistantEnabled reports whether both the Gemini key and the read-only DSN are set.
func (c Config) AssistantEnabled() bool {
	return c.GeminiAPIKey != "" && c.DSNReadOnly != ""
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables (after loading .env).
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("could not load .env file, relying on system environment variables")
	}

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and that the timezone exists.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("DB_DSN_PRIMARY", &cfg.DSNPrimary)
	str("DB_DSN_READONLY", &cfg.DSNReadOnly)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("CORS_ORIGIN", &cfg.CORSOrigin)
	str("TIMEZONE", &cfg.Timezone)
	str("CURRENCY", &cfg.Currency)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("GEMINI_API_KEY", &cfg.GeminiAPIKey)
	str("GEMINI_MODEL", &cfg.GeminiModel)

	var errs []error
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		errs = append(errs, wrapEnv("TOKEN_TTL", err))
		cfg.TokenTTL = d
	}
	if v := os.Getenv("ALLOW_OVERDRAFT"); v != "" {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrapEnv("ALLOW_OVERDRAFT", err))
		cfg.AllowOverdraft = b
	}
	if v := os.Getenv("DEFAULT_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapEnv("DEFAULT_PAGE_SIZE", err))
		cfg.DefaultPageSize = n
	}
	if v := os.Getenv("MAX_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapEnv("MAX_PAGE_SIZE", err))
		cfg.MaxPageSize = n
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, wrapEnv("RATE_LIMIT_RPS", err))
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapEnv("RATE_LIMIT_BURST", err))
		cfg.RateLimitBurst = n
	}
	return errors.Join(errs...)
}

func wrapEnv(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("config: %s: %w", key, err)
}
