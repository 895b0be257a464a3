package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

type Config struct {
	DatabaseURL  string `env:"DATABASE_URL" envDefault:"journal.db"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	HTTPPort     string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"INFO"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	CompletionProvider string        `env:"COMPLETION_PROVIDER" envDefault:"deepseek"`
	CompletionTimeout  time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`
	DeepSeekAPIKey     string        `env:"DEEPSEEK_API_KEY"`
	DeepSeekBaseURL    string        `env:"DEEPSEEK_BASE_URL" envDefault:"https://api.deepseek.com"`
	DeepSeekModel      string        `env:"DEEPSEEK_MODEL" envDefault:"deepseek-chat"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash-latest"`

	// Chat persistence waits this long after the last change before writing.
	PersistDebounce time.Duration `env:"CHAT_PERSIST_DEBOUNCE" envDefault:"2s"`
	ContextEntries  int           `env:"CHAT_CONTEXT_ENTRIES" envDefault:"20"`
	// In-memory conversations unused for this long are written and dropped.
	ChatIdleTimeout time.Duration `env:"CHAT_IDLE_TIMEOUT" envDefault:"30m"`

	// IANA zone used to decide which calendar day an entry belongs to.
	Timezone string `env:"JOURNAL_TIMEZONE" envDefault:"Local"`
}

var AppConfig Config

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig populates AppConfig and exits the process when the environment is unusable.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	AppConfig = *cfg
}

// Validate checks the settings the API server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	switch c.StoreBackend {
	case BackendSQLite, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_BACKEND %q (supported: sqlite, postgres)", c.StoreBackend))
	}
	switch c.CompletionProvider {
	case ProviderDeepSeek:
		if c.DeepSeekAPIKey == "" {
			errs = append(errs, errors.New("DEEPSEEK_API_KEY environment variable is required"))
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY environment variable is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported COMPLETION_PROVIDER %q (supported: deepseek, gemini)", c.CompletionProvider))
	}
	if c.ContextEntries < 0 {
		errs = append(errs, errors.New("CHAT_CONTEXT_ENTRIES must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid JOURNAL_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
