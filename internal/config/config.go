// Package config loads runtime configuration from an optional TOML file
// layered over built-in defaults. Secrets (API keys, salts) come from the
// environment, never from the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	HTTP   HTTPConfig   `koanf:"http"`
	Scylla ScyllaConfig `koanf:"scylla"`
	Redis  RedisConfig  `koanf:"redis"`
	Gemini GeminiConfig `koanf:"gemini"`
	Limits LimitsConfig `koanf:"limits"`
	Call   CallConfig   `koanf:"call"`
}

type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type ScyllaConfig struct {
	// Enabled false runs the API on the seeded in-memory registry,
	// useful for demos and local development.
	Enabled  bool     `koanf:"enabled"`
	Hosts    []string `koanf:"hosts"`
	Keyspace string   `koanf:"keyspace"`
}

type RedisConfig struct {
	Enabled bool   `koanf:"enabled"`
	Address string `koanf:"address"`
}

type GeminiConfig struct {
	Model          string        `koanf:"model"`
	MessageTimeout time.Duration `koanf:"message_timeout"`
	MediaTimeout   time.Duration `koanf:"media_timeout"`
}

// LimitsConfig holds the free-tier daily quotas.
type LimitsConfig struct {
	DeepfakeScans int `koanf:"deepfake_scans"`
	MessageScans  int `koanf:"message_scans"`
	CallLookups   int `koanf:"call_lookups"`
}

// CallConfig holds the call-session timings.
type CallConfig struct {
	AutoHangupDelay time.Duration `koanf:"auto_hangup_delay"`
	DismissDelay    time.Duration `koanf:"dismiss_delay"`
	AutoEndedLinger time.Duration `koanf:"auto_ended_linger"`
}

// Default returns the stock configuration used when no file overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Scylla: ScyllaConfig{
			Enabled:  false,
			Hosts:    []string{"127.0.0.1:9042"},
			Keyspace: "callguard",
		},
		Redis: RedisConfig{
			Enabled: false,
			Address: "127.0.0.1:6379",
		},
		Gemini: GeminiConfig{
			Model:          "gemini-2.5-flash",
			MessageTimeout: 8 * time.Second,
			MediaTimeout:   60 * time.Second,
		},
		Limits: LimitsConfig{
			DeepfakeScans: 3,
			MessageScans:  2,
			CallLookups:   5,
		},
		Call: CallConfig{
			AutoHangupDelay: 3 * time.Second,
			DismissDelay:    1 * time.Second,
			AutoEndedLinger: 2 * time.Second,
		},
	}
}

// Load merges the TOML file at path over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Secrets are operator credentials pulled from the environment.
type Secrets struct {
	GeminiAPIKey string
	APIKey       string
	ReportSalt   string
}

// SecretsFromEnv reads secrets from the process environment. Call after
// godotenv has populated it.
func SecretsFromEnv() Secrets {
	salt := os.Getenv("REPORT_SALT_SECRET")
	if salt == "" {
		salt = "dev-insecure-salt"
	}
	return Secrets{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		APIKey:       os.Getenv("API_KEY"),
		ReportSalt:   salt,
	}
}
