package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort            = 8080
	defaultMaxBodyBytes    = 1 << 20 // 1 MiB
	defaultGeminiBaseURL   = "https://generativelanguage.googleapis.com"
	defaultUpstreamTimeout = 60 * time.Second
)

// Config represents the application configuration parsed from YAML.
// Provider credentials may be left empty here and supplied through the
// environment at request time.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
	// APIKey is the optional gate secret callers must send in x-api-key.
	APIKey       string `yaml:"api_key"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	PromptPreview bool   `yaml:"prompt_preview"`
}

// ProvidersConfig catalogues the upstream providers.
type ProvidersConfig struct {
	OpenAI ProviderConfig `yaml:"openai"`
	Gemini ProviderConfig `yaml:"gemini"`
}

// ProviderConfig captures authentication and routing info for a provider.
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature *float64      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Headers     Headers       `yaml:"headers"`
}

// Headers contains additional HTTP headers to send with a provider request.
type Headers map[string]string

// Default returns the configuration used when no file is given.
func Default() Config {
	zero := 0.0
	return Config{
		Server: ServerConfig{
			Port:         defaultPort,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				Temperature: &zero,
				Timeout:     defaultUpstreamTimeout,
			},
			Gemini: ProviderConfig{
				BaseURL: defaultGeminiBaseURL,
				Timeout: defaultUpstreamTimeout,
			},
		},
	}
}

// Load reads YAML configuration from disk over the defaults and validates the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative, got %d", c.Server.MaxBodyBytes)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn or error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", c.Log.Format)
	}

	providers := map[string]ProviderConfig{
		"openai": c.Providers.OpenAI,
		"gemini": c.Providers.Gemini,
	}
	for name, provider := range providers {
		if err := validateProvider(name, provider); err != nil {
			return err
		}
	}

	return nil
}

func validateProvider(name string, provider ProviderConfig) error {
	if base := strings.TrimSpace(provider.BaseURL); base != "" {
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("provider %s: base_url %q must be an absolute URL", name, provider.BaseURL)
		}
	}

	if t := provider.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("provider %s: temperature %v must be between 0 and 2", name, *t)
	}
	if provider.Timeout < 0 {
		return fmt.Errorf("provider %s: timeout must not be negative", name)
	}

	for headerKey := range provider.Headers {
		if !isCanonicalHTTPHeader(headerKey) {
			return fmt.Errorf("provider %s: header %q is not a valid canonical HTTP header", name, headerKey)
		}
	}

	return nil
}

func isCanonicalHTTPHeader(header string) bool {
	if header == "" {
		return false
	}

	for _, r := range header {
		if !(r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}
