package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable names recognised at request time.
const (
	EnvGateKey       = "X_API_KEY"
	EnvPort          = "PORT"
	EnvPromptPreview = "DEBUG_OPENAI_RAW"

	EnvOpenAIKey         = "OPENAI_KEY"
	EnvOpenAIKeyFallback = "OPENAI_API_KEY"
	EnvOpenAIBaseURL     = "OPENAI_BASE_URL"
	EnvOpenAIModel       = "OPENAI_MODEL"

	EnvGeminiKey         = "GEMINI_API_KEY"
	EnvGeminiKeyFallback = "GOOGLE_API_KEY"
	EnvGeminiBaseURL     = "GEMINI_BASE_URL"
	EnvGeminiModel       = "GEMINI_MODEL"
)

// Config keys bound to the environment. The first env name that is set and
// non-empty wins.
var envBindings = map[string][]string{
	"server.api_key":     {EnvGateKey},
	"server.port":        {EnvPort},
	"log.prompt_preview": {EnvPromptPreview},

	"providers.openai.api_key":  {EnvOpenAIKey, EnvOpenAIKeyFallback},
	"providers.openai.base_url": {EnvOpenAIBaseURL},
	"providers.openai.model":    {EnvOpenAIModel},

	"providers.gemini.api_key":  {EnvGeminiKey, EnvGeminiKeyFallback},
	"providers.gemini.base_url": {EnvGeminiBaseURL},
	"providers.gemini.model":    {EnvGeminiModel},
}

// Runtime is the configuration snapshot used to serve one request.
type Runtime struct {
	// GateKey is the expected x-api-key value. Empty disables the gate, which
	// includes an X_API_KEY that is set but blank or whitespace.
	GateKey       string
	PromptPreview bool
	Providers     map[string]ProviderSettings
}

// ProviderSettings are the resolved values for one provider, plus the names
// of the environment variables they come from for error reporting.
type ProviderSettings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	Headers     map[string]string

	APIKeyEnv  string
	BaseURLEnv string
	ModelEnv   string
}

// Resolver combines the file configuration with the process environment.
// The environment is consulted on every Resolve call.
type Resolver struct {
	store *Store
	env   *viper.Viper
}

// NewResolver returns a resolver reading file values from store.
func NewResolver(store *Store) *Resolver {
	v := viper.New()
	for key, envNames := range envBindings {
		// BindEnv only fails without arguments.
		_ = v.BindEnv(append([]string{key}, envNames...)...)
	}
	return &Resolver{store: store, env: v}
}

// Resolve builds the runtime configuration for one request.
func (r *Resolver) Resolve() Runtime {
	cfg := r.store.Load()

	return Runtime{
		GateKey:       r.stringOr("server.api_key", cfg.Server.APIKey),
		PromptPreview: cfg.Log.PromptPreview || r.env.GetBool("log.prompt_preview"),
		Providers: map[string]ProviderSettings{
			"openai": r.provider("openai", cfg.Providers.OpenAI, EnvOpenAIKey, EnvOpenAIBaseURL, EnvOpenAIModel),
			"gemini": r.provider("gemini", cfg.Providers.Gemini, EnvGeminiKey, EnvGeminiBaseURL, EnvGeminiModel),
		},
	}
}

// ListenPort returns the port from PORT, falling back to the file. A PORT
// that is set but not a valid TCP port is an error.
func (r *Resolver) ListenPort() (int, error) {
	raw := strings.TrimSpace(r.env.GetString("server.port"))
	if raw == "" {
		return r.store.Load().Server.Port, nil
	}

	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%s=%q must be a valid TCP port", EnvPort, raw)
	}
	return port, nil
}

func (r *Resolver) provider(name string, pc ProviderConfig, keyEnv, baseEnv, modelEnv string) ProviderSettings {
	prefix := "providers." + name + "."
	return ProviderSettings{
		APIKey:      r.stringOr(prefix+"api_key", pc.APIKey),
		BaseURL:     r.stringOr(prefix+"base_url", pc.BaseURL),
		Model:       r.stringOr(prefix+"model", pc.Model),
		Temperature: pc.Temperature,
		Headers:     pc.Headers,
		APIKeyEnv:   keyEnv,
		BaseURLEnv:  baseEnv,
		ModelEnv:    modelEnv,
	}
}

func (r *Resolver) stringOr(key, fallback string) string {
	if v := strings.TrimSpace(r.env.GetString(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}
