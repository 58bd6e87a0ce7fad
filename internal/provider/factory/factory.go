package factory

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"promptrelay/internal/config"
	"promptrelay/internal/provider"
	geminiProvider "promptrelay/internal/provider/gemini"
	openaiProvider "promptrelay/internal/provider/openai"
)

const (
	defaultHTTPTimeout     = 60 * time.Second
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// RegisterConfiguredProviders constructs the upstream providers and stores them in the registry.
// Credentials are not needed here; they are resolved for every request.
func RegisterConfiguredProviders(cfg config.Config, registry *provider.Registry) error {
	if registry == nil {
		return errors.New("registry must not be nil")
	}

	openAI, err := openaiProvider.New("openai", newHTTPClient(cfg.Providers.OpenAI.Timeout))
	if err != nil {
		return fmt.Errorf("initialise openai provider: %w", err)
	}
	if err := registry.Register(openAI); err != nil {
		return fmt.Errorf("register openai provider: %w", err)
	}

	gemini, err := geminiProvider.New("gemini", newHTTPClient(cfg.Providers.Gemini.Timeout))
	if err != nil {
		return fmt.Errorf("initialise gemini provider: %w", err)
	}
	if err := registry.Register(gemini); err != nil {
		return fmt.Errorf("register gemini provider: %w", err)
	}

	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
