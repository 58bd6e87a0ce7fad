// Package chat turns validated caller prompts into a single upstream chat call.
package chat

import (
	"context"
	"log/slog"

	"promptrelay/internal/apperr"
	"promptrelay/internal/config"
	"promptrelay/internal/models"
	"promptrelay/internal/provider"
)

const previewRunes = 80

// Endpoint describes the per-route behaviour of a public endpoint.
type Endpoint struct {
	// Name is the path segment under /api.
	Name string
	// Provider is the registry name of the upstream provider.
	Provider string
	// RequireSystem rejects prompt pairs with a blank system prompt.
	RequireSystem bool
	// StripNewlines removes every "\n" from the answer.
	StripNewlines bool
	// IncludeModel echoes the upstream model name in the response.
	IncludeModel bool
}

var (
	OpenAI = Endpoint{
		Name:          "openai",
		Provider:      "openai",
		RequireSystem: true,
		IncludeModel:  true,
	}
	Gemini = Endpoint{
		Name:          "gemini",
		Provider:      "gemini",
		StripNewlines: true,
	}
)

// Endpoints returns the public endpoints in route order.
func Endpoints() []Endpoint {
	return []Endpoint{OpenAI, Gemini}
}

// Answer is the upstream result for one request.
type Answer struct {
	Text  string
	Model string
}

// Service orchestrates validation, credential resolution and the upstream call.
type Service struct {
	registry *provider.Registry
}

// NewService constructs a service backed by the provided registry.
func NewService(registry *provider.Registry) *Service {
	return &Service{registry: registry}
}

// CreateAnswer validates prompts and forwards them to the endpoint's provider.
// Every returned error is an *apperr.Error.
func (s *Service) CreateAnswer(ctx context.Context, rt config.Runtime, ep Endpoint, prompts models.Prompts) (Answer, error) {
	if issues := prompts.Validate(ep.RequireSystem); len(issues) > 0 {
		return Answer{}, apperr.ValidationIssues(issues)
	}
	normalized := prompts.Normalize()

	impl, err := s.registry.Lookup(ep.Provider)
	if err != nil {
		return Answer{}, apperr.Internal(err.Error(), err)
	}

	creds, err := credentials(rt, ep.Provider)
	if err != nil {
		return Answer{}, err
	}

	req := models.ChatRequest{
		Model:       creds.Model,
		Messages:    buildMessages(impl.Capabilities(), normalized),
		Temperature: rt.Providers[ep.Provider].Temperature,
	}

	if rt.PromptPreview {
		logPreview(ctx, ep, normalized)
	}

	resp, err := impl.Chat(ctx, creds, req)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return Answer{}, err
		}
		slog.WarnContext(ctx, "upstream request failed", "provider", impl.Name(), "model", creds.Model, "error", err)
		return Answer{}, apperr.External(err.Error(), err)
	}

	return Answer{Text: resp.Text, Model: creds.Model}, nil
}

// credentials resolves the provider settings for one request. The order of
// the checks decides which error a caller sees when several values are absent.
func credentials(rt config.Runtime, providerName string) (models.Credentials, error) {
	settings, ok := rt.Providers[providerName]
	if !ok {
		return models.Credentials{}, apperr.Internal("no settings for provider "+providerName, nil)
	}

	switch {
	case settings.APIKey == "":
		return models.Credentials{}, apperr.Internal("Missing "+settings.APIKeyEnv, nil)
	case settings.BaseURL == "":
		return models.Credentials{}, apperr.Internal("Missing "+settings.BaseURLEnv, nil)
	case settings.Model == "":
		return models.Credentials{}, apperr.Validation(settings.ModelEnv + " env var not set")
	}

	return models.Credentials{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Headers: settings.Headers,
	}, nil
}

func buildMessages(caps provider.Capabilities, prompt models.PromptRequest) []models.Message {
	if !caps.StructuredRoles {
		return []models.Message{{
			Role:    models.RoleUser,
			Content: models.CombinePrompt(prompt.System, prompt.User),
		}}
	}

	messages := make([]models.Message, 0, 2)
	if prompt.System != "" {
		messages = append(messages, models.Message{Role: models.RoleSystem, Content: prompt.System})
	}
	return append(messages, models.Message{Role: models.RoleUser, Content: prompt.User})
}

func logPreview(ctx context.Context, ep Endpoint, prompt models.PromptRequest) {
	slog.InfoContext(ctx, "prompt preview",
		"endpoint", ep.Name,
		"system_len", len(prompt.System),
		"user_len", len(prompt.User),
		"system", preview(prompt.System),
		"user", preview(prompt.User),
	)
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes])
}

