// Package gemini adapts the Google Generative Language generateContent API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"promptrelay/internal/models"
	"promptrelay/internal/provider"
)

const apiKeyHeader = "x-goog-api-key"

// Provider implements the Provider interface for Gemini models.
type Provider struct {
	name   string
	client *http.Client
}

// New creates a new Gemini provider.
func New(name string, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("provider name must not be empty")
	}
	return &Provider{name: name, client: client}, nil
}

func (p *Provider) Name() string {
	return p.name
}

// Capabilities reports that callers should send one combined user turn.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{StructuredRoles: false}
}

func (p *Provider) Chat(ctx context.Context, creds models.Credentials, req models.ChatRequest) (*models.ChatResponse, error) {
	baseURL := strings.TrimRight(creds.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	model := strings.TrimPrefix(strings.TrimSpace(req.Model), "models/")
	if model == "" {
		return nil, errors.New("model must not be empty")
	}

	payload, err := buildPayload(req)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(creds.Headers)+1)
	for k, v := range creds.Headers {
		headers[k] = v
	}
	headers[apiKeyHeader] = creds.APIKey

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, url.PathEscape(model))

	var providerResp generateResponse
	if err := provider.PostJSON(ctx, p.client, p.name, endpoint, headers, payload, &providerResp); err != nil {
		return nil, err
	}

	return providerResp.toUnified()
}

type generatePayload struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

func buildPayload(req models.ChatRequest) (generatePayload, error) {
	var (
		payload generatePayload
		system  []part
	)

	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleSystem:
			system = append(system, part{Text: msg.Content})
		case models.RoleAssistant:
			payload.Contents = append(payload.Contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			payload.Contents = append(payload.Contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
	}

	if len(payload.Contents) == 0 {
		return generatePayload{}, errors.New("at least one user message is required")
	}
	if len(system) > 0 {
		payload.SystemInstruction = &content{Parts: system}
	}
	if req.Temperature != nil {
		payload.GenerationConfig = &generationConfig{Temperature: req.Temperature}
	}
	return payload, nil
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// toUnified concatenates the parts of the first candidate. A prompt blocked
// by safety filters is an error; any other empty result is an empty answer.
func (r generateResponse) toUnified() (*models.ChatResponse, error) {
	resp := &models.ChatResponse{}
	if r.UsageMetadata != nil {
		resp.Usage = models.Usage{
			PromptTokens:     r.UsageMetadata.PromptTokenCount,
			CompletionTokens: r.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      r.UsageMetadata.TotalTokenCount,
		}
	}

	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("prompt blocked: %s", r.PromptFeedback.BlockReason)
		}
		return resp, nil
	}

	first := r.Candidates[0]
	var b strings.Builder
	for _, p := range first.Content.Parts {
		b.WriteString(p.Text)
	}
	resp.Text = b.String()
	resp.FinishReason = first.FinishReason
	return resp, nil
}
