package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"promptrelay/internal/models"
	"promptrelay/internal/provider"
)

// Provider implements the Provider interface for OpenAI-compatible chat
// completion APIs (OpenAI, GitHub Models, Azure-style gateways).
type Provider struct {
	name   string
	client *http.Client
}

// New creates a new OpenAI provider.
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

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{StructuredRoles: true}
}

func (p *Provider) Chat(ctx context.Context, creds models.Credentials, req models.ChatRequest) (*models.ChatResponse, error) {
	baseURL := strings.TrimRight(creds.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	payload, err := buildChatPayload(req)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(creds.Headers)+1)
	for k, v := range creds.Headers {
		headers[k] = v
	}
	headers["Authorization"] = "Bearer " + creds.APIKey

	var providerResp chatResponse
	if err := provider.PostJSON(ctx, p.client, p.name, baseURL+"/chat/completions", headers, payload, &providerResp); err != nil {
		return nil, err
	}

	if providerResp.Error != nil && providerResp.Error.Message != "" {
		return nil, &provider.APIError{
			Provider:   p.name,
			StatusCode: http.StatusOK,
			Type:       providerResp.Error.Type,
			Message:    providerResp.Error.Message,
		}
	}

	return providerResp.toUnified(), nil
}

type chatPayload struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildChatPayload(req models.ChatRequest) (chatPayload, error) {
	if strings.TrimSpace(req.Model) == "" {
		return chatPayload{}, errors.New("model must not be empty")
	}
	if len(req.Messages) == 0 {
		return chatPayload{}, errors.New("at least one message is required")
	}

	messages := make([]openAIMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openAIMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	return chatPayload{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	}, nil
}

type chatResponse struct {
	ID      string          `json:"id"`
	Choices []chatChoice    `json:"choices"`
	Usage   *usageBlock     `json:"usage,omitempty"`
	Error   *apiErrorObject `json:"error,omitempty"`
}

type chatChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type usageBlock struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiErrorObject struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// toUnified takes the first choice. A response without choices yields an
// empty answer rather than an error.
func (r chatResponse) toUnified() *models.ChatResponse {
	resp := &models.ChatResponse{}
	if r.Usage != nil {
		resp.Usage = models.Usage{
			PromptTokens:     r.Usage.PromptTokens,
			CompletionTokens: r.Usage.CompletionTokens,
			TotalTokens:      r.Usage.TotalTokens,
		}
	}
	if len(r.Choices) == 0 {
		return resp
	}

	choice := r.Choices[0]
	resp.Text = choice.Message.Content
	resp.FinishReason = choice.FinishReason
	return resp
}
