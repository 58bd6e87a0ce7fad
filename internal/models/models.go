package models

// Role identifies the author of a message sent upstream.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in the unified upstream schema.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest is the canonical representation of one upstream chat call.
type ChatRequest struct {
	Model    string
	Messages []Message
	// Temperature is omitted upstream when nil.
	Temperature *float64
}

// ChatResponse captures a provider response in the unified schema.
type ChatResponse struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Usage records token accounting information.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Credentials is the per-request bundle a provider needs to reach its API.
// It is built from configuration for each request and never cached.
type Credentials struct {
	APIKey  string
	BaseURL string
	Model   string
	Headers map[string]string
}
