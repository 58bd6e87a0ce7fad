package translator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"promptrelay/internal/chat"
	"promptrelay/internal/models"
)

var (
	errMissingPrompts  = errors.New(`missing field "prompts"`)
	errPromptsType     = errors.New(`field "prompts" must be an object or an array`)
	errTrailingPayload = errors.New("request body must contain a single JSON object")
)

type promptsEnvelope struct {
	Prompts json.RawMessage `json:"prompts"`
}

// DecodePrompts parses an inbound request body in either accepted shape:
//
//	{"prompts": {"system": "...", "user": "..."}}
//	{"prompts": [{"id": 1, "prompt": "..."}, ...]}
func DecodePrompts(data []byte) (models.Prompts, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	var env promptsEnvelope
	if err := decoder.Decode(&env); err != nil {
		return models.Prompts{}, fmt.Errorf("decode request: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return models.Prompts{}, errTrailingPayload
	}

	raw := bytes.TrimSpace(env.Prompts)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.Prompts{}, errMissingPrompts
	}

	switch raw[0] {
	case '{':
		var pair models.PromptRequest
		if err := json.Unmarshal(raw, &pair); err != nil {
			return models.Prompts{}, fmt.Errorf("decode prompts object: %w", err)
		}
		return models.Prompts{Single: &pair}, nil
	case '[':
		var items []models.PromptListItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return models.Prompts{}, fmt.Errorf("decode prompts list: %w", err)
		}
		if items == nil {
			items = []models.PromptListItem{}
		}
		return models.Prompts{List: items}, nil
	default:
		return models.Prompts{}, errPromptsType
	}
}

// AnswerResponse is the success body returned to callers.
type AnswerResponse struct {
	Model  string `json:"model,omitempty"`
	Answer string `json:"answer"`
}

// NewAnswerResponse applies the endpoint's output rules to an answer.
func NewAnswerResponse(ep chat.Endpoint, answer chat.Answer) AnswerResponse {
	text := answer.Text
	if ep.StripNewlines {
		text = strings.ReplaceAll(text, "\n", "")
	}

	resp := AnswerResponse{Answer: text}
	if ep.IncludeModel {
		resp.Model = answer.Model
	}
	return resp
}
