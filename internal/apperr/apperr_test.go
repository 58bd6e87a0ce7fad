package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKind_StatusAndTag(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		tag    string
	}{
		{KindValidation, http.StatusBadRequest, "Validation"},
		{KindUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{KindExternal, http.StatusBadGateway, "Upstream"},
		{KindInternal, http.StatusInternalServerError, "Internal"},
		{Kind("bogus"), http.StatusInternalServerError, "Internal"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Status(); got != tt.status {
				t.Errorf("Status() = %d, want %d", got, tt.status)
			}
			if got := tt.kind.Tag(); got != tt.tag {
				t.Errorf("Tag() = %q, want %q", got, tt.tag)
			}
		})
	}
}

func TestError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"validation", Validation("GEMINI_MODEL env var not set"), "Validation failed: GEMINI_MODEL env var not set"},
		{"unauthorized", Unauthorized(), "Unauthorized"},
		{"external", External("timeout", nil), "External API error: timeout"},
		{"internal", Internal("Missing OPENAI_KEY", nil), "Internal error: Missing OPENAI_KEY"},
		{"internal from cause", Internal("", errors.New("boom")), "Internal error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationIssues_JoinsAndCopies(t *testing.T) {
	issues := []string{"prompts.system is empty", "prompts.user is empty"}
	err := ValidationIssues(issues)

	if err.Detail != "prompts.system is empty, prompts.user is empty" {
		t.Errorf("unexpected detail %q", err.Detail)
	}
	issues[0] = "mutated"
	if err.Issues[0] != "prompts.system is empty" {
		t.Errorf("issues were not copied: %v", err.Issues)
	}
}

func TestAs_FindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("chat: %w", External("bad gateway", nil))

	ae, ok := As(wrapped)
	if !ok {
		t.Fatal("expected As to find the wrapped *Error")
	}
	if ae.Kind != KindExternal {
		t.Errorf("kind = %q, want external", ae.Kind)
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("plain errors must classify as internal")
	}
}

func TestResponse_Bodies(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "unauthorized has no detail",
			err:    Unauthorized(),
			status: http.StatusUnauthorized,
			body:   `{"error":"Unauthorized"}`,
		},
		{
			name:   "validation carries issues",
			err:    ValidationIssues([]string{"prompts.user is empty"}),
			status: http.StatusBadRequest,
			body:   `{"error":"Validation","detail":"prompts.user is empty","issues":["prompts.user is empty"]}`,
		},
		{
			name:   "external",
			err:    External("openai error (invalid_request_error): bad model", nil),
			status: http.StatusBadGateway,
			body:   `{"error":"Upstream","detail":"openai error (invalid_request_error): bad model"}`,
		},
		{
			name:   "plain error is internal",
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			body:   `{"error":"Internal","detail":"disk on fire"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Response(tt.err)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			raw, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			if diff := cmp.Diff(tt.body, string(raw)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
