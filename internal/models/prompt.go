package models

import (
	"fmt"
	"strconv"
	"strings"
)

// PromptRequest is a single system/user prompt pair submitted by a caller.
type PromptRequest struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// PromptListItem is one entry of an indexed prompt list.
type PromptListItem struct {
	ID     int    `json:"id"`
	Prompt string `json:"prompt"`
}

// Prompts holds exactly one of the two accepted request shapes.
// A nil Single means the list shape.
type Prompts struct {
	Single *PromptRequest
	List   []PromptListItem
}

// IsList reports whether the request used the list shape.
func (p Prompts) IsList() bool { return p.Single == nil }

// Validate returns the issues found in the request, in a fixed order.
// An empty result means the request may proceed.
func (p Prompts) Validate(requireSystem bool) []string {
	if p.IsList() {
		return ValidateList(p.List)
	}
	return p.Single.Validate(requireSystem)
}

// Normalize returns the trimmed prompt pair to send upstream. The list shape
// becomes a single user prompt with one "{id}. {prompt}" line per item.
func (p Prompts) Normalize() PromptRequest {
	if !p.IsList() {
		return PromptRequest{
			System: strings.TrimSpace(p.Single.System),
			User:   strings.TrimSpace(p.Single.User),
		}
	}

	lines := make([]string, 0, len(p.List))
	for _, item := range p.List {
		lines = append(lines, strconv.Itoa(item.ID)+". "+strings.TrimSpace(item.Prompt))
	}
	return PromptRequest{User: strings.Join(lines, "\n")}
}

// Validate checks a prompt pair. The system prompt is only checked when the
// endpoint requires one.
func (r PromptRequest) Validate(requireSystem bool) []string {
	var issues []string
	if requireSystem && strings.TrimSpace(r.System) == "" {
		issues = append(issues, "prompts.system is empty")
	}
	if strings.TrimSpace(r.User) == "" {
		issues = append(issues, "prompts.user is empty")
	}
	return issues
}

// ValidateList checks that ids run 1..N in array order and that no prompt is blank.
// Every issue is collected.
func ValidateList(items []PromptListItem) []string {
	if len(items) == 0 {
		return []string{"prompts must not be empty"}
	}

	var issues []string
	for i, item := range items {
		expected := i + 1
		if item.ID != expected {
			issues = append(issues, fmt.Sprintf("expected id %d but got %d", expected, item.ID))
		}
		if strings.TrimSpace(item.Prompt) == "" {
			issues = append(issues, fmt.Sprintf("id %d has empty prompt", item.ID))
		}
	}
	return issues
}

// CombinePrompt joins system and user into one prompt for providers without
// structured roles.
func CombinePrompt(system, user string) string {
	if system == "" {
		return user
	}
	return system + "\n\nUser: " + user
}
