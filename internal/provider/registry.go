package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"promptrelay/internal/models"
)

// ErrUnknownProvider indicates the requested provider is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Capabilities describes how a provider accepts prompts.
type Capabilities struct {
	// StructuredRoles is true when the provider takes separate system and
	// user messages. Otherwise the prompts are combined into one message.
	StructuredRoles bool
}

// Provider defines the behaviour required to answer a chat request upstream.
type Provider interface {
	Name() string
	Capabilities() Capabilities
	Chat(ctx context.Context, creds models.Credentials, req models.ChatRequest) (*models.ChatResponse, error)
}

// Registry maintains a mapping of provider names to providers.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Provider
}

// NewRegistry constructs an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
	}
}

// Register adds the provider under its own name.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("provider must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name()]; exists {
		return fmt.Errorf("provider %q already registered", p.Name())
	}
	r.byName[p.Name()] = p
	return nil
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
