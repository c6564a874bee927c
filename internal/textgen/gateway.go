// Package textgen is the text generation gateway: one Provider per LLM
// vendor behind a single Generate call.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jimdaga/autoposter/internal/models"
)

var (
	// ErrMisconfigured marks missing providers, models or credentials.
	ErrMisconfigured = errors.New("text generation misconfigured")
	// ErrEmptyResponse is returned when a provider answers with no text.
	ErrEmptyResponse = errors.New("provider returned empty text")
)

// Purpose tags a request with the pipeline step that issued it.
type Purpose string

// Purpose constants
const (
	PurposeOutline Purpose = "outline"
	PurposeSection Purpose = "section"
	PurposeSummary Purpose = "summary"
)

// Request is a single prompt.
type Request struct {
	Purpose Purpose
	System  string
	Prompt  string
}

// Params carries the model parameters of an AI configuration.
type Params struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ParamsFrom converts a stored AI configuration.
func ParamsFrom(cfg models.AIConfiguration) Params {
	return Params{
		Provider:    strings.ToLower(strings.TrimSpace(cfg.Provider)),
		APIKey:      cfg.APIKey,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

// Provider turns a prompt into text for one vendor.
type Provider interface {
	Name() string
	Complete(ctx context.Context, params Params, req Request) (string, error)
}

// Generator is the capability the pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, params Params, req Request) (string, error)
}

// Gateway dispatches requests to registered providers by name.
type Gateway struct {
	providers map[string]Provider
	override  Provider
	logger    *slog.Logger
}

var _ Generator = (*Gateway)(nil)

// NewGateway creates a gateway with the given providers registered.
func NewGateway(logger *slog.Logger, providers ...Provider) *Gateway {
	g := &Gateway{
		providers: make(map[string]Provider),
		logger:    logger,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

// NewDefaultGateway registers every built-in provider. In stub mode every
// request is answered by the stub provider regardless of configuration.
func NewDefaultGateway(logger *slog.Logger, stubMode bool) *Gateway {
	stub := NewStubProvider()
	g := NewGateway(logger, NewOpenAIProvider(""), NewClaudeProvider(""), NewGeminiProvider(""), stub)
	if stubMode {
		g.override = stub
	}
	return g
}

// Register adds a provider. Returns an error if the name is taken.
func (g *Gateway) Register(p Provider) error {
	if _, exists := g.providers[p.Name()]; exists {
		return fmt.Errorf("provider already registered: %s", p.Name())
	}
	g.providers[p.Name()] = p
	return nil
}

// Providers returns registered provider names sorted for display.
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for name := range g.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate validates params, dispatches to the provider and trims the result.
func (g *Gateway) Generate(ctx context.Context, params Params, req Request) (string, error) {
	provider := g.override
	if provider == nil {
		p, ok := g.providers[params.Provider]
		if !ok {
			return "", fmt.Errorf("%w: unknown provider %q", ErrMisconfigured, params.Provider)
		}
		provider = p
		if params.APIKey == "" {
			return "", fmt.Errorf("%w: provider %s has no API key", ErrMisconfigured, params.Provider)
		}
		if params.Model == "" {
			return "", fmt.Errorf("%w: provider %s has no model", ErrMisconfigured, params.Provider)
		}
	}

	if g.logger != nil {
		g.logger.Debug("Generating text",
			"provider", provider.Name(),
			"model", params.Model,
			"purpose", req.Purpose,
			"prompt_chars", len(req.Prompt),
		)
	}

	text, err := provider.Complete(ctx, params, req)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", provider.Name(), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", provider.Name(), ErrEmptyResponse)
	}
	return text, nil
}
