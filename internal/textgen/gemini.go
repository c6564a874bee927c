package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider calls generateContent through the google.golang.org/genai SDK.
type GeminiProvider struct {
	baseURL string
}

// NewGeminiProvider creates the provider. An empty baseURL uses the public endpoint.
func NewGeminiProvider(baseURL string) *GeminiProvider {
	return &GeminiProvider{baseURL: baseURL}
}

// Name implements Provider.
func (g *GeminiProvider) Name() string { return "gemini" }

// Complete implements Provider.
func (g *GeminiProvider) Complete(ctx context.Context, params Params, req Request) (string, error) {
	timeout := generationTimeout
	cfg := &genai.ClientConfig{
		APIKey:      params.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: &timeout},
	}
	if g.baseURL != "" {
		baseURL := g.baseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		cfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(params.Temperature)),
		MaxOutputTokens: int32(params.MaxTokens),
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, params.Model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates")
	}
	return resp.Text(), nil
}
