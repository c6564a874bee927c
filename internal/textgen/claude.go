package textgen

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// generationTimeout bounds a single completion. Long sections on slow models
// can take well over a minute.
const generationTimeout = 3 * time.Minute

const claudeDefaultTokens = 4096

// ClaudeProvider calls the Anthropic Messages API through anthropic-sdk-go.
type ClaudeProvider struct {
	baseURL string
}

// NewClaudeProvider creates the provider. An empty baseURL uses api.anthropic.com.
func NewClaudeProvider(baseURL string) *ClaudeProvider {
	return &ClaudeProvider{baseURL: baseURL}
}

// Name implements Provider.
func (c *ClaudeProvider) Name() string { return "claude" }

// Complete implements Provider.
func (c *ClaudeProvider) Complete(ctx context.Context, params Params, req Request) (string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
		option.WithRequestTimeout(generationTimeout),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		baseURL := c.baseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultTokens
	}

	body := anthropic.MessageNewParams{
		Model:       anthropic.Model(params.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(params.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		body.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := client.Messages.New(ctx, body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
