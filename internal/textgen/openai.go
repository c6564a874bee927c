package textgen

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider using the official openai-go SDK (chat completions).
// A custom base URL serves any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	baseURL string
}

// NewOpenAIProvider creates the provider. An empty baseURL uses api.openai.com.
func NewOpenAIProvider(baseURL string) *OpenAIProvider {
	return &OpenAIProvider{baseURL: baseURL}
}

// Name implements Provider.
func (o *OpenAIProvider) Name() string { return "openai" }

// Complete implements Provider.
func (o *OpenAIProvider) Complete(ctx context.Context, params Params, req Request) (string, error) {
	client := openai.NewClient(ClientOptions(params.APIKey, o.baseURL)...)

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(params.Model),
		Messages:    msgs,
		Temperature: openai.Float(params.Temperature),
	}
	if params.MaxTokens > 0 {
		body.MaxTokens = openai.Int(int64(params.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ClientOptions builds openai-go request options for a key and optional base URL.
func ClientOptions(apiKey, baseURL string) []option.RequestOption {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}
