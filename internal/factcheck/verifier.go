package factcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"

	"github.com/jimdaga/autoposter/internal/textgen"
)

// OpenAICompatibleVerifier verifies claims with a chat-completions model,
// typically a search-grounded one behind an OpenAI-compatible endpoint.
type OpenAICompatibleVerifier struct {
	apiKey  string
	baseURL string
	model   string
}

// NewOpenAICompatibleVerifier creates a verifier.
func NewOpenAICompatibleVerifier(apiKey, baseURL, model string) *OpenAICompatibleVerifier {
	return &OpenAICompatibleVerifier{apiKey: apiKey, baseURL: baseURL, model: model}
}

// Verify implements Verifier.
func (v *OpenAICompatibleVerifier) Verify(ctx context.Context, items []Item, keyword, note string) (string, error) {
	if v.apiKey == "" {
		return "", errors.New("fact-check API key is not configured")
	}

	client := openai.NewClient(textgen.ClientOptions(v.apiKey, v.baseURL)...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(v.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a meticulous fact-checker. Search reliable sources and answer only with JSON."),
			openai.UserMessage(verifyPrompt(items, keyword, note)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("verifier returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func verifyPrompt(items []Item, keyword, note string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The following claims come from an article about %q.\n", keyword)
	if note != "" {
		fmt.Fprintf(&sb, "Reviewer note: %s\n", note)
	}
	sb.WriteString("\nClaims:\n")
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %s\n   Context: %s\n", i+1, it.Claim, it.Context)
	}
	fmt.Fprintf(&sb, `
Return a JSON array with exactly %d objects in the same order as the claims:
[{"verdict":"correct|incorrect|partially_correct|unverified","confidence":0-100,"correction":"...","source_url":"...","explanation":"..."}]
`, len(items))
	return sb.String()
}
