package textgen

import (
	"context"
	"fmt"
	"strings"
)

// StubProvider returns canned but well-formed output for local development
// and tests. It never calls the network.
type StubProvider struct{}

// NewStubProvider creates a StubProvider.
func NewStubProvider() *StubProvider { return &StubProvider{} }

// Name implements Provider.
func (s *StubProvider) Name() string { return "stub" }

// Complete implements Provider.
func (s *StubProvider) Complete(_ context.Context, _ Params, req Request) (string, error) {
	switch req.Purpose {
	case PurposeOutline:
		return stubOutline(), nil
	case PurposeSummary:
		return stubSummary(), nil
	default:
		return stubSection(req.Prompt), nil
	}
}

func stubOutline() string {
	return strings.Join([]string{
		"TITLE: A practical guide for everyday readers",
		"LEAD: Why this topic matters (WORDS: 150)",
		"H2: The basics (WORDS: 300)",
		"H3: Key terms (WORDS: 150)",
		"H2: Putting it into practice (WORDS: 300)",
		"H3: Common mistakes (WORDS: 150)",
		"H2: Summary (WORDS: 150)",
		"DESCRIPTION: A short, practical overview for readers new to the topic.",
	}, "\n")
}

func stubSection(prompt string) string {
	heading := "this section"
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, "Section: "); ok {
			heading = strings.TrimSpace(rest)
			break
		}
	}
	return fmt.Sprintf("This part covers %s in plain terms. Readers get a short explanation and one concrete example they can try today.", heading)
}

func stubSummary() string {
	return "In short: the key points of the article, condensed for a quick read."
}
