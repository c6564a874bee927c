package article

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jimdaga/autoposter/internal/textgen"
)

const (
	summarizeRatio = 1.3
	acceptRatio    = 1.1
	truncateRatio  = 1.05
)

// Result is the governed article.
type Result struct {
	Text       string
	Words      int
	Summarized bool
	Truncated  bool
}

// Governor keeps an assembled article under its word ceiling.
type Governor struct {
	gen    textgen.Generator
	logger *slog.Logger
}

// NewGovernor creates a Governor.
func NewGovernor(gen textgen.Generator, logger *slog.Logger) *Governor {
	return &Governor{gen: gen, logger: logger}
}

// Govern returns text unchanged when it is within target*1.3 words.
// Otherwise it asks the model for a summary, accepted only within
// target*1.1. A summary that overshoots is truncated at paragraph
// boundaries; if the summary fails or truncates to nothing, the draft is
// truncated instead.
func (g *Governor) Govern(ctx context.Context, params textgen.Params, text string, target int, keywords []string) (Result, error) {
	words := CountWords(text)
	if target <= 0 || float64(words) <= float64(target)*summarizeRatio {
		return Result{Text: text, Words: words}, nil
	}

	g.logger.Info("Article over length, summarizing", "words", words, "target", target)

	summary, err := g.gen.Generate(ctx, params, textgen.Request{
		Purpose: textgen.PurposeSummary,
		System:  "You are an editor who shortens articles without losing their structure.",
		Prompt:  summaryPrompt(text, target, keywords),
	})
	if err == nil {
		summary = strings.TrimSpace(summary)
		n := CountWords(summary)
		if summary != "" && float64(n) <= float64(target)*acceptRatio {
			return Result{Text: summary, Words: n, Summarized: true}, nil
		}
		if cut := Truncate(summary, target); cut != "" {
			g.logger.Warn("Summary over tolerance, truncating summary", "words", n, "target", target)
			return Result{Text: cut, Words: CountWords(cut), Summarized: true, Truncated: true}, nil
		}
		g.logger.Warn("Summary unusable, truncating draft", "words", n, "target", target)
	} else {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		g.logger.Warn("Summarization failed, truncating", "error", err)
	}

	truncated := Truncate(text, target)
	if truncated == "" {
		g.logger.Warn("Lead paragraph alone exceeds the length budget, nothing left after truncation",
			"lead_words", firstParagraphWords(text),
			"limit", int(float64(target)*truncateRatio),
		)
	}
	return Result{Text: truncated, Words: CountWords(truncated), Truncated: true}, nil
}

func firstParagraphWords(text string) int {
	if ps := paragraphs(text); len(ps) > 0 {
		return CountWords(ps[0])
	}
	return 0
}

// Truncate keeps whole paragraphs in order while the running word count
// stays within target*1.05. Trailing heading-only paragraphs are dropped.
func Truncate(text string, target int) string {
	limit := float64(target) * truncateRatio

	var kept []string
	running := 0
	for _, p := range paragraphs(text) {
		n := CountWords(p)
		if float64(running+n) > limit {
			break
		}
		kept = append(kept, p)
		running += n
	}

	for len(kept) > 0 && isHeading(kept[len(kept)-1]) {
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, "\n\n")
}

func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isHeading(p string) bool {
	for _, line := range strings.Split(p, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			return false
		}
	}
	return true
}

func summaryPrompt(text string, target int, keywords []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rewrite the article below to about %d words (between %d and %d).\n",
		target, target*9/10, target*11/10)
	sb.WriteString("Keep every ## and ### heading line and the order of sections.\n")
	sb.WriteString("Keep any [[...]] markers around facts exactly as they are.\n")
	if len(keywords) > 0 {
		fmt.Fprintf(&sb, "Include these keywords verbatim somewhere in the text: %s\n", strings.Join(keywords, ", "))
	}
	sb.WriteString("Return only the rewritten article in markdown.\n\n---\n\n")
	sb.WriteString(text)
	return sb.String()
}
