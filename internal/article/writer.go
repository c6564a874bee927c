package article

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jimdaga/autoposter/internal/models"
	"github.com/jimdaga/autoposter/internal/outline"
	"github.com/jimdaga/autoposter/internal/textgen"
)

const (
	contextTailRunes    = 1000
	conciseOutlineWords = 1500
)

var toneInstructions = map[string]string{
	models.ToneProfessional: "Write in a professional, trustworthy tone with precise wording.",
	models.ToneCasual:       "Write in a casual, conversational tone as if talking to a friend.",
	models.ToneTechnical:    "Write in a technical tone with accurate terminology and concrete detail.",
	models.ToneFriendly:     "Write in a warm, friendly tone that is easy for beginners to follow.",
}

// ToneInstruction maps a tone to a style instruction. Unknown tones use professional.
func ToneInstruction(tone string) string {
	if s, ok := toneInstructions[strings.ToLower(strings.TrimSpace(tone))]; ok {
		return s
	}
	return toneInstructions[models.ToneProfessional]
}

// Options apply to every section of one article.
type Options struct {
	Tone               string
	CustomInstructions string
	FactCheck          bool
	Params             textgen.Params
}

// SectionRequest is the input for one section.
type SectionRequest struct {
	Outline  *outline.Outline
	Section  outline.Section
	Previous string
	Options
}

// Writer generates section prose through the text generation gateway.
type Writer struct {
	gen    textgen.Generator
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(gen textgen.Generator, logger *slog.Logger) *Writer {
	return &Writer{gen: gen, logger: logger}
}

// WriteAll writes every section in outline order. Each section sees the
// tail of the text written before it, so this cannot run in parallel.
func (w *Writer) WriteAll(ctx context.Context, o *outline.Outline, opts Options) ([]string, error) {
	contents := make([]string, 0, len(o.Sections))
	for i, s := range o.Sections {
		text, err := w.WriteSection(ctx, SectionRequest{
			Outline:  o,
			Section:  s,
			Previous: strings.Join(contents, "\n\n"),
			Options:  opts,
		})
		if err != nil {
			return nil, fmt.Errorf("section %d (%s): %w", i+1, s.Heading, err)
		}
		contents = append(contents, text)
	}
	return contents, nil
}

// WriteSection generates the prose for one section without heading markup.
func (w *Writer) WriteSection(ctx context.Context, req SectionRequest) (string, error) {
	text, err := w.gen.Generate(ctx, req.Params, textgen.Request{
		Purpose: textgen.PurposeSection,
		System:  "You are a professional blog writer. " + ToneInstruction(req.Tone),
		Prompt:  sectionPrompt(req),
	})
	if err != nil {
		return "", err
	}

	w.logger.Debug("Section written", "heading", req.Section.Heading, "words", CountWords(text))
	return sanitizeSection(text, req.Section.Heading), nil
}

func sectionPrompt(req SectionRequest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Article title: %s\n", req.Outline.Title)
	sb.WriteString("Outline:\n")
	for _, s := range req.Outline.Sections {
		indent := ""
		if s.Level == 3 {
			indent = "  "
		}
		fmt.Fprintf(&sb, "%s- %s\n", indent, s.Heading)
	}

	fmt.Fprintf(&sb, "\nSection: %s\n", req.Section.Heading)
	if req.Section.IsLead {
		sb.WriteString("This is the lead. Hook the reader and preview what the article covers.\n")
	}
	if req.Section.Description != "" {
		fmt.Fprintf(&sb, "Covers: %s\n", req.Section.Description)
	}
	fmt.Fprintf(&sb, "Length: about %d words.\n", req.Section.Words)

	if tail := lastRunes(req.Previous, contextTailRunes); tail != "" {
		fmt.Fprintf(&sb, "\nThe article so far ends with:\n%s\nContinue naturally without repeating it.\n", tail)
	}

	sb.WriteString("\n" + ToneInstruction(req.Tone) + "\n")
	if req.Outline.TotalWords() < conciseOutlineWords {
		sb.WriteString("Be concise. Summarize the essentials and avoid filler or repetition.\n")
	} else {
		sb.WriteString("Explain thoroughly with concrete examples, data points and practical tips.\n")
	}
	if req.CustomInstructions != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n", req.CustomInstructions)
	}
	if req.FactCheck {
		sb.WriteString("Wrap every verifiable fact (numbers, dates, names, statistics) in [[double brackets]].\n")
	}
	sb.WriteString("Return only the body text of this section. Do not include the heading.\n")
	return sb.String()
}

// sanitizeSection drops a leading line that repeats the section heading.
func sanitizeSection(text, heading string) string {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, "\n")
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimLeft(first, "# "), "*"))
	if strings.HasPrefix(strings.TrimSpace(first), "#") || strings.EqualFold(trimmed, strings.TrimSpace(heading)) {
		return strings.TrimSpace(rest)
	}
	return text
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
