package outline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jimdaga/autoposter/internal/textgen"
)

// Request describes the article to plan.
type Request struct {
	Keyword            string
	FixedTitle         string
	TargetWords        int
	CustomInstructions string
	CompetitorHeadings []string
	Params             textgen.Params
}

// Planner asks the text generation gateway for an outline and parses it.
type Planner struct {
	gen    textgen.Generator
	logger *slog.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(gen textgen.Generator, logger *slog.Logger) *Planner {
	return &Planner{gen: gen, logger: logger}
}

// Plan returns the outline for req. A response that cannot be parsed into
// any section yields Fallback; a generation error is returned as-is.
func (p *Planner) Plan(ctx context.Context, req Request) (*Outline, error) {
	tmpl := TemplateFor(req.TargetWords)

	text, err := p.gen.Generate(ctx, req.Params, textgen.Request{
		Purpose: textgen.PurposeOutline,
		System:  "You are an experienced SEO editor who plans long-form blog articles.",
		Prompt:  buildPrompt(req, tmpl),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate outline: %w", err)
	}

	o := Parse(text, tmpl)
	if len(o.Sections) == 0 {
		p.logger.Warn("Outline response had no sections, using fallback", "keyword", req.Keyword)
		o = Fallback(req.Keyword, tmpl.Target)
	}

	switch {
	case req.FixedTitle != "":
		o.Title = req.FixedTitle
	case o.Title == "":
		o.Title = req.Keyword
	}
	return o, nil
}

func buildPrompt(req Request, tmpl Template) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Plan a blog article about: %s\n", req.Keyword)
	if req.FixedTitle != "" {
		fmt.Fprintf(&sb, "The title is fixed: %s\n", req.FixedTitle)
	}
	fmt.Fprintf(&sb, "Target length: about %d words in total.\n\n", tmpl.Target)

	sb.WriteString("Structure:\n")
	fmt.Fprintf(&sb, "- One lead section (about %d words)\n", tmpl.LeadWords)
	if tmpl.H2Min == tmpl.H2Max {
		fmt.Fprintf(&sb, "- %d H2 sections (about %d words each)\n", tmpl.H2Min, tmpl.H2Words)
	} else {
		fmt.Fprintf(&sb, "- %d to %d H2 sections (about %d words each)\n", tmpl.H2Min, tmpl.H2Max, tmpl.H2Words)
	}
	if tmpl.H3Max > 0 {
		fmt.Fprintf(&sb, "- %d to %d H3 sub-sections in total (about %d words each)\n", tmpl.H3Min, tmpl.H3Max, tmpl.H3Words)
	} else {
		sb.WriteString("- No H3 sub-sections\n")
	}

	if len(req.CompetitorHeadings) > 0 {
		sb.WriteString("\nHeadings frequently used by top-ranking competitor articles:\n")
		for _, h := range req.CompetitorHeadings {
			fmt.Fprintf(&sb, "- %s\n", h)
		}
		sb.WriteString("Cover these topics where relevant, but do not copy them verbatim.\n")
	}

	if req.CustomInstructions != "" {
		fmt.Fprintf(&sb, "\nAdditional instructions:\n%s\n", req.CustomInstructions)
	}

	sb.WriteString(`
Answer with one item per line, using exactly these markers:
TITLE: <article title>
LEAD: <lead heading>
DESCRIPTION: <what the section covers>
WORDS: <estimated word count>
H2: <section heading>
DESCRIPTION: ...
WORDS: ...
H3: <sub-section heading>
DESCRIPTION: ...
WORDS: ...
`)
	return sb.String()
}
