// Package outline plans the heading structure and per-section word budgets
// of an article before any prose is written.
package outline

// Section is one planned block of the article.
type Section struct {
	Heading     string
	Level       int // 2 for lead and top-level sections, 3 for sub-sections
	Description string
	IsLead      bool
	Words       int
}

// Outline is the title plus ordered sections of one article.
type Outline struct {
	Title       string
	Description string
	Sections    []Section
}

// TotalWords sums the per-section estimates.
func (o *Outline) TotalWords() int {
	total := 0
	for _, s := range o.Sections {
		total += s.Words
	}
	return total
}

func (o *Outline) hasLead() bool {
	for _, s := range o.Sections {
		if s.IsLead {
			return true
		}
	}
	return false
}

// Template is the structural budget chosen from the target word count.
type Template struct {
	Target    int
	H2Min     int
	H2Max     int
	H3Min     int
	H3Max     int
	LeadWords int
	H2Words   int
	H3Words   int
}

// TemplateFor picks the structure for a target word count.
func TemplateFor(target int) Template {
	if target <= 0 {
		target = 1200
	}

	switch {
	case target <= 1200:
		lead := target * 15 / 100
		return Template{
			Target: target, H2Min: 3, H2Max: 3,
			LeadWords: lead,
			H2Words:   (target - lead) / 3,
		}
	case target <= 2500:
		lead := target / 10
		h3 := target * 8 / 100
		return Template{
			Target: target, H2Min: 4, H2Max: 4, H3Min: 2, H3Max: 3,
			LeadWords: lead,
			H3Words:   h3,
			H2Words:   (target - lead - 3*h3) / 4,
		}
	default:
		lead := target * 8 / 100
		h3 := target * 6 / 100
		return Template{
			Target: target, H2Min: 4, H2Max: 5, H3Min: 5, H3Max: 7,
			LeadWords: lead,
			H3Words:   h3,
			H2Words:   (target - lead - 6*h3) / 5,
		}
	}
}

// Fallback is the generic intro/body/summary outline used when the model
// response yields no sections.
func Fallback(keyword string, target int) *Outline {
	if target <= 0 {
		target = 1200
	}
	lead := target * 15 / 100
	summary := target * 15 / 100
	return &Outline{
		Title: keyword,
		Sections: []Section{
			{Heading: "Introduction", Level: 2, IsLead: true, Words: lead,
				Description: "Introduce " + keyword + " and why it matters to the reader."},
			{Heading: "Understanding " + keyword, Level: 2, Words: target - lead - summary,
				Description: "Explain the main points of " + keyword + " with concrete examples."},
			{Heading: "Summary", Level: 2, Words: summary,
				Description: "Recap the key takeaways."},
		},
	}
}
