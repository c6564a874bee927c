package outline

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	bulletRe     = regexp.MustCompile(`^(?:[-*•・]\s*|\d+[.)]\s+)`)
	markerRe     = regexp.MustCompile(`(?i)^(title|lead|h2|h3|description|desc|estimated word count|word count|words)\s*:\s*(.*)$`)
	markdownRe   = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)
	inlineWordRe = regexp.MustCompile(`(?i)[(（]\s*(?:estimated word count|word count|words)\s*:\s*(\d+)[^)）]*[)）]`)
	digitsRe     = regexp.MustCompile(`\d+`)
)

var fullWidth = strings.NewReplacer("：", ":", "（", "(", "）", ")")

// Parse reads a model-produced outline. Lines starting with TITLE:, LEAD:,
// H2: or H3: (or # / ## / ### headings) start entries; DESCRIPTION: and
// WORDS: lines attach to the most recent section. Unknown lines are ignored.
func Parse(text string, tmpl Template) *Outline {
	o := &Outline{}
	var current *Section

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(fullWidth.Replace(raw))
		line = strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		line = strings.Trim(line, "*")
		if line == "" {
			continue
		}

		var kind, value string
		if m := markdownRe.FindStringSubmatch(line); m != nil {
			kind = map[int]string{1: "title", 2: "h2", 3: "h3"}[len(m[1])]
			value = m[2]
		} else if m := markerRe.FindStringSubmatch(line); m != nil {
			kind = strings.ToLower(m[1])
			value = m[2]
		} else {
			continue
		}

		words := 0
		if m := inlineWordRe.FindStringSubmatch(value); m != nil {
			words, _ = strconv.Atoi(m[1])
			value = inlineWordRe.ReplaceAllString(value, "")
		}
		value = strings.TrimSpace(strings.Trim(strings.TrimSpace(value), "*\"「」"))

		switch kind {
		case "title":
			if value != "" {
				o.Title = value
			}
			current = nil
		case "lead", "h2", "h3":
			s := Section{Heading: value, Level: 2, Words: words}
			if kind == "h3" {
				s.Level = 3
			}
			if kind == "lead" {
				s.IsLead = true
			}
			o.Sections = append(o.Sections, s)
			current = &o.Sections[len(o.Sections)-1]
		case "description", "desc":
			if current != nil {
				current.Description = value
			} else {
				o.Description = value
			}
		default:
			if current != nil {
				if n, err := strconv.Atoi(digitsRe.FindString(value)); err == nil {
					current.Words = n
				}
			}
		}
	}

	if len(o.Sections) == 0 {
		return o
	}

	if !o.hasLead() {
		lead := Section{Heading: "Introduction", Level: 2, IsLead: true}
		o.Sections = append([]Section{lead}, o.Sections...)
	}

	for i := range o.Sections {
		s := &o.Sections[i]
		if s.Words > 0 {
			continue
		}
		switch {
		case s.IsLead:
			s.Words = tmpl.LeadWords
		case s.Level == 3:
			s.Words = tmpl.H3Words
		default:
			s.Words = tmpl.H2Words
		}
	}
	return o
}
