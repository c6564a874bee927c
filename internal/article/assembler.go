// Package article writes, assembles and length-governs the article body.
package article

import (
	"regexp"
	"strings"

	"github.com/jimdaga/autoposter/internal/outline"
)

var markerRe = regexp.MustCompile(`\[\[([^\[\]]*)\]\]`)

// Assemble joins section contents in outline order. The lead is emitted
// without a heading; other sections get a level 2 or level 3 heading.
func Assemble(o *outline.Outline, contents []string) string {
	parts := make([]string, 0, len(contents)*2)
	for i, s := range o.Sections {
		if i >= len(contents) {
			break
		}
		if !s.IsLead {
			prefix := "## "
			if s.Level == 3 {
				prefix = "### "
			}
			parts = append(parts, prefix+s.Heading)
		}
		if body := strings.TrimSpace(contents[i]); body != "" {
			parts = append(parts, body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// StripMarkers replaces [[x]] fact-check markers with x.
func StripMarkers(text string) string {
	return markerRe.ReplaceAllString(text, "$1")
}
