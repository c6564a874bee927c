package article

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	headingRe  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	quoteRe    = regexp.MustCompile(`(?m)^\s*>+\s?`)
	listRe     = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+`)
	fenceRe    = regexp.MustCompile("(?m)^\\s*```.*$")
	linkRe     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	emphasisRp = strings.NewReplacer("**", "", "__", "", "*", "", "`", "", "~~", "", "[[", "", "]]", "")
)

// CountWords strips markdown syntax and fact-check markers, then counts
// whitespace-separated words. Each CJK character counts as one word.
func CountWords(text string) int {
	text = fenceRe.ReplaceAllString(text, "")
	text = headingRe.ReplaceAllString(text, "")
	text = quoteRe.ReplaceAllString(text, "")
	text = listRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = emphasisRp.Replace(text)

	count := 0
	inWord, wordHasContent := false, false
	flush := func() {
		if inWord && wordHasContent {
			count++
		}
		inWord, wordHasContent = false, false
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			count++
		case unicode.IsSpace(r):
			flush()
		default:
			inWord = true
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				wordHasContent = true
			}
		}
	}
	flush()
	return count
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
