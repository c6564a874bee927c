// Package factcheck extracts verifiable claims from an article, verifies
// them through an external service and decides whether the post must be
// held back as a draft.
package factcheck

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxClaims caps how many claims one article sends for verification.
const DefaultMaxClaims = 10

const contextRunes = 200

// Priority orders claims for verification.
type Priority string

// Priority constants
const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Item is one claim to verify.
type Item struct {
	Claim    string   `json:"claim"`
	Context  string   `json:"context"`
	Priority Priority `json:"priority"`
}

var (
	markerRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

	patterns = []*regexp.Regexp{
		// numbers with a unit, percentage or currency
		regexp.MustCompile(`(?i)[$€£¥]\s?\d[\d,.]*|\d[\d,.]*\s?(?:%|％|percent|円|ドル|万|億|人|件|倍|社|km|kg|gb|mb|tb|million|billion|thousand|dollars?|usd|eur|yen|people|users|customers|employees|years?|months?|days?|hours?)`),
		// dates
		regexp.MustCompile(`(?i)\b(?:19|20)\d{2}[-/.](?:0?[1-9]|1[0-2])(?:[-/.]\d{1,2})?\b|(?:19|20)\d{2}年(?:\d{1,2}月(?:\d{1,2}日)?)?|\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+(?:\d{1,2},?\s+)?(?:19|20)\d{2}\b|\bin (?:19|20)\d{2}\b`),
		// quoted or bracketed names
		regexp.MustCompile(`"[^"\n]{2,80}"|“[^”\n]{2,80}”|「[^」\n]{2,80}」|『[^』\n]{2,80}』|【[^】\n]{2,80}】`),
	}
)

// Extract returns up to max claims from text, high priority first. Spans
// wrapped in [[...]] are high priority; sentences that contain numbers with
// units, dates or quoted names are normal priority.
func Extract(text string, max int) []Item {
	if max <= 0 {
		max = DefaultMaxClaims
	}

	var items []Item
	index := make(map[string]int)
	add := func(it Item) {
		if it.Claim == "" {
			return
		}
		if i, ok := index[it.Claim]; ok {
			if it.Priority == PriorityHigh {
				items[i].Priority = PriorityHigh
			}
			return
		}
		index[it.Claim] = len(items)
		items = append(items, it)
	}

	for _, para := range paragraphs(text) {
		ctx := truncateRunes(markerRe.ReplaceAllString(para, "$1"), contextRunes)

		for _, m := range markerRe.FindAllStringSubmatch(para, -1) {
			add(Item{Claim: strings.TrimSpace(m[1]), Context: ctx, Priority: PriorityHigh})
		}

		for _, sentence := range sentences(para) {
			if markerRe.MatchString(sentence) || strings.HasPrefix(sentence, "#") {
				continue
			}
			for _, re := range patterns {
				if re.MatchString(sentence) {
					add(Item{Claim: sentence, Context: ctx, Priority: PriorityNormal})
					break
				}
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority == PriorityHigh && items[j].Priority != PriorityHigh
	})
	if len(items) > max {
		items = items[:max]
	}
	return items
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentences splits on CJK terminators anywhere and on . ! ? when followed
// by whitespace or the end, so decimals like 3.5 stay intact.
func sentences(p string) []string {
	runes := []rune(p)
	var out []string
	start := 0
	emit := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end
	}
	for i, r := range runes {
		switch r {
		case '。', '！', '？', '\n':
			emit(i + 1)
		case '.', '!', '?':
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				emit(i + 1)
			}
		}
	}
	if start < len(runes) {
		emit(len(runes))
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
