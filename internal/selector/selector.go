// Package selector picks the next keyword or title for a schedule so that
// values are not repeated while unused ones remain.
package selector

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/jimdaga/autoposter/internal/models"
)

// ErrEmptyPool means the schedule has no usable keyword or title.
var ErrEmptyPool = errors.New("no usable keyword or title")

// Mode is the kind of value a run is built around.
type Mode string

// Mode constants
const (
	ModeKeyword Mode = models.SelectionModeKeyword
	ModeTitle   Mode = models.SelectionModeTitle
)

// ParseKeywords splits a keyword list on commas, ideographic commas and newlines.
func ParseKeywords(s string) []string {
	return clean(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '、' || r == '，' || r == '\n' || r == '\r'
	}))
}

// ParseTitles splits a title pool on newlines.
func ParseTitles(s string) []string {
	return clean(strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\r'
	}))
}

func clean(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Select returns a uniformly random value from pool that is not in used.
// When every value has been used it picks from the whole pool instead.
func Select(pool, used []string, rng *rand.Rand) (string, error) {
	if len(pool) == 0 {
		return "", ErrEmptyPool
	}

	usedSet := make(map[string]struct{}, len(used))
	for _, u := range used {
		usedSet[u] = struct{}{}
	}

	remaining := make([]string, 0, len(pool))
	for _, v := range pool {
		if _, ok := usedSet[v]; !ok {
			remaining = append(remaining, v)
		}
	}
	if len(remaining) == 0 {
		remaining = pool
	}
	return remaining[rng.IntN(len(remaining))], nil
}

// ChooseMode resolves a schedule's generation mode for one run.
func ChooseMode(mode models.GenerationMode, hasTitles bool, rng *rand.Rand) Mode {
	chosen := ModeKeyword
	switch mode {
	case models.GenerationModeTitle:
		chosen = ModeTitle
	case models.GenerationModeBoth:
		if rng.Float64() < 0.5 {
			chosen = ModeTitle
		}
	}
	if chosen == ModeTitle && !hasTitles {
		return ModeKeyword
	}
	return chosen
}
