package factcheck

import "github.com/jimdaga/autoposter/internal/models"

// BlockingConfidence is the minimum confidence of an incorrect verdict that
// holds a post back as a draft.
const BlockingConfidence = 70

// Gate returns the status to publish with. Any incorrect verdict at or
// above BlockingConfidence forces a draft; verification never promotes a
// draft to publish.
func Gate(results []Result, requested string) (status string, forced bool) {
	for _, r := range results {
		if r.Verdict == VerdictIncorrect && r.Confidence >= BlockingConfidence {
			return models.PostStatusDraft, requested != models.PostStatusDraft
		}
	}
	return requested, false
}
