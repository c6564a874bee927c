package factcheck

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultBatchSize is how many claims go into one verification request.
	DefaultBatchSize = 5
	// DefaultBatchDelay separates batches to respect provider rate limits.
	DefaultBatchDelay = 2 * time.Second
)

// Verifier sends a batch of claims to an external verification service and
// returns its raw answer, expected to contain a JSON array with one verdict
// per claim in order.
type Verifier interface {
	Verify(ctx context.Context, items []Item, keyword, note string) (string, error)
}

// Report is the outcome of checking one article.
type Report struct {
	Keyword        string   `json:"keyword"`
	Results        []Result `json:"results"`
	TotalClaims    int      `json:"total_claims"`
	IncorrectCount int      `json:"incorrect_count"`
}

// Checker runs extraction and batched verification.
type Checker struct {
	verifier  Verifier
	logger    *slog.Logger
	MaxClaims int
	BatchSize int
	Delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewChecker creates a Checker with default batch size and delay.
func NewChecker(verifier Verifier, maxClaims int, logger *slog.Logger) *Checker {
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaims
	}
	return &Checker{
		verifier:  verifier,
		logger:    logger,
		MaxClaims: maxClaims,
		BatchSize: DefaultBatchSize,
		Delay:     DefaultBatchDelay,
		sleep:     sleepContext,
	}
}

// Check extracts claims from text and verifies them. A batch whose request
// fails or whose answer cannot be parsed is marked unverified with zero
// confidence. Only context cancellation is returned as an error.
func (c *Checker) Check(ctx context.Context, text, keyword, note string) (*Report, error) {
	items := Extract(text, c.MaxClaims)
	report := &Report{Keyword: keyword, TotalClaims: len(items), Results: make([]Result, 0, len(items))}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(items); start += batchSize {
		if start > 0 && c.Delay > 0 {
			if err := c.sleep(ctx, c.Delay); err != nil {
				return nil, err
			}
		}

		end := min(start+batchSize, len(items))
		batch := items[start:end]
		report.Results = append(report.Results, c.verifyBatch(ctx, batch, keyword, note)...)
	}

	for _, r := range report.Results {
		if r.Verdict == VerdictIncorrect {
			report.IncorrectCount++
		}
	}
	return report, nil
}

func (c *Checker) verifyBatch(ctx context.Context, batch []Item, keyword, note string) []Result {
	raw, err := c.verifier.Verify(ctx, batch, keyword, note)
	if err != nil {
		c.logger.Warn("Verification request failed, marking batch unverified", "claims", len(batch), "error", err)
		return unverified(batch)
	}

	verdicts, err := ParseVerdicts(raw, len(batch))
	if err != nil {
		c.logger.Warn("Verification response unusable, marking batch unverified", "claims", len(batch), "error", err)
		return unverified(batch)
	}

	results := make([]Result, len(batch))
	for i, item := range batch {
		v := verdicts[i]
		results[i] = Result{
			Claim:       item.Claim,
			Context:     item.Context,
			Priority:    item.Priority,
			Verdict:     v.Verdict,
			Confidence:  int(v.Confidence),
			Correction:  v.Correction,
			SourceURL:   v.SourceURL,
			Explanation: v.Explanation,
		}
	}
	return results
}

func unverified(batch []Item) []Result {
	results := make([]Result, len(batch))
	for i, item := range batch {
		results[i] = Result{
			Claim:    item.Claim,
			Context:  item.Context,
			Priority: item.Priority,
			Verdict:  VerdictUnverified,
		}
	}
	return results
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
