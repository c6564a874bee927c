// Package competitor collects the headings used by top-ranking articles
// for a keyword, as optional input to outline planning.
package competitor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const (
	fetchTimeout   = 8 * time.Second
	defaultResults = 5
	maxHeadings    = 20
)

// Researcher returns frequently seen competitor headings for a keyword.
type Researcher interface {
	Headings(ctx context.Context, keyword string) ([]string, error)
}

// GoogleResearcher finds top results with the Custom Search JSON API and
// extracts their h2 and h3 headings.
type GoogleResearcher struct {
	apiKey   string
	engineID string
	endpoint string
	client   *http.Client
	results  int64
	logger   *slog.Logger
}

// NewGoogleResearcher creates a researcher.
func NewGoogleResearcher(apiKey, engineID string, logger *slog.Logger) *GoogleResearcher {
	return &GoogleResearcher{
		apiKey:   apiKey,
		engineID: engineID,
		client:   &http.Client{},
		results:  defaultResults,
		logger:   logger,
	}
}

// Headings implements Researcher. Pages that fail to load are skipped.
func (g *GoogleResearcher) Headings(ctx context.Context, keyword string) ([]string, error) {
	if g.apiKey == "" || g.engineID == "" {
		return nil, fmt.Errorf("google search is not configured")
	}

	links, err := g.search(ctx, keyword)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var order []string
	for _, link := range links {
		headings, err := g.pageHeadings(ctx, link)
		if err != nil {
			g.logger.Debug("Skipping competitor page", "url", link, "error", err)
			continue
		}
		seen := make(map[string]bool)
		for _, h := range headings {
			if seen[h] {
				continue
			}
			seen[h] = true
			if counts[h] == 0 {
				order = append(order, h)
			}
			counts[h]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxHeadings {
		order = order[:maxHeadings]
	}
	return order, nil
}

func (g *GoogleResearcher) search(ctx context.Context, keyword string) ([]string, error) {
	opts := []option.ClientOption{option.WithAPIKey(g.apiKey)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create search service: %w", err)
	}

	res, err := svc.Cse.List().Q(keyword).Cx(g.engineID).Num(g.results).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}

	links := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Link != "" {
			links = append(links, item.Link)
		}
	}
	return links, nil
}

func (g *GoogleResearcher) pageHeadings(ctx context.Context, pageURL string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "autoposter/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return extractHeadings(doc), nil
}

func extractHeadings(doc *goquery.Document) []string {
	var out []string
	doc.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" && len([]rune(text)) <= 120 {
			out = append(out, text)
		}
	})
	return out
}
