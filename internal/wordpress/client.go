package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/jimdaga/autoposter/internal/models"
)

// stubLatency simulates the CMS round trip in stub mode.
const stubLatency = 100 * time.Millisecond

// ErrPublish marks a create-post request the CMS did not accept.
var ErrPublish = errors.New("publish failed")

// Client talks to WordPress sites using application passwords.
type Client struct {
	httpClient *http.Client
	stubMode   bool
	logger     *slog.Logger
}

// NewClient creates a client. In stub mode no request leaves the process
// and CreatePost returns a synthetic post.
func NewClient(stubMode bool, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stubMode:   stubMode,
		logger:     logger,
	}
}

// Publish resolves the site's default category and creates the post.
func (c *Client) Publish(ctx context.Context, site models.SiteConfiguration, post Post) (*PostResult, error) {
	if id, ok := c.ResolveCategory(ctx, site, site.DefaultCategory); ok {
		post.Categories = []int64{id}
	}
	return c.CreatePost(ctx, site, post)
}

// ResolveCategory turns a free-text category into a term ID. It tries, in
// order, an integer ID, a slug lookup and a name search. Lookup failures
// are treated as "not found" so the post falls back to the CMS default.
func (c *Client) ResolveCategory(ctx context.Context, site models.SiteConfiguration, value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, id > 0
	}

	if c.stubMode {
		return 0, false
	}

	if cats, err := c.listCategories(ctx, site, "slug", value); err != nil {
		c.logger.Warn("Category slug lookup failed", "site", site.Name, "category", value, "error", err)
	} else if len(cats) > 0 {
		return cats[0].ID, true
	}

	cats, err := c.listCategories(ctx, site, "search", value)
	if err != nil {
		c.logger.Warn("Category search failed", "site", site.Name, "category", value, "error", err)
		return 0, false
	}
	if len(cats) == 0 {
		return 0, false
	}

	fold := cases.Fold()
	want := fold.String(value)
	for _, cat := range cats {
		if fold.String(cat.Name) == want {
			return cat.ID, true
		}
	}
	return cats[0].ID, true
}

func (c *Client) listCategories(ctx context.Context, site models.SiteConfiguration, param, value string) ([]Category, error) {
	endpoint := apiBase(site) + "/categories?" + url.Values{param: {value}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(site.Username, site.AppPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("categories returned status %d", resp.StatusCode)
	}

	var cats []Category
	if err := json.NewDecoder(resp.Body).Decode(&cats); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return cats, nil
}

// CreatePost submits the post to {base}/wp-json/wp/v2/{post_type}.
// Any non-2xx answer is returned as ErrPublish.
func (c *Client) CreatePost(ctx context.Context, site models.SiteConfiguration, post Post) (*PostResult, error) {
	if c.stubMode {
		timer := time.NewTimer(stubLatency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		return &PostResult{
			ID:     time.Now().Unix(),
			Link:   strings.TrimSuffix(site.BaseURL, "/") + "/?p=stub",
			Status: post.Status,
		}, nil
	}

	jsonData, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	endpoint := apiBase(site) + "/" + url.PathEscape(site.ResolvedPostType())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(site.Username, site.AppPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrPublish, site.Name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result PostResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

func apiBase(site models.SiteConfiguration) string {
	return strings.TrimSuffix(site.BaseURL, "/") + "/wp-json/wp/v2"
}
