package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jimdaga/autoposter/internal/logging"
	"github.com/jimdaga/autoposter/internal/models"
)

type fakeWordPress struct {
	mu       sync.Mutex
	requests []string
	bySlug   map[string][]Category
	bySearch map[string][]Category
	posted   map[string]interface{}
	status   int
}

func (f *fakeWordPress) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/categories", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.RawQuery)
		f.mu.Unlock()

		var cats []Category
		if slug := r.URL.Query().Get("slug"); slug != "" {
			cats = f.bySlug[slug]
		} else {
			cats = f.bySearch[r.URL.Query().Get("search")]
		}
		if cats == nil {
			cats = []Category{}
		}
		json.NewEncoder(w).Encode(cats)
	})
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "editor" || pass != "app pass" {
			t.Errorf("unexpected basic auth %q %q", user, pass)
		}
		json.NewDecoder(r.Body).Decode(&f.posted)
		if f.status != 0 {
			http.Error(w, `{"code":"rest_cannot_create"}`, f.status)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":321,"link":"https://blog.example.com/?p=321","status":"draft"}`))
	})
	return mux
}

func newSite(baseURL string) models.SiteConfiguration {
	return models.SiteConfiguration{Name: "blog", BaseURL: baseURL + "/", Username: "editor", AppPassword: "app pass"}
}

func TestResolveCategoryNumericSkipsLookup(t *testing.T) {
	wp := &fakeWordPress{}
	server := httptest.NewServer(wp.handler(t))
	defer server.Close()

	c := NewClient(false, logging.Discard())
	id, ok := c.ResolveCategory(context.Background(), newSite(server.URL), "12")
	if !ok || id != 12 {
		t.Errorf("expected 12, got %d %v", id, ok)
	}
	if len(wp.requests) != 0 {
		t.Errorf("expected no lookups, got %v", wp.requests)
	}
}

func TestResolveCategorySlugBeforeSearch(t *testing.T) {
	wp := &fakeWordPress{
		bySlug:   map[string][]Category{"tech": {{ID: 4, Name: "Technology", Slug: "tech"}}},
		bySearch: map[string][]Category{"tech": {{ID: 9, Name: "tech"}}},
	}
	server := httptest.NewServer(wp.handler(t))
	defer server.Close()

	c := NewClient(false, logging.Discard())
	id, ok := c.ResolveCategory(context.Background(), newSite(server.URL), "tech")
	if !ok || id != 4 {
		t.Errorf("expected slug match 4, got %d %v", id, ok)
	}
	if len(wp.requests) != 1 || wp.requests[0] != "slug=tech" {
		t.Errorf("expected a single slug lookup, got %v", wp.requests)
	}
}

func TestResolveCategorySearchPrefersExactName(t *testing.T) {
	wp := &fakeWordPress{
		bySearch: map[string][]Category{"Travel": {
			{ID: 7, Name: "Travel Tips"},
			{ID: 8, Name: "TRAVEL"},
		}},
	}
	server := httptest.NewServer(wp.handler(t))
	defer server.Close()

	c := NewClient(false, logging.Discard())
	id, ok := c.ResolveCategory(context.Background(), newSite(server.URL), "Travel")
	if !ok || id != 8 {
		t.Errorf("expected exact folded match 8, got %d %v", id, ok)
	}
	if len(wp.requests) != 2 || wp.requests[0] != "slug=Travel" || wp.requests[1] != "search=Travel" {
		t.Errorf("expected slug then search, got %v", wp.requests)
	}
}

func TestResolveCategorySearchFirstResult(t *testing.T) {
	wp := &fakeWordPress{
		bySearch: map[string][]Category{"food": {{ID: 3, Name: "Food & Drink"}, {ID: 5, Name: "Seafood"}}},
	}
	server := httptest.NewServer(wp.handler(t))
	defer server.Close()

	id, ok := NewClient(false, logging.Discard()).ResolveCategory(context.Background(), newSite(server.URL), "food")
	if !ok || id != 3 {
		t.Errorf("expected first result 3, got %d %v", id, ok)
	}
}

func TestPublishOmitsUnresolvedCategory(t *testing.T) {
	wp := &fakeWordPress{}
	server := httptest.NewServer(wp.handler(t))
	defer server.Close()

	site := newSite(server.URL)
	site.DefaultCategory = "does-not-exist"

	res, err := NewClient(false, logging.Discard()).Publish(context.Background(), site, Post{Title: "T", Content: "<p>c</p>", Status: "draft"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.ID != 321 || res.Link != "https://blog.example.com/?p=321" {
		t.Errorf("unexpected result %+v", res)
	}
	if _, present := wp.posted["categories"]; present {
		t.Errorf("categories should be omitted, got %v", wp.posted["categories"])
	}
	if wp.posted["status"] != "draft" || wp.posted["title"] != "T" {
		t.Errorf("unexpected payload %v", wp.posted)
	}
}

func TestPublishWithNumericCategory(t *testing.T) {
	wp := &fakeWordPress{}
	server := httptest.NewServer(wp.handler(t))
	defer server.Close()

	site := newSite(server.URL)
	site.DefaultCategory = "5"
	if _, err := NewClient(false, logging.Discard()).Publish(context.Background(), site, Post{Title: "T", Status: "publish"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	cats, _ := wp.posted["categories"].([]interface{})
	if len(cats) != 1 || cats[0].(float64) != 5 {
		t.Errorf("expected categories [5], got %v", wp.posted["categories"])
	}
}

func TestCreatePostNon2xx(t *testing.T) {
	wp := &fakeWordPress{status: http.StatusForbidden}
	server := httptest.NewServer(wp.handler(t))
	defer server.Close()

	_, err := NewClient(false, logging.Discard()).CreatePost(context.Background(), newSite(server.URL), Post{Title: "T"})
	if !errors.Is(err, ErrPublish) {
		t.Errorf("expected ErrPublish, got %v", err)
	}
}

func TestStubModeMakesNoRequests(t *testing.T) {
	c := NewClient(true, logging.Discard())
	site := models.SiteConfiguration{BaseURL: "http://127.0.0.1:1", DefaultCategory: "news"}
	res, err := c.Publish(context.Background(), site, Post{Title: "T", Status: "draft"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.ID == 0 || res.Status != "draft" {
		t.Errorf("unexpected stub result %+v", res)
	}
}

func TestStubModeHonorsCancellation(t *testing.T) {
	c := NewClient(true, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	site := models.SiteConfiguration{BaseURL: "http://127.0.0.1:1"}
	_, err := c.CreatePost(ctx, site, Post{Title: "T", Status: "publish"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
