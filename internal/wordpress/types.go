// Package wordpress publishes articles through the WordPress REST API.
package wordpress

// Post is the create-post payload.
type Post struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Status     string  `json:"status"`
	Excerpt    string  `json:"excerpt,omitempty"`
	Categories []int64 `json:"categories,omitempty"`
}

// PostResult is the part of the created post the pipeline keeps.
type PostResult struct {
	ID     int64  `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// Category is a term returned by /wp/v2/categories.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
