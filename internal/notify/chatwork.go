package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ChatworkNotifier posts outcome messages to ChatWork rooms.
type ChatworkNotifier struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewChatworkNotifier creates a notifier for the ChatWork v2 API.
func NewChatworkNotifier(baseURL, token string, logger *slog.Logger) *ChatworkNotifier {
	return &ChatworkNotifier{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Notify sends the rendered message to each room in o.Rooms. A failing room
// is logged and skipped.
func (c *ChatworkNotifier) Notify(ctx context.Context, o Outcome) {
	rooms := splitRooms(o.Rooms)
	if len(rooms) == 0 || c.token == "" {
		return
	}

	body := Render(o.Template, o)
	for _, room := range rooms {
		if err := c.send(ctx, room, body); err != nil {
			c.logger.Warn("ChatWork notification failed", "room", room, "run_id", o.RunID, "error", err)
		}
	}
}

func (c *ChatworkNotifier) send(ctx context.Context, room, body string) error {
	endpoint := fmt.Sprintf("%s/rooms/%s/messages", c.baseURL, url.PathEscape(room))
	form := url.Values{"body": {body}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-ChatWorkToken", c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chatwork returned status %d", resp.StatusCode)
	}
	return nil
}

func splitRooms(s string) []string {
	var rooms []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			rooms = append(rooms, r)
		}
	}
	return rooms
}
