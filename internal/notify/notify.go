// Package notify broadcasts run outcomes. Every sink is best-effort:
// failures are logged and never change the outcome of a run.
package notify

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultTemplate is used when a schedule has no message template.
const DefaultTemplate = "[{status}] {schedule}\n{title}\n{url}"

// Outcome describes one finished run.
type Outcome struct {
	RunID         string `json:"run_id"`
	ScheduleID    uint   `json:"schedule_id"`
	ScheduleName  string `json:"schedule"`
	Status        string `json:"status"`
	PublishStatus string `json:"publish_status,omitempty"`
	Title         string `json:"title,omitempty"`
	URL           string `json:"url,omitempty"`
	Keyword       string `json:"keyword,omitempty"`
	Error         string `json:"error,omitempty"`
	Rooms         string `json:"-"`
	Template      string `json:"-"`
}

// Notifier delivers an outcome somewhere.
type Notifier interface {
	Notify(ctx context.Context, o Outcome)
}

// Render substitutes {title}, {url}, {keyword}, {status}, {schedule} and
// {error} in template.
func Render(template string, o Outcome) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	status := o.Status
	if o.PublishStatus != "" && o.Error == "" {
		status = o.PublishStatus
	}
	return strings.NewReplacer(
		"{title}", o.Title,
		"{url}", o.URL,
		"{keyword}", o.Keyword,
		"{status}", status,
		"{schedule}", o.ScheduleName,
		"{error}", o.Error,
	).Replace(template)
}

// Multi sends the outcome to every sink in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, o Outcome) {
	for _, n := range m {
		n.Notify(ctx, o)
	}
}

// Nop discards outcomes.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Outcome) {}

// LogNotifier writes outcomes to the log. Used when no messaging service is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(_ context.Context, o Outcome) {
	l.Logger.Info("Run outcome", "run_id", o.RunID, "schedule_id", o.ScheduleID, "status", o.Status, "url", o.URL, "error", o.Error)
}
