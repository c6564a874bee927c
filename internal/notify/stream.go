package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamOutcomes receives one entry per finished run.
	StreamOutcomes = "autopost:outcomes"
	// SchemaVersionV1 is the payload version written with each entry.
	SchemaVersionV1 = "v1"
)

// StreamNotifier appends outcomes to a Redis stream for dashboards and
// other downstream consumers.
type StreamNotifier struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewStreamNotifier connects to redisURL.
func NewStreamNotifier(redisURL string, logger *slog.Logger) (*StreamNotifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &StreamNotifier{rdb: redis.NewClient(opts), logger: logger}, nil
}

// NewStreamNotifierFromClient wraps an existing client.
func NewStreamNotifierFromClient(rdb *redis.Client, logger *slog.Logger) *StreamNotifier {
	return &StreamNotifier{rdb: rdb, logger: logger}
}

// Notify implements Notifier.
func (s *StreamNotifier) Notify(ctx context.Context, o Outcome) {
	if _, err := s.Publish(ctx, o); err != nil {
		s.logger.Warn("Outcome stream publish failed", "run_id", o.RunID, "error", err)
	}
}

// Publish appends the outcome and returns the stream entry ID.
func (s *StreamNotifier) Publish(ctx context.Context, o Outcome) (string, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("failed to marshal outcome: %w", err)
	}

	result := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamOutcomes,
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload":        string(payload),
			"published_at":   time.Now().Unix(),
			"schema_version": SchemaVersionV1,
		},
	})
	if result.Err() != nil {
		return "", fmt.Errorf("failed to publish to stream: %w", result.Err())
	}
	return result.Val(), nil
}

// Close closes the Redis client connection.
func (s *StreamNotifier) Close() error {
	return s.rdb.Close()
}
