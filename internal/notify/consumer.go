package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OutcomeConsumer reads the outcome stream through a consumer group so
// several readers can share the backlog.
type OutcomeConsumer struct {
	rdb          *redis.Client
	groupName    string
	consumerName string
	logger       *slog.Logger
}

// NewOutcomeConsumer connects and creates the consumer group if needed.
func NewOutcomeConsumer(ctx context.Context, redisURL, group, consumerName string, logger *slog.Logger) (*OutcomeConsumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XReadGroup Block duration (5s).
	opts.ReadTimeout = 10 * time.Second
	client := redis.NewClient(opts)

	err = client.XGroupCreateMkStream(ctx, StreamOutcomes, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		client.Close()
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &OutcomeConsumer{
		rdb:          client,
		groupName:    group,
		consumerName: consumerName,
		logger:       logger,
	}, nil
}

// Consume blocks, passing each outcome to handler until ctx is done.
// Entries whose handler fails stay pending and are not acknowledged.
func (c *OutcomeConsumer) Consume(ctx context.Context, handler func(Outcome) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerName,
			Streams:  []string{StreamOutcomes, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			c.logger.Error("Failed to read from stream", "error", err)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				o, err := decodeOutcome(message)
				if err != nil {
					c.logger.Error("Invalid outcome entry", "message_id", message.ID, "error", err)
					continue
				}

				if err := handler(o); err != nil {
					c.logger.Error("Outcome handler failed", "error", err, "run_id", o.RunID)
					continue
				}

				if err := c.rdb.XAck(ctx, StreamOutcomes, c.groupName, message.ID).Err(); err != nil {
					c.logger.Error("Failed to ACK message", "error", err, "message_id", message.ID)
				}
			}
		}
	}
}

func decodeOutcome(message redis.XMessage) (Outcome, error) {
	var o Outcome
	payload, ok := message.Values["payload"].(string)
	if !ok {
		return o, errors.New("missing payload")
	}
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		return o, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}
	return o, nil
}

// Close closes the Redis client connection.
func (c *OutcomeConsumer) Close() error {
	return c.rdb.Close()
}
