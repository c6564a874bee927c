package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jimdaga/autoposter/internal/config"
	"github.com/jimdaga/autoposter/internal/logging"
	"github.com/jimdaga/autoposter/internal/notify"
)

var (
	outcomesGroup    string
	outcomesConsumer string
)

var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Tail run outcomes from the Redis stream as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := logging.New(cfg.LogLevel, cfg.LogFormat)
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		consumer, err := notify.NewOutcomeConsumer(ctx, cfg.RedisURL, outcomesGroup, outcomesConsumer, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()

		enc := json.NewEncoder(os.Stdout)
		err = consumer.Consume(ctx, func(o notify.Outcome) error {
			return enc.Encode(o)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	outcomesCmd.Flags().StringVar(&outcomesGroup, "group", "autoposter-cli", "consumer group name")
	outcomesCmd.Flags().StringVar(&outcomesConsumer, "consumer", "cli", "consumer name within the group")
}
