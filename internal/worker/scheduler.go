package worker

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/jimdaga/autoposter/internal/config"
)

// StartScheduler registers the periodic evaluation on cfg.SchedulerCron and
// starts an Asynq Scheduler. Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config, logger *slog.Logger) (stop func(), err error) {
	if cfg.SchedulerCron == "" {
		return nil, fmt.Errorf("SCHEDULER_CRON is not set")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	s := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: cfg.Location(),
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	entryID, err := s.Register(cfg.SchedulerCron, NewEvaluateTask())
	if err != nil {
		return nil, fmt.Errorf("failed to register evaluation schedule: %w", err)
	}

	// non-blocking
	if err := s.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info(
		"Scheduler started",
		"cron", cfg.SchedulerCron,
		"timezone", cfg.SchedulerTimezone,
		"entry_id", entryID,
	)

	return func() { s.Shutdown() }, nil
}
