package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/jimdaga/autoposter/internal/config"
)

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, evaluator Evaluator, logger *slog.Logger) error {
	srv, mux, err := newServer(cfg, evaluator, logger)
	if err != nil {
		return err
	}
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, evaluator Evaluator, logger *slog.Logger) (stop func(), err error) {
	srv, mux, err := newServer(cfg, evaluator, logger)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, evaluator Evaluator, logger *slog.Logger) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Concurrency 1 keeps runs strictly sequential inside one worker.
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     1,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := NewMux(evaluator, logger)

	logger.Info("Worker starting", "concurrency", 1)
	return srv, mux, nil
}

// NewMux routes every task type to its handler.
func NewMux(evaluator Evaluator, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEvaluateSchedules, handleEvaluate(logger, evaluator, time.Now))
	mux.HandleFunc(TaskExecuteSchedule, handleExecute(logger, evaluator))
	return mux
}

// handleEvaluate runs one evaluation pass at the current time.
func handleEvaluate(logger *slog.Logger, evaluator Evaluator, now func() time.Time) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		sum, err := evaluator.Evaluate(ctx, now())
		if err != nil {
			return fmt.Errorf("evaluation failed: %v: %w", err, asynq.SkipRetry)
		}
		logger.Info("Processed schedule:evaluate task",
			"evaluated", sum.Evaluated,
			"eligible", sum.Eligible,
			"executed", sum.Executed,
			"failed", sum.Failed,
		)
		return nil
	}
}

// handleExecute forces one run of a schedule.
func handleExecute(logger *slog.Logger, evaluator Evaluator) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload executePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.ScheduleID == 0 {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		logger.Info("Processing schedule:execute task", "schedule_id", payload.ScheduleID)

		res, err := evaluator.ExecuteNow(ctx, payload.ScheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Schedule not found", "schedule_id", payload.ScheduleID)
				return fmt.Errorf("schedule not found: %w", asynq.SkipRetry)
			}
			// the failed run is already recorded; retrying could double-post
			return fmt.Errorf("forced run failed: %v: %w", err, asynq.SkipRetry)
		}

		logger.Info("Forced run completed", "schedule_id", payload.ScheduleID, "run_id", res.RunID, "post_url", res.PostURL)
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error(
				"Task archived",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
