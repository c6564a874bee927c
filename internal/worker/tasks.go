package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jimdaga/autoposter/internal/autopost"
	"github.com/jimdaga/autoposter/internal/scheduler"
)

// Task type constants
const (
	TaskEvaluateSchedules = "schedule:evaluate"
	TaskExecuteSchedule   = "schedule:execute"
)

// evaluateUniqueTTL keeps two ticks of the same minute from both queueing
// an evaluation. The cycle lease is still the authoritative guard.
const evaluateUniqueTTL = 55 * time.Second

// Evaluator is the scheduling capability the worker drives.
type Evaluator interface {
	Evaluate(ctx context.Context, now time.Time) (scheduler.Summary, error)
	ExecuteNow(ctx context.Context, scheduleID uint) (*autopost.Result, error)
}

var _ Evaluator = (*scheduler.Evaluator)(nil)

type executePayload struct {
	ScheduleID uint `json:"schedule_id"`
}

// NewEvaluateTask builds the periodic evaluation task. Evaluations are
// never retried; the next tick is the retry.
func NewEvaluateTask() *asynq.Task {
	return asynq.NewTask(
		TaskEvaluateSchedules,
		nil, // handler evaluates every enabled schedule
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(evaluateUniqueTTL),
	)
}

// NewExecuteTask builds a forced execution task for one schedule.
// A failed run is already recorded, so it is never retried.
func NewExecuteTask(scheduleID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(executePayload{ScheduleID: scheduleID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskExecuteSchedule,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(15*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// Dispatcher hands evaluation and forced execution off the request path.
type Dispatcher interface {
	DispatchEvaluate(ctx context.Context) error
	DispatchExecute(ctx context.Context, scheduleID uint) error
}

// QueueDispatcher enqueues tasks to Redis for the worker process.
type QueueDispatcher struct {
	client *asynq.Client
}

// NewQueueDispatcher connects an Asynq client to redisURL.
func NewQueueDispatcher(redisURL string) (*QueueDispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &QueueDispatcher{client: asynq.NewClient(opt)}, nil
}

// DispatchEvaluate enqueues an evaluation. A duplicate within the same
// minute is not an error.
func (q *QueueDispatcher) DispatchEvaluate(ctx context.Context) error {
	_, err := q.client.EnqueueContext(ctx, NewEvaluateTask())
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// DispatchExecute enqueues a forced run.
func (q *QueueDispatcher) DispatchExecute(ctx context.Context, scheduleID uint) error {
	task, err := NewExecuteTask(scheduleID)
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueContext(ctx, task)
	return err
}

// Close closes the Asynq client connection gracefully.
func (q *QueueDispatcher) Close() error {
	return q.client.Close()
}

// InlineDispatcher runs work in a background goroutine of the current
// process. Used when no Redis is configured.
type InlineDispatcher struct {
	evaluator Evaluator
	logger    *slog.Logger
	now       func() time.Time
	done      func()
}

// NewInlineDispatcher creates an InlineDispatcher.
func NewInlineDispatcher(evaluator Evaluator, logger *slog.Logger) *InlineDispatcher {
	return &InlineDispatcher{evaluator: evaluator, logger: logger, now: time.Now, done: func() {}}
}

// DispatchEvaluate starts an evaluation that outlives the request.
func (d *InlineDispatcher) DispatchEvaluate(ctx context.Context) error {
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer d.done()
		sum, err := d.evaluator.Evaluate(runCtx, d.now())
		if err != nil {
			d.logger.Error("Inline evaluation failed", "error", err)
			return
		}
		d.logger.Info("Inline evaluation finished", "executed", sum.Executed, "failed", sum.Failed)
	}()
	return nil
}

// DispatchExecute starts a forced run that outlives the request.
func (d *InlineDispatcher) DispatchExecute(ctx context.Context, scheduleID uint) error {
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer d.done()
		if _, err := d.evaluator.ExecuteNow(runCtx, scheduleID); err != nil {
			d.logger.Error("Inline execution failed", "schedule_id", scheduleID, "error", err)
		}
	}()
	return nil
}
