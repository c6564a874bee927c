package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jimdaga/autoposter/internal/autopost"
	"github.com/jimdaga/autoposter/internal/history"
	"github.com/jimdaga/autoposter/internal/models"
)

// ErrCycleInFlight is returned by ExecuteNow when the current cycle of the
// schedule is already claimed by another run.
var ErrCycleInFlight = errors.New("cycle already claimed")

// forcedLeasePrefix marks leases taken by forced runs outside a firing window.
const forcedLeasePrefix = "force:"

// Pipeline executes one run of a schedule.
type Pipeline interface {
	Execute(ctx context.Context, schedule *models.Schedule, runID string) (*autopost.Result, error)
}

// Summary counts what one evaluation pass did.
type Summary struct {
	Evaluated int `json:"evaluated"`
	Eligible  int `json:"eligible"`
	Executed  int `json:"executed"`
	Failed    int `json:"failed"`
	Claimed   int `json:"already_claimed"`
}

// Evaluator walks enabled schedules and runs the due ones sequentially.
type Evaluator struct {
	store    *history.Store
	pipeline Pipeline
	loc      *time.Location
	logger   *slog.Logger
	newRunID func() string
	now      func() time.Time
}

// NewEvaluator creates an Evaluator using loc as the reference timezone.
func NewEvaluator(store *history.Store, pipeline Pipeline, loc *time.Location, logger *slog.Logger) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{
		store:    store,
		pipeline: pipeline,
		loc:      loc,
		logger:   logger.With("component", "scheduler"),
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

// Evaluate runs every schedule that is due at now. One schedule failing
// never stops the others; only a failure to list schedules or a cancelled
// context is returned.
func (e *Evaluator) Evaluate(ctx context.Context, now time.Time) (Summary, error) {
	var sum Summary

	schedules, err := e.store.EnabledSchedules(ctx)
	if err != nil {
		return sum, err
	}

	e.logger.Info("Evaluating schedules", "count", len(schedules), "now", now.In(e.loc).Format(time.RFC3339))

	for i := range schedules {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		s := &schedules[i]
		sum.Evaluated++

		last, err := e.store.LastExecution(ctx, s.ID)
		if err != nil {
			e.logger.Error("Failed to load history", "schedule_id", s.ID, "error", err)
			sum.Failed++
			continue
		}

		d := Decide(s, last, now, e.loc)
		if !d.Eligible {
			e.logger.Debug("Schedule not due", "schedule_id", s.ID, "reason", d.Reason)
			continue
		}
		sum.Eligible++

		runID := e.newRunID()
		claimed, err := e.store.ClaimLease(ctx, s.ID, d.CycleKey, runID, now.UTC())
		if err != nil {
			e.logger.Error("Failed to claim cycle", "schedule_id", s.ID, "cycle", d.CycleKey, "error", err)
			sum.Failed++
			continue
		}
		if !claimed {
			e.logger.Info("Cycle already claimed by another invocation", "schedule_id", s.ID, "cycle", d.CycleKey)
			sum.Claimed++
			continue
		}

		if _, err := e.pipeline.Execute(ctx, s, runID); err != nil {
			sum.Failed++
			continue
		}
		sum.Executed++
	}

	e.logger.Info("Evaluation finished",
		"evaluated", sum.Evaluated,
		"eligible", sum.Eligible,
		"executed", sum.Executed,
		"failed", sum.Failed,
	)
	return sum, nil
}

// ExecuteNow force-runs one schedule. It skips the window, frequency,
// enabled and date checks but still takes a lease. Inside the firing window
// it claims the current cycle, so it never overlaps the scheduled run of
// that cycle; outside it the lease key is force:<runID>.
func (e *Evaluator) ExecuteNow(ctx context.Context, scheduleID uint) (*autopost.Result, error) {
	s, err := e.store.Schedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	runID := e.newRunID()
	key := forcedLeasePrefix + runID
	if inWindow, err := WithinFiringWindow(s.PostTime, now.In(e.loc)); err == nil && inWindow {
		key = CycleKey(s.PostTime, now, e.loc)
	}

	claimed, err := e.store.ClaimLease(ctx, s.ID, key, runID, now.UTC())
	if err != nil {
		return nil, err
	}
	if !claimed {
		e.logger.Warn("Forced run refused, cycle in flight", "schedule_id", scheduleID, "cycle", key)
		return nil, fmt.Errorf("schedule %d cycle %s: %w", scheduleID, key, ErrCycleInFlight)
	}

	e.logger.Info("Force-executing schedule", "schedule_id", scheduleID, "run_id", runID, "lease", key)

	res, err := e.pipeline.Execute(ctx, s, runID)
	if err != nil {
		return nil, fmt.Errorf("forced run %s: %w", runID, err)
	}
	return res, nil
}
