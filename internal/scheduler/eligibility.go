// Package scheduler decides which schedules are due and runs them one at a
// time. It keeps no state between invocations: the execution ledger and
// cycle leases in the database are the only memory.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jimdaga/autoposter/internal/models"
)

// FiringWindow is how many minutes after the scheduled minute a job may still fire.
const FiringWindow = 5

const dateLayout = "2006-01-02"

// Minimum hours between runs per frequency. They are shorter than the
// nominal period so a late external timer does not skip a cycle.
const (
	dailyHours        = 20
	dailyNewDateHours = 12
	weeklyHours       = 144
	biweeklyHours     = 288
	monthlyHours      = 648
)

// ParseTimeOfDay converts "HH:MM" or "HH:MM:SS" to minutes after midnight.
func ParseTimeOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// WithinFiringWindow reports whether now (already in the reference
// timezone) is 0 to 5 minutes past postTime on the same day.
func WithinFiringWindow(postTime string, now time.Time) (bool, error) {
	scheduled, err := ParseTimeOfDay(postTime)
	if err != nil {
		return false, err
	}
	diff := now.Hour()*60 + now.Minute() - scheduled
	return diff >= 0 && diff <= FiringWindow, nil
}

// ShouldExecute applies the frequency threshold to the time since lastRun.
// Unknown frequencies behave as daily.
func ShouldExecute(freq models.Frequency, lastRun, now time.Time, loc *time.Location) bool {
	elapsed := now.Sub(lastRun).Hours()

	switch freq {
	case models.FrequencyWeekly:
		return elapsed >= weeklyHours
	case models.FrequencyBiweekly:
		return elapsed >= biweeklyHours
	case models.FrequencyMonthly:
		return elapsed >= monthlyHours
	default:
		if elapsed >= dailyHours {
			return true
		}
		dateChanged := lastRun.In(loc).Format(dateLayout) != now.In(loc).Format(dateLayout)
		return elapsed >= dailyNewDateHours && dateChanged
	}
}

// Decision is the outcome of evaluating one schedule.
type Decision struct {
	Eligible bool
	Reason   string
	CycleKey string
}

// CycleKey identifies one firing cycle: the reference date plus the
// scheduled minute, e.g. 2026-10-18T09:00.
func CycleKey(postTime string, now time.Time, loc *time.Location) string {
	local := now.In(loc)
	if minutes, err := ParseTimeOfDay(postTime); err == nil {
		return fmt.Sprintf("%sT%02d:%02d", local.Format(dateLayout), minutes/60, minutes%60)
	}
	return local.Format(dateLayout) + "T" + strings.TrimSpace(postTime)
}

// Decide checks the date bounds, the firing window, first run and the
// frequency threshold, in that order.
func Decide(s *models.Schedule, lastRun *time.Time, now time.Time, loc *time.Location) Decision {
	local := now.In(loc)
	today := local.Format(dateLayout)

	if ok, reason := withinBounds(s, today); !ok {
		return Decision{Reason: reason}
	}

	inWindow, err := WithinFiringWindow(s.PostTime, local)
	if err != nil {
		return Decision{Reason: err.Error()}
	}
	if !inWindow {
		return Decision{Reason: "outside firing window"}
	}

	key := CycleKey(s.PostTime, now, loc)
	if lastRun == nil {
		return Decision{Eligible: true, Reason: "first run", CycleKey: key}
	}
	if !ShouldExecute(s.Frequency, *lastRun, now, loc) {
		return Decision{Reason: "frequency threshold not reached"}
	}
	return Decision{Eligible: true, Reason: "due", CycleKey: key}
}

func withinBounds(s *models.Schedule, today string) (bool, string) {
	if start := strings.TrimSpace(s.StartDate); start != "" {
		if _, err := time.Parse(dateLayout, start); err != nil {
			return false, fmt.Sprintf("invalid start_date %q", start)
		}
		if today < start {
			return false, "before start_date"
		}
	}
	if end := strings.TrimSpace(s.EndDate); end != "" {
		if _, err := time.Parse(dateLayout, end); err != nil {
			return false, fmt.Sprintf("invalid end_date %q", end)
		}
		if today > end {
			return false, "after end_date"
		}
	}
	return true, ""
}
