// Package api is the HTTP surface: the scheduler tick, forced execution and
// read access to the execution ledger.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jimdaga/autoposter/internal/factcheck"
	"github.com/jimdaga/autoposter/internal/history"
	"github.com/jimdaga/autoposter/internal/models"
	"github.com/jimdaga/autoposter/internal/worker"
)

// executionHistoryLimit caps the executions endpoint.
const executionHistoryLimit = 50

// TickHandler enqueues an evaluation of every schedule and returns at once.
func TickHandler(dispatcher worker.Dispatcher, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := dispatcher.DispatchEvaluate(c.Request.Context()); err != nil {
			logger.Error("Failed to dispatch evaluation", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue evaluation"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}

type executeRequest struct {
	ForceExecute bool `json:"force_execute"`
}

// ExecuteHandler enqueues a forced run of one schedule. The body must
// contain {"force_execute": true}.
func ExecuteHandler(store *history.Store, dispatcher worker.Dispatcher, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := scheduleID(c)
		if !ok {
			return
		}

		var req executeRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.ForceExecute {
			c.JSON(http.StatusBadRequest, gin.H{"error": `body must be {"force_execute": true}`})
			return
		}

		if _, err := store.Schedule(c.Request.Context(), id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
				return
			}
			logger.Error("Failed to load schedule", "schedule_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load schedule"})
			return
		}

		if err := dispatcher.DispatchExecute(c.Request.Context(), id); err != nil {
			logger.Error("Failed to dispatch execution", "schedule_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue execution"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "schedule_id": id})
	}
}

// ExecutionView is one execution record as returned by the API.
type ExecutionView struct {
	RunID         string    `json:"run_id"`
	ExecutedAt    time.Time `json:"executed_at"`
	Mode          string    `json:"mode"`
	Keyword       string    `json:"keyword,omitempty"`
	Title         string    `json:"title,omitempty"`
	Status        string    `json:"status"`
	PostID        int64     `json:"post_id,omitempty"`
	PostURL       string    `json:"post_url,omitempty"`
	PublishStatus string    `json:"publish_status,omitempty"`
	WordCount     int       `json:"word_count,omitempty"`
	Error         string    `json:"error,omitempty"`
}

func executionView(r models.ExecutionRecord) ExecutionView {
	return ExecutionView{
		RunID:         r.RunID,
		ExecutedAt:    r.ExecutedAt,
		Mode:          r.Mode,
		Keyword:       r.KeywordUsed,
		Title:         r.ArticleTitle,
		Status:        r.Status,
		PostID:        r.PostID,
		PostURL:       r.PostURL,
		PublishStatus: r.PublishStatus,
		WordCount:     r.WordCount,
		Error:         r.ErrorMessage,
	}
}

// ListExecutionsHandler returns the latest execution records of a schedule.
func ListExecutionsHandler(store *history.Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := scheduleID(c)
		if !ok {
			return
		}

		records, err := store.ListExecutions(c.Request.Context(), id, executionHistoryLimit)
		if err != nil {
			logger.Error("Failed to list executions", "schedule_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list executions"})
			return
		}

		views := make([]ExecutionView, 0, len(records))
		for _, r := range records {
			views = append(views, executionView(r))
		}
		c.JSON(http.StatusOK, gin.H{"schedule_id": id, "executions": views})
	}
}

// FactCheckHandler returns the fact-check report of one run.
func FactCheckHandler(store *history.Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := c.Param("run_id")

		report, err := store.FactCheckReport(c.Request.Context(), runID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no fact-check report for this run"})
			return
		}
		if err != nil {
			logger.Error("Failed to load fact-check report", "run_id", runID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
			return
		}

		var results []factcheck.Result
		if len(report.Results) > 0 {
			if err := json.Unmarshal(report.Results, &results); err != nil {
				logger.Warn("Stored fact-check results are malformed", "run_id", runID, "error", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"run_id":          report.RunID,
			"schedule_id":     report.ScheduleID,
			"keyword":         report.Keyword,
			"total_claims":    report.TotalClaims,
			"incorrect_count": report.IncorrectCount,
			"forced_draft":    report.ForcedDraft,
			"results":         results,
			"created_at":      report.CreatedAt,
		})
	}
}

func scheduleID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return 0, false
	}
	return uint(id), true
}
