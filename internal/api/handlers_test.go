package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jimdaga/autoposter/internal/auth"
	"github.com/jimdaga/autoposter/internal/database"
	"github.com/jimdaga/autoposter/internal/history"
	"github.com/jimdaga/autoposter/internal/logging"
	"github.com/jimdaga/autoposter/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDispatcher struct {
	mu        sync.Mutex
	evaluates int
	executes  []uint
}

func (f *fakeDispatcher) DispatchEvaluate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluates++
	return nil
}

func (f *fakeDispatcher) DispatchExecute(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executes = append(f.executes, id)
	return nil
}

type harness struct {
	router     *gin.Engine
	store      *history.Store
	dispatcher *fakeDispatcher
	schedule   models.Schedule
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	ai := models.AIConfiguration{Name: "ai", Provider: models.ProviderStub, ModelName: "stub-1"}
	db.Create(&ai)
	site := models.SiteConfiguration{Name: "site", BaseURL: "https://blog.example.com", Username: "u", AppPassword: "p", Active: true}
	db.Create(&site)
	s := models.Schedule{Name: "job", AIConfigurationID: ai.ID, SiteConfigurationID: site.ID, Keywords: "a"}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	h := &harness{store: history.NewStore(db), dispatcher: &fakeDispatcher{}, schedule: s}
	h.router = NewRouter(Options{
		Store:           h.store,
		Dispatcher:      h.dispatcher,
		SchedulerSecret: "tick-secret",
		OperatorToken:   "op-token",
		Logger:          logging.Discard(),
	})
	return h
}

func (h *harness) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

var operator = map[string]string{"Authorization": "Bearer op-token"}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestTick(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/scheduler/tick", "", map[string]string{auth.SchedulerSecretHeader: "tick-secret"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if h.dispatcher.evaluates != 1 {
		t.Errorf("expected one dispatch, got %d", h.dispatcher.evaluates)
	}

	w = h.do(http.MethodPost, "/api/scheduler/tick", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without secret, got %d", w.Code)
	}
	if h.dispatcher.evaluates != 1 {
		t.Errorf("unauthorized tick must not dispatch")
	}
}

func TestExecute(t *testing.T) {
	h := newHarness(t)
	path := "/api/schedules/" + itoa(h.schedule.ID) + "/execute"

	tests := []struct {
		name    string
		path    string
		body    string
		headers map[string]string
		want    int
	}{
		{"accepted", path, `{"force_execute":true}`, operator, http.StatusAccepted},
		{"flag false", path, `{"force_execute":false}`, operator, http.StatusBadRequest},
		{"no body", path, "", operator, http.StatusBadRequest},
		{"bad id", "/api/schedules/abc/execute", `{"force_execute":true}`, operator, http.StatusBadRequest},
		{"unknown schedule", "/api/schedules/999/execute", `{"force_execute":true}`, operator, http.StatusNotFound},
		{"no token", path, `{"force_execute":true}`, nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, tt.path, tt.body, tt.headers)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d (%s)", tt.want, w.Code, w.Body.String())
			}
		})
	}

	if len(h.dispatcher.executes) != 1 || h.dispatcher.executes[0] != h.schedule.ID {
		t.Errorf("expected exactly one dispatch, got %v", h.dispatcher.executes)
	}
}

func TestListExecutions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	h.store.Append(ctx, &models.ExecutionRecord{RunID: "old", ScheduleID: h.schedule.ID, ExecutedAt: base, KeywordUsed: "a", Status: models.ExecutionStatusSuccess})
	h.store.Append(ctx, &models.ExecutionRecord{RunID: "new", ScheduleID: h.schedule.ID, ExecutedAt: base.Add(24 * time.Hour), Status: models.ExecutionStatusError, ErrorMessage: "boom"})

	w := h.do(http.MethodGet, "/api/schedules/"+itoa(h.schedule.ID)+"/executions", "", operator)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Executions []ExecutionView `json:"executions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Executions) != 2 || body.Executions[0].RunID != "new" || body.Executions[0].Error != "boom" {
		t.Errorf("unexpected executions %+v", body.Executions)
	}
}

func TestFactCheckReport(t *testing.T) {
	h := newHarness(t)
	h.store.SaveFactCheckReport(context.Background(), &models.FactCheckReport{
		RunID:          "run-1",
		ScheduleID:     h.schedule.ID,
		Keyword:        "a",
		Results:        []byte(`[{"claim":"c","verdict":"incorrect","confidence":85}]`),
		TotalClaims:    1,
		IncorrectCount: 1,
		ForcedDraft:    true,
	})

	w := h.do(http.MethodGet, "/api/executions/run-1/fact-check", "", operator)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		ForcedDraft bool `json:"forced_draft"`
		Results     []struct {
			Verdict string `json:"verdict"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.ForcedDraft || len(body.Results) != 1 || body.Results[0].Verdict != "incorrect" {
		t.Errorf("unexpected report %s", w.Body.String())
	}

	w = h.do(http.MethodGet, "/api/executions/missing/fact-check", "", operator)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
