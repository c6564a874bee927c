// Package autopost runs the content pipeline for one schedule: select a
// keyword or title, plan, write, govern length, fact-check, publish, record
// and notify.
package autopost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jimdaga/autoposter/internal/article"
	"github.com/jimdaga/autoposter/internal/competitor"
	"github.com/jimdaga/autoposter/internal/factcheck"
	"github.com/jimdaga/autoposter/internal/history"
	"github.com/jimdaga/autoposter/internal/models"
	"github.com/jimdaga/autoposter/internal/notify"
	"github.com/jimdaga/autoposter/internal/outline"
	"github.com/jimdaga/autoposter/internal/selector"
	"github.com/jimdaga/autoposter/internal/textgen"
	"github.com/jimdaga/autoposter/internal/wordpress"
)

// ErrConfiguration marks a schedule that cannot run because its AI or site
// configuration is missing or incomplete.
var ErrConfiguration = errors.New("configuration error")

// Publisher creates posts on a site.
type Publisher interface {
	Publish(ctx context.Context, site models.SiteConfiguration, post wordpress.Post) (*wordpress.PostResult, error)
}

// Deps are the collaborators of an Executor. Checker, Researcher and
// Notifier are optional.
type Deps struct {
	Store      *history.Store
	Generator  textgen.Generator
	Publisher  Publisher
	Checker    *factcheck.Checker
	Researcher competitor.Researcher
	Notifier   notify.Notifier
	Logger     *slog.Logger
	NewRand    func() *rand.Rand
	Now        func() time.Time
}

// Executor runs the pipeline.
type Executor struct {
	store      *history.Store
	gen        textgen.Generator
	planner    *outline.Planner
	writer     *article.Writer
	governor   *article.Governor
	publisher  Publisher
	checker    *factcheck.Checker
	researcher competitor.Researcher
	notifier   notify.Notifier
	logger     *slog.Logger
	newRand    func() *rand.Rand
	now        func() time.Time
}

// NewExecutor wires an Executor.
func NewExecutor(d Deps) *Executor {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "autopost")

	e := &Executor{
		store:      d.Store,
		gen:        d.Generator,
		planner:    outline.NewPlanner(d.Generator, logger),
		writer:     article.NewWriter(d.Generator, logger),
		governor:   article.NewGovernor(d.Generator, logger),
		publisher:  d.Publisher,
		checker:    d.Checker,
		researcher: d.Researcher,
		notifier:   d.Notifier,
		logger:     logger,
		newRand:    d.NewRand,
		now:        d.Now,
	}
	if e.notifier == nil {
		e.notifier = notify.Nop{}
	}
	if e.newRand == nil {
		e.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) }
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Result summarizes a successful run.
type Result struct {
	RunID         string
	Mode          selector.Mode
	Keyword       string
	Title         string
	PostID        int64
	PostURL       string
	PublishStatus string
	Words         int
	ForcedDraft   bool
}

// run carries per-run state through the pipeline.
type run struct {
	id       string
	schedule *models.Schedule
	params   textgen.Params
	mode     selector.Mode
	keyword  string
	title    string
	result   *Result
}

// Execute runs the pipeline once and appends exactly one execution record,
// success or error. A failed run is returned as an error after recording.
func (e *Executor) Execute(ctx context.Context, schedule *models.Schedule, runID string) (*Result, error) {
	startedAt := e.now().UTC()
	logger := e.logger.With("run_id", runID, "schedule_id", schedule.ID)
	logger.Info("Run started", "schedule", schedule.Name)

	r := &run{id: runID, schedule: schedule}
	err := e.pipeline(ctx, r, logger)

	rec := &models.ExecutionRecord{
		RunID:               runID,
		ScheduleID:          schedule.ID,
		SiteConfigurationID: schedule.SiteConfigurationID,
		ExecutedAt:          startedAt,
		Mode:                string(r.mode),
		KeywordUsed:         recordedKeyword(r),
		ArticleTitle:        recordedTitle(r),
		Status:              models.ExecutionStatusSuccess,
	}
	if rec.Mode == "" {
		rec.Mode = models.SelectionModeKeyword
	}
	if err != nil {
		rec.Status = models.ExecutionStatusError
		rec.ErrorMessage = err.Error()
	} else {
		rec.PostID = r.result.PostID
		rec.PostURL = r.result.PostURL
		rec.PublishStatus = r.result.PublishStatus
		rec.WordCount = r.result.Words
	}

	// The record must survive a cancelled run context.
	recordCtx := context.WithoutCancel(ctx)
	if appendErr := e.store.Append(recordCtx, rec); appendErr != nil {
		logger.Error("Failed to record execution", "error", appendErr)
		if err == nil {
			err = appendErr
		}
	}

	outcome := notify.Outcome{
		RunID:        runID,
		ScheduleID:   schedule.ID,
		ScheduleName: schedule.Name,
		Status:       rec.Status,
		Title:        rec.ArticleTitle,
		Keyword:      r.keyword,
		Rooms:        schedule.NotificationRooms,
		Template:     schedule.NotificationTemplate,
	}

	if err != nil {
		logger.Error("Run failed", "error", err)
		outcome.Error = err.Error()
		e.notifier.Notify(recordCtx, outcome)
		return nil, err
	}

	if touchErr := e.store.TouchLastExecuted(recordCtx, schedule.ID, startedAt); touchErr != nil {
		logger.Warn("Failed to update last_executed_at", "error", touchErr)
	}

	outcome.URL = r.result.PostURL
	outcome.PublishStatus = r.result.PublishStatus
	e.notifier.Notify(recordCtx, outcome)

	logger.Info("Run completed",
		"post_id", r.result.PostID,
		"status", r.result.PublishStatus,
		"words", r.result.Words,
		"duration", time.Since(startedAt),
	)
	return r.result, nil
}

func recordedKeyword(r *run) string {
	if r.mode == selector.ModeKeyword {
		return r.keyword
	}
	return ""
}

func recordedTitle(r *run) string {
	if r.result != nil && r.result.Title != "" {
		return r.result.Title
	}
	return r.title
}

func (e *Executor) pipeline(ctx context.Context, r *run, logger *slog.Logger) error {
	s := r.schedule
	if err := validate(s); err != nil {
		return err
	}
	r.params = textgen.ParamsFrom(s.AIConfiguration)

	if err := e.choose(ctx, r); err != nil {
		return err
	}
	logger = logger.With("mode", r.mode, "keyword", r.keyword)

	var headings []string
	if s.CompetitorResearch && e.researcher != nil {
		h, err := e.researcher.Headings(ctx, r.keyword)
		if err != nil {
			logger.Warn("Competitor research failed, continuing without it", "error", err)
		} else {
			headings = h
		}
	}

	o, err := e.planner.Plan(ctx, outline.Request{
		Keyword:            r.keyword,
		FixedTitle:         r.title,
		TargetWords:        s.TargetWordCount,
		CustomInstructions: s.CustomInstructions,
		CompetitorHeadings: headings,
		Params:             r.params,
	})
	if err != nil {
		return err
	}
	r.title = o.Title
	logger.Info("Outline planned", "title", o.Title, "sections", len(o.Sections), "planned_words", o.TotalWords())

	contents, err := e.writer.WriteAll(ctx, o, article.Options{
		Tone:               s.Tone,
		CustomInstructions: s.CustomInstructions,
		FactCheck:          s.FactCheckEnabled,
		Params:             r.params,
	})
	if err != nil {
		return fmt.Errorf("failed to write article: %w", err)
	}

	keywords := selector.ParseKeywords(s.Keywords)
	if len(keywords) == 0 {
		keywords = []string{r.keyword}
	}
	governed, err := e.governor.Govern(ctx, r.params, article.Assemble(o, contents), s.TargetWordCount, keywords)
	if err != nil {
		return err
	}

	status, forced := e.factCheck(ctx, r, governed.Text, logger)

	final := article.StripMarkers(governed.Text)
	if strings.TrimSpace(final) == "" {
		return errors.New("article is empty after length governance")
	}
	html, err := article.RenderHTML(final)
	if err != nil {
		return fmt.Errorf("failed to render article: %w", err)
	}

	post, err := e.publisher.Publish(ctx, s.SiteConfiguration, wordpress.Post{
		Title:   o.Title,
		Content: html,
		Status:  status,
		Excerpt: o.Description,
	})
	if err != nil {
		return err
	}

	r.result = &Result{
		RunID:         r.id,
		Mode:          r.mode,
		Keyword:       r.keyword,
		Title:         o.Title,
		PostID:        post.ID,
		PostURL:       post.Link,
		PublishStatus: status,
		Words:         article.CountWords(final),
		ForcedDraft:   forced,
	}
	return nil
}

func validate(s *models.Schedule) error {
	ai := s.AIConfiguration
	if s.AIConfigurationID == 0 || ai.ID == 0 {
		return fmt.Errorf("%w: AI configuration not found", ErrConfiguration)
	}
	if ai.Provider != models.ProviderStub && (ai.APIKey == "" || ai.ModelName == "") {
		return fmt.Errorf("%w: AI configuration %q has no API key or model", ErrConfiguration, ai.Name)
	}

	site := s.SiteConfiguration
	if s.SiteConfigurationID == 0 || site.ID == 0 {
		return fmt.Errorf("%w: site configuration not found", ErrConfiguration)
	}
	if !site.Active {
		return fmt.Errorf("%w: site %q is inactive", ErrConfiguration, site.Name)
	}
	if site.BaseURL == "" || site.Username == "" || site.AppPassword == "" {
		return fmt.Errorf("%w: site %q is missing its URL or credentials", ErrConfiguration, site.Name)
	}
	return nil
}

// choose picks the mode and the keyword or title for this run.
func (e *Executor) choose(ctx context.Context, r *run) error {
	s := r.schedule
	rng := e.newRand()
	titles := selector.ParseTitles(s.TitlePool)
	r.mode = selector.ChooseMode(s.GenerationMode, len(titles) > 0, rng)

	pool := selector.ParseKeywords(s.Keywords)
	if r.mode == selector.ModeTitle {
		pool = titles
	}

	used, err := e.store.UsedValues(ctx, s.ID, string(r.mode))
	if err != nil {
		return err
	}
	value, err := selector.Select(pool, used, rng)
	if err != nil {
		return fmt.Errorf("%s mode: %w", r.mode, err)
	}

	if r.mode == selector.ModeTitle {
		r.title = value
	}
	r.keyword = value
	return nil
}

// factCheck returns the status to publish with. Every failure here keeps
// the requested status.
func (e *Executor) factCheck(ctx context.Context, r *run, text string, logger *slog.Logger) (string, bool) {
	s := r.schedule
	requested := s.RequestedStatus()
	if !s.FactCheckEnabled {
		return requested, false
	}
	if e.checker == nil {
		logger.Warn("Fact-check enabled but no verifier configured")
		return requested, false
	}

	report, err := e.checker.Check(ctx, text, r.keyword, s.FactCheckNote)
	if err != nil {
		logger.Warn("Fact-check failed, keeping requested status", "error", err)
		return requested, false
	}

	status, forced := factcheck.Gate(report.Results, requested)
	if forced {
		logger.Warn("Fact-check forced draft", "incorrect", report.IncorrectCount, "claims", report.TotalClaims)
	}

	results, err := json.Marshal(report.Results)
	if err != nil {
		logger.Warn("Failed to encode fact-check results", "error", err)
		return status, forced
	}
	if err := e.store.SaveFactCheckReport(context.WithoutCancel(ctx), &models.FactCheckReport{
		RunID:          r.id,
		ScheduleID:     s.ID,
		Keyword:        r.keyword,
		Results:        results,
		TotalClaims:    report.TotalClaims,
		IncorrectCount: report.IncorrectCount,
		ForcedDraft:    forced,
	}); err != nil {
		logger.Warn("Failed to save fact-check report", "error", err)
	}
	return status, forced
}
