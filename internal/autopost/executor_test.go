package autopost

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/jimdaga/autoposter/internal/database"
	"github.com/jimdaga/autoposter/internal/factcheck"
	"github.com/jimdaga/autoposter/internal/history"
	"github.com/jimdaga/autoposter/internal/logging"
	"github.com/jimdaga/autoposter/internal/models"
	"github.com/jimdaga/autoposter/internal/notify"
	"github.com/jimdaga/autoposter/internal/selector"
	"github.com/jimdaga/autoposter/internal/textgen"
	"github.com/jimdaga/autoposter/internal/wordpress"
)

// scriptedGenerator answers by purpose.
type scriptedGenerator struct {
	mu        sync.Mutex
	outline   string
	section   string
	summary   string
	failOn    textgen.Purpose
	summaries int
}

func (g *scriptedGenerator) Generate(_ context.Context, _ textgen.Params, req textgen.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if req.Purpose == g.failOn {
		return "", errors.New("provider unavailable")
	}
	switch req.Purpose {
	case textgen.PurposeOutline:
		return g.outline, nil
	case textgen.PurposeSummary:
		g.summaries++
		return g.summary, nil
	default:
		return g.section, nil
	}
}

type fakePublisher struct {
	posts []wordpress.Post
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, _ models.SiteConfiguration, post wordpress.Post) (*wordpress.PostResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.posts = append(f.posts, post)
	return &wordpress.PostResult{ID: 77, Link: "https://blog.example.com/?p=77"}, nil
}

type fakeVerifier struct {
	reply string
	err   error
	calls int
}

func (f *fakeVerifier) Verify(_ context.Context, _ []factcheck.Item, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type recordingNotifier struct{ outcomes []notify.Outcome }

func (r *recordingNotifier) Notify(_ context.Context, o notify.Outcome) {
	r.outcomes = append(r.outcomes, o)
}

type fixture struct {
	db        *gorm.DB
	store     *history.Store
	gen       *scriptedGenerator
	publisher *fakePublisher
	verifier  *fakeVerifier
	notifier  *recordingNotifier
	exec      *Executor
	now       time.Time
}

const basicOutline = "TITLE: Model title\nLEAD: Intro\nH2: Details\nH2: Wrap-up"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "autopost.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	f := &fixture{
		db:        db,
		store:     history.NewStore(db),
		gen:       &scriptedGenerator{outline: basicOutline, section: "Plain section text about the topic."},
		publisher: &fakePublisher{},
		verifier:  &fakeVerifier{},
		notifier:  &recordingNotifier{},
		now:       time.Date(2026, 10, 18, 0, 3, 0, 0, time.UTC),
	}

	logger := logging.Discard()
	checker := factcheck.NewChecker(f.verifier, 10, logger)
	checker.Delay = 0

	var seed uint64
	f.exec = NewExecutor(Deps{
		Store:     f.store,
		Generator: f.gen,
		Publisher: f.publisher,
		Checker:   checker,
		Notifier:  f.notifier,
		Logger:    logger,
		NewRand: func() *rand.Rand {
			seed++
			return rand.New(rand.NewPCG(seed, seed))
		},
		Now: func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) schedule(t *testing.T, mutate func(*models.Schedule)) *models.Schedule {
	t.Helper()
	ai := models.AIConfiguration{Name: "ai", Provider: models.ProviderOpenAI, APIKey: "sk", ModelName: "gpt-4o-mini"}
	f.db.Create(&ai)
	site := models.SiteConfiguration{Name: "site", BaseURL: "https://blog.example.com", Username: "u", AppPassword: "p", Active: true}
	f.db.Create(&site)

	s := &models.Schedule{
		Name:                "job",
		AIConfigurationID:   ai.ID,
		SiteConfigurationID: site.ID,
		PostTime:            "09:00",
		Frequency:           models.FrequencyDaily,
		Enabled:             true,
		Keywords:            "x,y",
		GenerationMode:      models.GenerationModeKeyword,
		TargetWordCount:     1000,
		PostStatus:          models.PostStatusPublish,
		NotificationRooms:   "1",
	}
	if mutate != nil {
		mutate(s)
	}
	if err := f.db.Create(s).Error; err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	loaded, err := f.store.Schedule(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("load schedule: %v", err)
	}
	return loaded
}

func (f *fixture) records(t *testing.T, scheduleID uint) []models.ExecutionRecord {
	t.Helper()
	recs, err := f.store.ListExecutions(context.Background(), scheduleID, 100)
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	return recs
}

func TestExecuteSelectsRemainingKeyword(t *testing.T) {
	f := newFixture(t)
	s := f.schedule(t, nil)
	f.store.Append(context.Background(), &models.ExecutionRecord{
		RunID: "prior", ScheduleID: s.ID, ExecutedAt: f.now.Add(-48 * time.Hour),
		KeywordUsed: "x", Status: models.ExecutionStatusSuccess,
	})

	for i := 0; i < 3; i++ {
		res, err := f.exec.Execute(context.Background(), s, "run-"+string(rune('a'+i)))
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if i == 0 && res.Keyword != "y" {
			t.Fatalf("expected y after x was used, got %q", res.Keyword)
		}
	}

	recs := f.records(t, s.ID)
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}
	latest := recs[0]
	if latest.KeywordUsed != "x" && latest.KeywordUsed != "y" {
		t.Errorf("exhausted pool should repeat from the original pool, got %q", latest.KeywordUsed)
	}
}

func TestExecutePublishesAndRecords(t *testing.T) {
	f := newFixture(t)
	s := f.schedule(t, nil)

	res, err := f.exec.Execute(context.Background(), s, "run-1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.PostID != 77 || res.PublishStatus != models.PostStatusPublish || res.Title != "Model title" {
		t.Errorf("unexpected result %+v", res)
	}

	if len(f.publisher.posts) != 1 {
		t.Fatalf("expected one post, got %d", len(f.publisher.posts))
	}
	post := f.publisher.posts[0]
	if !strings.Contains(post.Content, "<h2>Details</h2>") || !strings.HasPrefix(post.Content, "<p>") {
		t.Errorf("expected rendered HTML with lead first, got %q", post.Content)
	}

	recs := f.records(t, s.ID)
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	rec := recs[0]
	if rec.Status != models.ExecutionStatusSuccess || rec.ArticleTitle != "Model title" || rec.PostURL != "https://blog.example.com/?p=77" || rec.WordCount == 0 {
		t.Errorf("unexpected record %+v", rec)
	}
	if !rec.ExecutedAt.Equal(f.now) {
		t.Errorf("expected executed_at %v, got %v", f.now, rec.ExecutedAt)
	}

	if len(f.notifier.outcomes) != 1 || f.notifier.outcomes[0].URL != res.PostURL || f.notifier.outcomes[0].Rooms != "1" {
		t.Errorf("unexpected outcomes %+v", f.notifier.outcomes)
	}
}

func TestFactCheckForcesDraft(t *testing.T) {
	f := newFixture(t)
	f.gen.section = "Tokyo is large. It has [[14 million residents]] today."
	f.verifier.reply = `[{"verdict":"incorrect","confidence":85,"correction":"about 14 million"}]`
	s := f.schedule(t, func(s *models.Schedule) { s.FactCheckEnabled = true })

	res, err := f.exec.Execute(context.Background(), s, "run-fc")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.PublishStatus != models.PostStatusDraft || !res.ForcedDraft {
		t.Errorf("expected forced draft, got %+v", res)
	}
	if got := f.publisher.posts[0].Status; got != models.PostStatusDraft {
		t.Errorf("expected draft publish, got %s", got)
	}
	if strings.Contains(f.publisher.posts[0].Content, "[[") {
		t.Errorf("markers should be stripped before publishing")
	}

	report, err := f.store.FactCheckReport(context.Background(), "run-fc")
	if err != nil {
		t.Fatalf("FactCheckReport: %v", err)
	}
	if !report.ForcedDraft || report.TotalClaims != 1 || report.IncorrectCount != 1 {
		t.Errorf("unexpected report %+v", report)
	}
	var results []factcheck.Result
	if err := json.Unmarshal(report.Results, &results); err != nil || len(results) != 1 || results[0].Correction != "about 14 million" {
		t.Errorf("unexpected stored results %s (%v)", report.Results, err)
	}
}

func TestFactCheckFailureKeepsRequestedStatus(t *testing.T) {
	f := newFixture(t)
	f.gen.section = "It has [[14 million residents]] today."
	f.verifier.err = errors.New("verifier down")
	s := f.schedule(t, func(s *models.Schedule) { s.FactCheckEnabled = true })

	res, err := f.exec.Execute(context.Background(), s, "run-fc")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.PublishStatus != models.PostStatusPublish || res.ForcedDraft {
		t.Errorf("expected publish to be kept, got %+v", res)
	}
}

func TestConfigurationErrorRecorded(t *testing.T) {
	f := newFixture(t)
	s := f.schedule(t, nil)
	s.SiteConfiguration.Active = false

	_, err := f.exec.Execute(context.Background(), s, "run-cfg")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	recs := f.records(t, s.ID)
	if len(recs) != 1 || recs[0].Status != models.ExecutionStatusError || !strings.Contains(recs[0].ErrorMessage, "inactive") {
		t.Errorf("expected error record, got %+v", recs)
	}
	if len(f.notifier.outcomes) != 1 || f.notifier.outcomes[0].Error == "" {
		t.Errorf("expected error outcome, got %+v", f.notifier.outcomes)
	}
}

func TestMissingCredentialIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	s := f.schedule(t, nil)
	s.AIConfiguration.APIKey = ""

	if _, err := f.exec.Execute(context.Background(), s, "run-key"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestEmptyPoolIsFatal(t *testing.T) {
	f := newFixture(t)
	s := f.schedule(t, func(s *models.Schedule) { s.Keywords = " , " })

	_, err := f.exec.Execute(context.Background(), s, "run-empty")
	if !errors.Is(err, selector.ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool, got %v", err)
	}
	if len(f.publisher.posts) != 0 {
		t.Error("nothing should be published")
	}
}

func TestGenerationFailureAbortsRun(t *testing.T) {
	f := newFixture(t)
	f.gen.failOn = textgen.PurposeSection
	s := f.schedule(t, nil)

	if _, err := f.exec.Execute(context.Background(), s, "run-gen"); err == nil {
		t.Fatal("expected error")
	}
	if len(f.publisher.posts) != 0 {
		t.Error("no partial article may be published")
	}
	recs := f.records(t, s.ID)
	if len(recs) != 1 || recs[0].Status != models.ExecutionStatusError || recs[0].ArticleTitle != "Model title" {
		t.Errorf("unexpected record %+v", recs)
	}
}

func TestPublishFailureRecorded(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = wordpress.ErrPublish
	s := f.schedule(t, nil)

	if _, err := f.exec.Execute(context.Background(), s, "run-pub"); !errors.Is(err, wordpress.ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	recs := f.records(t, s.ID)
	if len(recs) != 1 || recs[0].PostID != 0 || recs[0].Status != models.ExecutionStatusError {
		t.Errorf("unexpected record %+v", recs)
	}
}

func TestTitleModeUsesFixedTitle(t *testing.T) {
	f := newFixture(t)
	s := f.schedule(t, func(s *models.Schedule) {
		s.GenerationMode = models.GenerationModeTitle
		s.TitlePool = "Only title"
	})

	res, err := f.exec.Execute(context.Background(), s, "run-title")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Mode != selector.ModeTitle || res.Title != "Only title" {
		t.Errorf("unexpected result %+v", res)
	}
	recs := f.records(t, s.ID)
	if recs[0].ArticleTitle != "Only title" || recs[0].KeywordUsed != "" || recs[0].Mode != models.SelectionModeTitle {
		t.Errorf("unexpected record %+v", recs[0])
	}
}

func TestLongArticleIsSummarized(t *testing.T) {
	f := newFixture(t)
	f.gen.section = strings.Repeat("word ", 600)
	f.gen.summary = "## Details\n\n" + strings.Repeat("short ", 900)
	s := f.schedule(t, nil)

	res, err := f.exec.Execute(context.Background(), s, "run-long")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if f.gen.summaries != 1 {
		t.Errorf("expected one summary call, got %d", f.gen.summaries)
	}
	if res.Words > 1300 {
		t.Errorf("expected governed length, got %d", res.Words)
	}
}
