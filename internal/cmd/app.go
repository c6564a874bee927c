package cmd

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/jimdaga/autoposter/internal/autopost"
	"github.com/jimdaga/autoposter/internal/competitor"
	"github.com/jimdaga/autoposter/internal/config"
	"github.com/jimdaga/autoposter/internal/database"
	"github.com/jimdaga/autoposter/internal/factcheck"
	"github.com/jimdaga/autoposter/internal/history"
	"github.com/jimdaga/autoposter/internal/logging"
	"github.com/jimdaga/autoposter/internal/models"
	"github.com/jimdaga/autoposter/internal/notify"
	"github.com/jimdaga/autoposter/internal/scheduler"
	"github.com/jimdaga/autoposter/internal/textgen"
	"github.com/jimdaga/autoposter/internal/wordpress"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *gorm.DB
	store     *history.Store
	evaluator *scheduler.Evaluator
	closers   []func() error
}

// loadBase loads configuration, the logger, credential sealing and the
// database.
func loadBase() (*app, error) {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.EncryptionKey != "" {
		if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
			return nil, fmt.Errorf("failed to initialize encryption: %w", err)
		}
	}

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, db: db, store: history.NewStore(db)}
	a.closers = append(a.closers, func() error { return database.Close(db) })
	return a, nil
}

// bootstrap wires the full pipeline on top of loadBase.
func bootstrap() (*app, error) {
	a, err := loadBase()
	if err != nil {
		return nil, err
	}
	cfg, logger := a.cfg, a.logger

	gateway := textgen.NewDefaultGateway(logger, cfg.StubMode)
	publisher := wordpress.NewClient(cfg.StubMode, logger)

	var checker *factcheck.Checker
	if cfg.FactCheckAPIKey != "" {
		verifier := factcheck.NewOpenAICompatibleVerifier(cfg.FactCheckAPIKey, cfg.FactCheckBaseURL, cfg.FactCheckModel)
		checker = factcheck.NewChecker(verifier, cfg.FactCheckMaxClaims, logger)
	} else {
		logger.Warn("FACTCHECK_API_KEY not set, fact-check enabled schedules will publish unchecked")
	}

	var researcher competitor.Researcher
	if cfg.GoogleSearchAPIKey != "" && cfg.GoogleSearchEngineID != "" {
		researcher = competitor.NewGoogleResearcher(cfg.GoogleSearchAPIKey, cfg.GoogleSearchEngineID, logger)
	}

	sinks := notify.Multi{notify.LogNotifier{Logger: logger}}
	if cfg.ChatworkAPIToken != "" {
		sinks = append(sinks, notify.NewChatworkNotifier(cfg.ChatworkBaseURL, cfg.ChatworkAPIToken, logger))
	}
	if cfg.RedisURL != "" {
		stream, err := notify.NewStreamNotifier(cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("Outcome stream disabled", "error", err)
		} else {
			sinks = append(sinks, stream)
			a.closers = append(a.closers, stream.Close)
		}
	}

	executor := autopost.NewExecutor(autopost.Deps{
		Store:      a.store,
		Generator:  gateway,
		Publisher:  publisher,
		Checker:    checker,
		Researcher: researcher,
		Notifier:   sinks,
		Logger:     logger,
	})
	a.evaluator = scheduler.NewEvaluator(a.store, executor, cfg.Location(), logger)

	logger.Info("Pipeline ready",
		"providers", gateway.Providers(),
		"stub_mode", cfg.StubMode,
		"fact_check", checker != nil,
		"competitor_research", researcher != nil,
		"timezone", cfg.SchedulerTimezone,
	)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Shutdown error", "error", err)
		}
	}
}
