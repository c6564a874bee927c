package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jimdaga/autoposter/internal/api"
	"github.com/jimdaga/autoposter/internal/database"
	"github.com/jimdaga/autoposter/internal/worker"
)

var serveEmbeddedWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. With REDIS_URL set, ticks and forced runs are queued
for the worker; otherwise they run in a background goroutine of this process.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveEmbeddedWorker, "embedded-worker", false, "also consume queued tasks (and SCHEDULER_CRON) in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	if err := database.RunMigrations(a.db); err != nil {
		return err
	}

	var dispatcher worker.Dispatcher
	if cfg.RedisURL != "" {
		q, err := worker.NewQueueDispatcher(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer q.Close()
		dispatcher = q

		if serveEmbeddedWorker {
			stop, err := worker.Start(cfg, a.evaluator, logger)
			if err != nil {
				return err
			}
			defer stop()
			if cfg.SchedulerCron != "" {
				stopScheduler, err := worker.StartScheduler(cfg, logger)
				if err != nil {
					return err
				}
				defer stopScheduler()
			}
		}
	} else {
		logger.Warn("REDIS_URL not set, running dispatched work in-process")
		dispatcher = worker.NewInlineDispatcher(a.evaluator, logger)
	}

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Options{
		Store:           a.store,
		Dispatcher:      dispatcher,
		SchedulerSecret: cfg.SchedulerSecret,
		OperatorToken:   cfg.OperatorToken,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
