package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jimdaga/autoposter/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued evaluations and forced runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required for worker mode")
		}

		if a.cfg.SchedulerCron != "" {
			stop, err := worker.StartScheduler(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer stop()
		}

		// blocks until SIGINT/SIGTERM
		return worker.Run(a.cfg, a.evaluator, a.logger)
	},
}
