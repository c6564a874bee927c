package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runScheduleID uint

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Force one run of a schedule and wait for it",
	Long: `Force one run of a schedule, skipping the time window, frequency and
enabled checks. The run is recorded like any other.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runScheduleID == 0 {
			return errors.New("--schedule is required")
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := a.evaluator.ExecuteNow(ctx, runScheduleID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	runCmd.Flags().UintVar(&runScheduleID, "schedule", 0, "schedule ID to run")
}
