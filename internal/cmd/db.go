package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jimdaga/autoposter/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadBase()
		if err != nil {
			return err
		}
		defer a.close()
		return database.RunMigrations(a.db)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert development data (stub AI, local site, one schedule)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadBase()
		if err != nil {
			return err
		}
		defer a.close()
		if err := database.RunMigrations(a.db); err != nil {
			return err
		}
		return database.SeedDevData(a.db)
	},
}
