package main

import (
	"errors"

	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/migration"
	"github.com/spf13/cobra"
)

var migrateDownSteps int

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := migrationDSN()
		if err != nil {
			return err
		}
		return migration.Up(dsn)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := migrationDSN()
		if err != nil {
			return err
		}
		return migration.Down(dsn, migrateDownSteps)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)

	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back; 0 rolls back everything")
}

func migrationDSN() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Database.Driver != "postgres" {
		return "", errors.New("migrations need DB_DRIVER=postgres")
	}
	return cfg.DatabaseURL(), nil
}
