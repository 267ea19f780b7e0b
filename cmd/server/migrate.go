package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/yukikurage/secure-task-api/internal/config"
	"github.com/yukikurage/secure-task-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and indexes, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		slog.SetDefault(newLogger(cfg))

		if err := database.Connect(cfg); err != nil {
			return err
		}
		return database.Migrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
