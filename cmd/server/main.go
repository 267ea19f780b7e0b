package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yukikurage/secure-task-api/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "secure-task-api",
	Short: "Task management API with OTP login",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Overload(); err != nil {
			slog.Debug("No .env file loaded", slog.Any("error", err))
		}
	},
	// Running the binary without a subcommand starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(config.Load())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// newLogger returns a JSON logger in release mode and a text logger otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.GinMode == "release" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
