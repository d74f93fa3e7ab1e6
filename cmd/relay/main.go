package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verse-reader/speech-relay/internal/buildinfo"
	"github.com/verse-reader/speech-relay/internal/config"
)

var (
	dotEnvFile string

	rootCmd = &cobra.Command{
		Use:           buildinfo.Info.BinaryName,
		Short:         buildinfo.Info.Description,
		Version:       buildinfo.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dotEnvFile, "env-file", ".env", "dotenv file read before the environment (missing file is ignored)")
	rootCmd.AddCommand(serveCmd, sayCmd, simplifyCmd, voicesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	var files []string
	if dotEnvFile != "" {
		files = append(files, dotEnvFile)
	}
	return config.Loader{DotEnvFiles: files}.Load()
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
