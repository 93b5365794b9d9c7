// Triage CLI: инструмент командной строки для триажа issues
// и управления ресурсами через HTTP API.
//
// Использование:
//
//	triage [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	issue      Локальный триаж одного issue
//	job        Задания на триаж
//	user       Пользователи
//	task       Tasks
//	workspace  Workspaces
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shaiso/Triage/internal/cli"
	"github.com/shaiso/Triage/internal/config"
	"github.com/shaiso/Triage/internal/telemetry"
	"github.com/shaiso/Triage/internal/triage"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	_ = godotenv.Load()

	var apiURL string
	var apiToken string
	var jsonOutput bool
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "triage",
		Short:         "Triage CLI: label and proofread GitHub issues",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("TRIAGE_API_URL", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "api-token", os.Getenv("API_TOKEN"), "API bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log workflow steps to stderr")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, apiToken) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	runnerFn := func(ctx context.Context) (cli.IssueRunner, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if verbose {
			logger = telemetry.NewLogger(os.Stderr, slog.LevelInfo, "text")
		}
		svc, err := triage.Setup(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}

	rootCmd.AddCommand(
		cli.NewIssueCmd(runnerFn, outputFn),
		cli.NewJobCmd(clientFn, outputFn),
		cli.NewUserCmd(clientFn, outputFn),
		cli.NewTaskCmd(clientFn, outputFn),
		cli.NewWorkspaceCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
