package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/bootstrap"
	"gopherai-interview/internal/config"
	"gopherai-interview/internal/session"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "prepctl",
		Short:        "Operator tool for the interview prep search indexes",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configFile != "" {
				_ = os.Setenv("CONFIG_FILE", configFile)
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type services struct {
	cfg       *config.Config
	logger    *slog.Logger
	bank      *app.QuestionBankService
	knowledge *app.KnowledgeService
}

// loadServices builds only the index owning services; prepctl never needs
// MySQL, Redis or RabbitMQ.
func loadServices() (*services, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	if !cfg.SearchEnabled() {
		return nil, fmt.Errorf("search endpoint and key must be configured")
	}

	clients := bootstrap.NewClients(cfg, logger)
	bank, knowledge := bootstrap.ContentServices(cfg, clients, session.NewMemoryStore(), logger)
	return &services{cfg: cfg, logger: logger, bank: bank, knowledge: knowledge}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
