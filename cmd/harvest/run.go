package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/harvester/internal/app"
	"github.com/newthinker/harvester/internal/config"
	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	schedule string
	query    string
)

var financialCmd = &cobra.Command{
	Use:   "financial",
	Short: "Harvest financial data for a schedule",
	Long:  "Expand the schedule's functions over the configured symbols and store one JSON object per call",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHarvester(app.Financial, core.Request{Schedule: schedule})
	},
}

var fundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "Harvest the mutual fund listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHarvester(app.Funds, core.Request{})
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Harvest top-level comments of videos matching a search query",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHarvester(app.Comments, core.Request{Query: query})
	},
}

func init() {
	financialCmd.Flags().StringVar(&schedule, "schedule", "weekly", "schedule label selecting the functions to fetch")
	commentsCmd.Flags().StringVar(&query, "query", "", "search query (defaults to comments.query)")

	rootCmd.AddCommand(financialCmd)
	rootCmd.AddCommand(fundsCmd)
	rootCmd.AddCommand(commentsCmd)
}

// newApp loads --config (or defaults plus environment when unset) and
// builds the logger from log.level; --debug switches to development output.
func newApp(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zap.NewNop(), fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(debug, level)
	if err != nil {
		return nil, zap.NewNop(), fmt.Errorf("invalid log.level %q: %w", cfg.Log.Level, err)
	}
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults and environment")
	}
	if metricsFile != "" {
		cfg.Metrics.Textfile = metricsFile
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, log, fmt.Errorf("config validation failed: %w", err)
	}
	return a, log, nil
}

func runHarvester(name string, req core.Request) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, log, err := newApp(ctx)
	defer log.Sync()
	if err != nil {
		return err
	}

	_, status := a.Run(ctx, name, req)

	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Fprintln(os.Stdout, string(out))

	if status.StatusCode != http.StatusOK {
		return fmt.Errorf("%s run finished with status %d", name, status.StatusCode)
	}
	return nil
}
