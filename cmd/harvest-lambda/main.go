// Command harvest-lambda runs one harvester per invocation on AWS Lambda.
// HARVESTER selects the harvester; HARVEST_CONFIG optionally points at a config
// file, otherwise configuration comes from the environment.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/newthinker/harvester/internal/app"
	"github.com/newthinker/harvester/internal/config"
	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/logger"
	"go.uber.org/zap"
)

type handler struct {
	name string
	app  *app.App
	log  *zap.Logger
}

// Handle never returns an error; failures are reported through the status.
func (h *handler) Handle(ctx context.Context, req core.Request) (core.Status, error) {
	_, status := h.app.Run(ctx, h.name, req)
	h.log.Info("invocation finished",
		zap.String("harvester", h.name),
		zap.Int("status", status.StatusCode),
		zap.String("body", status.Body),
	)
	return status, nil
}

func newHandler(ctx context.Context) (*handler, error) {
	name := os.Getenv("HARVESTER")
	if name == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("HARVESTER environment variable required"))
	}

	// Without HARVEST_CONFIG every setting comes from defaults and the
	// environment (STORAGE_TYPE, STORAGE_S3_BUCKET, FINANCIAL_API_KEY, ...).
	cfg, err := config.Load(os.Getenv("HARVEST_CONFIG"))
	if err != nil {
		return nil, err
	}

	log, err := logger.New(false, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &handler{name: name, app: a, log: log}, nil
}

func main() {
	h, err := newHandler(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "harvest-lambda: %v\n", err)
		os.Exit(1)
	}
	lambda.Start(h.Handle)
}
