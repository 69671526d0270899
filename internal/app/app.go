package app

import (
	"context"
	"fmt"

	"github.com/newthinker/harvester/internal/collector"
	"github.com/newthinker/harvester/internal/collector/youtube"
	"github.com/newthinker/harvester/internal/config"
	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/harvest"
	"github.com/newthinker/harvester/internal/metrics"
	"github.com/newthinker/harvester/internal/ratelimit"
	"github.com/newthinker/harvester/internal/sink"
	"github.com/newthinker/harvester/internal/storage/archive"
	"go.uber.org/zap"
)

// Harvester names
const (
	Financial = "financial"
	Funds     = "funds"
	Comments  = "comments"
)

// Provider names used in logs and metrics
const (
	providerFinancial = "alphavantage"
	providerFunds     = "mfapi"
	providerComments  = "youtube"
)

// App wires configuration into ready-to-run harvesters. A harvester is
// built per run, so a run only needs the settings of its own section and
// starts with a fresh throttle.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Registry
	store      archive.Storage
	writer     *sink.Writer
	harvesters *harvest.Registry
}

// New validates the shared configuration and opens the storage backend.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	a := &App{
		cfg:        cfg,
		logger:     logger,
		metrics:    reg,
		store:      store,
		writer:     sink.NewWriter(store, logger, reg),
		harvesters: harvest.NewRegistry(),
	}
	a.harvesters.Register(Financial, a.buildFinancial)
	a.harvesters.Register(Funds, a.buildFunds)
	a.harvesters.Register(Comments, a.buildComments)
	return a, nil
}

// OpenStorage returns the backend selected by storage.type
func OpenStorage(ctx context.Context, sc config.StorageConfig) (archive.Storage, error) {
	switch sc.Type {
	case "s3":
		store, err := archive.NewS3(ctx, archive.S3Config{
			Bucket:    sc.S3.Bucket,
			Endpoint:  sc.S3.Endpoint,
			Region:    sc.S3.Region,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
			Prefix:    sc.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "localfs":
		store, err := archive.NewLocalFS(sc.Path)
		if err != nil {
			return nil, core.WrapError(core.ErrWriteFailed, fmt.Errorf("opening %s: %w", sc.Path, err))
		}
		return store, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown storage type %q", sc.Type))
	}
}

// Names returns the harvesters this app can build
func (a *App) Names() []string {
	return a.harvesters.Names()
}

// Store returns the storage backend records are written to
func (a *App) Store() archive.Storage {
	return a.store
}

// Metrics returns the metrics registry shared by every harvester
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// Harvester builds a new instance of the named harvester.
func (a *App) Harvester(name string) (harvest.Harvester, error) {
	return a.harvesters.Build(name)
}

func (a *App) deps() harvest.Deps {
	return harvest.Deps{Logger: a.logger, Metrics: a.metrics}
}

func (a *App) buildFinancial() (harvest.Harvester, error) {
	if err := a.cfg.ValidateFinancial(); err != nil {
		return nil, err
	}
	f := a.cfg.Financial
	fetcher := a.fetcher(providerFinancial, f.BaseURL, f.RateLimit)
	return harvest.NewFinancial(runConfig(f), fetcher, a.writer, a.deps()), nil
}

func (a *App) buildFunds() (harvest.Harvester, error) {
	if err := a.cfg.ValidateFunds(); err != nil {
		return nil, err
	}
	var staging archive.Storage
	if dir := a.cfg.Storage.StagingDir; dir != "" {
		local, err := archive.NewLocalFS(dir)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("staging dir %s: %w", dir, err))
		}
		staging = local
	}
	fetcher := a.fetcher(providerFunds, a.cfg.Funds.URL, a.cfg.Funds.RateLimit)
	return harvest.NewFunds(a.cfg.Funds.Key, fetcher, a.writer, staging, a.deps()), nil
}

func (a *App) buildComments() (harvest.Harvester, error) {
	if err := a.cfg.ValidateComments(); err != nil {
		return nil, err
	}
	c := a.cfg.Comments
	fetcher := a.fetcher(providerComments, c.BaseURL, c.RateLimit)
	return harvest.NewComments(harvest.CommentsConfig{
		Query:       c.Query,
		MaxResults:  c.MaxResults,
		MaxComments: c.MaxComments,
		KeyPrefix:   c.KeyPrefix,
	}, youtube.New(c.APIKey, fetcher), a.writer, a.deps()), nil
}

func (a *App) fetcher(provider, baseURL string, rl config.RateLimitConfig) *collector.Fetcher {
	throttle := ratelimit.New(rl.Every, rl.Pause, ratelimit.WithPauseHook(func() {
		a.metrics.RecordThrottlePause(provider)
		a.logger.Info("rate limit pause finished",
			zap.String("provider", provider),
			zap.Duration("pause", rl.Pause),
		)
	}))

	return collector.NewFetcher(collector.Config{
		Provider:  provider,
		BaseURL:   baseURL,
		Timeout:   a.cfg.HTTP.Timeout,
		UserAgent: a.cfg.HTTP.UserAgent,
	}, throttle, a.logger, a.metrics)
}

func runConfig(f config.FinancialConfig) harvest.RunConfig {
	symbols := make([]harvest.Symbol, len(f.Symbols))
	for i, s := range f.Symbols {
		symbols[i] = harvest.Symbol{Name: s.Name, Symbol: s.Symbol}
	}
	return harvest.RunConfig{
		BaseURL:       f.BaseURL,
		APIKey:        f.APIKey,
		APIKeyParam:   f.APIKeyParam,
		KeyPrefix:     f.KeyPrefix,
		SharedSegment: f.SharedSegment,
		Templates:     f.Templates,
		Schedules:     f.Schedules,
		Symbols:       symbols,
	}
}

// Run builds the harvester, executes one run and summarizes it. The report
// is nil when the run was refused before starting.
func (a *App) Run(ctx context.Context, name string, req core.Request) (*core.Report, core.Status) {
	h, err := a.Harvester(name)
	if err != nil {
		a.logger.Error("harvester unavailable", zap.String("harvester", name), zap.Error(err))
		a.metrics.RecordRun(name, core.StatusFor(nil, err).StatusCode, 0)
		a.flushMetrics()
		return nil, core.StatusFor(nil, err)
	}

	report, err := h.Run(ctx, req)
	status := core.StatusFor(report, err)
	a.flushMetrics()
	return report, status
}

// flushMetrics writes the textfile when one is configured. Failing to write
// it never changes the run outcome.
func (a *App) flushMetrics() {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		a.logger.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
	}
}
