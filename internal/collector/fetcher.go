package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/metrics"
	"github.com/newthinker/harvester/internal/ratelimit"
	"go.uber.org/zap"
)

const maxErrorBody = 256

// Config holds the HTTP settings of one provider
type Config struct {
	Provider  string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Fetcher issues throttled GET requests against one provider and returns
// the decoded JSON body. It never retries.
type Fetcher struct {
	provider string
	client   *resty.Client
	throttle *ratelimit.Throttle
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// NewFetcher creates a fetcher. A nil throttle means unlimited.
func NewFetcher(cfg Config, throttle *ratelimit.Throttle, logger *zap.Logger, reg *metrics.Registry) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if throttle == nil {
		throttle = ratelimit.Unlimited()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Fetcher{
		provider: cfg.Provider,
		client:   client,
		throttle: throttle,
		metrics:  reg,
		logger:   logger.With(zap.String("provider", cfg.Provider)),
	}
}

// Provider returns the provider name.
func (f *Fetcher) Provider() string { return f.provider }

// Calls returns the number of calls attempted so far.
func (f *Fetcher) Calls() int { return f.throttle.Calls() }

// Fetch performs one GET of path (relative to the base URL) with params.
func (f *Fetcher) Fetch(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	if err := f.throttle.Wait(ctx); err != nil {
		return nil, classifyTransport(err)
	}

	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	duration := time.Since(start).Seconds()

	if err != nil {
		ferr := classifyTransport(err)
		f.metrics.RecordFetch(f.provider, 0, ferr, duration)
		f.logger.Warn("provider call failed",
			zap.String("path", path),
			zap.Error(ferr),
		)
		return nil, ferr
	}

	if !resp.IsSuccess() {
		ferr := core.StatusError(resp.StatusCode(), truncate(resp.String(), maxErrorBody))
		f.metrics.RecordFetch(f.provider, resp.StatusCode(), ferr, duration)
		f.logger.Warn("provider returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, ferr
	}

	body := resp.Body()
	if !json.Valid(body) {
		ferr := core.WrapError(core.ErrFetchDecode, errors.New(truncate(string(body), maxErrorBody)))
		f.metrics.RecordFetch(f.provider, resp.StatusCode(), ferr, duration)
		f.logger.Warn("provider returned invalid JSON", zap.String("path", path))
		return nil, ferr
	}

	f.metrics.RecordFetch(f.provider, resp.StatusCode(), nil, duration)
	f.logger.Debug("provider call succeeded",
		zap.String("path", path),
		zap.Int("bytes", len(body)),
		zap.Float64("duration_s", duration),
	)
	return json.RawMessage(body), nil
}

func classifyTransport(err error) *core.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrFetchTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.WrapError(core.ErrFetchTimeout, err)
	}
	return core.WrapError(core.ErrFetchFailed, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
