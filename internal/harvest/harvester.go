package harvest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/logger"
	"github.com/newthinker/harvester/internal/metrics"
	"go.uber.org/zap"
)

// Harvester is one independent fetch → normalize → write unit
type Harvester interface {
	Name() string
	Run(ctx context.Context, req core.Request) (*core.Report, error)
}

// Getter performs one provider call; satisfied by *collector.Fetcher
type Getter interface {
	Fetch(ctx context.Context, path string, params map[string]string) (json.RawMessage, error)
}

// RecordWriter persists one record; satisfied by *sink.Writer
type RecordWriter interface {
	Write(ctx context.Context, rec core.Record) error
}

// Deps carries the ambient collaborators every harvester shares
type Deps struct {
	Logger  *zap.Logger
	Metrics *metrics.Registry
	Clock   func() time.Time
	NewID   func() string
}

type base struct {
	name    string
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
	newID   func() string
}

func newBase(name string, deps Deps) base {
	b := base{
		name:    name,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		now:     deps.Clock,
		newID:   deps.NewID,
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.newID == nil {
		b.newID = func() string { return uuid.NewString() }
	}
	return b
}

func (b base) Name() string { return b.name }

// begin stamps a new run. The start time is taken once and shared by all keys.
func (b base) begin(schedule string) (*core.Report, *zap.Logger) {
	report := &core.Report{
		RunID:     b.newID(),
		Harvester: b.name,
		Schedule:  schedule,
		StartedAt: b.now().UTC(),
	}
	log := logger.ForRun(b.logger, b.name, report.RunID)
	log.Info("run started", zap.String("schedule", schedule))
	return report, log
}

func (b base) fail(log *zap.Logger, report *core.Report, id string, err error, fields ...zap.Field) {
	report.AddFailure(id, err)
	fields = append(fields,
		zap.String("item", id),
		zap.String("kind", string(core.KindOf(err))),
		zap.Error(err),
	)
	log.Warn("item failed", fields...)
}

func (b base) finish(log *zap.Logger, report *core.Report, runErr error) {
	status := core.StatusFor(report, runErr)
	elapsed := b.now().Sub(report.StartedAt).Seconds()
	b.metrics.RecordRun(b.name, status.StatusCode, elapsed)

	fields := []zap.Field{
		zap.Int("status", status.StatusCode),
		zap.Int("succeeded", report.Succeeded()),
		zap.Strings("failed", report.FailedIDs()),
		zap.Float64("elapsed_s", elapsed),
	}
	if runErr != nil {
		log.Error("run aborted", append(fields, zap.Error(runErr))...)
		return
	}
	log.Info("run finished", fields...)
}

// rejectConfig logs and counts a run refused before any network call.
func (b base) rejectConfig(err error) {
	b.logger.Error("run rejected", zap.String("harvester", b.name), zap.Error(err))
	b.metrics.RecordRun(b.name, core.StatusFor(nil, err).StatusCode, 0)
}
