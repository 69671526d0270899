package harvest

import (
	"context"

	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/normalize"
	"github.com/newthinker/harvester/internal/sink"
	"go.uber.org/zap"
)

// Financial harvests the functions selected by a schedule label, one JSON
// object per parameter set.
type Financial struct {
	base
	cfg    RunConfig
	getter Getter
	writer RecordWriter
}

// NewFinancial creates the financial-data harvester
func NewFinancial(cfg RunConfig, getter Getter, writer RecordWriter, deps Deps) *Financial {
	return &Financial{
		base:   newBase("financial", deps),
		cfg:    cfg,
		getter: getter,
		writer: writer,
	}
}

// Run validates the schedule and expands every parameter set before the
// first call, then fetches and writes them in order. A failed item is
// reported and skipped; only configuration errors and cancellation abort.
func (h *Financial) Run(ctx context.Context, req core.Request) (*core.Report, error) {
	sets, err := Expand(h.cfg, req.Schedule)
	if err != nil {
		h.rejectConfig(err)
		return nil, err
	}

	report, log := h.begin(req.Schedule)
	ts := sink.Timestamp(report.StartedAt)
	log.Info("parameter sets expanded", zap.Int("count", len(sets)))

	for _, ps := range sets {
		if err := ctx.Err(); err != nil {
			h.finish(log, report, err)
			return report, err
		}

		fields := []zap.Field{zap.String("function", ps.Function), zap.String("symbol", ps.Symbol)}

		raw, err := h.getter.Fetch(ctx, "", ps.Query())
		if err != nil {
			h.fail(log, report, ps.ID(), err, fields...)
			continue
		}

		key := sink.FinancialKey(h.cfg.KeyPrefix, h.cfg.SharedSegment, ps.Function, ps.Symbol, ts)
		rec, err := normalize.Passthrough(key, raw)
		if err != nil {
			h.fail(log, report, ps.ID(), err, fields...)
			continue
		}

		if err := h.writer.Write(ctx, rec); err != nil {
			h.fail(log, report, ps.ID(), err, fields...)
			continue
		}
		report.AddSuccess(key)
	}

	h.finish(log, report, nil)
	return report, nil
}
