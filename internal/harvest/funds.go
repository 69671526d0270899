package harvest

import (
	"context"
	"fmt"
	"path"

	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/normalize"
	"github.com/newthinker/harvester/internal/storage/archive"
	"go.uber.org/zap"
)

// DefaultFundsKey is where the fund listing lands
const DefaultFundsKey = "mf_list_output/mutual_fund_list.json"

// Funds fetches the full fund listing and writes it to one fixed key
type Funds struct {
	base
	key     string
	getter  Getter
	writer  RecordWriter
	staging archive.Storage
}

// NewFunds creates the fund-listing harvester. staging may be nil, in which
// case the body goes straight to the writer.
func NewFunds(key string, getter Getter, writer RecordWriter, staging archive.Storage, deps Deps) *Funds {
	if key == "" {
		key = DefaultFundsKey
	}
	return &Funds{
		base:    newBase("funds", deps),
		key:     key,
		getter:  getter,
		writer:  writer,
		staging: staging,
	}
}

func (h *Funds) Run(ctx context.Context, req core.Request) (*core.Report, error) {
	report, log := h.begin("")

	raw, err := h.getter.Fetch(ctx, "", nil)
	if err != nil {
		h.fail(log, report, h.key, err)
		h.finish(log, report, nil)
		return report, nil
	}

	rec, err := normalize.Passthrough(h.key, raw)
	if err == nil && h.staging != nil {
		rec.JSON, err = h.stage(ctx, log, rec.JSON)
	}
	if err == nil {
		err = h.writer.Write(ctx, rec)
	}
	if err != nil {
		h.fail(log, report, h.key, err)
	} else {
		report.AddSuccess(h.key)
		h.unstage(ctx, log)
	}

	h.finish(log, report, nil)
	return report, nil
}

// stage round-trips the document through the local staging area.
func (h *Funds) stage(ctx context.Context, log *zap.Logger, data []byte) ([]byte, error) {
	name := path.Base(h.key)
	if err := h.staging.Write(ctx, name, data, "application/json"); err != nil {
		return nil, core.WrapError(core.ErrWriteFailed, fmt.Errorf("staging %s: %w", name, err))
	}
	staged, err := h.staging.Read(ctx, name)
	if err != nil {
		return nil, core.WrapError(core.ErrWriteFailed, fmt.Errorf("reading staged %s: %w", name, err))
	}
	log.Debug("fund list staged", zap.String("file", name), zap.Int("bytes", len(staged)))
	return staged, nil
}

func (h *Funds) unstage(ctx context.Context, log *zap.Logger) {
	if h.staging == nil {
		return
	}
	name := path.Base(h.key)
	if err := h.staging.Delete(ctx, name); err != nil {
		log.Warn("staged file not removed", zap.String("file", name), zap.Error(err))
	}
}
