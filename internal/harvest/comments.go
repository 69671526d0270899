package harvest

import (
	"context"
	"fmt"

	"github.com/newthinker/harvester/internal/collector/youtube"
	"github.com/newthinker/harvester/internal/core"
	"github.com/newthinker/harvester/internal/normalize"
	"github.com/newthinker/harvester/internal/sink"
	"go.uber.org/zap"
)

// CommentSource is the two-stage video comment provider
type CommentSource interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
	CommentThreads(ctx context.Context, videoID string, maxResults int) (*youtube.CommentThreadList, error)
}

// CommentsConfig bounds one comment run
type CommentsConfig struct {
	Query       string
	MaxResults  int
	MaxComments int
	KeyPrefix   string
}

// Comments searches videos for a query and lands one CSV of top-level
// comments per video.
type Comments struct {
	base
	cfg    CommentsConfig
	source CommentSource
	writer RecordWriter
}

// NewComments creates the comment harvester
func NewComments(cfg CommentsConfig, source CommentSource, writer RecordWriter, deps Deps) *Comments {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = youtube.DefaultMaxResults
	}
	if cfg.MaxComments <= 0 {
		cfg.MaxComments = youtube.DefaultMaxComments
	}
	return &Comments{
		base:   newBase("comments", deps),
		cfg:    cfg,
		source: source,
		writer: writer,
	}
}

// Run uses req.Query when set, else the configured query.
func (h *Comments) Run(ctx context.Context, req core.Request) (*core.Report, error) {
	query := req.Query
	if query == "" {
		query = h.cfg.Query
	}
	if query == "" {
		err := core.WrapError(core.ErrConfigMissing, fmt.Errorf("comments query required"))
		h.rejectConfig(err)
		return nil, err
	}

	report, log := h.begin("")
	ts := sink.Timestamp(report.StartedAt)
	log = log.With(zap.String("query", query))

	ids, err := h.source.Search(ctx, query, h.cfg.MaxResults)
	if err != nil {
		h.fail(log, report, "search", err)
		h.finish(log, report, nil)
		return report, nil
	}
	log.Info("videos found", zap.Strings("video_ids", ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			h.finish(log, report, err)
			return report, err
		}

		list, err := h.source.CommentThreads(ctx, id, h.cfg.MaxComments)
		if err != nil {
			h.fail(log, report, id, err, zap.String("video_id", id))
			continue
		}

		key := sink.CommentsKey(h.cfg.KeyPrefix, id, ts)
		if err := h.writer.Write(ctx, normalize.CommentRecord(key, list)); err != nil {
			h.fail(log, report, id, err, zap.String("video_id", id))
			continue
		}
		report.AddSuccess(key)
	}

	h.finish(log, report, nil)
	return report, nil
}
