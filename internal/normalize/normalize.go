package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/newthinker/harvester/internal/collector/youtube"
	"github.com/newthinker/harvester/internal/core"
)

// CommentHeader is the column order of comment tables
var CommentHeader = []string{"User", "Date_Created", "Likes", "Comment"}

// Comments projects each thread's top-level comment into a row, preserving
// response order. A nil or empty list yields a header-only table.
func Comments(list *youtube.CommentThreadList) *core.Table {
	table := &core.Table{
		Header: append([]string(nil), CommentHeader...),
		Rows:   [][]string{},
	}
	if list == nil {
		return table
	}

	for _, item := range list.Items {
		c := item.Snippet.TopLevelComment.Snippet
		likes := c.LikeCount
		if likes < 0 {
			likes = 0
		}
		table.Rows = append(table.Rows, []string{
			c.AuthorDisplayName,
			c.PublishedAt,
			strconv.FormatInt(likes, 10),
			c.TextDisplay,
		})
	}
	return table
}

// CommentRecord builds the storage-ready record for one video.
func CommentRecord(key string, list *youtube.CommentThreadList) core.Record {
	return core.Record{
		Key:    key,
		Format: core.FormatCSV,
		Table:  Comments(list),
	}
}

// Passthrough wraps a raw provider body as a JSON record. The body is kept
// verbatim apart from insignificant whitespace.
func Passthrough(key string, raw json.RawMessage) (core.Record, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return core.Record{}, core.WrapError(core.ErrWriteEncode, fmt.Errorf("compacting %s: %w", key, err))
	}
	return core.Record{
		Key:    key,
		Format: core.FormatJSON,
		JSON:   buf.Bytes(),
	}, nil
}
