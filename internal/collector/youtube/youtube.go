// Package youtube reads video search results and comment threads from the
// YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/newthinker/harvester/internal/core"
)

const (
	DefaultBaseURL     = "https://www.googleapis.com/youtube/v3"
	DefaultMaxResults  = 10
	DefaultMaxComments = 100
)

// Getter performs one provider call; satisfied by *collector.Fetcher
type Getter interface {
	Fetch(ctx context.Context, path string, params map[string]string) (json.RawMessage, error)
}

// SearchResponse is the subset of search.list we read
type SearchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// CommentSnippet is the snippet of a top-level comment
type CommentSnippet struct {
	AuthorDisplayName string `json:"authorDisplayName"`
	PublishedAt       string `json:"publishedAt"`
	LikeCount         int64  `json:"likeCount"`
	TextDisplay       string `json:"textDisplay"`
}

// CommentThread is one item of commentThreads.list
type CommentThread struct {
	ID      string `json:"id"`
	Snippet struct {
		VideoID         string `json:"videoId"`
		TopLevelComment struct {
			ID      string         `json:"id"`
			Snippet CommentSnippet `json:"snippet"`
		} `json:"topLevelComment"`
	} `json:"snippet"`
}

// CommentThreadList is the commentThreads.list response
type CommentThreadList struct {
	Items []CommentThread `json:"items"`
}

// Client issues the search and comment calls with a developer key
type Client struct {
	apiKey string
	getter Getter
}

// New creates a client on top of a provider getter
func New(apiKey string, getter Getter) *Client {
	return &Client{apiKey: apiKey, getter: getter}
}

// Search returns up to maxResults distinct video IDs for query, in response order.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	raw, err := c.getter.Fetch(ctx, "search", map[string]string{
		"part":       "snippet",
		"q":          query,
		"type":       "video",
		"maxResults": strconv.Itoa(maxResults),
		"key":        c.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, core.WrapError(core.ErrFetchDecode, fmt.Errorf("search response: %w", err))
	}

	ids := make([]string, 0, len(resp.Items))
	seen := make(map[string]struct{}, len(resp.Items))
	for _, item := range resp.Items {
		id := item.ID.VideoID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == maxResults {
			break
		}
	}
	return ids, nil
}

// CommentThreads returns up to maxResults top-level comment threads of a video.
func (c *Client) CommentThreads(ctx context.Context, videoID string, maxResults int) (*CommentThreadList, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxComments
	}

	raw, err := c.getter.Fetch(ctx, "commentThreads", map[string]string{
		"part":       "snippet",
		"videoId":    videoID,
		"maxResults": strconv.Itoa(maxResults),
		"textFormat": "plainText",
		"key":        c.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var list CommentThreadList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, core.WrapError(core.ErrFetchDecode, fmt.Errorf("comment threads of %s: %w", videoID, err))
	}
	if len(list.Items) > maxResults {
		list.Items = list.Items[:maxResults]
	}
	return &list, nil
}
