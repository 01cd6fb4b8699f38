package videosearch

import (
	"context"
	"log/slog"

	"github.com/terra-clan/learnpath/internal/models"
)

// Default collection bounds
const (
	MaxQueries      = 5
	ResultsPerQuery = 2
	MaxVideos       = 5
)

// Limits bounds a collection run
type Limits struct {
	MaxQueries int
	PerQuery   int
	MaxVideos  int
}

// DefaultLimits returns the standard collection bounds
func DefaultLimits() Limits {
	return Limits{MaxQueries: MaxQueries, PerQuery: ResultsPerQuery, MaxVideos: MaxVideos}
}

// Collect runs queries one at a time and merges their results, keeping
// the first occurrence of each video id, until limits.MaxVideos is reached.
// A failing query is logged and contributes nothing.
func Collect(ctx context.Context, s Searcher, queries []string, limits Limits) []models.Video {
	if len(queries) > limits.MaxQueries {
		queries = queries[:limits.MaxQueries]
	}

	videos := make([]models.Video, 0, limits.MaxVideos)
	seen := make(map[string]bool)

	for _, q := range queries {
		if len(videos) >= limits.MaxVideos {
			break
		}
		if ctx.Err() != nil {
			slog.Warn("video collection cancelled", "error", ctx.Err())
			break
		}

		results, err := s.Search(ctx, q, limits.PerQuery)
		if err != nil {
			slog.Warn("video search failed", "query", q, "error", err)
			continue
		}

		for _, v := range results {
			if v.VideoID == "" || seen[v.VideoID] {
				continue
			}
			seen[v.VideoID] = true
			videos = append(videos, v)
			if len(videos) >= limits.MaxVideos {
				break
			}
		}
	}

	slog.Debug("videos collected", "queries", len(queries), "videos", len(videos))
	return videos
}
