package learning

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/terra-clan/learnpath/internal/generation"
	"github.com/terra-clan/learnpath/internal/keys"
	"github.com/terra-clan/learnpath/internal/models"
	"github.com/terra-clan/learnpath/internal/storage"
	"github.com/terra-clan/learnpath/internal/videosearch"
)

// errDefer is returned by a strategy that passes the request on to the next one
var errDefer = errors.New("strategy deferred")

type contentRequest struct {
	hobby     models.Hobby
	level     models.Level
	technique models.Technique
	videos    []models.Video
}

// contentStrategy renders study content or defers with errDefer or any other error
type contentStrategy struct {
	name   string
	render func(ctx context.Context, req *contentRequest) (string, error)
}

// ContentService serves per-technique study content cache-first.
// On a miss it suggests search queries, collects videos and renders the
// first document an ordered chain of strategies produces.
type ContentService struct {
	store    storage.Store
	gen      generation.Generator
	searcher videosearch.Searcher
	limits   videosearch.Limits
	chain    []contentStrategy
	group    singleflight.Group
}

// NewContentService creates a content orchestrator
func NewContentService(store storage.Store, gen generation.Generator, searcher videosearch.Searcher) *ContentService {
	s := &ContentService{
		store:    store,
		gen:      gen,
		searcher: searcher,
		limits:   videosearch.DefaultLimits(),
	}
	s.chain = []contentStrategy{
		{name: "video_checklist", render: s.videoChecklist},
		{name: "ai_guide", render: s.aiGuide},
		{name: "static_guide", render: s.staticGuide},
	}
	return s
}

// GetOrCreate returns markdown study content for a technique. It never fails:
// the last strategy in the chain is deterministic. The result always contains
// the technique's name and description and is cached whichever strategy made it.
func (s *ContentService) GetOrCreate(ctx context.Context, hobby models.Hobby, level models.Level, t models.Technique) string {
	key := keys.ContentKey(hobby.ID, level.ID, t.ID)

	v, _, _ := s.group.Do(key, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), &contentRequest{hobby: hobby, level: level, technique: t}, key), nil
	})
	return v.(string)
}

func (s *ContentService) load(ctx context.Context, req *contentRequest, key string) string {
	var cached string
	err := storage.GetJSON(ctx, s.store, key, &cached)
	switch {
	case err == nil && strings.TrimSpace(cached) != "":
		slog.Debug("technique content cache hit", "key", key)
		return cached
	case err == nil, errors.Is(err, storage.ErrNotFound):
	default:
		slog.Warn("technique content cache read failed, regenerating", "key", key, "error", err)
	}

	queries := s.queries(ctx, req)
	if s.searcher != nil {
		req.videos = videosearch.Collect(ctx, s.searcher, queries, s.limits)
	}

	content := s.render(ctx, req)
	content = ensureEssentials(content, req.technique)

	if err := storage.SetJSON(ctx, s.store, key, content); err != nil {
		slog.Error("failed to cache technique content", "key", key, "error", err)
	}
	return content
}

func (s *ContentService) queries(ctx context.Context, req *contentRequest) []string {
	queries, err := generation.SearchQueries(ctx, s.gen, req.hobby, req.level, req.technique, s.limits.MaxQueries)
	if err == nil {
		return queries
	}
	slog.Warn("search query generation failed, using defaults", "technique_id", req.technique.ID, "error", err)
	return defaultQueries(req.hobby, req.level, req.technique, s.limits.MaxQueries)
}

func (s *ContentService) render(ctx context.Context, req *contentRequest) string {
	for _, strategy := range s.chain {
		content, err := strategy.render(ctx, req)
		switch {
		case err == nil && strings.TrimSpace(content) != "":
			slog.Info("technique content rendered",
				"technique_id", req.technique.ID,
				"strategy", strategy.name,
				"videos", len(req.videos),
			)
			return content
		case err == nil, errors.Is(err, errDefer):
		default:
			slog.Warn("content strategy failed", "strategy", strategy.name, "technique_id", req.technique.ID, "error", err)
		}
	}
	// unreachable while static_guide ends the chain
	return renderStaticGuide(req.hobby, req.level, req.technique)
}

func (s *ContentService) videoChecklist(ctx context.Context, req *contentRequest) (string, error) {
	if len(req.videos) == 0 {
		return "", errDefer
	}

	extras, err := generation.ContentExtras(ctx, s.gen, req.hobby, req.level, req.technique, req.videos)
	if err != nil {
		slog.Warn("content extras generation failed, using template", "technique_id", req.technique.ID, "error", err)
		extras = templateExtras(req.hobby, req.level, req.technique)
	}
	return renderChecklist(req.level, req.technique, req.videos, extras), nil
}

func (s *ContentService) aiGuide(ctx context.Context, req *contentRequest) (string, error) {
	return generation.Guide(ctx, s.gen, req.hobby, req.level, req.technique)
}

func (s *ContentService) staticGuide(_ context.Context, req *contentRequest) (string, error) {
	return renderStaticGuide(req.hobby, req.level, req.technique), nil
}
