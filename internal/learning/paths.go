package learning

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/terra-clan/learnpath/internal/generation"
	"github.com/terra-clan/learnpath/internal/keys"
	"github.com/terra-clan/learnpath/internal/models"
	"github.com/terra-clan/learnpath/internal/storage"
)

// PathResult is a learning path together with its starting progress
type PathResult struct {
	Path      models.LearningPath
	Progress  models.ProgressMap
	Generated bool
}

// PathService serves learning paths cache-first and generates them on a miss
type PathService struct {
	store storage.Store
	gen   generation.Generator
	group singleflight.Group
}

// NewPathService creates a path orchestrator
func NewPathService(store storage.Store, gen generation.Generator) *PathService {
	return &PathService{store: store, gen: gen}
}

// GetOrCreate returns the cached path for hobby+level, generating and
// caching it when absent. A generation failure is returned as an error
// wrapping generation.ErrGenerationFailed; nothing is cached in that case.
func (s *PathService) GetOrCreate(ctx context.Context, hobby models.Hobby, level models.Level) (*PathResult, error) {
	key := keys.PathKey(hobby.ID, level.ID)

	v, err, shared := s.group.Do(key, func() (any, error) {
		// the first caller leaving must not abort a generation others wait on
		return s.load(context.WithoutCancel(ctx), hobby, level, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("learning path request collapsed", "key", key)
	}

	res := v.(*PathResult)
	return &PathResult{
		Path:      append(models.LearningPath(nil), res.Path...),
		Progress:  res.Progress.Clone(),
		Generated: res.Generated,
	}, nil
}

func (s *PathService) load(ctx context.Context, hobby models.Hobby, level models.Level, key string) (*PathResult, error) {
	var cached models.LearningPath
	err := storage.GetJSON(ctx, s.store, key, &cached)

	var perr *storage.ParseError
	switch {
	case err == nil && len(cached) > 0:
		slog.Debug("learning path cache hit", "hobby_id", hobby.ID, "level_id", level.ID)
		return &PathResult{
			Path:     cached,
			Progress: s.loadProgress(ctx, hobby, level, cached),
		}, nil
	case err == nil:
		slog.Warn("cached learning path is empty, regenerating", "key", key)
	case errors.Is(err, storage.ErrNotFound):
	case errors.As(err, &perr):
		slog.Warn("cached learning path is unreadable, regenerating", "key", key, "error", err)
	default:
		slog.Warn("learning path cache read failed, generating", "key", key, "error", err)
	}

	slog.Info("generating learning path", "hobby_id", hobby.ID, "level_id", level.ID)
	path, err := generation.LearningPath(ctx, s.gen, hobby, level)
	if err != nil {
		slog.Error("learning path generation failed", "hobby_id", hobby.ID, "level_id", level.ID, "error", err)
		return nil, err
	}

	if err := storage.SetJSON(ctx, s.store, key, path); err != nil {
		slog.Error("failed to cache learning path", "key", key, "error", err)
	}

	return &PathResult{
		Path:      path,
		Progress:  models.ZeroProgress(path),
		Generated: true,
	}, nil
}

// loadProgress returns stored progress verbatim, or zeroed progress when
// none is stored or it cannot be read
func (s *PathService) loadProgress(ctx context.Context, hobby models.Hobby, level models.Level, path models.LearningPath) models.ProgressMap {
	key := keys.ProgressKey(hobby.ID, level.ID)

	var progress models.ProgressMap
	err := storage.GetJSON(ctx, s.store, key, &progress)
	switch {
	case err == nil && progress != nil:
		return progress
	case err == nil, errors.Is(err, storage.ErrNotFound):
	default:
		slog.Warn("stored progress unreadable, starting from zero", "key", key, "error", err)
	}
	return models.ZeroProgress(path)
}
