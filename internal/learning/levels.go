package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/terra-clan/learnpath/internal/catalog"
	"github.com/terra-clan/learnpath/internal/keys"
	"github.com/terra-clan/learnpath/internal/models"
	"github.com/terra-clan/learnpath/internal/storage"
)

// LevelService lists predefined and learner-authored levels per hobby
type LevelService struct {
	catalog *catalog.Catalog
	store   storage.Store
	mu      sync.Mutex
}

// NewLevelService creates a level service
func NewLevelService(c *catalog.Catalog, store storage.Store) *LevelService {
	return &LevelService{catalog: c, store: store}
}

// List returns custom levels, most recent first, followed by predefined levels
func (s *LevelService) List(ctx context.Context, hobbyID string) ([]models.Level, error) {
	if _, err := s.catalog.Hobby(hobbyID); err != nil {
		return nil, err
	}

	custom, err := s.loadCustom(ctx, hobbyID)
	if err != nil {
		slog.Warn("failed to load custom levels", "hobby_id", hobbyID, "error", err)
		custom = nil
	}
	return append(custom, s.catalog.Levels()...), nil
}

// AddCustom validates and stores a learner-authored level for hobbyID
func (s *LevelService) AddCustom(ctx context.Context, hobbyID string, in models.LevelInput) (models.Level, error) {
	if _, err := s.catalog.Hobby(hobbyID); err != nil {
		return models.Level{}, err
	}
	if problems := in.Validate(); len(problems) > 0 {
		return models.Level{}, &ValidationError{Fields: problems}
	}

	level := models.Level{
		ID:             "custom-" + uuid.New().String(),
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		TimeCommitment: strings.TrimSpace(in.TimeCommitment),
		Icon:           in.Icon,
		Custom:         true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.loadCustom(ctx, hobbyID)
	if err != nil {
		return models.Level{}, fmt.Errorf("failed to load custom levels: %w", err)
	}

	custom = append([]models.Level{level}, custom...)
	if err := storage.SetJSON(ctx, s.store, keys.CustomLevelsKey(hobbyID), custom); err != nil {
		return models.Level{}, fmt.Errorf("failed to save custom level: %w", err)
	}

	slog.Info("custom level added", "hobby_id", hobbyID, "level_id", level.ID, "name", level.Name)
	return level, nil
}

// Find returns a predefined or custom level by id
func (s *LevelService) Find(ctx context.Context, hobbyID, levelID string) (models.Level, error) {
	if level, err := s.catalog.Level(levelID); err == nil {
		return level, nil
	}

	custom, err := s.loadCustom(ctx, hobbyID)
	if err != nil {
		return models.Level{}, fmt.Errorf("failed to load custom levels: %w", err)
	}
	for _, level := range custom {
		if level.ID == levelID {
			return level, nil
		}
	}
	return models.Level{}, fmt.Errorf("%w: %s", catalog.ErrLevelNotFound, levelID)
}

// loadCustom reads the stored custom levels. An unreadable entry counts as empty.
func (s *LevelService) loadCustom(ctx context.Context, hobbyID string) ([]models.Level, error) {
	key := keys.CustomLevelsKey(hobbyID)

	var levels []models.Level
	err := storage.GetJSON(ctx, s.store, key, &levels)

	var perr *storage.ParseError
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case errors.As(err, &perr):
		slog.Warn("stored custom levels unreadable, ignoring", "key", key, "error", err)
		return nil, nil
	default:
		return nil, err
	}

	for i := range levels {
		levels[i].Custom = true
	}
	return levels, nil
}
