package generation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/terra-clan/learnpath/internal/models"
)

// Path length bounds requested from the model
const (
	MinPathSteps = 5
	MaxPathSteps = 10
)

// Difficulty bounds for a technique
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// MaxTips caps the tips kept from generated content extras
const MaxTips = 3

// ErrEmptyResult is wrapped when the model returns a syntactically valid but empty answer
var ErrEmptyResult = errors.New("empty result")

// Extras is the short AI-written framing placed around a video checklist
type Extras struct {
	Introduction string   `json:"introduction"`
	Tips         []string `json:"tips"`
	Quote        string   `json:"quote"`
}

// LearningPath asks gen for a learning path and normalizes it.
// Any failure, including an empty path, is returned as *Error.
func LearningPath(ctx context.Context, gen Generator, hobby models.Hobby, level models.Level) (models.LearningPath, error) {
	const op = "generate learning path"

	text, err := gen.Generate(ctx, buildLearningPathPrompt(hobby, level))
	if err != nil {
		return nil, fail(op, err)
	}

	path, err := decodePath(text)
	if err != nil {
		return nil, fail(op, err)
	}

	path = NormalizePath(path)
	if len(path) == 0 {
		return nil, fail(op, ErrEmptyResult)
	}
	if len(path) < MinPathSteps {
		slog.Warn("generated learning path is shorter than requested",
			"hobby_id", hobby.ID,
			"level_id", level.ID,
			"steps", len(path),
		)
	}
	return path, nil
}

// NormalizePath enforces the shape of a generated path: at most MaxPathSteps
// named techniques with unique ids, difficulty within bounds, and
// prerequisites that only name earlier techniques.
func NormalizePath(path models.LearningPath) models.LearningPath {
	out := make(models.LearningPath, 0, len(path))
	seenIDs := make(map[string]bool, len(path))
	earlier := make(map[string]bool, len(path))

	for _, t := range path {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			continue
		}
		if len(out) == MaxPathSteps {
			break
		}

		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" || seenIDs[t.ID] {
			t.ID = strconv.Itoa(len(out) + 1)
			for seenIDs[t.ID] {
				t.ID += "b"
			}
		}
		seenIDs[t.ID] = true

		if t.Difficulty < MinDifficulty {
			t.Difficulty = MinDifficulty
		}
		if t.Difficulty > MaxDifficulty {
			t.Difficulty = MaxDifficulty
		}

		prereqs := make([]string, 0, len(t.Prerequisites))
		for _, p := range t.Prerequisites {
			if earlier[strings.TrimSpace(p)] {
				prereqs = append(prereqs, strings.TrimSpace(p))
			}
		}
		t.Prerequisites = prereqs

		earlier[t.Name] = true
		out = append(out, t)
	}
	return out
}

// SearchQueries asks gen for up to max video search queries
func SearchQueries(ctx context.Context, gen Generator, hobby models.Hobby, level models.Level, t models.Technique, max int) ([]string, error) {
	const op = "generate search queries"

	text, err := gen.Generate(ctx, buildSearchQueriesPrompt(hobby, level, t, max))
	if err != nil {
		return nil, fail(op, err)
	}

	var raw []string
	if err := DecodeJSON(text, '[', &raw); err != nil {
		return nil, fail(op, err)
	}

	queries := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" || seen[strings.ToLower(q)] {
			continue
		}
		seen[strings.ToLower(q)] = true
		queries = append(queries, q)
		if len(queries) == max {
			break
		}
	}
	if len(queries) == 0 {
		return nil, fail(op, ErrEmptyResult)
	}
	return queries, nil
}

// ContentExtras asks gen for an introduction, tips and a quote framing videos
func ContentExtras(ctx context.Context, gen Generator, hobby models.Hobby, level models.Level, t models.Technique, videos []models.Video) (Extras, error) {
	const op = "generate content extras"

	text, err := gen.Generate(ctx, buildContentExtrasPrompt(hobby, level, t, videos))
	if err != nil {
		return Extras{}, fail(op, err)
	}

	var extras Extras
	if err := DecodeJSON(text, '{', &extras); err != nil {
		return Extras{}, fail(op, err)
	}

	extras.Introduction = strings.TrimSpace(extras.Introduction)
	extras.Quote = strings.TrimSpace(extras.Quote)
	tips := extras.Tips[:0]
	for _, tip := range extras.Tips {
		if len(tips) == MaxTips {
			break
		}
		if tip = strings.TrimSpace(tip); tip != "" {
			tips = append(tips, tip)
		}
	}
	extras.Tips = tips

	if extras.Introduction == "" && len(extras.Tips) == 0 {
		return Extras{}, fail(op, ErrEmptyResult)
	}
	return extras, nil
}

// Guide asks gen for a complete markdown study guide
func Guide(ctx context.Context, gen Generator, hobby models.Hobby, level models.Level, t models.Technique) (string, error) {
	const op = "generate guide"

	text, err := gen.Generate(ctx, buildGuidePrompt(hobby, level, t))
	if err != nil {
		return "", fail(op, err)
	}

	text = strings.TrimSpace(stripFences(text))
	if text == "" {
		return "", fail(op, ErrEmptyResult)
	}
	return text, nil
}
