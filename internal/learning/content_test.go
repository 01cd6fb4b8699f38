package learning

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/learnpath/internal/generation"
	"github.com/terra-clan/learnpath/internal/keys"
	"github.com/terra-clan/learnpath/internal/models"
	"github.com/terra-clan/learnpath/internal/storage"
)

func someVideos(ids ...string) []models.Video {
	out := make([]models.Video, len(ids))
	for i, id := range ids {
		out[i] = models.Video{VideoID: id, Title: "Lesson " + id, URL: "https://www.youtube.com/watch?v=" + id}
	}
	return out
}

func TestContentVideoChecklist(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{
		queries: `["chess opening principles", "how to castle"]`,
		extras:  `{"introduction":"Openings set the tone.","tips":["Develop knights first","Castle early"],"quote":"Play the opening like a book."}`,
	}
	searcher := &stubSearcher{results: map[string][]models.Video{
		"chess opening principles": someVideos("a", "b"),
		"how to castle":            someVideos("b", "c"),
	}}
	svc := NewContentService(storage.NewMemoryStore(), gen, searcher)

	md := svc.GetOrCreate(ctx, chess, casual, openings)

	assert.Contains(t, md, openings.Name)
	assert.Contains(t, md, openings.Description)
	assert.Contains(t, md, "## Video Checklist")
	for _, v := range someVideos("a", "b", "c") {
		assert.Contains(t, md, "- [ ] ["+v.Title+"]("+v.URL+")")
	}
	assert.Equal(t, 1, strings.Count(md, "watch?v=b"), "videos are deduplicated")
	assert.Contains(t, md, "Develop knights first")
	assert.Contains(t, md, "Play the opening like a book.")
	assert.NotContains(t, md, "Practice Pathway")
}

func TestRenderChecklistEscapesLinkText(t *testing.T) {
	videos := []models.Video{{
		VideoID: "x1",
		Title:   `[Full Game] Carlsen vs Nakamura \ blitz`,
		URL:     "https://www.youtube.com/watch?v=x1",
	}}

	md := renderChecklist(casual, openings, videos, generation.Extras{})

	assert.Contains(t, md, `- [ ] [\[Full Game\] Carlsen vs Nakamura \\ blitz](https://www.youtube.com/watch?v=x1)`)
}

func TestContentChecklistSurvivesExtrasFailure(t *testing.T) {
	gen := &scriptedGenerator{queries: `["q"]`}
	searcher := &stubSearcher{all: someVideos("x")}
	svc := NewContentService(storage.NewMemoryStore(), gen, searcher)

	md := svc.GetOrCreate(context.Background(), chess, casual, openings)

	assert.Contains(t, md, "## Video Checklist")
	assert.Contains(t, md, "https://www.youtube.com/watch?v=x")
	assert.Contains(t, md, "## Tips")
	assert.Equal(t, 1, gen.count("extras"))
}

func TestContentNoVideosUsesGuide(t *testing.T) {
	gen := &scriptedGenerator{
		queries: `["a", "b", "c"]`,
		guide:   "# Opening Principles\n\nA guide written by the model.",
	}
	searcher := &stubSearcher{}
	svc := NewContentService(storage.NewMemoryStore(), gen, searcher)

	md := svc.GetOrCreate(context.Background(), chess, casual, openings)

	assert.Contains(t, md, "A guide written by the model.")
	assert.Contains(t, md, openings.Description, "description is added when the guide omits it")
	assert.NotContains(t, md, "Video Checklist")
	assert.Equal(t, 3, searcher.callCount())
	assert.Equal(t, 0, gen.count("extras"))
}

func TestContentNoVideosStaticFallback(t *testing.T) {
	gen := &scriptedGenerator{failAll: true}
	searcher := &stubSearcher{fail: true}
	svc := NewContentService(storage.NewMemoryStore(), gen, searcher)

	md := svc.GetOrCreate(context.Background(), chess, casual, openings)

	for _, section := range []string{"## Introduction", "## Practice Pathway", "## Common Mistakes", "## Practice Exercises"} {
		assert.Contains(t, md, section)
	}
	assert.Contains(t, md, openings.Name)
	assert.Contains(t, md, openings.Description)
	assert.Contains(t, md, "Chess Basics")
	assert.Contains(t, md, "4 hours")
	assert.NotContains(t, md, "Video Checklist")

	// default queries are used when query generation fails
	assert.Greater(t, searcher.callCount(), 0)
	assert.LessOrEqual(t, searcher.callCount(), 5)
}

func TestContentIsCachedByteIdentical(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	gen := &scriptedGenerator{queries: `["q"]`, extras: `{"introduction":"Hi","tips":["t"],"quote":"q"}`}
	searcher := &stubSearcher{all: someVideos("v1")}
	svc := NewContentService(store, gen, searcher)

	first := svc.GetOrCreate(ctx, chess, casual, openings)
	calls, searches := gen.total(), searcher.callCount()

	second := svc.GetOrCreate(ctx, chess, casual, openings)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, gen.total(), "no generation on a cache hit")
	assert.Equal(t, searches, searcher.callCount(), "no search on a cache hit")

	var stored string
	require.NoError(t, storage.GetJSON(ctx, store, keys.ContentKey("chess", "casual", "3"), &stored))
	assert.Equal(t, first, stored)
}

func TestContentNeverEmpty(t *testing.T) {
	techniques := []models.Technique{
		openings,
		{ID: "9", Name: "Bluffing & Reading Tells", Description: "Know when to bet.", Difficulty: 5},
		{ID: "10", Name: "Barre Chords"},
	}
	for _, tech := range techniques {
		svc := NewContentService(storage.NewMemoryStore(), &scriptedGenerator{failAll: true}, &stubSearcher{fail: true})
		md := svc.GetOrCreate(context.Background(), chess, casual, tech)
		assert.NotEmpty(t, strings.TrimSpace(md))
		assert.Contains(t, md, tech.Name)
	}
}

func TestContentNilSearcher(t *testing.T) {
	svc := NewContentService(storage.NewMemoryStore(), &scriptedGenerator{failAll: true}, nil)
	md := svc.GetOrCreate(context.Background(), chess, casual, openings)
	assert.Contains(t, md, "Practice Pathway")
}

func TestDefaultQueries(t *testing.T) {
	tech := models.Technique{Name: "Bluffing & Reading Tells", Difficulty: 5}
	poker := models.Hobby{ID: "poker", Name: "Poker"}

	queries := defaultQueries(poker, pro, tech, 5)
	assert.Equal(t, []string{
		"Poker Bluffing tutorial",
		"Poker Reading Tells tutorial",
		"Poker Bluffing & Reading Tells advanced",
		"Poker Bluffing & Reading Tells masterclass",
		"Poker Bluffing & Reading Tells pro level practice",
	}, queries)

	simple := defaultQueries(chess, casual, models.Technique{Name: "Tactics", Difficulty: 1}, 5)
	assert.Equal(t, []string{
		"Chess Tactics for beginners",
		"Chess Tactics basics explained",
		"Chess Tactics casual level practice",
	}, simple)

	assert.Len(t, defaultQueries(chess, casual, models.Technique{Name: "Pins and Skewers or Forks", Difficulty: 3}, 2), 2)
}

func TestEnsureEssentials(t *testing.T) {
	md := ensureEssentials("Some body.", openings)
	assert.True(t, strings.HasPrefix(md, "# Opening Principles\n\n> "+openings.Description))

	full := "# Opening Principles\n" + openings.Description
	assert.Equal(t, full, ensureEssentials(full, openings))
}
