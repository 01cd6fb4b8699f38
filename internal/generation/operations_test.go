package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/learnpath/internal/config"
	"github.com/terra-clan/learnpath/internal/models"
)

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

var (
	chess  = models.Hobby{ID: "chess", Name: "Chess"}
	casual = models.Level{ID: "casual", Name: "Casual", Description: "Play for fun", TimeCommitment: "2-3 hrs/week"}
)

func TestLearningPath(t *testing.T) {
	gen := &fakeGenerator{reply: "Here you go:\n```json\n" + `[
		{"id":"1","name":"Chess Basics","description":"How pieces move","timeToMaster":"2 hours","difficulty":0,"prerequisites":[]},
		{"id":"2","name":"Checkmate Patterns","description":"Basic mates","timeToMaster":"4 hours","difficulty":9,"prerequisites":["Chess Basics","Endgames"]}
	]` + "\n```"}

	path, err := LearningPath(context.Background(), gen, chess, casual)
	require.NoError(t, err)

	want := models.LearningPath{
		{ID: "1", Name: "Chess Basics", Description: "How pieces move", TimeToMaster: "2 hours", Difficulty: 1, Prerequisites: []string{}},
		{ID: "2", Name: "Checkmate Patterns", Description: "Basic mates", TimeToMaster: "4 hours", Difficulty: 5, Prerequisites: []string{"Chess Basics"}},
	}
	if diff := cmp.Diff(want, path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Chess")
	assert.Contains(t, gen.prompts[0], "2-3 hrs/week")
}

func TestLearningPathLooseFieldTypes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  models.Technique
	}{
		{
			name:  "numeric id",
			reply: `[{"id":1,"name":"Chess Basics","timeToMaster":"2 hours","difficulty":1}]`,
			want:  models.Technique{ID: "1", Name: "Chess Basics", TimeToMaster: "2 hours", Difficulty: 1, Prerequisites: []string{}},
		},
		{
			name:  "numeric time to master",
			reply: `[{"id":"1","name":"Chess Basics","timeToMaster":2,"difficulty":1}]`,
			want:  models.Technique{ID: "1", Name: "Chess Basics", TimeToMaster: "2 hours", Difficulty: 1, Prerequisites: []string{}},
		},
		{
			name:  "one hour",
			reply: `[{"id":"1","name":"Chess Basics","timeToMaster":1,"difficulty":1}]`,
			want:  models.Technique{ID: "1", Name: "Chess Basics", TimeToMaster: "1 hour", Difficulty: 1, Prerequisites: []string{}},
		},
		{
			name:  "string difficulty",
			reply: `[{"id":"1","name":"Chess Basics","timeToMaster":"2 hours","difficulty":"2"}]`,
			want:  models.Technique{ID: "1", Name: "Chess Basics", TimeToMaster: "2 hours", Difficulty: 2, Prerequisites: []string{}},
		},
		{
			name:  "fractional difficulty",
			reply: `[{"id":"1","name":"Chess Basics","difficulty":2.6}]`,
			want:  models.Technique{ID: "1", Name: "Chess Basics", Difficulty: 3, Prerequisites: []string{}},
		},
		{
			name:  "unparseable difficulty and null fields",
			reply: `[{"id":null,"name":"Chess Basics","description":null,"difficulty":"hard","prerequisites":null}]`,
			want:  models.Technique{ID: "1", Name: "Chess Basics", Difficulty: MinDifficulty, Prerequisites: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := LearningPath(context.Background(), &fakeGenerator{reply: tt.reply}, chess, casual)
			require.NoError(t, err)
			require.Len(t, path, 1)
			if diff := cmp.Diff(tt.want, path[0]); diff != "" {
				t.Errorf("technique mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLearningPathFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "transport error", gen: &fakeGenerator{err: errors.New("deadline exceeded")}},
		{name: "no json", gen: &fakeGenerator{reply: "I cannot help with that."}},
		{name: "empty array", gen: &fakeGenerator{reply: "[]"}},
		{name: "only unnamed steps", gen: &fakeGenerator{reply: `[{"id":"1","name":"  "}]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LearningPath(context.Background(), tt.gen, chess, casual)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrGenerationFailed)

			var gerr *Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, "generate learning path", gerr.Op)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	in := make(models.LearningPath, 0, 12)
	for i := 0; i < 12; i++ {
		in = append(in, models.Technique{Name: string(rune('A' + i)), Difficulty: 3})
	}
	in[3].ID = "x"
	in[4].ID = "x"
	in[5].Prerequisites = []string{"A", "Z", "G"}

	out := NormalizePath(in)
	require.Len(t, out, MaxPathSteps)

	ids := make(map[string]bool)
	for _, tech := range out {
		assert.NotEmpty(t, tech.ID)
		assert.False(t, ids[tech.ID], "duplicate id %s", tech.ID)
		ids[tech.ID] = true
	}
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "x", out[3].ID)
	assert.Equal(t, []string{"A"}, out[5].Prerequisites)
}

func TestSearchQueries(t *testing.T) {
	gen := &fakeGenerator{reply: `["italian game", "Italian Game", "  ", "fried liver attack", "giuoco piano", "evans gambit", "two knights", "extra"]`}
	tech := models.Technique{ID: "1", Name: "Italian Game"}

	queries, err := SearchQueries(context.Background(), gen, chess, casual, tech, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"italian game", "fried liver attack", "giuoco piano", "evans gambit", "two knights"}, queries)

	gen.reply = `[]`
	_, err = SearchQueries(context.Background(), gen, chess, casual, tech, 5)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestContentExtras(t *testing.T) {
	gen := &fakeGenerator{reply: `{"introduction":" Control the center. ","tips":["Develop knights","", "Castle early"],"quote":"Every master was once a beginner."}`}
	tech := models.Technique{ID: "1", Name: "Openings"}
	videos := []models.Video{{Title: "Opening principles", VideoID: "abc"}}

	extras, err := ContentExtras(context.Background(), gen, chess, casual, tech, videos)
	require.NoError(t, err)
	assert.Equal(t, "Control the center.", extras.Introduction)
	assert.Equal(t, []string{"Develop knights", "Castle early"}, extras.Tips)
	assert.Contains(t, gen.prompts[0], "Opening principles")

	gen.reply = `{"introduction":"Openings","tips":["one","two","three","four"]}`
	extras, err = ContentExtras(context.Background(), gen, chess, casual, tech, videos)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, extras.Tips)

	gen.reply = `{"quote":"only a quote"}`
	_, err = ContentExtras(context.Background(), gen, chess, casual, tech, videos)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGuide(t *testing.T) {
	gen := &fakeGenerator{reply: "```markdown\n# Openings\nPlay e4.\n```"}
	tech := models.Technique{ID: "1", Name: "Openings", Prerequisites: []string{"Chess Basics"}}

	guide, err := Guide(context.Background(), gen, chess, casual, tech)
	require.NoError(t, err)
	assert.Equal(t, "# Openings\nPlay e4.", guide)
	assert.Contains(t, gen.prompts[0], "Chess Basics")

	gen.reply = "   "
	_, err = Guide(context.Background(), gen, chess, casual, tech)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), config.GenerationConfig{Model: "gemini-2.0-flash"})
	require.ErrorIs(t, err, config.ErrMissingCredential)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}
