package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/learnpath/internal/api"
	"github.com/terra-clan/learnpath/internal/catalog"
	"github.com/terra-clan/learnpath/internal/config"
	"github.com/terra-clan/learnpath/internal/learning"
	"github.com/terra-clan/learnpath/internal/storage"
)

const guitarPath = `[
  {"id":"1","name":"Open Chords","description":"Play C, G, D and E minor cleanly.","timeToMaster":"5 hours","difficulty":1,"prerequisites":[]},
  {"id":"2","name":"Strumming Patterns","description":"Keep time with down-up strums.","timeToMaster":"4 hours","difficulty":2,"prerequisites":["Open Chords"]},
  {"id":"3","name":"Barre Chords","description":"Fret a full barre on the first fret.","timeToMaster":"10 hours","difficulty":3,"prerequisites":["Open Chords"]},
  {"id":"4","name":"Fingerpicking","description":"Travis picking basics.","timeToMaster":"8 hours","difficulty":3,"prerequisites":[]},
  {"id":"5","name":"Pentatonic Scale","description":"Five positions of the minor pentatonic.","timeToMaster":"8 hours","difficulty":3,"prerequisites":[]}
]`

type pathGenerator struct{}

func (pathGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "learning path") {
		return guitarPath, nil
	}
	return "", errors.New("model unavailable")
}

func startServer(t *testing.T) string {
	t.Helper()

	cat, err := catalog.Load("")
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	persister := learning.NewPersister(store)
	levels := learning.NewLevelService(cat, store)
	sessions := learning.NewSessions(time.Hour, learning.Deps{
		Catalog:   cat,
		Levels:    levels,
		Paths:     learning.NewPathService(store, pathGenerator{}),
		Content:   learning.NewContentService(store, pathGenerator{}, nil),
		Persister: persister,
	})

	srv := api.NewServer(config.ServerConfig{}, api.Deps{
		Catalog:  cat,
		Levels:   levels,
		Sessions: sessions,
		Store:    store,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		persister.Wait()
	})
	return ts.URL
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPathCommand(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "path", "--hobby", "guitar", "--level", "casual")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] 1. Open Chords")
	assert.Contains(t, out, "requires: Open Chords")
	assert.Contains(t, out, "0/5 completed")
}

func TestProgressCommand(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "progress", "3", "--hobby", "guitar", "--level", "casual", "--completed")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] 3. Barre Chords")
	assert.Contains(t, out, "1/5 completed (20%)")

	_, err = run(t, url, "progress", "3", "--hobby", "guitar", "--level", "casual")
	require.Error(t, err)

	_, err = run(t, url, "progress", "42", "--hobby", "guitar", "--level", "casual", "--skipped")
	require.Error(t, err)
}

func TestContentCommandRaw(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "content", "2", "--hobby", "guitar", "--level", "pro", "--raw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Strumming Patterns"))
	assert.Contains(t, out, "Keep time with down-up strums.")
}

func TestLevelsCommands(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "levels", "add", "guitar",
		"--name", "Campfire",
		"--description", "A few songs for friends",
		"--time", "1 hr/week",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Added level Campfire (custom-")

	out, err = run(t, url, "levels", "guitar")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "Campfire (1 hr/week) [custom]")
	assert.Contains(t, out, "casual  Casual")

	_, err = run(t, url, "levels", "knitting")
	require.Error(t, err)
}

func TestRenderMarkdown(t *testing.T) {
	raw, err := renderMarkdown("# Title\n\nbody", true)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody", raw)

	rendered, err := renderMarkdown("# Title\n\nbody", false)
	require.NoError(t, err)
	assert.Contains(t, rendered, "Title")
	assert.Contains(t, rendered, "body")
}
