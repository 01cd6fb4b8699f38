package catalog

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	hobbies := c.Hobbies()
	if len(hobbies) != 3 {
		t.Fatalf("expected 3 hobbies, got %d", len(hobbies))
	}
	want := []string{"chess", "poker", "guitar"}
	for i, id := range want {
		if hobbies[i].ID != id {
			t.Errorf("hobby %d: expected %s, got %s", i, id, hobbies[i].ID)
		}
	}

	chess, err := c.Hobby("chess")
	if err != nil {
		t.Fatalf("chess not found: %v", err)
	}
	if chess.Name != "Chess" || chess.Icon != "chess-knight" {
		t.Errorf("unexpected chess entry: %+v", chess)
	}

	levels := c.Levels()
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	casual, err := c.Level("casual")
	if err != nil {
		t.Fatalf("casual not found: %v", err)
	}
	if casual.TimeCommitment != "2-3 hrs/week" {
		t.Errorf("unexpected casual time commitment: %s", casual.TimeCommitment)
	}
	if casual.Custom {
		t.Error("predefined level must not be marked custom")
	}
}

func TestLookupMisses(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := c.Hobby("knitting"); !errors.Is(err, ErrHobbyNotFound) {
		t.Errorf("expected ErrHobbyNotFound, got %v", err)
	}
	if _, err := c.Level("grandmaster"); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("expected ErrLevelNotFound, got %v", err)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"levels.yaml": {Data: []byte(`
levels:
  - id: beginner
    name: Beginner
    description: Start here
    time_commitment: 1 hr/week
`)},
		"hobbies/knitting.yaml": {Data: []byte("name: Knitting\norder: 2\n")},
		"hobbies/baking.yml":    {Data: []byte("id: baking\nname: Baking\norder: 1\n")},
		"hobbies/broken.yaml":   {Data: []byte("id: broken\n")},
	}

	c := New()
	if err := c.LoadFS(fsys); err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}

	hobbies := c.Hobbies()
	if len(hobbies) != 2 {
		t.Fatalf("expected 2 hobbies (broken skipped), got %d", len(hobbies))
	}
	if hobbies[0].ID != "baking" || hobbies[1].ID != "knitting" {
		t.Errorf("unexpected order: %+v", hobbies)
	}

	lvl, err := c.Level("beginner")
	if err != nil {
		t.Fatalf("beginner not found: %v", err)
	}
	if lvl.TimeCommitment != "1 hr/week" {
		t.Errorf("unexpected time commitment: %q", lvl.TimeCommitment)
	}
}

func TestLoadFSRejectsDuplicateLevels(t *testing.T) {
	fsys := fstest.MapFS{
		"levels.yaml": {Data: []byte("levels:\n  - {id: a, name: A}\n  - {id: a, name: B}\n")},
	}
	if err := New().LoadFS(fsys); err == nil {
		t.Fatal("expected error for duplicate level ids")
	}
}
