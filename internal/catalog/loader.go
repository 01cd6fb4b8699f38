package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/learnpath/internal/models"
)

//go:embed defaults
var defaults embed.FS

var (
	ErrHobbyNotFound = errors.New("hobby not found")
	ErrLevelNotFound = errors.New("level not found")
)

// Catalog holds the hobby and predefined level reference data
type Catalog struct {
	mu      sync.RWMutex
	hobbies map[string]*hobbyEntry
	levels  []models.Level
}

type hobbyEntry struct {
	hobby models.Hobby
	order int
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		hobbies: make(map[string]*hobbyEntry),
	}
}

// Load builds a catalog from dir, or from the embedded defaults when dir is empty
func Load(dir string) (*Catalog, error) {
	c := New()

	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(defaults, "defaults")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded catalog: %w", err)
		}
		fsys = sub
		slog.Info("loading embedded catalog")
	} else {
		fsys = os.DirFS(dir)
		slog.Info("loading catalog from directory", "dir", dir)
	}

	if err := c.LoadFS(fsys); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFS loads levels.yaml and hobbies/*.yaml from fsys
func (c *Catalog) LoadFS(fsys fs.FS) error {
	data, err := fs.ReadFile(fsys, "levels.yaml")
	if err != nil {
		return fmt.Errorf("failed to read levels.yaml: %w", err)
	}

	var lf levelsFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("failed to parse levels.yaml: %w", err)
	}

	levels := make([]models.Level, 0, len(lf.Levels))
	seen := make(map[string]bool)
	for _, lvl := range lf.Levels {
		if lvl.ID == "" || lvl.Name == "" {
			return fmt.Errorf("level id and name are required")
		}
		if seen[lvl.ID] {
			return fmt.Errorf("duplicate level id %q", lvl.ID)
		}
		seen[lvl.ID] = true
		levels = append(levels, lvl)
	}

	files, err := fs.Glob(fsys, "hobbies/*.y*ml")
	if err != nil {
		return fmt.Errorf("failed to list hobbies: %w", err)
	}

	loaded := 0
	for _, file := range files {
		if err := c.loadHobby(fsys, file); err != nil {
			slog.Warn("failed to load hobby", "file", file, "error", err)
			continue
		}
		loaded++
	}

	c.mu.Lock()
	c.levels = levels
	c.mu.Unlock()

	slog.Info("catalog loaded", "hobbies", loaded, "levels", len(levels))
	return nil
}

func (c *Catalog) loadHobby(fsys fs.FS, file string) error {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var hf hobbyFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Use id from YAML, fall back to filename without extension
	id := hf.ID
	if id == "" {
		base := path.Base(file)
		id = strings.TrimSuffix(base, path.Ext(base))
	}
	if hf.Name == "" {
		return fmt.Errorf("hobby name is required")
	}

	c.Add(models.Hobby{
		ID:    id,
		Name:  hf.Name,
		Icon:  hf.Icon,
		Color: hf.Color,
		Emoji: hf.Emoji,
	}, hf.Order)
	return nil
}

// Add registers or replaces a hobby; order controls listing position
func (c *Catalog) Add(h models.Hobby, order int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hobbies[h.ID] = &hobbyEntry{hobby: h, order: order}
}

// Hobbies returns all hobbies ordered by their catalog order, then id
func (c *Catalog) Hobbies() []models.Hobby {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]*hobbyEntry, 0, len(c.hobbies))
	for _, e := range c.hobbies {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].hobby.ID < entries[j].hobby.ID
	})

	result := make([]models.Hobby, len(entries))
	for i, e := range entries {
		result[i] = e.hobby
	}
	return result
}

// Hobby returns a hobby by id
func (c *Catalog) Hobby(id string) (models.Hobby, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.hobbies[id]
	if !ok {
		return models.Hobby{}, fmt.Errorf("%w: %s", ErrHobbyNotFound, id)
	}
	return e.hobby, nil
}

// Levels returns the predefined levels in catalog order
func (c *Catalog) Levels() []models.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Level, len(c.levels))
	copy(out, c.levels)
	return out
}

// Level returns a predefined level by id
func (c *Catalog) Level(id string) (models.Level, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, l := range c.levels {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Level{}, fmt.Errorf("%w: %s", ErrLevelNotFound, id)
}

// --- YAML file structs ---

type levelsFile struct {
	Levels []models.Level `yaml:"levels"`
}

type hobbyFile struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Icon  string `yaml:"icon"`
	Color string `yaml:"color"`
	Emoji string `yaml:"emoji"`
	Order int    `yaml:"order"`
}
