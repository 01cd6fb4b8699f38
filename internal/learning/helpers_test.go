package learning

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/terra-clan/learnpath/internal/models"
)

func TestMain(m *testing.M) {
	// opencensus, pulled in by the genai SDK, starts a worker from init
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var errUnavailable = errors.New("model unavailable")

// scriptedGenerator answers each kind of prompt with a fixed reply or error
type scriptedGenerator struct {
	mu sync.Mutex

	path    string
	queries string
	extras  string
	guide   string
	failAll bool

	calls map[string]int
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	kind := promptKind(prompt)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	g.calls[kind]++

	if g.failAll {
		return "", errUnavailable
	}

	var reply string
	switch kind {
	case "path":
		reply = g.path
	case "queries":
		reply = g.queries
	case "extras":
		reply = g.extras
	case "guide":
		reply = g.guide
	}
	if reply == "" {
		return "", errUnavailable
	}
	return reply, nil
}

func (g *scriptedGenerator) count(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[kind]
}

func (g *scriptedGenerator) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

func promptKind(prompt string) string {
	switch {
	case strings.Contains(prompt, "learning path"):
		return "path"
	case strings.Contains(prompt, "search queries"):
		return "queries"
	case strings.Contains(prompt, "JSON object"):
		return "extras"
	case strings.Contains(prompt, "study guide"):
		return "guide"
	default:
		return "unknown"
	}
}

// stubSearcher returns canned results per query, counting calls
type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]models.Video
	all     []models.Video
	fail    bool
	calls   int
}

func (s *stubSearcher) Search(_ context.Context, query string, max int) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return nil, errors.New("search unavailable")
	}
	out := s.results[query]
	if out == nil {
		out = s.all
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var (
	chess  = models.Hobby{ID: "chess", Name: "Chess"}
	casual = models.Level{ID: "casual", Name: "Casual", Description: "Play for fun", TimeCommitment: "2-3 hrs/week"}
	pro    = models.Level{ID: "pro", Name: "Pro", Description: "Compete", TimeCommitment: "10+ hrs/week"}

	openings = models.Technique{
		ID:            "3",
		Name:          "Opening Principles",
		Description:   "Control the center, develop pieces and castle early.",
		TimeToMaster:  "4 hours",
		Difficulty:    2,
		Prerequisites: []string{"Chess Basics"},
	}
)

const sixStepPath = `Here is the path:
[
  {"id":"1","name":"Chess Basics","description":"How pieces move.","timeToMaster":"2 hours","difficulty":1,"prerequisites":[]},
  {"id":"2","name":"Checkmate Patterns","description":"Basic mates.","timeToMaster":"3 hours","difficulty":2,"prerequisites":["Chess Basics"]},
  {"id":"3","name":"Opening Principles","description":"Control the center.","timeToMaster":"4 hours","difficulty":2,"prerequisites":["Chess Basics"]},
  {"id":"4","name":"Tactics","description":"Forks and pins.","timeToMaster":"6 hours","difficulty":3,"prerequisites":[]},
  {"id":"5","name":"Endgames","description":"King and pawn endings.","timeToMaster":"6 hours","difficulty":3,"prerequisites":[]},
  {"id":"6","name":"Planning","description":"Make a plan.","timeToMaster":"8 hours","difficulty":4,"prerequisites":["Tactics"]}
]`
