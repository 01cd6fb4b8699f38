package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/terra-clan/learnpath/internal/config"
)

// ErrGenerationFailed is returned when text generation errors, times out,
// or produces output that cannot be used
var ErrGenerationFailed = errors.New("generation failed")

// Error describes a failed generation operation
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Err}
}

func fail(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient generates text with the Gemini API
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewGeminiClient creates a Gemini-backed generator.
// It fails fast with config.ErrMissingCredential when no API key is configured.
func NewGeminiClient(ctx context.Context, cfg config.GenerationConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY", config.ErrMissingCredential)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	g := &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
	}
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	slog.Info("gemini generator ready", "model", model, "timeout", timeout.String(), "rps", cfg.RPS)
	return g, nil
}

// Generate sends prompt to the model and returns the response text
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	slog.Debug("gemini response",
		"model", g.model,
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

// Model returns the configured model name
func (g *GeminiClient) Model() string {
	return g.model
}
