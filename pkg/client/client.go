package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/terra-clan/learnpath/internal/models"
)

// Client is a Go SDK for the learnpath API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new learnpath client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			// path generation and content assembly can take a while
			Timeout: 2 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error envelope returned by the server
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("API error: %s - %s %v", e.Code, e.Message, e.Fields)
	}
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

// ListHobbies retrieves the hobby catalog
func (c *Client) ListHobbies(ctx context.Context) ([]models.Hobby, error) {
	var result struct {
		Hobbies []models.Hobby `json:"hobbies"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/hobbies", nil, &result); err != nil {
		return nil, err
	}
	return result.Hobbies, nil
}

// ListLevels retrieves custom and predefined levels of a hobby
func (c *Client) ListLevels(ctx context.Context, hobbyID string) ([]models.Level, error) {
	var result struct {
		Levels []models.Level `json:"levels"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/hobbies/"+url.PathEscape(hobbyID)+"/levels", nil, &result); err != nil {
		return nil, err
	}
	return result.Levels, nil
}

// AddLevel authors a custom level for a hobby
func (c *Client) AddLevel(ctx context.Context, hobbyID string, in models.LevelInput) (*models.Level, error) {
	var level models.Level
	if err := c.call(ctx, http.MethodPost, "/api/v1/hobbies/"+url.PathEscape(hobbyID)+"/levels", in, &level); err != nil {
		return nil, err
	}
	return &level, nil
}

// CreateSession opens a learner session
func (c *Client) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	var session models.Session
	if err := c.call(ctx, http.MethodPost, "/api/v1/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession retrieves a session snapshot
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := c.call(ctx, http.MethodGet, sessionPath(id, ""), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession closes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, sessionPath(id, ""), nil, nil)
}

// SelectHobby selects the session's hobby
func (c *Client) SelectHobby(ctx context.Context, id, hobbyID string) (*models.Session, error) {
	var session models.Session
	if err := c.call(ctx, http.MethodPut, sessionPath(id, "/hobby"), models.SelectHobbyRequest{HobbyID: hobbyID}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SelectLevel selects the session's level
func (c *Client) SelectLevel(ctx context.Context, id, levelID string) (*models.Session, error) {
	var session models.Session
	if err := c.call(ctx, http.MethodPut, sessionPath(id, "/level"), models.SelectLevelRequest{LevelID: levelID}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// LoadPath loads, generating if needed, the learning path of the session's selection
func (c *Client) LoadPath(ctx context.Context, id string) (*models.LoadPathResponse, error) {
	var resp models.LoadPathResponse
	if err := c.call(ctx, http.MethodPost, sessionPath(id, "/path"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProgress merges a patch into one technique's progress
func (c *Client) UpdateProgress(ctx context.Context, id, techniqueID string, patch models.ProgressPatch) (*models.Session, error) {
	var session models.Session
	if err := c.call(ctx, http.MethodPatch, sessionPath(id, "/progress/"+url.PathEscape(techniqueID)), patch, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetContent retrieves the markdown study guide of a technique
func (c *Client) GetContent(ctx context.Context, id, techniqueID string) (*models.TechniqueContent, error) {
	var content models.TechniqueContent
	if err := c.call(ctx, http.MethodGet, sessionPath(id, "/techniques/"+url.PathEscape(techniqueID)+"/content"), nil, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// Purge deletes cache entries written under superseded key schemas
func (c *Client) Purge(ctx context.Context) (*models.PurgeResult, error) {
	var result models.PurgeResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/admin/purge", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func sessionPath(id, suffix string) string {
	return "/api/v1/sessions/" + url.PathEscape(id) + suffix
}

// call sends in as a JSON body and decodes the envelope's data into out
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var result envelope
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !result.Success {
		if result.Error == nil {
			return &APIError{Code: "unknown", Message: "request failed"}
		}
		return result.Error
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var result envelope
		if json.Unmarshal(respBody, &result) == nil && result.Error != nil {
			result.Error.Status = resp.StatusCode
			return nil, result.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: string(respBody)}
	}

	return respBody, nil
}
