package videosearch

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/terra-clan/learnpath/internal/config"
	"github.com/terra-clan/learnpath/internal/models"
)

// Searcher finds videos for a query
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]models.Video, error)
}

// SearchError is returned when the search endpoint answers with a non-2xx status
type SearchError struct {
	Query  string
	Status int
	Body   string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("video search for %q failed with status %d: %s", e.Query, e.Status, e.Body)
}

// YouTubeClient searches videos with the YouTube Data API v3
type YouTubeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewYouTubeClient creates a search client.
// It fails fast with config.ErrMissingCredential when no API key is configured.
func NewYouTubeClient(cfg config.SearchConfig) (*YouTubeClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: YOUTUBE_API_KEY", config.ErrMissingCredential)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}

	return &YouTubeClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type thumbnail struct {
	URL string `json:"url"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string               `json:"title"`
			Description  string               `json:"description"`
			ChannelTitle string               `json:"channelTitle"`
			Thumbnails   map[string]thumbnail `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search runs one search.list call and returns up to max videos
func (c *YouTubeClient) Search(ctx context.Context, query string, max int) ([]models.Video, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(max))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &SearchError{Query: query, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	videos := make([]models.Video, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, models.Video{
			Title:        html.UnescapeString(item.Snippet.Title),
			VideoID:      item.ID.VideoID,
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			ThumbnailURL: pickThumbnail(item.Snippet.Thumbnails),
			ChannelTitle: html.UnescapeString(item.Snippet.ChannelTitle),
			Description:  html.UnescapeString(item.Snippet.Description),
		})
		if len(videos) == max {
			break
		}
	}
	return videos, nil
}

func pickThumbnail(thumbs map[string]thumbnail) string {
	for _, size := range []string{"high", "medium", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
