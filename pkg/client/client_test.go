package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/learnpath/internal/models"
)

func writeEnvelope(w http.ResponseWriter, status int, data any, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": apiErr == nil,
		"data":    data,
		"error":   apiErr,
	})
}

func TestClientRequests(t *testing.T) {
	var gotPatch models.ProgressPatch
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/hobbies":
			writeEnvelope(w, http.StatusOK, map[string]any{
				"hobbies": []models.Hobby{{ID: "chess", Name: "Chess"}, {ID: "poker", Name: "Poker"}},
				"total":   2,
			}, nil)
		case r.Method == http.MethodPatch && r.URL.Path == "/api/v1/sessions/s1/progress/3":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPatch))
			writeEnvelope(w, http.StatusOK, models.Session{
				ID:       "s1",
				Progress: models.ProgressMap{"3": {Completed: true}},
			}, nil)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/sessions/s1/path":
			writeEnvelope(w, http.StatusBadGateway, nil, &APIError{Code: "generation_failed", Message: "try again"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/sessions/s1":
			writeEnvelope(w, http.StatusOK, map[string]string{"message": "session deleted"}, nil)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "sk_test_key")
	ctx := context.Background()

	hobbies, err := c.ListHobbies(ctx)
	require.NoError(t, err)
	require.Len(t, hobbies, 2)
	assert.Equal(t, "chess", hobbies[0].ID)

	completed := true
	session, err := c.UpdateProgress(ctx, "s1", "3", models.ProgressPatch{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, session.Progress["3"].Completed)
	require.NotNil(t, gotPatch.Completed)
	assert.True(t, *gotPatch.Completed)
	assert.Nil(t, gotPatch.Skipped)

	_, err = c.LoadPath(ctx, "s1")
	require.Error(t, err)
	assert.True(t, IsCode(err, "generation_failed"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)

	require.NoError(t, c.DeleteSession(ctx, "s1"))

	_, err = c.GetSession(ctx, "missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClientAuthError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"missing api key","message":"provide Authorization header"}`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "").ListHobbies(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Message, "missing api key")
}
