package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/learnpath/internal/catalog"
	"github.com/terra-clan/learnpath/internal/generation"
	"github.com/terra-clan/learnpath/internal/janitor"
	"github.com/terra-clan/learnpath/internal/learning"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, &apiError{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, status int, apiErr *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{Success: false, Error: apiErr}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeBody decodes a JSON request body, answering 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// respondServiceError maps domain errors onto HTTP responses
func respondServiceError(w http.ResponseWriter, err error, op string) {
	var validation *learning.ValidationError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, &apiError{
			Code:    "validation_error",
			Message: "invalid input",
			Fields:  validation.Fields,
		})
	case errors.Is(err, learning.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", "session not found")
	case errors.Is(err, catalog.ErrHobbyNotFound):
		respondError(w, http.StatusNotFound, "hobby_not_found", "hobby not found")
	case errors.Is(err, catalog.ErrLevelNotFound):
		respondError(w, http.StatusNotFound, "level_not_found", "level not found")
	case errors.Is(err, learning.ErrTechniqueNotFound):
		respondError(w, http.StatusNotFound, "technique_not_found", "technique not found in learning path")
	case errors.Is(err, learning.ErrNoHobbySelected):
		respondError(w, http.StatusConflict, "hobby_not_selected", "select a hobby first")
	case errors.Is(err, learning.ErrNoLevelSelected):
		respondError(w, http.StatusConflict, "level_not_selected", "select a level first")
	case errors.Is(err, learning.ErrPathNotLoaded):
		respondError(w, http.StatusConflict, "path_not_loaded", "load the learning path first")
	case errors.Is(err, learning.ErrEmptyPatch):
		respondError(w, http.StatusBadRequest, "validation_error", "progress patch sets no fields")
	case errors.Is(err, generation.ErrGenerationFailed):
		slog.Error("generation failed", "op", op, "error", err)
		respondError(w, http.StatusBadGateway, "generation_failed", "failed to generate learning path, please try again")
	default:
		slog.Error("request failed", "op", op, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+op)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if failing := s.health.Failing(r.Context()); len(failing) > 0 {
		slog.Warn("readiness check failed", "failing", failing)
		writeError(w, http.StatusServiceUnavailable, &apiError{
			Code:    "not_ready",
			Message: "service not ready",
			Fields:  failingFields(failing),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": s.health.List(),
	})
}

func failingFields(names []string) map[string]string {
	fields := make(map[string]string, len(names))
	for _, name := range names {
		fields[name] = "unavailable"
	}
	return fields
}

// Admin handlers

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	result, err := janitor.Purge(r.Context(), s.store)
	if err != nil {
		respondServiceError(w, err, "purge legacy cache")
		return
	}

	slog.Info("legacy cache purged", "deleted", result.Deleted, "client", ClientFromContext(r.Context()).Name)
	respondJSON(w, http.StatusOK, result)
}

// handleListClients reports the configured API clients and when each was last used
func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients := s.authMiddleware.Clients()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"total":   len(clients),
	})
}
