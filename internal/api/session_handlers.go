package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/learnpath/internal/models"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	session, err := s.sessions.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "create session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "get session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "delete session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session deleted",
	})
}

func (s *Server) handleSelectHobby(w http.ResponseWriter, r *http.Request) {
	var req models.SelectHobbyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.HobbyID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "hobbyId is required")
		return
	}

	session, err := s.sessions.SelectHobby(chi.URLParam(r, "id"), req.HobbyID)
	if err != nil {
		respondServiceError(w, err, "select hobby")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleSelectLevel(w http.ResponseWriter, r *http.Request) {
	var req models.SelectLevelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LevelID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "levelId is required")
		return
	}

	session, err := s.sessions.SelectLevel(r.Context(), chi.URLParam(r, "id"), req.LevelID)
	if err != nil {
		respondServiceError(w, err, "select level")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleLoadPath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := s.sessions.LoadPath(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "load learning path")
		return
	}

	slog.Info("learning path loaded", "session_id", id, "techniques", len(resp.Path), "generated", resp.Generated)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var patch models.ProgressPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	session, err := s.sessions.UpdateProgress(chi.URLParam(r, "id"), chi.URLParam(r, "techniqueId"), patch)
	if err != nil {
		respondServiceError(w, err, "update progress")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// handleGetContent returns a technique's study guide, as raw markdown when
// the client accepts text/markdown
func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.sessions.Content(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "techniqueId"))
	if err != nil {
		respondServiceError(w, err, "get technique content")
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(content.Markdown)); err != nil {
			slog.Error("failed to write markdown", "error", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, content)
}
