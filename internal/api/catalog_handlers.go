package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/learnpath/internal/models"
)

// Catalog handlers: hobbies and the levels available for each

func (s *Server) handleListHobbies(w http.ResponseWriter, r *http.Request) {
	hobbies := s.catalog.Hobbies()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hobbies": hobbies,
		"total":   len(hobbies),
	})
}

func (s *Server) handleGetHobby(w http.ResponseWriter, r *http.Request) {
	hobby, err := s.catalog.Hobby(chi.URLParam(r, "hobbyId"))
	if err != nil {
		respondServiceError(w, err, "get hobby")
		return
	}
	respondJSON(w, http.StatusOK, hobby)
}

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.levels.List(r.Context(), chi.URLParam(r, "hobbyId"))
	if err != nil {
		respondServiceError(w, err, "list levels")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"levels": levels,
		"total":  len(levels),
	})
}

func (s *Server) handleAddLevel(w http.ResponseWriter, r *http.Request) {
	var in models.LevelInput
	if !decodeBody(w, r, &in) {
		return
	}

	hobbyID := chi.URLParam(r, "hobbyId")
	level, err := s.levels.AddCustom(r.Context(), hobbyID, in)
	if err != nil {
		respondServiceError(w, err, "add custom level")
		return
	}

	slog.Info("custom level added", "hobby", hobbyID, "level_id", level.ID, "name", level.Name)
	respondJSON(w, http.StatusCreated, level)
}
