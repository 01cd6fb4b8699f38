package models

import (
	"time"
)

// Session is a snapshot of one learner's selection and progress state
type Session struct {
	ID         string          `json:"id"`
	Hobby      *Hobby          `json:"hobby,omitempty"`
	Level      *Level          `json:"level,omitempty"`
	Path       LearningPath    `json:"learningPath"`
	Progress   ProgressMap     `json:"progress"`
	Summary    ProgressSummary `json:"summary"`
	Version    uint64          `json:"version"`
	CreatedAt  time.Time       `json:"createdAt"`
	LastSeenAt time.Time       `json:"lastSeenAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// IsExpired checks if the session has been idle past its expiry
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CreateSessionRequest opens a session, optionally preselecting hobby and level
type CreateSessionRequest struct {
	HobbyID string `json:"hobbyId,omitempty"`
	LevelID string `json:"levelId,omitempty"`
}

// SelectHobbyRequest selects the session's hobby
type SelectHobbyRequest struct {
	HobbyID string `json:"hobbyId"`
}

// SelectLevelRequest selects the session's level
type SelectLevelRequest struct {
	LevelID string `json:"levelId"`
}

// LoadPathResponse is returned when a learning path is loaded into a session
type LoadPathResponse struct {
	Path      LearningPath    `json:"learningPath"`
	Progress  ProgressMap     `json:"progress"`
	Summary   ProgressSummary `json:"summary"`
	Generated bool            `json:"generated"`
}

// TechniqueContent is the markdown study guide for a technique
type TechniqueContent struct {
	TechniqueID string `json:"techniqueId"`
	Markdown    string `json:"markdown"`
}

// PurgeResult reports a purge of superseded cache entries
type PurgeResult struct {
	Deleted  int      `json:"deleted"`
	Prefixes []string `json:"prefixes"`
}
