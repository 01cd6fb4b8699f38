package models

import "strings"

// Hobby is a top-level domain the learner wants to get better at (e.g., chess)
type Hobby struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Icon  string `yaml:"icon" json:"icon,omitempty"`
	Color string `yaml:"color" json:"color,omitempty"`
	Emoji string `yaml:"emoji" json:"emoji,omitempty"`
}

// Level is a named difficulty/commitment tier, predefined or learner-authored
type Level struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description" json:"description"`
	TimeCommitment string `yaml:"time_commitment" json:"timeCommitment"`
	Icon           string `yaml:"icon" json:"icon,omitempty"`
	Custom         bool   `yaml:"-" json:"custom,omitempty"`
}

// MaxLevelDescription is the longest description accepted for a custom level
const MaxLevelDescription = 100

// LevelInput is the payload used to author a custom level
type LevelInput struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	TimeCommitment string `json:"timeCommitment"`
	Icon           string `json:"icon,omitempty"`
}

// Validate returns per-field validation messages; an empty map means valid
func (in LevelInput) Validate() map[string]string {
	problems := make(map[string]string)

	if strings.TrimSpace(in.Name) == "" {
		problems["name"] = "name is required"
	}

	desc := strings.TrimSpace(in.Description)
	switch {
	case desc == "":
		problems["description"] = "description is required"
	case len([]rune(desc)) > MaxLevelDescription:
		problems["description"] = "description should be less than 100 characters"
	}

	if strings.TrimSpace(in.TimeCommitment) == "" {
		problems["timeCommitment"] = "time commitment is required"
	}

	return problems
}
