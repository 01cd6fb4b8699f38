package learning

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrNoHobbySelected   = errors.New("no hobby selected")
	ErrNoLevelSelected   = errors.New("no level selected")
	ErrPathNotLoaded     = errors.New("learning path not loaded")
	ErrTechniqueNotFound = errors.New("technique not found")
	ErrEmptyPatch        = errors.New("progress update changes nothing")
)

// ValidationError carries per-field validation messages
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
