package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const wordWrap = 80

// renderMarkdown renders md for the terminal unless raw is set
func renderMarkdown(md string, raw bool) (string, error) {
	if raw {
		return md, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
