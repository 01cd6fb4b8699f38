package learning

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/terra-clan/learnpath/internal/generation"
	"github.com/terra-clan/learnpath/internal/models"
)

var linkText = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

var conjunctions = regexp.MustCompile(`(?i)\s+(?:and|or|with|vs\.?)\s+|\s*[&,/+]\s*`)

// defaultQueries builds search queries from the technique name when the
// model cannot suggest any: one query per name component plus queries
// tuned to the technique's difficulty
func defaultQueries(hobby models.Hobby, level models.Level, t models.Technique, max int) []string {
	var candidates []string

	parts := conjunctions.Split(t.Name, -1)
	if len(parts) > 1 {
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				candidates = append(candidates, fmt.Sprintf("%s %s tutorial", hobby.Name, part))
			}
		}
	}

	for _, modifier := range difficultyModifiers(t.Difficulty) {
		candidates = append(candidates, fmt.Sprintf("%s %s %s", hobby.Name, t.Name, modifier))
	}
	candidates = append(candidates, fmt.Sprintf("%s %s %s level practice", hobby.Name, t.Name, strings.ToLower(level.Name)))

	queries := make([]string, 0, max)
	seen := make(map[string]bool)
	for _, q := range candidates {
		q = strings.Join(strings.Fields(q), " ")
		if seen[strings.ToLower(q)] {
			continue
		}
		seen[strings.ToLower(q)] = true
		queries = append(queries, q)
		if len(queries) == max {
			break
		}
	}
	return queries
}

func difficultyModifiers(difficulty int) []string {
	switch {
	case difficulty <= 2:
		return []string{"for beginners", "basics explained"}
	case difficulty == 3:
		return []string{"step by step", "common mistakes"}
	default:
		return []string{"advanced", "masterclass"}
	}
}

// templateExtras stands in for AI-written extras
func templateExtras(hobby models.Hobby, level models.Level, t models.Technique) generation.Extras {
	return generation.Extras{
		Introduction: fmt.Sprintf("%s is a key step for %s players at the %s level. Work through the videos below, then put each idea into practice.",
			t.Name, hobby.Name, strings.ToLower(level.Name)),
		Tips: []string{
			"Watch each video once without pausing, then again while practicing along.",
			fmt.Sprintf("Practice %s in short, focused sessions rather than one long one.", t.Name),
			"Write down one thing to improve after every session.",
		},
		Quote: "The expert in anything was once a beginner.",
	}
}

func writeHeader(b *strings.Builder, level models.Level, t models.Technique) {
	fmt.Fprintf(b, "# %s\n\n", t.Name)
	if t.Description != "" {
		fmt.Fprintf(b, "> %s\n\n", t.Description)
	}

	var facts []string
	if level.Name != "" {
		facts = append(facts, fmt.Sprintf("**Level:** %s", level.Name))
	}
	if t.TimeToMaster != "" {
		facts = append(facts, fmt.Sprintf("**Time to master:** %s", t.TimeToMaster))
	}
	if t.Difficulty > 0 {
		facts = append(facts, fmt.Sprintf("**Difficulty:** %d/5", t.Difficulty))
	}
	if len(facts) > 0 {
		b.WriteString(strings.Join(facts, " · "))
		b.WriteString("\n\n")
	}
}

// renderChecklist renders a video checklist document
func renderChecklist(level models.Level, t models.Technique, videos []models.Video, extras generation.Extras) string {
	var b strings.Builder
	writeHeader(&b, level, t)

	if extras.Introduction != "" {
		b.WriteString(extras.Introduction)
		b.WriteString("\n\n")
	}

	b.WriteString("## Video Checklist\n\n")
	for _, v := range videos {
		fmt.Fprintf(&b, "- [ ] [%s](%s)", linkText.Replace(v.Title), v.URL)
		if v.ChannelTitle != "" {
			fmt.Fprintf(&b, " by %s", v.ChannelTitle)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(extras.Tips) > 0 {
		b.WriteString("## Tips\n\n")
		for _, tip := range extras.Tips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
		b.WriteString("\n")
	}

	if extras.Quote != "" {
		fmt.Fprintf(&b, "---\n\n*%s*\n", extras.Quote)
	}
	return b.String()
}

// renderStaticGuide renders a guide from the technique's own fields
func renderStaticGuide(hobby models.Hobby, level models.Level, t models.Technique) string {
	var b strings.Builder
	writeHeader(&b, level, t)

	b.WriteString("## Introduction\n\n")
	fmt.Fprintf(&b, "%s is part of your %s learning path. %s\n\n", t.Name, hobby.Name, t.Description)
	if len(t.Prerequisites) > 0 {
		fmt.Fprintf(&b, "Before starting, make sure you are comfortable with: %s.\n\n", strings.Join(t.Prerequisites, ", "))
	}

	b.WriteString("## Practice Pathway\n\n")
	steps := []string{
		fmt.Sprintf("Read up on the core ideas behind %s.", t.Name),
		"Break the technique into small parts and practice each one slowly.",
		"Combine the parts and practice at a comfortable pace.",
		fmt.Sprintf("Apply %s in real %s sessions.", t.Name, hobby.Name),
		"Review what went wrong and repeat the weakest part.",
	}
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if t.TimeToMaster != "" {
		fmt.Fprintf(&b, "\nBudget about %s in total.\n", t.TimeToMaster)
	}
	b.WriteString("\n")

	b.WriteString("## Common Mistakes\n\n")
	b.WriteString("- Rushing ahead before the basics feel natural.\n")
	b.WriteString("- Practicing without a clear goal for the session.\n")
	b.WriteString("- Skipping review of mistakes.\n\n")

	b.WriteString("## Practice Exercises\n\n")
	fmt.Fprintf(&b, "- Spend 15 minutes a day on %s for one week.\n", t.Name)
	b.WriteString("- Teach the technique to someone else or explain it out loud.\n")
	fmt.Fprintf(&b, "- Track your sessions and note how %s improves your %s.\n\n", t.Name, hobby.Name)

	b.WriteString("---\n\n*Practice does not make perfect. Perfect practice makes perfect.*\n")
	return b.String()
}

// ensureEssentials guarantees the document names the technique and carries its description
func ensureEssentials(md string, t models.Technique) string {
	var prefix strings.Builder
	if t.Name != "" && !strings.Contains(md, t.Name) {
		fmt.Fprintf(&prefix, "# %s\n\n", t.Name)
	}
	if t.Description != "" && !strings.Contains(md, t.Description) {
		fmt.Fprintf(&prefix, "> %s\n\n", t.Description)
	}
	if prefix.Len() == 0 {
		return md
	}
	return prefix.String() + md
}
