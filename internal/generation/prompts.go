package generation

import (
	"fmt"
	"strings"

	"github.com/terra-clan/learnpath/internal/models"
)

const learningPathPrompt = `Create a personalized learning path of %d to %d steps for %s at the %s level.
Level description: %s
Time commitment: %s

For each step, provide:
1. A name for the technique or skill
2. A short description (1-2 sentences)
3. Estimated time to master (in hours)
4. Difficulty level (1-5)
5. Prerequisites: names of earlier steps only (if any)

Respond with a JSON array only, like:
[
  {
    "id": "1",
    "name": "Example Technique",
    "description": "Short description here",
    "timeToMaster": "2 hours",
    "difficulty": 2,
    "prerequisites": []
  }
]`

const searchQueriesPrompt = `Suggest up to %d short YouTube search queries for learning the %s technique "%s" at the %s level.
Technique description: %s

Respond with a JSON array of strings only.`

const contentExtrasPrompt = `You are a coach for %s learners at the %s level.
Write study notes for the technique "%s": %s
The learner will watch these videos:
%s
Respond with a JSON object only:
{
  "introduction": "two or three sentences introducing the technique",
  "tips": ["2 or 3 short practical tips"],
  "quote": "a short motivational quote"
}`

const guidePrompt = `Write a self-contained markdown study guide for the %s technique "%s" at the %s level.
Technique description: %s
Estimated time to master: %s
Difficulty: %d/5
Prerequisites: %s

Include these sections: an introduction, a step-by-step practice pathway,
common mistakes, practice exercises, and a closing motivational quote.
Respond with markdown only.`

func buildLearningPathPrompt(hobby models.Hobby, level models.Level) string {
	return fmt.Sprintf(learningPathPrompt,
		MinPathSteps, MaxPathSteps,
		hobby.Name, level.Name, level.Description, level.TimeCommitment,
	)
}

func buildSearchQueriesPrompt(hobby models.Hobby, level models.Level, t models.Technique, max int) string {
	return fmt.Sprintf(searchQueriesPrompt, max, hobby.Name, t.Name, level.Name, t.Description)
}

func buildContentExtrasPrompt(hobby models.Hobby, level models.Level, t models.Technique, videos []models.Video) string {
	var list strings.Builder
	for _, v := range videos {
		fmt.Fprintf(&list, "- %s\n", v.Title)
	}
	return fmt.Sprintf(contentExtrasPrompt, hobby.Name, level.Name, t.Name, t.Description, list.String())
}

func buildGuidePrompt(hobby models.Hobby, level models.Level, t models.Technique) string {
	prereqs := "none"
	if len(t.Prerequisites) > 0 {
		prereqs = strings.Join(t.Prerequisites, ", ")
	}
	return fmt.Sprintf(guidePrompt, hobby.Name, t.Name, level.Name, t.Description, t.TimeToMaster, t.Difficulty, prereqs)
}
