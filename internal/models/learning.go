package models

// Technique is one step of a learning path
type Technique struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	TimeToMaster  string   `json:"timeToMaster"`
	Difficulty    int      `json:"difficulty"`
	Prerequisites []string `json:"prerequisites"`
	Optional      bool     `json:"optional,omitempty"`
}

// LearningPath is the ordered sequence of techniques for a hobby+level pair
type LearningPath []Technique

// Find returns the technique with the given id
func (p LearningPath) Find(id string) (Technique, bool) {
	for _, t := range p {
		if t.ID == id {
			return t, true
		}
	}
	return Technique{}, false
}

// ProgressStatus is the derived, mutually exclusive view of a ProgressEntry
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressSkipped    ProgressStatus = "skipped"
)

// ProgressEntry is the per-technique completion state.
// Completed and Skipped are stored independently; Status resolves overlaps.
type ProgressEntry struct {
	Completed bool    `json:"completed"`
	Skipped   bool    `json:"skipped"`
	Progress  float64 `json:"progress"`
}

// Status derives a single state; completed wins over skipped
func (e ProgressEntry) Status() ProgressStatus {
	switch {
	case e.Completed:
		return ProgressCompleted
	case e.Skipped:
		return ProgressSkipped
	case e.Progress > 0:
		return ProgressInProgress
	default:
		return ProgressNotStarted
	}
}

// ProgressPatch is a partial update; nil fields are left unchanged
type ProgressPatch struct {
	Completed *bool    `json:"completed,omitempty"`
	Skipped   *bool    `json:"skipped,omitempty"`
	Progress  *float64 `json:"progress,omitempty"`
}

// Apply merges the patch field-wise into e
func (p ProgressPatch) Apply(e ProgressEntry) ProgressEntry {
	if p.Completed != nil {
		e.Completed = *p.Completed
	}
	if p.Skipped != nil {
		e.Skipped = *p.Skipped
	}
	if p.Progress != nil {
		v := *p.Progress
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		e.Progress = v
	}
	return e
}

// IsEmpty reports whether the patch changes nothing
func (p ProgressPatch) IsEmpty() bool {
	return p.Completed == nil && p.Skipped == nil && p.Progress == nil
}

// ProgressMap maps technique id to its progress entry
type ProgressMap map[string]ProgressEntry

// Clone returns an independent copy
func (m ProgressMap) Clone() ProgressMap {
	out := make(ProgressMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ZeroProgress returns a zeroed entry for every technique in the path
func ZeroProgress(path LearningPath) ProgressMap {
	out := make(ProgressMap, len(path))
	for _, t := range path {
		out[t.ID] = ProgressEntry{}
	}
	return out
}

// ProgressSummary is the overall progress over a learning path
type ProgressSummary struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Skipped   int     `json:"skipped"`
	Ratio     float64 `json:"ratio"`
}

// Summarize computes the overall progress of path given progress.
// Ratio is completed techniques over all techniques.
func Summarize(path LearningPath, progress ProgressMap) ProgressSummary {
	s := ProgressSummary{Total: len(path)}
	for _, t := range path {
		switch progress[t.ID].Status() {
		case ProgressCompleted:
			s.Completed++
		case ProgressSkipped:
			s.Skipped++
		}
	}
	if s.Total > 0 {
		s.Ratio = float64(s.Completed) / float64(s.Total)
	}
	return s
}
