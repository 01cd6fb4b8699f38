package learning

import (
	"fmt"
	"sync"

	"github.com/terra-clan/learnpath/internal/keys"
	"github.com/terra-clan/learnpath/internal/models"
)

// State is the learner's selection and progress
type State struct {
	Hobby    *models.Hobby
	Level    *models.Level
	Path     models.LearningPath
	Progress models.ProgressMap
	// Version increases by one on every dispatch
	Version uint64
}

// Clone returns a deep copy of s
func (s State) Clone() State {
	out := s
	if s.Hobby != nil {
		h := *s.Hobby
		out.Hobby = &h
	}
	if s.Level != nil {
		l := *s.Level
		out.Level = &l
	}
	if s.Path != nil {
		out.Path = make(models.LearningPath, len(s.Path))
		copy(out.Path, s.Path)
	}
	if s.Progress != nil {
		out.Progress = s.Progress.Clone()
	}
	return out
}

// Summary returns the overall progress over the loaded path
func (s State) Summary() models.ProgressSummary {
	return models.Summarize(s.Path, s.Progress)
}

// Action is a state transition accepted by ProgressStore.Dispatch
type Action interface {
	reduce(s State) State
}

// guarded actions refuse to apply to some states
type guarded interface {
	Action
	check(s State) error
}

// SelectHobby selects a hobby. Changing hobby clears the level and any loaded path.
type SelectHobby struct {
	Hobby models.Hobby
}

func (a SelectHobby) reduce(s State) State {
	if s.Hobby == nil || s.Hobby.ID != a.Hobby.ID {
		s.Level = nil
		s.Path = nil
		s.Progress = nil
	}
	h := a.Hobby
	s.Hobby = &h
	return s
}

// SelectLevel selects a level. Changing level clears any loaded path.
type SelectLevel struct {
	Level models.Level
}

func (a SelectLevel) reduce(s State) State {
	if s.Level == nil || s.Level.ID != a.Level.ID {
		s.Path = nil
		s.Progress = nil
	}
	l := a.Level
	s.Level = &l
	return s
}

// SetLearningPath installs a path with its starting progress.
// A nil Progress starts every technique from zero.
type SetLearningPath struct {
	Path     models.LearningPath
	Progress models.ProgressMap
}

func (a SetLearningPath) reduce(s State) State {
	s.Path = append(models.LearningPath(nil), a.Path...)
	if a.Progress != nil {
		s.Progress = a.Progress.Clone()
	} else {
		s.Progress = models.ZeroProgress(a.Path)
	}
	return s
}

// SetProgress replaces the whole progress map
type SetProgress struct {
	Progress models.ProgressMap
}

func (a SetProgress) reduce(s State) State {
	s.Progress = a.Progress.Clone()
	return s
}

// UpdateProgress merges Patch field-wise into one technique's entry.
// A missing entry merges over the zero entry.
type UpdateProgress struct {
	TechniqueID string
	Patch       models.ProgressPatch
}

// check requires the technique to be on the loaded path
func (a UpdateProgress) check(s State) error {
	if len(s.Path) == 0 {
		return ErrPathNotLoaded
	}
	if _, ok := s.Path.Find(a.TechniqueID); !ok {
		return fmt.Errorf("%w: %s", ErrTechniqueNotFound, a.TechniqueID)
	}
	return nil
}

func (a UpdateProgress) reduce(s State) State {
	if s.Progress == nil {
		s.Progress = make(models.ProgressMap)
	}
	s.Progress[a.TechniqueID] = a.Patch.Apply(s.Progress[a.TechniqueID])
	return s
}

// Reset returns to the initial empty state
type Reset struct{}

func (Reset) reduce(State) State {
	return State{}
}

// Reduce applies a to s without touching s
func Reduce(s State, a Action) State {
	return a.reduce(s.Clone())
}

func persists(a Action) bool {
	switch a.(type) {
	case UpdateProgress, SetProgress:
		return true
	default:
		return false
	}
}

// ProgressStore is a mutex-guarded state container.
// Progress-changing actions are written through to the content store
// whenever both hobby and level are selected.
type ProgressStore struct {
	mu        sync.Mutex
	state     State
	persister *Persister
	subs      map[int]chan State
	nextSub   int
	closed    bool
}

// NewProgressStore creates an empty store; persister may be nil
func NewProgressStore(persister *Persister) *ProgressStore {
	return &ProgressStore{
		persister: persister,
		subs:      make(map[int]chan State),
	}
}

// Dispatch applies an action and returns the resulting state
func (p *ProgressStore) Dispatch(a Action) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.apply(a)
}

// TryDispatch is Dispatch for guarded actions: the guard and the transition
// run under the same lock, and a refused action leaves the state untouched.
func (p *ProgressStore) TryDispatch(a Action) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := a.(guarded); ok {
		if err := g.check(p.state); err != nil {
			return p.state.Clone(), err
		}
	}
	return p.apply(a), nil
}

// apply runs a with p.mu held
func (p *ProgressStore) apply(a Action) State {
	next := Reduce(p.state, a)
	next.Version = p.state.Version + 1
	p.state = next

	if p.persister != nil && persists(a) && next.Hobby != nil && next.Level != nil {
		p.persister.Save(keys.ProgressKey(next.Hobby.ID, next.Level.ID), next.Progress.Clone())
	}

	for _, ch := range p.subs {
		select {
		case ch <- next.Clone():
		default:
			// slow subscriber, it will catch up on the next dispatch
		}
	}

	return next.Clone()
}

// State returns a snapshot of the current state
func (p *ProgressStore) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// Overall summarizes progress over the loaded path
func (p *ProgressStore) Overall() models.ProgressSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Summary()
}

// Subscribe registers for state snapshots after every dispatch.
// The channel is closed by the returned cancel func or by Close.
func (p *ProgressStore) Subscribe(buffer int) (<-chan State, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan State, buffer)
	if p.closed {
		close(ch)
		return ch, func() {}
	}

	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}
}

// Close closes all subscriber channels; later subscriptions start closed
func (p *ProgressStore) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}
