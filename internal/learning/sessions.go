package learning

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/learnpath/internal/catalog"
	"github.com/terra-clan/learnpath/internal/models"
)

// Sessions is the registry of live learner sessions
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*session

	ttl       time.Duration
	now       func() time.Time
	catalog   *catalog.Catalog
	levels    *LevelService
	paths     *PathService
	content   *ContentService
	persister *Persister
}

type session struct {
	id        string
	store     *ProgressStore
	createdAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Deps are the collaborators a Sessions registry drives
type Deps struct {
	Catalog   *catalog.Catalog
	Levels    *LevelService
	Paths     *PathService
	Content   *ContentService
	Persister *Persister
}

// NewSessions creates a session registry whose sessions expire after ttl of inactivity
func NewSessions(ttl time.Duration, deps Deps) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{
		sessions:  make(map[string]*session),
		ttl:       ttl,
		now:       time.Now,
		catalog:   deps.Catalog,
		levels:    deps.Levels,
		paths:     deps.Paths,
		content:   deps.Content,
		persister: deps.Persister,
	}
}

// Create opens a session, optionally selecting a hobby and level
func (m *Sessions) Create(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	now := m.now()
	sess := &session{
		id:        uuid.New().String(),
		store:     NewProgressStore(m.persister),
		createdAt: now,
		lastSeen:  now,
	}

	if req.HobbyID != "" {
		hobby, err := m.catalog.Hobby(req.HobbyID)
		if err != nil {
			return nil, err
		}
		sess.store.Dispatch(SelectHobby{Hobby: hobby})

		if req.LevelID != "" {
			level, err := m.levels.Find(ctx, hobby.ID, req.LevelID)
			if err != nil {
				return nil, err
			}
			sess.store.Dispatch(SelectLevel{Level: level})
		}
	} else if req.LevelID != "" {
		return nil, ErrNoHobbySelected
	}

	m.mu.Lock()
	m.sessions[sess.id] = sess
	m.mu.Unlock()

	slog.Info("session created", "session_id", sess.id, "hobby_id", req.HobbyID, "level_id", req.LevelID)
	return m.snapshot(sess, sess.store.State()), nil
}

// Get returns a snapshot of a session
func (m *Sessions) Get(id string) (*models.Session, error) {
	sess, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	return m.snapshot(sess, sess.store.State()), nil
}

// Delete removes a session and closes its subscribers
func (m *Sessions) Delete(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.store.Close()
	slog.Info("session deleted", "session_id", id)
	return nil
}

// SelectHobby selects a catalog hobby for a session
func (m *Sessions) SelectHobby(id, hobbyID string) (*models.Session, error) {
	sess, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	hobby, err := m.catalog.Hobby(hobbyID)
	if err != nil {
		return nil, err
	}
	return m.snapshot(sess, sess.store.Dispatch(SelectHobby{Hobby: hobby})), nil
}

// SelectLevel selects a predefined or custom level for the session's hobby
func (m *Sessions) SelectLevel(ctx context.Context, id, levelID string) (*models.Session, error) {
	sess, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	st := sess.store.State()
	if st.Hobby == nil {
		return nil, ErrNoHobbySelected
	}
	level, err := m.levels.Find(ctx, st.Hobby.ID, levelID)
	if err != nil {
		return nil, err
	}
	return m.snapshot(sess, sess.store.Dispatch(SelectLevel{Level: level})), nil
}

// LoadPath fetches or generates the learning path for the selected hobby and level
func (m *Sessions) LoadPath(ctx context.Context, id string) (*models.LoadPathResponse, error) {
	sess, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	hobby, level, err := selection(sess.store.State())
	if err != nil {
		return nil, err
	}

	res, err := m.paths.GetOrCreate(ctx, hobby, level)
	if err != nil {
		return nil, err
	}

	st := sess.store.Dispatch(SetLearningPath{Path: res.Path, Progress: res.Progress})
	return &models.LoadPathResponse{
		Path:      st.Path,
		Progress:  st.Progress,
		Summary:   st.Summary(),
		Generated: res.Generated,
	}, nil
}

// UpdateProgress merges patch into one technique's progress
func (m *Sessions) UpdateProgress(id, techniqueID string, patch models.ProgressPatch) (*models.Session, error) {
	sess, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	st, err := sess.store.TryDispatch(UpdateProgress{TechniqueID: techniqueID, Patch: patch})
	if err != nil {
		return nil, err
	}
	return m.snapshot(sess, st), nil
}

// Content returns study content for a technique on the session's path
func (m *Sessions) Content(ctx context.Context, id, techniqueID string) (*models.TechniqueContent, error) {
	sess, err := m.touch(id)
	if err != nil {
		return nil, err
	}
	st := sess.store.State()
	hobby, level, err := selection(st)
	if err != nil {
		return nil, err
	}
	if len(st.Path) == 0 {
		return nil, ErrPathNotLoaded
	}
	technique, ok := st.Path.Find(techniqueID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTechniqueNotFound, techniqueID)
	}

	return &models.TechniqueContent{
		TechniqueID: techniqueID,
		Markdown:    m.content.GetOrCreate(ctx, hobby, level, technique),
	}, nil
}

// Subscribe streams session snapshots after every change
func (m *Sessions) Subscribe(id string, buffer int) (<-chan State, func(), error) {
	sess, err := m.touch(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.store.Subscribe(buffer)
	return ch, cancel, nil
}

// Snapshot renders a state of session id as its API view
func (m *Sessions) Snapshot(id string, st State) (*models.Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return m.snapshot(sess, st), nil
}

// ExpireIdle deletes sessions idle past their TTL and returns how many were removed
func (m *Sessions) ExpireIdle(now time.Time) int {
	m.mu.Lock()
	var expired []*session
	for id, sess := range m.sessions {
		sess.mu.Lock()
		idle := now.After(sess.lastSeen.Add(m.ttl))
		sess.mu.Unlock()
		if idle {
			expired = append(expired, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		sess.store.Close()
		slog.Info("session expired", "session_id", sess.id)
	}
	return len(expired)
}

// Count returns the number of live sessions
func (m *Sessions) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Sessions) touch(id string) (*session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.mu.Lock()
	sess.lastSeen = m.now()
	sess.mu.Unlock()
	return sess, nil
}

func (m *Sessions) snapshot(sess *session, st State) *models.Session {
	sess.mu.Lock()
	lastSeen := sess.lastSeen
	sess.mu.Unlock()

	progress := st.Progress
	if progress == nil {
		progress = models.ProgressMap{}
	}
	return &models.Session{
		ID:         sess.id,
		Hobby:      st.Hobby,
		Level:      st.Level,
		Path:       st.Path,
		Progress:   progress,
		Summary:    st.Summary(),
		Version:    st.Version,
		CreatedAt:  sess.createdAt,
		LastSeenAt: lastSeen,
		ExpiresAt:  lastSeen.Add(m.ttl),
	}
}

func selection(st State) (models.Hobby, models.Level, error) {
	if st.Hobby == nil {
		return models.Hobby{}, models.Level{}, ErrNoHobbySelected
	}
	if st.Level == nil {
		return models.Hobby{}, models.Level{}, ErrNoLevelSelected
	}
	return *st.Hobby, *st.Level, nil
}
