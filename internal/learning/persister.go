package learning

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/learnpath/internal/models"
	"github.com/terra-clan/learnpath/internal/storage"
)

const defaultWriteTimeout = 15 * time.Second

// Persister writes progress maps in the background.
// Each Save is stamped with a sequence number when it is issued; a write
// whose snapshot is older than one already written for the same key is dropped.
// A key's slot lives only while writes for it are outstanding.
type Persister struct {
	store   storage.Store
	timeout time.Duration

	mu    sync.Mutex
	seq   uint64
	slots map[string]*writeSlot

	wg sync.WaitGroup
}

type writeSlot struct {
	mu      sync.Mutex
	written uint64

	// pending is guarded by Persister.mu
	pending int
}

// NewPersister creates a background progress writer for store
func NewPersister(store storage.Store) *Persister {
	return &Persister{
		store:   store,
		timeout: defaultWriteTimeout,
		slots:   make(map[string]*writeSlot),
	}
}

// Save schedules progress to be written under key. Failures are logged only.
func (p *Persister) Save(key string, progress models.ProgressMap) {
	slot, seq := p.acquire(key)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release(key, slot)
		p.write(key, slot, seq, progress)
	}()
}

func (p *Persister) write(key string, slot *writeSlot, seq uint64, progress models.ProgressMap) {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if seq <= slot.written {
		slog.Debug("dropping stale progress write", "key", key, "seq", seq, "written", slot.written)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := storage.SetJSON(ctx, p.store, key, progress); err != nil {
		slog.Error("failed to persist progress", "key", key, "error", err)
		return
	}
	slot.written = seq
}

// acquire stamps a new write for key and counts it against the key's slot
func (p *Persister) acquire(key string) (*writeSlot, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.slots[key]
	if !ok {
		s = &writeSlot{}
		p.slots[key] = s
	}
	s.pending++
	p.seq++
	return s, p.seq
}

// release evicts the slot once its last outstanding write is done.
// Every later Save carries a higher sequence number, so a fresh slot
// cannot let an older snapshot through.
func (p *Persister) release(key string, s *writeSlot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s.pending--
	if s.pending == 0 {
		delete(p.slots, key)
	}
}

// tracked returns how many keys currently hold a slot
func (p *Persister) tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// Wait blocks until every scheduled write has finished
func (p *Persister) Wait() {
	p.wg.Wait()
}
