package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/terra-clan/learnpath/internal/keys"
	"github.com/terra-clan/learnpath/internal/models"
	"github.com/terra-clan/learnpath/internal/storage"
)

// SessionExpirer removes sessions idle past their TTL
type SessionExpirer interface {
	ExpireIdle(now time.Time) int
}

// Janitor handles periodic expiry of idle sessions and purging of
// cache entries written under superseded key schemes
type Janitor struct {
	sessions    SessionExpirer
	store       storage.Store
	interval    time.Duration
	purgeLegacy bool
	now         func() time.Time
}

// New creates a new maintenance worker
func New(sessions SessionExpirer, store storage.Store, interval time.Duration, purgeLegacy bool) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Janitor{
		sessions:    sessions,
		store:       store,
		interval:    interval,
		purgeLegacy: purgeLegacy,
		now:         time.Now,
	}
}

// Start begins the maintenance worker in a goroutine
func (j *Janitor) Start(ctx context.Context) {
	go j.run(ctx)
}

// run is the main loop for the maintenance worker
func (j *Janitor) run(ctx context.Context) {
	slog.Info("janitor started", "interval", j.interval, "purge_legacy", j.purgeLegacy)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Legacy entries only need purging once per process
	if j.purgeLegacy {
		if _, err := Purge(ctx, j.store); err != nil {
			slog.Error("legacy key purge failed", "error", err)
		}
	}
	j.sweep()

	for {
		select {
		case <-ctx.Done():
			slog.Info("janitor stopped")
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

// sweep expires idle sessions
func (j *Janitor) sweep() {
	slog.Debug("running janitor sweep")

	if n := j.sessions.ExpireIdle(j.now()); n > 0 {
		slog.Info("expired idle sessions", "count", n)
	}
}

// Purge deletes every entry stored under a superseded key scheme
func Purge(ctx context.Context, store storage.Store) (*models.PurgeResult, error) {
	prefixes := keys.LegacyPrefixes()
	result := &models.PurgeResult{Prefixes: prefixes}

	for _, prefix := range prefixes {
		n, err := storage.DeletePrefix(ctx, store, prefix)
		result.Deleted += n
		if err != nil {
			return result, fmt.Errorf("failed to purge %q: %w", prefix, err)
		}
		if n > 0 {
			slog.Info("purged legacy cache entries", "prefix", prefix, "count", n)
		}
	}

	return result, nil
}
