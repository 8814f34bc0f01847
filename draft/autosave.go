package draft

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/chordpad/logging"
	"github.com/jsphweid/chordpad/model"
	"go.uber.org/zap"
)

// Autosaver coalesces bursts of edits to the same draft into one save issued
// once the draft has been quiet for the configured delay.
type Autosaver struct {
	repo   Repository
	delay  time.Duration
	logger *zap.Logger

	// held across take and repo.Save so Forget and SaveNow never race a
	// save already in flight
	saving sync.Mutex

	mu         sync.Mutex
	debouncers map[string]func(func())
	pending    map[string]model.Draft
}

func NewAutosaver(repo Repository, delay time.Duration, logger *zap.Logger) *Autosaver {
	return &Autosaver{
		repo:       repo,
		delay:      delay,
		logger:     logging.OrNop(logger),
		debouncers: make(map[string]func(func())),
		pending:    make(map[string]model.Draft),
	}
}

// Schedule queues d to be saved. A later Schedule for the same draft replaces
// the queued copy and restarts the delay, unless the queued copy was updated
// after d.
func (a *Autosaver) Schedule(d model.Draft) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.pending[d.ID]; !ok || !d.UpdatedAt.Before(p.UpdatedAt) {
		a.pending[d.ID] = d
	}
	deb, ok := a.debouncers[d.ID]
	if !ok {
		deb = debounce.New(a.delay)
		a.debouncers[d.ID] = deb
	}
	id := d.ID
	deb(func() {
		if err := a.save(context.Background(), id); err != nil {
			a.logger.Error("Autosave failed", zap.String("draft", id), zap.Error(err))
		}
	})
}

func (a *Autosaver) take(id string) (model.Draft, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.pending[id]
	delete(a.pending, id)
	return d, ok
}

// requeue puts d back after a failed save unless a newer copy arrived
// meanwhile.
func (a *Autosaver) requeue(d model.Draft) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, newer := a.pending[d.ID]; !newer {
		a.pending[d.ID] = d
	}
}

func (a *Autosaver) save(ctx context.Context, id string) error {
	a.saving.Lock()
	defer a.saving.Unlock()

	d, ok := a.take(id)
	if !ok {
		return nil
	}
	if err := a.repo.Save(ctx, d); err != nil {
		a.requeue(d)
		return err
	}
	a.logger.Debug("Draft saved", zap.String("draft", id), zap.Int("chords", d.Document.NumChords()))
	return nil
}

func (a *Autosaver) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// SaveNow writes d immediately. On success a queued copy that is not newer
// than d is dropped; on failure d stays queued for the next attempt.
func (a *Autosaver) SaveNow(ctx context.Context, d model.Draft) error {
	a.saving.Lock()
	defer a.saving.Unlock()

	if err := a.repo.Save(ctx, d); err != nil {
		a.requeue(d)
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[d.ID]; ok && !p.UpdatedAt.After(d.UpdatedAt) {
		delete(a.pending, d.ID)
	}
	return nil
}

// Forget drops anything queued for a draft, e.g. after it was deleted. It
// waits for a save already in flight to finish.
func (a *Autosaver) Forget(id string) {
	a.saving.Lock()
	defer a.saving.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, id)
	delete(a.debouncers, id)
}

// Flush saves every queued draft now. Timers still running afterwards find
// nothing to save.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	ids := make([]string, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := a.save(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
