package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jsphweid/chordpad/model"
)

type memRepo struct {
	mu      sync.Mutex
	drafts  map[string]model.Draft
	saves   int
	gets    int
	failing bool
	saved   chan string
}

func newMemRepo() *memRepo {
	return &memRepo{drafts: make(map[string]model.Draft), saved: make(chan string, 64)}
}

func (r *memRepo) Save(ctx context.Context, d model.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("disk on fire")
	}
	r.saves += 1
	r.drafts[d.ID] = d
	r.saved <- d.ID
	return nil
}

func (r *memRepo) Get(ctx context.Context, id string) (model.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets += 1
	d, ok := r.drafts[id]
	if !ok {
		return d, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return d, nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drafts[id]; !ok {
		return fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	delete(r.drafts, id)
	return nil
}

func (r *memRepo) List(ctx context.Context) ([]model.DraftSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]model.DraftSummary, 0, len(r.drafts))
	for _, d := range r.drafts {
		res = append(res, d.Summary())
	}
	sortSummaries(res)
	return res, nil
}

func (r *memRepo) count() (saves, gets int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves, r.gets
}

func (r *memRepo) stored(id string) (model.Draft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[id]
	return d, ok
}

func (r *memRepo) setFailing(f bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = f
}

func testDraft(id string) model.Draft {
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.Draft{
		ID:     id,
		Title:  "Song",
		Lyrics: "Hello\nWorld",
		Document: model.LyricDocument{Lines: []model.Line{
			{Text: "Hello", Chords: []model.ChordAnnotation{{CharIndex: 0, Symbol: "C"}}},
			{Text: "World"},
		}},
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
}
