package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/chordpad/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(repo *memRepo) *Service {
	s := NewService(repo, NewAutosaver(repo, time.Hour, nil), nil)
	stamp := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return stamp }
	return s
}

func TestServiceCreateSavesImmediately(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := newService(repo)

	d, err := s.Create(ctx, "Song", "Hello\nWorld")
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Len(t, d.Document.Lines, 2)

	stored, ok := repo.stored(d.ID)
	require.True(t, ok)
	assert.Equal(t, d, stored)
}

func TestServiceApplyScenario(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := newService(repo)
	d, err := s.Create(ctx, "Song", "Hello\nWorld")
	require.NoError(t, err)

	_, err = s.Apply(ctx, d.ID, InsertOp{Line: 0, Char: 0, Symbol: "C"}, InsertOp{Line: 0, Char: 5, Symbol: "G"})
	require.NoError(t, err)
	got, err := s.Apply(ctx, d.ID, MoveOp{FromLine: 0, FromChord: 0, ToLine: 1, ToChar: 0})
	require.NoError(t, err)

	assert.Equal(t, []model.ChordAnnotation{{CharIndex: 5, Symbol: "G"}}, got.Document.Lines[0].Chords)
	assert.Equal(t, []model.ChordAnnotation{{CharIndex: 0, Symbol: "C"}}, got.Document.Lines[1].Chords)

	r, err := s.Render(ctx, d.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "World", r.Text)
	assert.Equal(t, []model.ChordAnnotation{{CharIndex: 0, Symbol: "C"}}, r.Chords)

	// autosave is pending, not yet written
	stored, _ := repo.stored(d.ID)
	assert.Equal(t, 0, stored.Document.NumChords())
	require.NoError(t, s.Close(ctx))
	stored, _ = repo.stored(d.ID)
	assert.Equal(t, got, stored)
}

func TestServiceAllOps(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemRepo())
	d, err := s.Create(ctx, "Song", "a\nb")
	require.NoError(t, err)

	got, err := s.Apply(ctx, d.ID,
		InsertOp{Line: 0, Char: 1, Symbol: "C"},
		InsertOp{Line: 0, Char: 2, Symbol: "D"},
		EditOp{Line: 0, Chord: 0, Symbol: "Cmaj7"},
		DeleteOp{Line: 0, Chord: 1},
		SetTextOp{Line: 3, Text: "d"},
		EditOp{Line: 9, Chord: 9, Symbol: "ignored"},
	)
	require.NoError(t, err)
	assert.Equal(t, model.LyricDocument{Lines: []model.Line{
		{Text: "a", Chords: []model.ChordAnnotation{{CharIndex: 1, Symbol: "Cmaj7"}}},
		{Text: "b"},
		{Text: ""},
		{Text: "d"},
	}}, got.Document)
}

func TestServiceRejectsEmptySymbols(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemRepo())
	d, err := s.Create(ctx, "Song", "a")
	require.NoError(t, err)

	_, err = s.Apply(ctx, d.ID, InsertOp{Line: 0, Char: 0, Symbol: "C"}, InsertOp{Line: 0, Char: 0, Symbol: "  "})
	assert.ErrorIs(t, err, ErrEmptySymbol)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Document.NumChords())
}

func TestServiceLoadsSavedDraft(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	saved := testDraft("a")
	repo.drafts["a"] = saved
	s := newService(repo)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	// grown lines take their text from the original lyrics
	saved.Lyrics = "Hello\nWorld\nAgain"
	repo.drafts["b"] = model.Draft{ID: "b", Lyrics: saved.Lyrics, Document: saved.Document}
	got, err = s.Apply(ctx, "b", InsertOp{Line: 2, Char: 0, Symbol: "F"})
	require.NoError(t, err)
	assert.Equal(t, "Again", got.Document.Lines[2].Text)
}

func TestServiceMissingDraft(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemRepo())

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Apply(ctx, "nope", DeleteOp{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Render(ctx, "nope", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "nope"), ErrNotFound)
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := newService(repo)
	d, err := s.Create(ctx, "Song", "a")
	require.NoError(t, err)
	_, err = s.Apply(ctx, d.ID, InsertOp{Symbol: "C"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, d.ID))
	require.NoError(t, s.Close(ctx))
	_, ok := repo.stored(d.ID)
	assert.False(t, ok)
}

func TestServiceApplyOnStaleHandleAfterDelete(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := newService(repo)
	d, err := s.Create(ctx, "Song", "a")
	require.NoError(t, err)

	// a request that loaded the draft before it was deleted
	o, err := s.load(ctx, d.ID)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, d.ID))
	s.mu.Lock()
	s.open[d.ID] = o
	s.mu.Unlock()

	_, err = s.Apply(ctx, d.ID, InsertOp{Symbol: "C"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Close(ctx))
	_, ok := repo.stored(d.ID)
	assert.False(t, ok)
}

func TestServiceDeleteDuringEdits(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := newService(repo)
	d, err := s.Create(ctx, "Song", "a")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Apply(ctx, d.ID, InsertOp{Char: i, Symbol: "C"})
			if err != nil {
				assert.ErrorIs(t, err, ErrNotFound)
			}
		}(i)
	}
	require.NoError(t, s.Delete(ctx, d.ID))
	wg.Wait()

	require.NoError(t, s.Close(ctx))
	_, ok := repo.stored(d.ID)
	assert.False(t, ok)
}

func TestServiceListFlushes(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemRepo())
	d, err := s.Create(ctx, "Song", "a")
	require.NoError(t, err)
	_, err = s.Apply(ctx, d.ID, InsertOp{Symbol: "C"}, InsertOp{Symbol: "G"})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].NumChords)
}

func TestServiceSaveNow(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := newService(repo)
	d, err := s.Create(ctx, "Song", "a")
	require.NoError(t, err)
	_, err = s.Apply(ctx, d.ID, InsertOp{Symbol: "C"})
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, d.ID))
	stored, _ := repo.stored(d.ID)
	assert.Equal(t, 1, stored.Document.NumChords())
	assert.Equal(t, 0, s.autosave.Pending())
}

func TestServiceSaveFailureKeepsEdit(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := newService(repo)
	d, err := s.Create(ctx, "Song", "a")
	require.NoError(t, err)
	_, err = s.Apply(ctx, d.ID, InsertOp{Symbol: "C"})
	require.NoError(t, err)

	repo.setFailing(true)
	assert.Error(t, s.Save(ctx, d.ID))
	assert.Equal(t, 1, s.autosave.Pending())

	repo.setFailing(false)
	require.NoError(t, s.Close(ctx))
	stored, _ := repo.stored(d.ID)
	assert.Equal(t, 1, stored.Document.NumChords())
}

func TestServiceConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := newService(newMemRepo())
	d, err := s.Create(ctx, "Song", "a")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Apply(ctx, d.ID, InsertOp{Line: i % 4, Char: i, Symbol: "C"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Document.NumChords())
}

func TestServiceImport(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := newService(repo)
	doc := model.LyricDocument{Lines: []model.Line{
		{Text: "Hello", Chords: []model.ChordAnnotation{{CharIndex: 0, Symbol: "C"}}},
		{Text: "World"},
	}}

	d, err := s.Import(ctx, "Imported", doc)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", d.Lyrics)
	assert.Equal(t, doc, d.Document)
}
