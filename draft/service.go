package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/chordpad/chord"
	"github.com/jsphweid/chordpad/logging"
	"github.com/jsphweid/chordpad/model"
	"github.com/jsphweid/chordpad/placement"
	"github.com/jsphweid/chordpad/sheet"
	"go.uber.org/zap"
)

var ErrEmptySymbol = errors.New("chord symbol is empty")

// Op is one edit applied to a draft's placement store.
type Op interface {
	Apply(s *placement.Store)
}

type InsertOp struct {
	Line, Char int
	Symbol     string
}

type EditOp struct {
	Line, Chord int
	Symbol      string
}

type DeleteOp struct {
	Line, Chord int
}

type MoveOp struct {
	FromLine, FromChord int
	ToLine, ToChar      int
}

type SetTextOp struct {
	Line int
	Text string
}

func (o InsertOp) Apply(s *placement.Store)  { s.Insert(o.Line, o.Char, o.Symbol) }
func (o EditOp) Apply(s *placement.Store)    { s.Edit(o.Line, o.Chord, o.Symbol) }
func (o DeleteOp) Apply(s *placement.Store)  { s.Delete(o.Line, o.Chord) }
func (o MoveOp) Apply(s *placement.Store)    { s.Move(o.FromLine, o.FromChord, o.ToLine, o.ToChar) }
func (o SetTextOp) Apply(s *placement.Store) { s.SetText(o.Line, o.Text) }

type openDraft struct {
	mu    sync.Mutex
	meta  model.Draft
	store *placement.Store
	// set by Delete; requests still holding this draft must not touch it
	deleted bool
}

func (o *openDraft) snapshot() model.Draft {
	d := o.meta
	d.Document = o.store.Document()
	return d
}

// Service keeps a placement store per draft being edited. Operations on one
// draft are serialized; different drafts proceed independently.
type Service struct {
	repo     Repository
	autosave *Autosaver
	logger   *zap.Logger
	limits   Limits
	now      func() time.Time

	mu   sync.Mutex
	open map[string]*openDraft
	// ids deleted by this service; a load racing the delete must not
	// bring them back
	gone map[string]struct{}
}

func NewService(repo Repository, autosave *Autosaver, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		autosave: autosave,
		logger:   logging.OrNop(logger),
		limits:   DefaultLimits(),
		now:      time.Now,
		open:     make(map[string]*openDraft),
		gone:     make(map[string]struct{}),
	}
}

// SetLimits replaces the default growth limits. Call it before serving
// requests.
func (s *Service) SetLimits(l Limits) {
	s.limits = l
}

func (s *Service) Create(ctx context.Context, title, lyrics string) (model.Draft, error) {
	return s.add(ctx, title, lyrics, placement.New(lyrics))
}

// Import creates a draft from an already annotated document, such as a parsed
// chord sheet.
func (s *Service) Import(ctx context.Context, title string, doc model.LyricDocument) (model.Draft, error) {
	if err := s.limits.CheckDocument(doc); err != nil {
		return model.Draft{}, err
	}
	lyrics := sheet.Lyrics(doc)
	return s.add(ctx, title, lyrics, placement.FromDocument(lyrics, doc))
}

func (s *Service) add(ctx context.Context, title, lyrics string, store *placement.Store) (model.Draft, error) {
	now := s.now().UTC()
	o := &openDraft{
		meta: model.Draft{
			ID:        uuid.New().String(),
			Title:     title,
			Lyrics:    lyrics,
			CreatedAt: now,
			UpdatedAt: now,
		},
		store: store,
	}
	d := o.snapshot()
	if err := s.repo.Save(ctx, d); err != nil {
		return model.Draft{}, fmt.Errorf("save new draft: %w", err)
	}

	s.mu.Lock()
	s.open[d.ID] = o
	s.mu.Unlock()

	s.logger.Info("Draft created",
		zap.String("draft", d.ID),
		zap.Int("lines", len(d.Document.Lines)),
		zap.Int("chords", d.Document.NumChords()))
	return d, nil
}

func (s *Service) load(ctx context.Context, id string) (*openDraft, error) {
	s.mu.Lock()
	o, ok := s.open[id]
	s.mu.Unlock()
	if ok {
		return o, nil
	}

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gone[id]; ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	// another request may have loaded it while we were reading
	if o, ok := s.open[id]; ok {
		return o, nil
	}
	o = &openDraft{meta: d, store: placement.FromDocument(d.Lyrics, d.Document)}
	o.meta.Document = model.LyricDocument{}
	s.open[id] = o
	return o, nil
}

// lock loads a draft and locks it, failing if it was deleted after it was
// loaded.
func (s *Service) lock(ctx context.Context, id string) (*openDraft, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	if o.deleted {
		o.mu.Unlock()
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.Draft, error) {
	o, err := s.lock(ctx, id)
	if err != nil {
		return model.Draft{}, err
	}
	defer o.mu.Unlock()
	return o.snapshot(), nil
}

// Apply runs ops in order against the draft and schedules an autosave.
// Placement operations never fail; out-of-range indices are ignored. Ops that
// would grow the draft past its limits reject the whole batch.
func (s *Service) Apply(ctx context.Context, id string, ops ...Op) (model.Draft, error) {
	for _, op := range ops {
		if err := s.limits.validate(op); err != nil {
			return model.Draft{}, err
		}
		switch o := op.(type) {
		case InsertOp:
			if !chord.Valid(o.Symbol) {
				return model.Draft{}, ErrEmptySymbol
			}
		case EditOp:
			if !chord.Valid(o.Symbol) {
				return model.Draft{}, ErrEmptySymbol
			}
		case InsertAtOp:
			if !chord.Valid(o.Symbol) {
				return model.Draft{}, ErrEmptySymbol
			}
		}
	}

	o, err := s.lock(ctx, id)
	if err != nil {
		return model.Draft{}, err
	}
	defer o.mu.Unlock()
	for _, op := range ops {
		op.Apply(o.store)
	}
	o.meta.UpdatedAt = s.now().UTC()
	d := o.snapshot()
	// scheduled under the draft lock so queued copies arrive in edit order
	s.autosave.Schedule(d)
	return d, nil
}

// Render returns the text and chords of one line. Lines past the end are
// empty rather than an error.
func (s *Service) Render(ctx context.Context, id string, line int) (model.RenderResponse, error) {
	o, err := s.lock(ctx, id)
	if err != nil {
		return model.RenderResponse{}, err
	}
	defer o.mu.Unlock()
	text, _ := o.store.Text(line)
	return model.RenderResponse{Line: line, Text: text, Chords: o.store.Render(line)}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	o, ok := s.open[id]
	delete(s.open, id)
	s.gone[id] = struct{}{}
	s.mu.Unlock()
	if ok {
		o.mu.Lock()
		o.deleted = true
		o.mu.Unlock()
	}
	s.autosave.Forget(id)

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.mu.Lock()
			delete(s.gone, id)
			s.mu.Unlock()
		}
		return err
	}
	s.logger.Info("Draft deleted", zap.String("draft", id))
	return nil
}

// List flushes pending autosaves first so summaries reflect recent edits.
func (s *Service) List(ctx context.Context) ([]model.DraftSummary, error) {
	if err := s.autosave.Flush(ctx); err != nil {
		s.logger.Warn("Flush before list failed", zap.Error(err))
	}
	return s.repo.List(ctx)
}

// Save writes a draft immediately instead of waiting for the autosave delay.
// A failed save leaves the draft queued for autosave.
func (s *Service) Save(ctx context.Context, id string) error {
	o, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer o.mu.Unlock()
	return s.autosave.SaveNow(ctx, o.snapshot())
}

func (s *Service) Close(ctx context.Context) error {
	return s.autosave.Flush(ctx)
}
