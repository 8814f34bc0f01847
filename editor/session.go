// Package editor drives a placement store from pointer and keyboard events.
//
// A Session is always in exactly one State. Events that do not apply to the
// current state return ErrInvalidTransition and change nothing, which rules
// out combinations such as dragging a chord while an edit popover is open.
package editor

import (
	"errors"
	"fmt"

	"github.com/jsphweid/chordpad/chord"
	"github.com/jsphweid/chordpad/placement"
	"github.com/jsphweid/chordpad/util"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNoSuchChord       = errors.New("no such chord")
	ErrNegativeLine      = errors.New("negative line index")
	// ErrStaleOrigin is returned by Drop when the dragged chord was changed
	// underneath the drag. The drag is abandoned without moving anything.
	ErrStaleOrigin = errors.New("drag origin changed")
)

type Position struct {
	Line int
	Char int
}

type Origin struct {
	Line   int
	Chord  int
	Symbol string
}

type State interface {
	Name() string
}

type Idle struct{}

// Inserting is the popover opened on an empty cell.
type Inserting struct {
	At      Position
	ScreenX float64
	ScreenY float64
	Draft   string
}

// Editing holds a working copy of an existing chord's symbol.
type Editing struct {
	Line  int
	Chord int
	Draft string
}

type Dragging struct {
	Origin Origin
}

type DraggingOverTarget struct {
	Origin Origin
	Target Position
}

func (Idle) Name() string               { return "idle" }
func (Inserting) Name() string          { return "inserting" }
func (Editing) Name() string            { return "editing" }
func (Dragging) Name() string           { return "dragging" }
func (DraggingOverTarget) Name() string { return "dragging_over_target" }

type Session struct {
	store *placement.Store
	grid  Grid
	state State
}

func NewSession(store *placement.Store, grid Grid) *Session {
	return &Session{store: store, grid: grid, state: Idle{}}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Store() *placement.Store {
	return s.store
}

func (s *Session) reject(event string) error {
	return fmt.Errorf("%s while %s: %w", event, s.state.Name(), ErrInvalidTransition)
}

func (s *Session) BeginInsert(line, char int, screenX, screenY float64) error {
	if _, ok := s.state.(Idle); !ok {
		return s.reject("begin insert")
	}
	if line < 0 {
		return ErrNegativeLine
	}
	s.state = Inserting{
		At:      Position{Line: line, Char: util.Max(char, 0)},
		ScreenX: screenX,
		ScreenY: screenY,
	}
	return nil
}

// BeginInsertAt opens the insert popover on the cell under a point.
func (s *Session) BeginInsertAt(x, y float64) error {
	p := s.grid.Cell(x, y)
	return s.BeginInsert(p.Line, p.Char, x, y)
}

func (s *Session) BeginEdit(line, chordIndex int) error {
	if _, ok := s.state.(Idle); !ok {
		return s.reject("begin edit")
	}
	c, ok := s.store.Chord(line, chordIndex)
	if !ok {
		return ErrNoSuchChord
	}
	s.state = Editing{Line: line, Chord: chordIndex, Draft: c.Symbol}
	return nil
}

// SetDraft replaces the text typed into the open popover.
func (s *Session) SetDraft(text string) error {
	switch st := s.state.(type) {
	case Inserting:
		st.Draft = text
		s.state = st
	case Editing:
		st.Draft = text
		s.state = st
	default:
		return s.reject("set draft")
	}
	return nil
}

// Confirm commits the open popover. A blank draft closes it without touching
// the store.
func (s *Session) Confirm() error {
	switch st := s.state.(type) {
	case Inserting:
		if chord.Valid(st.Draft) {
			s.store.Insert(st.At.Line, st.At.Char, chord.Normalize(st.Draft))
		}
	case Editing:
		if chord.Valid(st.Draft) {
			s.store.Edit(st.Line, st.Chord, chord.Normalize(st.Draft))
		}
	default:
		return s.reject("confirm")
	}
	s.state = Idle{}
	return nil
}

// Remove deletes the chord whose edit popover is open.
func (s *Session) Remove() error {
	st, ok := s.state.(Editing)
	if !ok {
		return s.reject("remove")
	}
	s.store.Delete(st.Line, st.Chord)
	s.state = Idle{}
	return nil
}

// Cancel is the escape key: whatever is in progress is dropped and nothing is
// written to the store.
func (s *Session) Cancel() {
	s.state = Idle{}
}

func (s *Session) BeginDrag(line, chordIndex int) error {
	if _, ok := s.state.(Idle); !ok {
		return s.reject("begin drag")
	}
	c, ok := s.store.Chord(line, chordIndex)
	if !ok {
		return ErrNoSuchChord
	}
	s.state = Dragging{Origin: Origin{Line: line, Chord: chordIndex, Symbol: c.Symbol}}
	return nil
}

// DragOver records the most recently hovered cell as the drop target.
func (s *Session) DragOver(line, char int) error {
	var origin Origin
	switch st := s.state.(type) {
	case Dragging:
		origin = st.Origin
	case DraggingOverTarget:
		origin = st.Origin
	default:
		return s.reject("drag over")
	}
	if line < 0 {
		return ErrNegativeLine
	}
	s.state = DraggingOverTarget{
		Origin: origin,
		Target: Position{Line: line, Char: util.Max(char, 0)},
	}
	return nil
}

func (s *Session) DragOverPoint(x, y float64) error {
	p := s.grid.Cell(x, y)
	return s.DragOver(p.Line, p.Char)
}

// Drop moves the dragged chord onto the current target. Dropping before any
// target was hovered ends the drag like DragEnd.
func (s *Session) Drop() error {
	switch st := s.state.(type) {
	case Dragging:
		s.state = Idle{}
		return nil
	case DraggingOverTarget:
		s.state = Idle{}
		c, ok := s.store.Chord(st.Origin.Line, st.Origin.Chord)
		if !ok || c.Symbol != st.Origin.Symbol {
			return ErrStaleOrigin
		}
		s.store.Move(st.Origin.Line, st.Origin.Chord, st.Target.Line, st.Target.Char)
		return nil
	default:
		return s.reject("drop")
	}
}

// DragEnd handles a drag released outside any target.
func (s *Session) DragEnd() error {
	switch s.state.(type) {
	case Dragging, DraggingOverTarget:
		s.state = Idle{}
		return nil
	default:
		return s.reject("drag end")
	}
}
