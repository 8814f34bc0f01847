package draft

import (
	"errors"
	"fmt"

	"github.com/jsphweid/chordpad/constants"
	"github.com/jsphweid/chordpad/model"
)

var ErrOutOfBounds = errors.New("position out of bounds")

// Limits caps how far an edit may grow a draft. Placement stores grow to any
// line they are asked for, so every op is checked against these first.
type Limits struct {
	// lines are 0..MaxLines-1
	MaxLines     int
	MaxCharIndex int
}

func DefaultLimits() Limits {
	return Limits{MaxLines: constants.MaxLines, MaxCharIndex: constants.MaxCharIndex}
}

func (l Limits) check(line, char int) error {
	if line >= l.MaxLines {
		return fmt.Errorf("line %d past limit of %d lines: %w", line, l.MaxLines, ErrOutOfBounds)
	}
	if char > l.MaxCharIndex {
		return fmt.Errorf("char index %d past limit %d: %w", char, l.MaxCharIndex, ErrOutOfBounds)
	}
	return nil
}

// CheckDocument reports whether doc fits within the limits.
func (l Limits) CheckDocument(doc model.LyricDocument) error {
	if len(doc.Lines) > l.MaxLines {
		return fmt.Errorf("%d lines past limit of %d: %w", len(doc.Lines), l.MaxLines, ErrOutOfBounds)
	}
	for i, line := range doc.Lines {
		for _, c := range line.Chords {
			if err := l.check(i, c.CharIndex); err != nil {
				return err
			}
		}
	}
	return nil
}

// reach is the furthest cell an op can grow the document to. Ops that never
// grow it report false.
func reach(op Op) (line, char int, ok bool) {
	switch o := op.(type) {
	case InsertOp:
		return o.Line, o.Char, true
	case MoveOp:
		return o.ToLine, o.ToChar, true
	case SetTextOp:
		return o.Line, 0, true
	case InsertAtOp:
		p := o.Grid.Cell(o.X, o.Y)
		return p.Line, p.Char, true
	case DropOp:
		p := o.Grid.Cell(o.X, o.Y)
		return p.Line, p.Char, true
	}
	return 0, 0, false
}

// validate rejects an op before anything is applied.
func (l Limits) validate(op Op) error {
	if line, char, ok := reach(op); ok {
		if err := l.check(line, char); err != nil {
			return err
		}
	}
	return nil
}
