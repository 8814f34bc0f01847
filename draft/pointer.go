package draft

import (
	"github.com/jsphweid/chordpad/editor"
	"github.com/jsphweid/chordpad/placement"
)

// InsertAtOp places a chord on the cell under a pixel position, the way the
// insert popover does when it is confirmed.
type InsertAtOp struct {
	Grid   editor.Grid
	X, Y   float64
	Symbol string
}

// DropOp drags an existing chord and drops it on the cell under a pixel
// position.
type DropOp struct {
	Grid                editor.Grid
	FromLine, FromChord int
	X, Y                float64
}

func (o InsertAtOp) Apply(s *placement.Store) {
	sess := editor.NewSession(s, o.Grid)
	if err := sess.BeginInsertAt(o.X, o.Y); err != nil {
		return
	}
	if err := sess.SetDraft(o.Symbol); err != nil {
		return
	}
	_ = sess.Confirm()
}

// Apply is a no-op when the origin chord does not exist.
func (o DropOp) Apply(s *placement.Store) {
	sess := editor.NewSession(s, o.Grid)
	if err := sess.BeginDrag(o.FromLine, o.FromChord); err != nil {
		return
	}
	if err := sess.DragOverPoint(o.X, o.Y); err != nil {
		sess.Cancel()
		return
	}
	_ = sess.Drop()
}
