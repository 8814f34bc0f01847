// Package placement holds chord annotations anchored to character offsets
// within lyric lines.
//
// Every operation is total. Out-of-range line or chord indices are ignored
// rather than reported, since indices come from a view of the store that may
// already be stale by the time an event is dispatched.
package placement

import (
	"slices"
	"strings"

	"github.com/jsphweid/chordpad/model"
	"github.com/jsphweid/chordpad/util"
)

type Store struct {
	// source is the lyrics the store was created from. Lines grown past the
	// current length take their text from here when available.
	source []string
	lines  []model.Line
}

func SplitLyrics(lyrics string) []string {
	res := strings.Split(lyrics, "\n")
	for i, l := range res {
		res[i] = strings.TrimSuffix(l, "\r")
	}
	return res
}

func New(lyrics string) *Store {
	source := SplitLyrics(lyrics)
	lines := make([]model.Line, len(source))
	for i, text := range source {
		lines[i].Text = text
	}
	return &Store{source: source, lines: lines}
}

// FromDocument restores a store from a saved document. lyrics is the text the
// document was originally built from; it only supplies text for lines grown
// later.
func FromDocument(lyrics string, doc model.LyricDocument) *Store {
	return &Store{
		source: SplitLyrics(lyrics),
		lines:  copyLines(doc.Lines),
	}
}

func (s *Store) grow(lineIndex int) {
	for len(s.lines) <= lineIndex {
		var l model.Line
		if n := len(s.lines); n < len(s.source) {
			l.Text = s.source[n]
		}
		s.lines = append(s.lines, l)
	}
}

func (s *Store) validChord(lineIndex, chordIndex int) bool {
	return util.InRange(s.lines, lineIndex) && util.InRange(s.lines[lineIndex].Chords, chordIndex)
}

// Insert appends a chord to the line, growing the document as needed. A
// negative charIndex is anchored at 0.
func (s *Store) Insert(lineIndex, charIndex int, symbol string) {
	if lineIndex < 0 {
		return
	}
	s.grow(lineIndex)
	s.lines[lineIndex].Chords = append(s.lines[lineIndex].Chords, model.ChordAnnotation{
		CharIndex: util.Max(charIndex, 0),
		Symbol:    symbol,
	})
}

func (s *Store) Edit(lineIndex, chordIndex int, symbol string) {
	if !s.validChord(lineIndex, chordIndex) {
		return
	}
	s.lines[lineIndex].Chords[chordIndex].Symbol = symbol
}

func (s *Store) Delete(lineIndex, chordIndex int) {
	if !s.validChord(lineIndex, chordIndex) {
		return
	}
	s.lines[lineIndex].Chords = slices.Delete(s.lines[lineIndex].Chords, chordIndex, chordIndex+1)
}

// Move re-anchors a chord at toCharIndex on toLine, keeping its symbol. The
// chord is appended to the destination line, so moving within a line puts it
// last. Nothing changes unless both the origin and the destination are valid.
func (s *Store) Move(fromLine, fromChord, toLine, toCharIndex int) {
	if !s.validChord(fromLine, fromChord) || toLine < 0 {
		return
	}
	moved := model.ChordAnnotation{
		CharIndex: util.Max(toCharIndex, 0),
		Symbol:    s.lines[fromLine].Chords[fromChord].Symbol,
	}

	// growing only appends, so the origin indices stay valid
	s.grow(toLine)
	s.lines[fromLine].Chords = slices.Delete(s.lines[fromLine].Chords, fromChord, fromChord+1)
	s.lines[toLine].Chords = append(s.lines[toLine].Chords, moved)
}

// SetText replaces a line's lyric text. Anchors are left where they are even
// if they now point past the end of the line.
func (s *Store) SetText(lineIndex int, text string) {
	if lineIndex < 0 {
		return
	}
	s.grow(lineIndex)
	s.lines[lineIndex].Text = text
}

// Render returns a copy of the chords on a line in insertion order.
func (s *Store) Render(lineIndex int) []model.ChordAnnotation {
	if !util.InRange(s.lines, lineIndex) {
		return []model.ChordAnnotation{}
	}
	return append([]model.ChordAnnotation{}, s.lines[lineIndex].Chords...)
}

func (s *Store) Text(lineIndex int) (string, bool) {
	if !util.InRange(s.lines, lineIndex) {
		return "", false
	}
	return s.lines[lineIndex].Text, true
}

// Chord returns a single annotation, reporting false when it does not exist.
func (s *Store) Chord(lineIndex, chordIndex int) (model.ChordAnnotation, bool) {
	if !s.validChord(lineIndex, chordIndex) {
		return model.ChordAnnotation{}, false
	}
	return s.lines[lineIndex].Chords[chordIndex], true
}

func (s *Store) LineCount() int {
	return len(s.lines)
}

func (s *Store) ChordCount() int {
	var n int
	for _, l := range s.lines {
		n += len(l.Chords)
	}
	return n
}

// Document returns a deep copy of the store's contents.
func (s *Store) Document() model.LyricDocument {
	return model.LyricDocument{Lines: copyLines(s.lines)}
}

func copyLines(lines []model.Line) []model.Line {
	res := make([]model.Line, len(lines))
	for i, l := range lines {
		res[i] = model.Line{Text: l.Text, Chords: slices.Clone(l.Chords)}
	}
	return res
}
