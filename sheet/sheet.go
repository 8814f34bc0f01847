// Package sheet reads and writes plain-text chord sheets, where each lyric
// line may be preceded by a row of chord symbols aligned to character columns.
package sheet

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jsphweid/chordpad/chord"
	"github.com/jsphweid/chordpad/model"
	"github.com/jsphweid/chordpad/placement"
)

// escape starts a lyric row that would otherwise read as chords.
const escape = `\`

// Format renders a document as a chord sheet. Symbols that would overlap are
// pushed right so at least one space separates them. Lyric rows made only of
// chord-like words, or starting with a backslash, are written with a leading
// backslash so Parse reads them back as lyrics.
func Format(doc model.LyricDocument) string {
	rows := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		if len(line.Chords) > 0 {
			rows = append(rows, chordRow(line.Chords))
		}
		rows = append(rows, lyricRow(line.Text))
	}
	return strings.Join(rows, "\n")
}

func lyricRow(text string) string {
	if isChordRow(text) || strings.HasPrefix(text, escape) {
		return escape + text
	}
	return text
}

func chordRow(chords []model.ChordAnnotation) string {
	sorted := append([]model.ChordAnnotation{}, chords...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CharIndex < sorted[j].CharIndex
	})

	var b strings.Builder
	col := 0
	for _, c := range sorted {
		for col < c.CharIndex {
			b.WriteByte(' ')
			col += 1
		}
		if col > 0 && col > c.CharIndex {
			b.WriteByte(' ')
			col += 1
		}
		b.WriteString(c.Symbol)
		col += len([]rune(c.Symbol))
	}
	return strings.TrimRight(b.String(), " ")
}

// Parse reads a chord sheet back into a document. Rows made up entirely of
// chord-like tokens annotate the row below them; a chord row with no lyric row
// after it annotates an empty line. One leading backslash marks a row as
// lyrics and is dropped.
func Parse(text string) model.LyricDocument {
	rows := placement.SplitLyrics(text)
	var doc model.LyricDocument
	for i := 0; i < len(rows); i++ {
		if !isChordRow(rows[i]) {
			doc.Lines = append(doc.Lines, model.Line{Text: strings.TrimPrefix(rows[i], escape)})
			continue
		}

		line := model.Line{Chords: tokens(rows[i])}
		if i+1 < len(rows) && !isChordRow(rows[i+1]) {
			line.Text = strings.TrimPrefix(rows[i+1], escape)
			i += 1
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc
}

// Lyrics strips the chord rows from a sheet.
func Lyrics(doc model.LyricDocument) string {
	rows := make([]string, len(doc.Lines))
	for i, l := range doc.Lines {
		rows[i] = l.Text
	}
	return strings.Join(rows, "\n")
}

func isChordRow(row string) bool {
	fields := strings.Fields(row)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !chord.LooksLikeChord(f) {
			return false
		}
	}
	return true
}

func tokens(row string) []model.ChordAnnotation {
	var res []model.ChordAnnotation
	var cur []rune
	start := 0
	flush := func() {
		if len(cur) > 0 {
			res = append(res, model.ChordAnnotation{CharIndex: start, Symbol: string(cur)})
			cur = cur[:0]
		}
	}
	for col, r := range []rune(row) {
		if unicode.IsSpace(r) {
			flush()
			continue
		}
		if len(cur) == 0 {
			start = col
		}
		cur = append(cur, r)
	}
	flush()
	return res
}
