package model

type ChordAnnotation struct {
	CharIndex int    `json:"char_index"`
	Symbol    string `json:"symbol"`
}

type Line struct {
	Text   string            `json:"text"`
	Chords []ChordAnnotation `json:"chords"`
}

type LyricDocument struct {
	Lines []Line `json:"lines"`
}

// NumChords counts annotations across every line.
func (d LyricDocument) NumChords() int {
	var n int
	for _, l := range d.Lines {
		n += len(l.Chords)
	}
	return n
}
