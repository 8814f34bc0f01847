package model

type CreateDraftRequestBody struct {
	Title  string `json:"title"`
	Lyrics string `json:"lyrics"`
	// chord-over-lyrics text, used instead of Lyrics when set
	Sheet string `json:"sheet,omitempty"`
}

type InsertChordRequestBody struct {
	Line   int    `json:"line"`
	Char   int    `json:"char"`
	Symbol string `json:"symbol"`
}

type EditChordRequestBody struct {
	Symbol string `json:"symbol"`
}

type MoveChordRequestBody struct {
	FromLine  int `json:"from_line"`
	FromChord int `json:"from_chord"`
	ToLine    int `json:"to_line"`
	ToChar    int `json:"to_char"`
}

// pixel coordinates are relative to the top-left of the lyric block
type InsertAtRequestBody struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Symbol string  `json:"symbol"`
}

type DropChordRequestBody struct {
	FromLine  int     `json:"from_line"`
	FromChord int     `json:"from_chord"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type SetTextRequestBody struct {
	Text string `json:"text"`
}

type RenderResponse struct {
	Line   int               `json:"line"`
	Text   string            `json:"text"`
	Chords []ChordAnnotation `json:"chords"`
}

type UsageResponse struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
