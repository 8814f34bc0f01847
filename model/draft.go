package model

import "time"

type Draft struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Lyrics    string        `json:"lyrics"`
	Document  LyricDocument `json:"document"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type DraftSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	NumLines  int       `json:"num_lines"`
	NumChords int       `json:"num_chords"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d Draft) Summary() DraftSummary {
	return DraftSummary{
		ID:        d.ID,
		Title:     d.Title,
		NumLines:  len(d.Document.Lines),
		NumChords: d.Document.NumChords(),
		UpdatedAt: d.UpdatedAt,
	}
}
