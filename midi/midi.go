package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/jsphweid/chordpad/constants"
	"github.com/jsphweid/chordpad/model"
	"github.com/jsphweid/chordpad/util"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	metaLyric  = 0x05
	metaMarker = 0x06
)

const ticksPerBar = 4 * constants.TicksPerQuarter

// ErrTooLong is returned when a document does not fit the 32 bit tick range
// of a midi track.
var ErrTooLong = errors.New("document too long for midi")

// lineTicks is how long a line lasts: long enough to hold its text and every
// chord anchored on it, rounded up to whole 4/4 bars.
func lineTicks(line model.Line, ticksPerChar uint32) uint64 {
	chars := util.Max(len([]rune(line.Text)), 1)
	for _, c := range line.Chords {
		chars = util.Max(chars, c.CharIndex+1)
	}
	ticks := uint64(chars) * uint64(ticksPerChar)
	bars := (ticks + ticksPerBar - 1) / ticksPerBar
	return bars * ticksPerBar
}

// Export writes a document as a single track. Each line's lyric is a lyric
// meta event at the start of the line and each chord is a marker placed
// ticksPerChar ticks per character after it.
func Export(title string, doc model.LyricDocument, ticksPerChar uint32) (*smf.SMF, error) {
	var res smf.SMF
	res.TimeFormat = smf.MetricTicks(constants.TicksPerQuarter)
	if ticksPerChar == 0 {
		ticksPerChar = constants.TicksPerChar
	}

	var track smf.Track
	track = append(track, smf.Event{Message: smf.MetaTrackSequenceName(title)})

	// absolute tick of the last event written
	var cursor uint64
	var lineStart uint64
	for i, line := range doc.Lines {
		if lineStart+lineTicks(line, ticksPerChar) > math.MaxUint32 {
			return nil, fmt.Errorf("line %d ends past tick %d: %w", i, uint32(math.MaxUint32), ErrTooLong)
		}
		track = append(track, smf.Event{Delta: uint32(lineStart - cursor), Message: smf.MetaLyric(line.Text)})
		cursor = lineStart

		chords := append([]model.ChordAnnotation{}, line.Chords...)
		sort.SliceStable(chords, func(i, j int) bool {
			return chords[i].CharIndex < chords[j].CharIndex
		})
		for _, c := range chords {
			at := lineStart + uint64(util.Max(c.CharIndex, 0))*uint64(ticksPerChar)
			track = append(track, smf.Event{Delta: uint32(at - cursor), Message: smf.MetaMarker(c.Symbol)})
			cursor = at
		}
		lineStart += lineTicks(line, ticksPerChar)
	}
	track.Close(uint32(lineStart - cursor))

	res.Tracks = append(res.Tracks, track)
	return &res, nil
}

// Excerpt exports lines [from, to) only.
func Excerpt(title string, doc model.LyricDocument, from, to int, ticksPerChar uint32) (*smf.SMF, error) {
	from = util.Clamp(from, 0, len(doc.Lines))
	to = util.Clamp(to, from, len(doc.Lines))
	return Export(title, model.LyricDocument{Lines: doc.Lines[from:to]}, ticksPerChar)
}

// Import reads back a document written by Export. Markers before the first
// lyric event are ignored.
func Import(s *smf.SMF, ticksPerChar uint32) model.LyricDocument {
	var doc model.LyricDocument
	if s == nil {
		return doc
	}
	if ticksPerChar == 0 {
		ticksPerChar = constants.TicksPerChar
	}

	for _, events := range s.Tracks {
		var absTicks uint32
		var lineStart uint32
		for _, event := range events {
			absTicks += event.Delta
			kind, text, ok := metaText(event.Message)
			if !ok {
				continue
			}
			switch kind {
			case metaLyric:
				doc.Lines = append(doc.Lines, model.Line{Text: text})
				lineStart = absTicks
			case metaMarker:
				if len(doc.Lines) == 0 {
					continue
				}
				last := &doc.Lines[len(doc.Lines)-1]
				last.Chords = append(last.Chords, model.ChordAnnotation{
					CharIndex: int((absTicks - lineStart) / ticksPerChar),
					Symbol:    text,
				})
			}
		}
	}
	return doc
}

// metaText pulls the text out of a lyric or marker meta message:
// 0xFF, type, variable length size, bytes.
func metaText(msg smf.Message) (byte, string, bool) {
	b := []byte(msg)
	if len(b) < 3 || b[0] != 0xFF || (b[1] != metaLyric && b[1] != metaMarker) {
		return 0, "", false
	}
	var size int
	i := 2
	for ; i < len(b); i++ {
		size = size<<7 | int(b[i]&0x7F)
		if b[i]&0x80 == 0 {
			i++
			break
		}
	}
	if i+size > len(b) {
		return 0, "", false
	}
	return b[1], string(b[i : i+size]), true
}

func Write(w io.Writer, s *smf.SMF) error {
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}

func WriteFile(path string, s *smf.SMF) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create midi file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close midi file: %w", closeErr)
		}
	}()
	return Write(f, s)
}

func Read(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = fmt.Errorf("Error parsing midi file... %v", r)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("Error parsing midi file... %w", err)
	}
	return res, nil
}

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("Error reading midi file... %w", err)
	}
	return Read(bytes.NewReader(dat))
}
