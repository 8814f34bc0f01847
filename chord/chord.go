package chord

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jsphweid/chordpad/model"
	"github.com/jsphweid/chordpad/util"
)

// symbolPattern is a loose chord grammar. It is only used to tell chord rows
// from lyric rows when parsing a sheet; the store itself accepts any symbol.
var symbolPattern = regexp.MustCompile(`^[A-G](#|b)?(maj|min|m|M|dim|aug|sus|add|alt|\+|-|°|ø|\d|\(|\)|#|b|,)*(/[A-G](#|b)?)?$`)

type Count struct {
	Symbol string
	Count  int
}

func Normalize(symbol string) string {
	return strings.TrimSpace(symbol)
}

func Valid(symbol string) bool {
	return Normalize(symbol) != ""
}

func LooksLikeChord(token string) bool {
	if token == "N.C." || token == "NC" {
		return true
	}
	return symbolPattern.MatchString(token)
}

// Progression lists symbols in reading order: top to bottom, and left to right
// within a line. Chords sharing an offset keep insertion order.
func Progression(doc model.LyricDocument) []string {
	var res []string
	for _, line := range doc.Lines {
		chords := append([]model.ChordAnnotation{}, line.Chords...)
		sort.SliceStable(chords, func(i, j int) bool {
			return chords[i].CharIndex < chords[j].CharIndex
		})
		for _, c := range chords {
			res = append(res, c.Symbol)
		}
	}
	return res
}

// Usage counts how often each symbol appears, most used first and ties broken
// alphabetically.
func Usage(doc model.LyricDocument) []Count {
	counts := make(map[string]int)
	for _, symbol := range Progression(doc) {
		counts[symbol] += 1
	}

	res := make([]Count, 0, len(counts))
	for _, symbol := range util.GetKeysSorted(counts) {
		res = append(res, Count{Symbol: symbol, Count: counts[symbol]})
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Count > res[j].Count
	})
	return res
}
