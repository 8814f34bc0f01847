package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/chordpad/chord"
	"github.com/jsphweid/chordpad/midi"
	"github.com/jsphweid/chordpad/model"
	"github.com/jsphweid/chordpad/sheet"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <sheet.txt|song.mid>",
	Short: "Inspects a chord sheet or exported midi file",
	Long:  `Inspects a chord sheet or exported midi file`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		doc, err := readDocument(args[0], cfg.Midi.TicksPerChar)
		if err != nil {
			return err
		}
		if err := limitsFrom(cfg).CheckDocument(doc); err != nil {
			return err
		}
		inspect(doc)
		return nil
	},
}

func readDocument(path string, ticksPerChar uint32) (model.LyricDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".mid" || ext == ".midi" {
		s, err := midi.ReadMidiFile(path)
		if err != nil {
			return model.LyricDocument{}, err
		}
		return midi.Import(s, ticksPerChar), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.LyricDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	return sheet.Parse(string(data)), nil
}

func inspect(doc model.LyricDocument) {
	fmt.Println(sheet.Format(doc))
	fmt.Println()
	fmt.Printf("lines: %v\n", len(doc.Lines))
	fmt.Printf("chords: %v\n", doc.NumChords())
	for i, line := range doc.Lines {
		for j, c := range line.Chords {
			note := ""
			if c.CharIndex > len([]rune(line.Text)) {
				note = " (past end of line)"
			}
			fmt.Printf("line %v chord %v: %v at %v%v\n", i, j, c.Symbol, c.CharIndex, note)
		}
	}
	fmt.Printf("progression: %v\n", strings.Join(chord.Progression(doc), " "))
}
