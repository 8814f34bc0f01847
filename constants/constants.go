package constants

import (
	"os"
	"path/filepath"
	"time"
)

func GetDraftDir() string {
	path := os.Getenv("DRAFTS_PATH")
	if path != "" {
		return path
	}
	return "./out/drafts"
}

func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chordpad"
	}
	return filepath.Join(home, ".chordpad")
}

const Version = "0.3.0"

const EnvPrefix = "CHORDPAD"

// monospace cell size of the editor grid, in pixels
const CharWidth = 9.6
const LineHeight = 48.0

// ticks per quarter note in exported midi files
const TicksPerQuarter = 960

// one character of lyric advances this many ticks in exported midi
const TicksPerChar = 120

// largest document an edit may grow a draft to
const MaxLines = 10000
const MaxCharIndex = 4096

const AutosaveDelay = 2 * time.Second

const CacheTTL = 10 * time.Minute

const DynamoTable = "chordpad-drafts"
