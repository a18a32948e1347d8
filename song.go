package stepsynth

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"
)

type (
	// Song is the serialized form of a pattern arrangement: the engine
	// configuration, one or more tracks and the length of the loop in bars.
	// It is plain data for the command line tools and tests; the synth core
	// itself only sees the events created from it.
	Song struct {
		Config Config
		Bars   int `yaml:",omitempty"` // loop length, defaults to 1
		Tracks []Track
	}

	// Track pairs an instrument with the notes it plays.
	Track struct {
		Instrument Instrument
		Notes      []Note `yaml:",flow"`
	}

	// Note schedules one key at a sequencer position. Key is a MIDI note
	// number; Length is given in sequencer steps.
	Note struct {
		Key      uint8
		Position int
		Length   float32
	}
)

// ParseSong reads a song in yaml form and validates its configuration.
func ParseSong(data []byte) (Song, error) {
	var song Song
	if err := yaml.Unmarshal(data, &song); err != nil {
		return Song{}, fmt.Errorf("could not parse song: %w", err)
	}
	if err := song.Config.Validate(); err != nil {
		return Song{}, err
	}
	if len(song.Tracks) == 0 {
		return Song{}, errors.New("song should have at least one track")
	}
	if song.Bars < 1 {
		song.Bars = 1
	}
	return song, nil
}

// TotalFrames returns the length of the song's loop in sample frames.
func (s *Song) TotalFrames() int {
	return s.Config.SamplesPerBar() * s.Bars
}

// NoteToFrequency converts a MIDI note number to its equal temperament
// frequency, with A4 (note 69) at 440 Hz.
func NoteToFrequency(note uint8) float32 {
	return 440 * math32.Exp2((float32(note)-69)/12)
}
