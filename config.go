package stepsynth

import (
	"errors"
	"math"
)

type (
	// Config holds the fixed properties of the audio engine: the hardware
	// callback geometry, the output channel layout and the transport timing
	// the sequencer runs at. A Config is plain data; it is given to the synth
	// core at construction and never mutated afterwards, so both the
	// streaming and the caching render paths can be tested in isolation.
	Config struct {
		SampleRate int `yaml:"samplerate"`
		BufferSize int `yaml:"buffersize"` // frames in one hardware audio callback
		Channels   int `yaml:"channels"`

		BPM         float64 `yaml:"bpm"`
		StepsPerBar int     `yaml:"stepsperbar"`

		// EventCaching selects the pre-render/cache playback mode for
		// sequenced events. When false, events synthesize their samples on
		// demand, one callback window at a time.
		EventCaching bool `yaml:"eventcaching,omitempty"`

		// AutoCache marks events created for this engine as bulk cacheable,
		// so a completed render re-arms caching after reconfiguration.
		AutoCache bool `yaml:"autocache,omitempty"`
	}
)

// SamplesPerBar returns the length of one 4/4 bar in sample frames at the
// configured tempo.
func (c Config) SamplesPerBar() int {
	return int(math.Round(float64(c.SampleRate) * 240 / c.BPM))
}

// SamplesPerStep returns the length of one sequencer step in sample frames.
// The value is fractional; events round only after multiplying by their
// position/length so rounding errors do not accumulate across a pattern.
func (c Config) SamplesPerStep() float64 {
	return float64(c.SamplesPerBar()) / float64(c.StepsPerBar)
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate should be > 0")
	}
	if c.BufferSize <= 0 {
		return errors.New("buffer size should be > 0")
	}
	if c.Channels < 1 {
		return errors.New("there should be at least one output channel")
	}
	if c.BPM <= 0 {
		return errors.New("BPM should be > 0")
	}
	if c.StepsPerBar < 1 {
		return errors.New("there should be at least one step per bar")
	}
	return nil
}

type (
	// AudioSink is the destination for rendered sample frames, typically a
	// platform playback device. WriteAudio may block until the device has
	// room for the buffer.
	AudioSink interface {
		WriteAudio(buffer []float32) error
		Close() error
	}

	// AudioContext is the platform audio layer, from which sinks are created.
	AudioContext interface {
		Output() AudioSink
		Close() error
	}
)
