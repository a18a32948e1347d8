package stepsynth

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type (
	// Instrument describes the synthesis properties shared by all events of
	// one instrument: the generator waveform, the envelope and arpeggiator
	// templates and the secondary oscillator setup. It is plain data; the
	// synth core clones runtime module instances from it per event.
	Instrument struct {
		Name     string `yaml:",omitempty"`
		Waveform Waveform
		Volume   float32
		ADSR     ADSR
		Arpeggio Arpeggio    `yaml:",omitempty"`
		Osc2     Oscillator2 `yaml:"osc2,omitempty"`
	}

	// ADSR is the envelope template. The stage lengths are proportions
	// (0..1) of the event's sample length rather than absolute times, so the
	// same instrument shapes short and long notes alike.
	ADSR struct {
		Attack  float32
		Decay   float32
		Sustain float32
		Release float32
	}

	// Arpeggio is the arpeggiator template: a table of semitone offsets
	// stepped through at a fixed rate, relative to the event's base
	// frequency.
	Arpeggio struct {
		Enabled bool `yaml:",omitempty"`
		// StepSize is the duration of one arpeggio step, in sequencer steps.
		StepSize float32 `yaml:"stepsize,omitempty"`
		Steps    []int   `yaml:",flow,omitempty"`
	}

	// Oscillator2 configures the secondary oscillator merged into the
	// primary event's output.
	Oscillator2 struct {
		Enabled     bool     `yaml:",omitempty"`
		Waveform    Waveform `yaml:",omitempty"`
		Detune      float32  `yaml:",omitempty"`            // cents
		OctaveShift int      `yaml:"octaveshift,omitempty"` // -2..2
		FineShift   float32  `yaml:"fineshift,omitempty"`   // -7..7, semitones
	}
)

func (i *Instrument) Copy() Instrument {
	steps := make([]int, len(i.Arpeggio.Steps))
	copy(steps, i.Arpeggio.Steps)
	ret := *i
	ret.Arpeggio.Steps = steps
	return ret
}

// ParseInstrument reads an instrument preset in yaml form.
func ParseInstrument(data []byte) (Instrument, error) {
	var instr Instrument
	if err := yaml.Unmarshal(data, &instr); err != nil {
		return Instrument{}, fmt.Errorf("could not parse instrument: %w", err)
	}
	return instr, nil
}
