package stepsynth

import "fmt"

// Waveform selects the generator algorithm an event synthesizes with.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Sawtooth
	Square
	PWM
	Noise
	KarplusStrong // physically modeled plucked string
	NumWaveforms
)

var waveformNames = [NumWaveforms]string{
	"sine", "triangle", "sawtooth", "square", "pwm", "noise", "karplus",
}

func (w Waveform) String() string {
	if w < 0 || w >= NumWaveforms {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

func (w Waveform) MarshalYAML() (interface{}, error) {
	if w < 0 || w >= NumWaveforms {
		return nil, fmt.Errorf("cannot marshal unknown waveform %d", int(w))
	}
	return waveformNames[w], nil
}

func (w *Waveform) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	for i, n := range waveformNames {
		if n == name {
			*w = Waveform(i)
			return nil
		}
	}
	return fmt.Errorf("unknown waveform %q", name)
}
