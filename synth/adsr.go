package synth

import (
	"github.com/velora/stepsynth"
)

// ADSR is the per-event envelope runtime. Stage lengths are proportions of
// the envelope's buffer length (the event's sample length), so one
// instrument template shapes notes of any duration. Levels are applied
// multiplicatively over an absolute sample index, which lets the caching
// renderer apply the envelope one window at a time via the write offset.
//
// A decay of zero disables the decay stage entirely: the level holds at full
// scale until the release stage starts.
type ADSR struct {
	attack  float32
	decay   float32
	sustain float32
	release float32

	bufferLength int
}

// NewADSR clones the instrument's envelope template into a runtime instance.
func NewADSR(template stepsynth.ADSR) *ADSR {
	return &ADSR{
		attack:  template.Attack,
		decay:   template.Decay,
		sustain: template.Sustain,
		release: template.Release,
	}
}

func (a *ADSR) Clone() *ADSR {
	clone := *a
	return &clone
}

// CloneFrom copies the envelope stages of other, keeping the buffer length.
func (a *ADSR) CloneFrom(other *ADSR) {
	length := a.bufferLength
	*a = *other
	a.bufferLength = length
}

func (a *ADSR) Decay() float32         { return a.decay }
func (a *ADSR) SetDecay(value float32) { a.decay = value }

// SetBufferLength sets the total length, in samples, the envelope spans.
func (a *ADSR) SetBufferLength(length int) { a.bufferLength = length }

// Apply multiplies the envelope into every channel of the buffer. The
// envelope position for buffer index k is writeOffset + k, so successive
// render windows of a cached event continue the curve where the previous
// window left off.
func (a *ADSR) Apply(buffer *SampleBuffer, writeOffset int) {
	if a.bufferLength <= 0 {
		return
	}
	for c := 0; c < buffer.Channels; c++ {
		ch := buffer.Channel(c)
		for k := range ch {
			ch[k] *= a.levelAt(writeOffset + k)
		}
	}
}

func (a *ADSR) levelAt(index int) float32 {
	length := float32(a.bufferLength)
	pos := float32(index)
	if pos >= length {
		return 0
	}
	releaseLength := a.release * length
	releaseStart := length - releaseLength
	var level float32
	switch attackLength := a.attack * length; {
	case pos < attackLength:
		level = pos / attackLength
	case a.decay > 0 && pos < attackLength+a.decay*length:
		decayLength := a.decay * length
		level = 1 - (1-a.sustain)*(pos-attackLength)/decayLength
	case a.decay > 0:
		level = a.sustain
	default:
		level = 1
	}
	if releaseLength > 0 && pos >= releaseStart {
		level *= 1 - (pos-releaseStart)/releaseLength
	}
	return level
}
