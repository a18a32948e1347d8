package synth

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/velora/stepsynth"
)

// Arpeggiator steps through a table of semitone offsets at a fixed rate,
// relative to an event's base frequency. The step clock is advanced one
// sample at a time from inside the render loop.
type Arpeggiator struct {
	stepLength int // samples per arpeggio step
	steps      []int
	counter    int
	step       int
}

// NewArpeggiator clones the instrument's arpeggiator template into a runtime
// instance. samplesPerStep is the sequencer step length in samples.
func NewArpeggiator(template stepsynth.Arpeggio, samplesPerStep float64) *Arpeggiator {
	stepLength := int(math.Round(float64(template.StepSize) * samplesPerStep))
	if stepLength < 1 {
		stepLength = 1
	}
	steps := make([]int, len(template.Steps))
	copy(steps, template.Steps)
	if len(steps) == 0 {
		steps = []int{0}
	}
	return &Arpeggiator{stepLength: stepLength, steps: steps}
}

func (a *Arpeggiator) Clone() *Arpeggiator {
	steps := make([]int, len(a.steps))
	copy(steps, a.steps)
	return &Arpeggiator{stepLength: a.stepLength, steps: steps, counter: a.counter, step: a.step}
}

// PeekStepBoundary advances the sample clock and reports whether a new
// arpeggio step just started.
func (a *Arpeggiator) PeekStepBoundary() bool {
	a.counter++
	if a.counter < a.stepLength {
		return false
	}
	a.counter = 0
	a.step = (a.step + 1) % len(a.steps)
	return true
}

func (a *Arpeggiator) CurrentStep() int { return a.step }

// PitchForStep returns the frequency for the given step, relative to the
// base frequency; the stored base is not affected.
func (a *Arpeggiator) PitchForStep(step int, baseFrequency float32) float32 {
	semitones := a.steps[step%len(a.steps)]
	return baseFrequency * math32.Exp2(float32(semitones)/12)
}
