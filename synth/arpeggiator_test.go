package synth_test

import (
	"math"
	"testing"

	"github.com/velora/stepsynth"
	"github.com/velora/stepsynth/synth"
)

func TestArpeggiatorStepBoundaries(t *testing.T) {
	arp := synth.NewArpeggiator(stepsynth.Arpeggio{Enabled: true, StepSize: 1, Steps: []int{0, 12, 7}}, 4)
	if arp.CurrentStep() != 0 {
		t.Fatalf("CurrentStep() = %d, want 0", arp.CurrentStep())
	}
	boundaries := 0
	for i := 0; i < 12; i++ {
		if arp.PeekStepBoundary() {
			boundaries++
		}
	}
	if boundaries != 3 {
		t.Errorf("12 samples at step length 4 crossed %d boundaries, want 3", boundaries)
	}
	// three advances on a three step table wrap back to step 0
	if arp.CurrentStep() != 0 {
		t.Errorf("CurrentStep() = %d, want 0 after wrapping", arp.CurrentStep())
	}
}

func TestArpeggiatorPitchForStep(t *testing.T) {
	arp := synth.NewArpeggiator(stepsynth.Arpeggio{Enabled: true, StepSize: 1, Steps: []int{0, 12, -12}}, 4)
	var tests = []struct {
		step int
		want float32
	}{
		{0, 440},
		{1, 880},
		{2, 220},
	}
	for _, tt := range tests {
		if got := arp.PitchForStep(tt.step, 440); math.Abs(float64(got-tt.want)) > 1e-3 {
			t.Errorf("PitchForStep(%d, 440) = %v, want %v", tt.step, got, tt.want)
		}
	}
}

func TestArpeggiatorCloneKeepsPosition(t *testing.T) {
	arp := synth.NewArpeggiator(stepsynth.Arpeggio{Enabled: true, StepSize: 1, Steps: []int{0, 12}}, 2)
	arp.PeekStepBoundary()
	arp.PeekStepBoundary() // crosses into step 1
	clone := arp.Clone()
	if clone.CurrentStep() != arp.CurrentStep() {
		t.Errorf("clone step %d, want %d", clone.CurrentStep(), arp.CurrentStep())
	}
	clone.PeekStepBoundary()
	clone.PeekStepBoundary()
	if clone.CurrentStep() == arp.CurrentStep() {
		t.Errorf("advancing the clone should not move the original")
	}
}

func TestArpeggiatorEmptyStepsHoldBasePitch(t *testing.T) {
	arp := synth.NewArpeggiator(stepsynth.Arpeggio{Enabled: true, StepSize: 1}, 2)
	if got := arp.PitchForStep(arp.CurrentStep(), 440); got != 440 {
		t.Errorf("PitchForStep with no steps = %v, want 440", got)
	}
}
