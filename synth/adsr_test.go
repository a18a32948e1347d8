package synth_test

import (
	"math"
	"testing"

	"github.com/velora/stepsynth"
	"github.com/velora/stepsynth/synth"
)

func applyEnvelope(t *testing.T, template stepsynth.ADSR, length, writeOffset, frames int) []float32 {
	t.Helper()
	adsr := synth.NewADSR(template)
	adsr.SetBufferLength(length)
	pool := synth.NewBufferPool(frames)
	buf := pool.NewBuffer(1, frames)
	for i := range buf.Channel(0) {
		buf.Channel(0)[i] = 1
	}
	adsr.Apply(buf, writeOffset)
	return buf.Channel(0)
}

func TestADSRZeroEnvelopePassesThrough(t *testing.T) {
	out := applyEnvelope(t, stepsynth.ADSR{}, 100, 0, 100)
	for i, v := range out {
		if v != 1 {
			t.Fatalf("sample %d is %v, want 1", i, v)
		}
	}
}

func TestADSRAttackRampsFromZero(t *testing.T) {
	out := applyEnvelope(t, stepsynth.ADSR{Attack: 0.5}, 100, 0, 100)
	if out[0] != 0 {
		t.Errorf("sample 0 is %v, want 0", out[0])
	}
	if got, want := out[25], float32(0.5); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("sample 25 is %v, want %v", got, want)
	}
	if out[75] != 1 {
		t.Errorf("sample 75 is %v, want 1 after the attack stage", out[75])
	}
}

func TestADSRDecayFallsToSustain(t *testing.T) {
	out := applyEnvelope(t, stepsynth.ADSR{Decay: 0.5, Sustain: 0.4}, 100, 0, 100)
	if out[0] != 1 {
		t.Errorf("sample 0 is %v, want 1 with no attack", out[0])
	}
	if got, want := out[25], float32(0.7); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("sample 25 is %v, want %v mid-decay", got, want)
	}
	if got, want := out[80], float32(0.4); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("sample 80 is %v, want the sustain level %v", got, want)
	}
}

func TestADSRReleaseReachesSilence(t *testing.T) {
	out := applyEnvelope(t, stepsynth.ADSR{Release: 0.25}, 100, 0, 100)
	if out[0] != 1 {
		t.Errorf("sample 0 is %v, want 1 before the release stage", out[0])
	}
	if got, want := out[80], float32(0.8); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("sample 80 is %v, want %v mid-release", got, want)
	}
	if got := out[99]; got > 0.05 {
		t.Errorf("sample 99 is %v, want near 0 at the end of the release", got)
	}
}

// positions past the buffer length are silent; the write offset continues
// the curve across successive windows
func TestADSRApplyUsesWriteOffset(t *testing.T) {
	out := applyEnvelope(t, stepsynth.ADSR{Attack: 0.5}, 100, 25, 100)
	if got, want := out[0], float32(0.5); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("sample 0 at offset 25 is %v, want %v", got, want)
	}
	for i := 75; i < 100; i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d maps past the envelope length, got %v, want 0", i, out[i])
		}
	}
}

func TestADSRCloneFromKeepsBufferLength(t *testing.T) {
	a := synth.NewADSR(stepsynth.ADSR{Decay: 0.8})
	a.SetBufferLength(500)
	b := synth.NewADSR(stepsynth.ADSR{Decay: 0.2, Sustain: 0.5})
	a.CloneFrom(b)
	if a.Decay() != 0.2 {
		t.Errorf("Decay() = %v, want 0.2 after CloneFrom", a.Decay())
	}
	pool := synth.NewBufferPool(8)
	buf := pool.NewBuffer(1, 8)
	for i := range buf.Channel(0) {
		buf.Channel(0)[i] = 1
	}
	// positions within the kept 500 sample length stay audible
	a.Apply(buf, 400)
	if buf.Channel(0)[0] == 0 {
		t.Errorf("CloneFrom lost the buffer length")
	}
}
