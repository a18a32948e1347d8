package stepsynth_test

import (
	"testing"

	"github.com/velora/stepsynth"
)

func TestConfigTimingMath(t *testing.T) {
	cfg := stepsynth.Config{SampleRate: 44100, BufferSize: 512, Channels: 2, BPM: 120, StepsPerBar: 16}
	if got := cfg.SamplesPerBar(); got != 88200 {
		t.Errorf("SamplesPerBar() = %d, want 88200", got)
	}
	if got := cfg.SamplesPerStep(); got != 5512.5 {
		t.Errorf("SamplesPerStep() = %v, want 5512.5", got)
	}
	cfg.BPM = 130
	if got := cfg.SamplesPerBar(); got != 81415 {
		t.Errorf("SamplesPerBar() at 130 BPM = %d, want 81415", got)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := stepsynth.Config{SampleRate: 44100, BufferSize: 512, Channels: 2, BPM: 120, StepsPerBar: 16}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	var tests = []struct {
		name   string
		mutate func(*stepsynth.Config)
	}{
		{"zero sample rate", func(c *stepsynth.Config) { c.SampleRate = 0 }},
		{"zero buffer size", func(c *stepsynth.Config) { c.BufferSize = 0 }},
		{"no channels", func(c *stepsynth.Config) { c.Channels = 0 }},
		{"zero BPM", func(c *stepsynth.Config) { c.BPM = 0 }},
		{"no steps", func(c *stepsynth.Config) { c.StepsPerBar = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() accepted a config with %s", tt.name)
			}
		})
	}
}
