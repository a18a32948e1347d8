package synth_test

import (
	"testing"

	"github.com/velora/stepsynth/synth"
)

func TestBulkCacherRendersQueuedEvents(t *testing.T) {
	cfg := testConfig()
	cfg.EventCaching = true
	_, instr := newTestInstrument(t, cfg, testInstrument())

	events := []*synth.SynthEvent{
		synth.NewSequencedEvent(440, 0, 1, instr, false),
		synth.NewSequencedEvent(550, 1, 1, instr, false),
		synth.NewSequencedEvent(660, 2, 2, instr, false),
	}
	cacher := synth.NewBulkCacher()
	cacher.Add(events)
	if cacher.Pending() != 3 {
		t.Fatalf("Pending() = %d, want 3", cacher.Pending())
	}
	cacher.Start()
	if cacher.Pending() != 0 {
		t.Errorf("Pending() = %d after Start, want 0", cacher.Pending())
	}
	for i, e := range events {
		if !e.CachingCompleted() {
			t.Errorf("event %d not cached after the sweep", i)
		}
	}
}

func TestBulkCacherSkipsCompletedEvents(t *testing.T) {
	cfg := testConfig()
	cfg.EventCaching = true
	_, instr := newTestInstrument(t, cfg, testInstrument())

	e := synth.NewSequencedEvent(440, 0, 1, instr, false)
	e.Cache(nil)
	cacher := synth.NewBulkCacher()
	cacher.Add([]*synth.SynthEvent{e})
	cacher.Start()
	if cacher.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", cacher.Pending())
	}
}

func TestBulkCacherClear(t *testing.T) {
	cfg := testConfig()
	cfg.EventCaching = true
	_, instr := newTestInstrument(t, cfg, testInstrument())

	e := synth.NewSequencedEvent(440, 0, 1, instr, false)
	cacher := synth.NewBulkCacher()
	cacher.Add([]*synth.SynthEvent{e})
	cacher.Clear()
	cacher.Start()
	if e.CachingCompleted() {
		t.Errorf("cleared queue still rendered the event")
	}
}

// a bulk cached event re-arms auto caching, so a later geometry change
// re-renders the cache without another sweep
func TestBulkCachedEventRecachesItself(t *testing.T) {
	cfg := testConfig()
	cfg.EventCaching = true
	_, instr := newTestInstrument(t, cfg, testInstrument())

	e := synth.NewSequencedEvent(440, 0, 1, instr, false)
	cacher := synth.NewBulkCacher()
	cacher.Add([]*synth.SynthEvent{e})
	cacher.Start()
	if !e.CachingCompleted() {
		t.Fatalf("event not cached after the sweep")
	}
	e.UpdateProperties(0, 2, e.Instrument(), synth.AllOscillators)
	if !e.CachingCompleted() {
		t.Errorf("auto caching did not re-render after the update")
	}
	if e.SampleLength() != 11025 {
		t.Errorf("SampleLength() = %d, want 11025", e.SampleLength())
	}
}
