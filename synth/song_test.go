package synth_test

import (
	"testing"

	"github.com/velora/stepsynth"
	"github.com/velora/stepsynth/synth"
)

func testSong(eventCaching bool) stepsynth.Song {
	cfg := testConfig()
	cfg.EventCaching = eventCaching
	return stepsynth.Song{
		Config: cfg,
		Bars:   1,
		Tracks: []stepsynth.Track{
			{
				Instrument: testInstrument(),
				Notes: []stepsynth.Note{
					{Key: 69, Position: 0, Length: 4},
					{Key: 72, Position: 8, Length: 4},
				},
			},
		},
	}
}

func TestLoadSongSchedulesEvents(t *testing.T) {
	engine, err := synth.LoadSong(testSong(true))
	if err != nil {
		t.Fatalf("LoadSong failed: %v", err)
	}
	events := engine.Instruments()[0].AppendSequencedEvents(nil)
	if len(events) != 2 {
		t.Fatalf("scheduled %d events, want 2", len(events))
	}
	for i, e := range events {
		if !e.CachingCompleted() {
			t.Errorf("event %d not cached after loading a caching song", i)
		}
	}
}

func TestRenderSongProducesAudio(t *testing.T) {
	for _, caching := range []bool{false, true} {
		song := testSong(caching)
		buffer, err := synth.RenderSong(song)
		if err != nil {
			t.Fatalf("RenderSong failed: %v", err)
		}
		if want := song.TotalFrames() * song.Config.Channels; len(buffer) != want {
			t.Errorf("caching=%v: rendered %d samples, want %d", caching, len(buffer), want)
		}
		var sum float64
		for _, v := range buffer {
			sum += float64(v * v)
		}
		if sum == 0 {
			t.Errorf("caching=%v: rendered silence", caching)
		}
	}
}
