package synth

import "github.com/velora/stepsynth"

// LoadSong builds an engine from a song descriptor: one instrument per
// track, with every note scheduled as a sequenced event. The engine's loop
// spans the song's bars.
func LoadSong(song stepsynth.Song) (*Engine, error) {
	engine, err := NewEngine(song.Config)
	if err != nil {
		return nil, err
	}
	engine.SetLoopRange(0, song.TotalFrames()-1)
	cacher := NewBulkCacher()
	var batch []*SynthEvent
	for _, track := range song.Tracks {
		instr := engine.NewInstrument(track.Instrument)
		for _, note := range track.Notes {
			ev := NewSequencedEvent(stepsynth.NoteToFrequency(note.Key), note.Position, note.Length, instr, song.Config.AutoCache)
			if song.Config.EventCaching {
				batch = append(batch, ev)
			}
		}
	}
	cacher.Add(batch)
	cacher.Start()
	return engine, nil
}

// RenderSong plays the song once from start to end and returns the
// interleaved sample frames.
func RenderSong(song stepsynth.Song) ([]float32, error) {
	engine, err := LoadSong(song)
	if err != nil {
		return nil, err
	}
	cfg := song.Config
	total := song.TotalFrames()
	out := make([]float32, 0, total*cfg.Channels)
	chunk := make([]float32, cfg.BufferSize*cfg.Channels)
	for rendered := 0; rendered < total; rendered += cfg.BufferSize {
		frames := cfg.BufferSize
		if remaining := total - rendered; remaining < frames {
			frames = remaining
		}
		engine.RenderInterleaved(chunk[:frames*cfg.Channels])
		out = append(out, chunk[:frames*cfg.Channels]...)
	}
	return out, nil
}
