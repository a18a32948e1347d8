package synth

import "github.com/velora/stepsynth"

// Engine sequences its instruments events into successive render windows.
// Process fills one output buffer per call and advances the read position,
// wrapping at the loop end; it is driven by an audio callback or an offline
// export loop.
type Engine struct {
	cfg  stepsynth.Config
	pool *BufferPool

	instruments []*Instrument

	bufferPosition    int
	minBufferPosition int
	maxBufferPosition int

	scratch    []*SynthEvent
	interleave *SampleBuffer
}

func NewEngine(cfg stepsynth.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:  cfg,
		pool: NewBufferPool(cfg.BufferSize),
	}
	e.maxBufferPosition = cfg.SamplesPerBar() - 1
	return e, nil
}

func (e *Engine) Config() stepsynth.Config   { return e.cfg }
func (e *Engine) Pool() *BufferPool          { return e.pool }
func (e *Engine) Instruments() []*Instrument { return e.instruments }

// NewInstrument creates an instrument playing through this engine.
func (e *Engine) NewInstrument(settings stepsynth.Instrument) *Instrument {
	instr := NewInstrument(e.cfg, e.pool, settings)
	e.instruments = append(e.instruments, instr)
	return instr
}

func (e *Engine) BufferPosition() int { return e.bufferPosition }

// SetLoopRange sets the sample range the engine loops over. The read
// position snaps back into range when it falls outside the new bounds.
func (e *Engine) SetLoopRange(min, max int) {
	if max <= min {
		max = min + 1
	}
	e.minBufferPosition = min
	e.maxBufferPosition = max
	if e.bufferPosition < min || e.bufferPosition > max {
		e.bufferPosition = min
	}
}

// Process renders the next window of audio into output and advances the
// read position. Sequenced events whose range overlaps the window mix their
// (cached or freshly rendered) buffers; live events synthesize a full
// window each call. Events marked deletable are disposed before mixing.
func (e *Engine) Process(output *SampleBuffer) {
	output.Silence()

	bufferEnd := e.bufferPosition + output.Frames - 1
	loopStarted := bufferEnd > e.maxBufferPosition
	loopOffset := (e.maxBufferPosition - e.bufferPosition) + 1

	for _, instr := range e.instruments {
		e.scratch = instr.AppendSequencedEvents(e.scratch[:0])
		for _, ev := range e.scratch {
			if ev.Deletable() {
				ev.Dispose()
				continue
			}
			ev.MixBuffer(output, e.bufferPosition, e.minBufferPosition, e.maxBufferPosition, loopStarted, loopOffset)
		}

		e.scratch = instr.AppendLiveEvents(e.scratch[:0])
		for _, ev := range e.scratch {
			if ev.Deletable() {
				ev.Dispose()
				continue
			}
			output.Mix(ev.Synthesize(output.Frames), 0, 0, 1)
		}
	}

	e.bufferPosition += output.Frames
	if e.bufferPosition > e.maxBufferPosition {
		e.bufferPosition = e.minBufferPosition + (e.bufferPosition - e.maxBufferPosition - 1)
	}
}

// RenderInterleaved fills dst with interleaved float32 frames, the layout
// audio sinks consume. len(dst) must be a multiple of the channel count.
func (e *Engine) RenderInterleaved(dst []float32) {
	frames := len(dst) / e.cfg.Channels
	if e.interleave == nil || e.interleave.Frames != frames {
		e.interleave = e.pool.NewBuffer(e.cfg.Channels, frames)
	}
	e.Process(e.interleave)
	for c := 0; c < e.interleave.Channels; c++ {
		data := e.interleave.Channel(c)
		for i := 0; i < frames; i++ {
			dst[i*e.cfg.Channels+c] = data[i]
		}
	}
}
