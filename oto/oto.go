package oto

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/velora/stepsynth"
)

type OtoContext struct {
	ctx        *oto.Context
	bufferSize int
}

// OtoOutput pushes rendered float32 frames to an oto player. Oto pulls its
// audio through an io.Reader, so the output keeps an internal byte queue:
// WriteAudio appends to it and the player's reads drain it, with silence
// when the queue runs dry.
type OtoOutput struct {
	player *oto.Player

	mu        sync.Mutex
	queue     []byte
	tmpBuffer []byte
}

// NewContext creates and initializes the platform audio layer for the given
// engine configuration, blocking until the audio device is ready.
func NewContext(cfg stepsynth.Config) (*OtoContext, error) {
	bufferBytes := cfg.BufferSize * cfg.Channels * 4
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0, // use the platform default latency
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{ctx: ctx, bufferSize: bufferBytes}, nil
}

func (c *OtoContext) Output() stepsynth.AudioSink {
	o := &OtoOutput{queue: make([]byte, 0, c.bufferSize*2)}
	o.player = c.ctx.NewPlayer(o)
	o.player.Play()
	return o
}

func (c *OtoContext) Close() error {
	// oto contexts have no Close; suspending stops the audio thread
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (o *OtoOutput) WriteAudio(floatBuffer []float32) error {
	// reuse the old capacity by truncating, then queue the converted bytes
	o.tmpBuffer = FloatBufferToLE(floatBuffer, o.tmpBuffer[:0])
	o.mu.Lock()
	o.queue = append(o.queue, o.tmpBuffer...)
	o.mu.Unlock()
	return nil
}

// Read hands queued sample bytes to the oto player, padding with silence
// when the synth has not produced enough yet. Runs on oto's audio thread.
func (o *OtoOutput) Read(p []byte) (int, error) {
	o.mu.Lock()
	n := copy(p, o.queue)
	o.queue = o.queue[:copy(o.queue, o.queue[n:])]
	o.mu.Unlock()
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (o *OtoOutput) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
