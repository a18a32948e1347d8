package synth

import (
	"github.com/viterin/vek/vek32"
)

type (
	// SampleBuffer owns the per-channel sample storage for one unit of audio
	// work: a callback-sized render window, or the full span of a cached
	// event. All channels have exactly Frames samples. A buffer has exactly
	// one live owner; it is never shared, only cloned or mixed into another
	// buffer.
	SampleBuffer struct {
		Channels int
		Frames   int

		// Loopable allows the read index to wrap to the start when this
		// buffer is used as a mix source that is shorter than the write
		// region.
		Loopable bool

		data [][]float32
		pool *BufferPool
	}

	// BufferPool supplies the shared zero-filled template for the engine's
	// native buffer size, so callback-sized buffers can be created and
	// silenced with a copy instead of a per-sample loop. Arbitrary sized
	// buffers (full pre-rendered events) are allocated inline and never
	// pooled. The template is read-only and safe for concurrent use.
	BufferPool struct {
		nativeSize int
		silent     []float32
	}
)

func NewBufferPool(nativeSize int) *BufferPool {
	return &BufferPool{nativeSize: nativeSize, silent: make([]float32, nativeSize)}
}

// NativeSize returns the fixed sample frame count of one hardware callback.
func (p *BufferPool) NativeSize() int { return p.nativeSize }

// SilentTemplate returns the shared zero template for the native buffer
// size. Callers must treat the returned slice as read-only.
func (p *BufferPool) SilentTemplate() []float32 { return p.silent }

// AllocateZeroed returns a freshly allocated zero-filled sample array of
// arbitrary length, exclusively owned by the caller.
func (p *BufferPool) AllocateZeroed(size int) []float32 {
	return make([]float32, size)
}

// NewBuffer creates a zero-filled SampleBuffer. The native-size fast path
// clones the pooled silent template.
func (p *BufferPool) NewBuffer(channels, frames int) *SampleBuffer {
	data := make([][]float32, channels)
	if frames == p.nativeSize {
		for i := range data {
			ch := make([]float32, frames)
			copy(ch, p.silent)
			data[i] = ch
		}
	} else {
		for i := range data {
			data[i] = p.AllocateZeroed(frames)
		}
	}
	return &SampleBuffer{Channels: channels, Frames: frames, data: data, pool: p}
}

// Channel returns the sample array for channel c. c must be < Channels; this
// is a hot-path accessor and does no bounds reporting of its own.
func (b *SampleBuffer) Channel(c int) []float32 {
	return b.data[c]
}

// Mix adds gain * source[readOffset+k] into b[writeOffset+k] for every
// channel common to both buffers, for as many samples as fit within b
// starting at writeOffset. If the source runs out of samples before the
// write region is exhausted, the read index wraps to 0 when the source is
// Loopable and otherwise the region is cut short. Returns the number of
// samples written per channel.
func (b *SampleBuffer) Mix(source *SampleBuffer, readOffset, writeOffset int, gain float32) int {
	if source == nil || writeOffset >= b.Frames {
		return 0
	}
	sourceLength := source.Frames
	writeLength := sourceLength
	if writeOffset+writeLength > b.Frames {
		writeLength = b.Frames - writeOffset
	}
	channels := b.Channels
	if source.Channels < channels {
		channels = source.Channels
	}
	if channels == 0 || writeLength <= 0 {
		return 0
	}
	// unity gain, no wrap: whole-slice add
	if gain == 1 && !source.Loopable && readOffset+writeLength <= sourceLength {
		for c := 0; c < channels; c++ {
			vek32.Add_Inplace(b.data[c][writeOffset:writeOffset+writeLength], source.data[c][readOffset:readOffset+writeLength])
		}
		return writeLength
	}
	written := 0
	for c := 0; c < channels; c++ {
		src := source.data[c]
		dst := b.data[c]
		for i, r := writeOffset, readOffset; i < writeOffset+writeLength; i, r = i+1, r+1 {
			if r >= sourceLength {
				if !source.Loopable {
					break
				}
				r = 0
			}
			dst[i] += src[r] * gain
			written++
		}
	}
	return written / channels
}

// Silence resets all channel contents to zero. Native-sized buffers copy the
// pooled silent template.
func (b *SampleBuffer) Silence() {
	if b.pool != nil && b.Frames == b.pool.nativeSize {
		for _, ch := range b.data {
			copy(ch, b.pool.silent)
		}
		return
	}
	for _, ch := range b.data {
		vek32.Zeros_Into(ch, b.Frames)
	}
}

// Scale multiplies every sample in every channel by gain.
func (b *SampleBuffer) Scale(gain float32) {
	for _, ch := range b.data {
		vek32.MulNumber_Inplace(ch, gain)
	}
}

// DuplicateMonoToAllChannels copies channel 0 onto every other channel.
func (b *SampleBuffer) DuplicateMonoToAllChannels() {
	if b.Channels == 1 {
		return
	}
	mono := b.data[0]
	for _, ch := range b.data[1:] {
		copy(ch, mono)
	}
}

// Clone returns a new, independently owned buffer with identical shape and
// contents.
func (b *SampleBuffer) Clone() *SampleBuffer {
	data := make([][]float32, b.Channels)
	for i, ch := range b.data {
		dup := make([]float32, b.Frames)
		copy(dup, ch)
		data[i] = dup
	}
	return &SampleBuffer{Channels: b.Channels, Frames: b.Frames, Loopable: b.Loopable, data: data, pool: b.pool}
}
