package synth

import (
	"github.com/chewxy/math32"
	"github.com/velora/stepsynth"
)

const (
	// pulse width modulation constants
	pwr   = math32.Pi / 1.05
	pwAmp = 0.075
)

// render synthesizes into out starting at the event's cache write position.
// For a cached event out is the events full-length buffer, invoked (once) by
// Cache or resumed after a cancel; for a streaming event out is a
// callback-sized buffer and the write position advances across invocations.
// Rendering checks the cancel flag on every sample so a reconfiguration can
// interrupt a long cache render mid-way; a cancelled caching render restarts
// itself against the recalculated geometry.
func (e *SynthEvent) render(out *SampleBuffer) {
	bufferLength := out.Frames

	var renderStart int
	if e.caching {
		renderStart = e.cacheWriteIndex
	}
	renderEnd := renderStart + bufferLength
	maxSampleIndex := e.sampleLength

	// events deleted during their playback, or buffers shorter than the
	// remaining sample length, render a partial range
	if limit := maxSampleIndex - (e.cacheWriteIndex - renderStart); renderEnd > limit {
		renderEnd = limit
		out.Silence()
	}

	hasOSC2 := e.osc2 != nil

	i := renderStart
	for ; i < renderEnd; i++ {
		if e.cancelRequested.Load() {
			break
		}

		var amp float32

		switch e.waveform {
		case stepsynth.Sine:
			if e.phase < 0.5 {
				tmp := e.phase * 4 - 1
				amp = 1 - tmp*tmp
			} else {
				tmp := e.phase * 4 - 3
				amp = tmp*tmp - 1
			}
			amp *= 0.7 // sines tend to distort easily when overlapping

		case stepsynth.Triangle:
			if e.phase < 0.5 {
				tmp := e.phase * 4 - 1
				amp = (1 - tmp*tmp) * 0.75
			} else {
				tmp := e.phase * 4 - 3
				amp = (tmp*tmp - 1) * 0.75
			}
			// the actual triangulation of the waveform
			amp = math32.Abs(amp)

		case stepsynth.Sawtooth:
			if e.phase < 0 {
				amp = e.phase + 1
			} else {
				amp = e.phase
			}

		case stepsynth.Square:
			if e.phase < 0.5 {
				tmp := twoPi * (e.phase*4 - 1)
				amp = 1 - tmp*tmp
			} else {
				tmp := twoPi * (e.phase*4 - 3)
				amp = tmp*tmp - 1
			}
			amp *= 0.01 // squares distort hard when overlapping

		case stepsynth.PWM:
			e.pwmValue++
			pmv := float32(i) + e.pwmValue // sample index + event position

			dpw := math32.Sin(pmv/0x4800) * pwr // LFO modulating the pulse width
			if e.pwmPhase < math32.Pi-dpw {
				amp = pwAmp
			} else {
				amp = -pwAmp
			}

			// PWM runs its own phase update, in radians
			e.pwmPhase += twoPi / float32(e.instrument.cfg.SampleRate) * e.frequency
			if e.pwmPhase > twoPi {
				e.pwmPhase -= twoPi
			}

			// pulse width modulation results in a quieter wave
			amp *= 4

		case stepsynth.Noise:
			if e.phase < 0.5 {
				tmp := e.phase * 4 - 1
				amp = 1 - tmp*tmp
			} else {
				tmp := e.phase * 4 - 3
				amp = tmp*tmp - 1
			}
			amp *= e.randFloat()

		case stepsynth.KarplusStrong:
			e.ring.Enqueue(energyDecayFactor * ((e.ring.Dequeue() + e.ring.Peek()) / 2))
			amp = e.ring.Peek()
		}

		if e.waveform != stepsynth.PWM {
			e.phase += e.phaseIncrement
			if e.phase > maxPhase {
				e.phase -= maxPhase
			}
		}

		if e.arp != nil && e.arp.PeekStepBoundary() {
			e.SetFrequency(e.arp.PitchForStep(e.arp.CurrentStep(), e.baseFrequency), true, false)
		}

		// each oscillator of a two-oscillator event contributes at half
		// gain, mixing both at unity would clip
		if hasOSC2 || e.hasParent {
			amp *= 0.5
		}

		sample := amp * e.volume
		for c := 0; c < out.Channels; c++ {
			out.Channel(c)[i] = sample
		}
	}

	// render the secondary oscillator into a transient buffer rather than
	// straight into out, which may be replaced under a tempo change
	if hasOSC2 && !e.cancelRequested.Load() {
		osc2Buffer := e.instrument.pool.NewBuffer(out.Channels, renderEnd)
		e.osc2.render(osc2Buffer)
		out.Mix(osc2Buffer, renderStart, renderStart, 1)
	}

	// secondary oscillators mix into their parent's buffer before the
	// parent applies its envelope, a shared envelope over both; the write
	// position too is the parent's alone
	if !e.hasParent {
		e.adsr.Apply(out, e.cacheWriteIndex)
		e.cacheWriteIndex += i - renderStart
	}

	if e.caching {
		e.caching = false
		if e.cancelRequested.Load() {
			// a cancel is only requested while properties change; restart
			// the cache against the updated geometry
			e.calculateBuffers()
		} else {
			if i == maxSampleIndex {
				e.cachingCompleted = true
			}
			if e.bulkCacheable {
				e.autoCache = true
			}
		}
	}
	e.cancelRequested.Store(false)
}

// MixBuffer writes this event's audio into output when the current render
// window overlaps the event's sample range. bufferPosition is the engine's
// absolute read position; loopStarted indicates the window wraps over the
// loop end, with loopOffset the first output frame belonging to the loop
// start and minBufferPosition the loop start itself.
func (e *SynthEvent) MixBuffer(output *SampleBuffer, bufferPosition, minBufferPosition, maxBufferPosition int, loopStarted bool, loopOffset int) {
	if e.instrument.cfg.EventCaching {
		e.mixCached(output, bufferPosition, minBufferPosition, maxBufferPosition, loopStarted, loopOffset)
		return
	}

	bufferEnd := bufferPosition + output.Frames

	// synthesize on the fly, exactly the slice overlapping this window
	if (bufferPosition >= e.sampleStart || bufferEnd > e.sampleStart) && bufferPosition < e.sampleEnd {
		writeOffset := 0
		if e.sampleStart > bufferPosition {
			e.cacheWriteIndex = 0
			writeOffset = e.sampleStart - bufferPosition
		} else {
			e.cacheWriteIndex = bufferPosition - e.sampleStart
		}

		e.Lock()
		e.render(e.buffer) // overwrites old buffer contents
		output.Mix(e.buffer, 0, writeOffset, 1)
		e.Unlock()

		// reset of properties at end of write
		if e.cacheWriteIndex >= e.sampleLength {
			e.calculateBuffers()
		}
	}
	// TODO: seamless reading across the loop start, as the cached path does
}

func (e *SynthEvent) mixCached(output *SampleBuffer, bufferPosition, minBufferPosition, maxBufferPosition int, loopStarted bool, loopOffset int) {
	bufferEnd := bufferPosition + output.Frames - 1

	if e.sampleStart <= bufferEnd && e.sampleEnd >= bufferPosition {
		e.Lock()
		source := e.Buffer()
		readOffset := 0
		writeOffset := 0
		if e.sampleStart > bufferPosition {
			writeOffset = e.sampleStart - bufferPosition
		} else {
			readOffset = bufferPosition - e.sampleStart
		}
		output.Mix(source, readOffset, writeOffset, 1)
		e.Unlock()
	}

	// the render window wrapped over the loop end: mix the events head
	// into the region starting at the loop point
	if loopStarted && e.sampleStart <= minBufferPosition+(bufferEnd-maxBufferPosition) {
		e.Lock()
		source := e.Buffer()
		readOffset := 0
		if e.sampleStart < minBufferPosition {
			readOffset = minBufferPosition - e.sampleStart
		}
		output.Mix(source, readOffset, loopOffset, 1)
		e.Unlock()
	}
}

// Buffer returns the event's full-length sample buffer, rendering it on the
// spot when caching mode is active but no cache exists yet and no background
// cache render is pending.
func (e *SynthEvent) Buffer() *SampleBuffer {
	if e.instrument.cfg.EventCaching && !e.cachingCompleted && !e.caching && e.buffer != nil {
		e.doCache()
	}
	return e.buffer
}

// CacheNotifier is invoked once a cache render completed, letting a queue
// drive the next event's render.
type CacheNotifier interface {
	OnCacheQueueAdvance()
}

// Cache renders the event's entire sample range into its owned buffer. When
// notifier is non-nil it is invoked after completion, chaining bulk cache
// sweeps without recursion.
func (e *SynthEvent) Cache(notifier CacheNotifier) {
	if e.buffer == nil {
		return
	}
	e.doCache()
	if notifier != nil {
		notifier.OnCacheQueueAdvance()
	}
}

func (e *SynthEvent) doCache() {
	e.caching = true
	e.cacheWriteIndex = 0
	if e.osc2 != nil {
		e.osc2.caching = true
		e.osc2.cacheWriteIndex = 0
	}
	e.render(e.buffer)
}

// Synthesize renders the next callback's worth of audio for a live event.
// A released event keeps sounding until its minimum length elapsed, then
// fades out linearly over the trailing quarter of the render window before
// deletion takes effect.
func (e *SynthEvent) Synthesize(bufferLength int) *SampleBuffer {
	if e.buffer == nil || e.buffer.Frames != bufferLength {
		e.buffer = e.instrument.pool.NewBuffer(e.instrument.cfg.Channels, bufferLength)
	}

	e.render(e.buffer)

	// the countdown starts at key release, so a released note still rings
	// for the minimum length instead of cutting off immediately
	if e.queuedForDeletion && e.minLength > 0 {
		e.minLength -= bufferLength
	}

	if e.minLength <= 0 {
		e.hasMinLength = true
		// queued deletion can now take effect
		e.SetDeletable(e.queuedForDeletion)

		if e.queuedForDeletion {
			// fade out over the trailing quarter of the window, from full
			// gain down to silence on the last sample
			fadeStart := bufferLength - bufferLength/4
			fadeLength := float32(bufferLength - 1 - fadeStart)
			for c := 0; c < e.buffer.Channels; c++ {
				data := e.buffer.Channel(c)
				for i := fadeStart; i < bufferLength; i++ {
					if fadeLength > 0 {
						data[i] *= float32(bufferLength-1-i) / fadeLength
					} else {
						data[i] = 0
					}
				}
			}
		}
	}
	return e.buffer
}
