package synth

import (
	"math"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/velora/stepsynth"
)

const (
	maxPhase = 1.0
	twoPi    = 2 * math32.Pi

	// energyDecayFactor controls the damping rate of the plucked string
	// feedback loop.
	energyDecayFactor = 0.990

	// a quick release of a live key should at least ring for a 32nd note
	liveMinLengthDivider = 32

	// unsequenced events with a short instrument decay get their decay
	// stage disabled entirely, preventing audible tails on one-shot notes
	liveDecayThreshold = 0.75
)

// OscillatorSelector tells UpdateProperties which oscillator(s) to update.
// Both oscillators are rendered and merged into one buffer, so selective
// updates matter only when reconfiguration cost must be kept down.
type OscillatorSelector int

const (
	AllOscillators OscillatorSelector = iota
	PrimaryOscillator
	SecondaryOscillator
)

// SynthEvent is one note's synthesis state and buffer: either sequenced at a
// fixed timeline position, or live (triggered ad hoc and rendered one
// callback at a time until deleted). An event owns its SampleBuffer, its
// cloned envelope, an optional arpeggiator clone, an optional ring buffer
// for the plucked string generator and an optional secondary oscillator.
// The secondary oscillator is itself a SynthEvent with hasParent set: it
// owns no buffer, never registers with the instrument and never constructs
// a secondary oscillator of its own.
type SynthEvent struct {
	instrument *Instrument
	waveform   stepsynth.Waveform
	volume     float32

	frequency      float32
	baseFrequency  float32
	phase          float32
	phaseIncrement float32

	// PWM runs its own radian phase and LFO counter instead of the shared
	// phase accumulator
	pwmPhase float32
	pwmValue float32

	position int     // sequencer step the event starts at
	length   float32 // length in sequencer steps

	sampleStart  int
	sampleEnd    int
	sampleLength int

	minLength    int
	hasMinLength bool

	buffer   *SampleBuffer
	ring     *RingBuffer
	ringSize int
	adsr     *ADSR
	arp      *Arpeggiator
	osc2     *SynthEvent

	hasParent bool
	sequenced bool

	cacheWriteIndex  int
	caching          bool
	cachingCompleted bool
	autoCache        bool
	bulkCacheable    bool

	// cancelRequested and locked are the cooperative handshake between a
	// render in flight and a reconfiguration: renders poll cancelRequested
	// every sample, reconfigurations check locked before touching buffers
	// and defer to Unlock when set.
	cancelRequested   atomic.Bool
	locked            atomic.Bool
	updateAfterUnlock bool

	queuedForDeletion bool
	deleteNow         bool

	randSeed uint32
	id       uint64
}

// NewSequencedEvent creates an event playing at a fixed sequencer position.
// length is given in sequencer steps. When autoCache is set and the engine
// runs in caching mode, the event re-caches itself on every geometry change.
func NewSequencedEvent(frequency float32, position int, length float32, instr *Instrument, autoCache bool) *SynthEvent {
	e := &SynthEvent{}
	e.init(instr, frequency, position, length, false, true)
	e.SetAutoCache(autoCache)
	return e
}

// NewLiveEvent creates an event synthesized one callback at a time, for a
// live instrument context. It keeps sounding until SetDeletable(true).
func NewLiveEvent(frequency float32, instr *Instrument) *SynthEvent {
	e := &SynthEvent{}
	e.init(instr, frequency, 0, 1, false, false)
	return e
}

func (e *SynthEvent) init(instr *Instrument, frequency float32, position int, length float32, hasParent, sequenced bool) {
	e.instrument = instr
	e.adsr = instr.adsr.Clone()

	// when the event has no fixed length and the decay is short, deactivate
	// the decay envelope completely
	if !sequenced && e.adsr.Decay() < liveDecayThreshold {
		e.adsr.SetDecay(0)
	}

	e.waveform = instr.settings.Waveform
	e.volume = instr.settings.Volume
	e.frequency = frequency
	e.baseFrequency = frequency
	e.position = position
	e.length = length
	e.hasParent = hasParent
	e.sequenced = sequenced
	e.randSeed = 1

	// the secondary oscillator uses the parent flag to omit going into
	// recursion
	if !hasParent && instr.settings.Osc2.Enabled {
		e.createOSC2(position, length, instr.settings)
	}

	e.SetFrequency(frequency, true, true)
	e.applyModules(instr.settings)

	e.hasMinLength = sequenced // a sequenced event has no early cancel
	e.calculateBuffers()

	// register with the instrument so the event can be heard; secondary
	// oscillators render through their parent and stay unregistered
	if !hasParent {
		instr.register(e)
	}
}

// Dispose releases the event's modules, recursively disposes its secondary
// oscillator and removes the event from its instrument's registry. Must not
// be called while a render on this event is in flight.
func (e *SynthEvent) Dispose() {
	e.ring = nil
	e.arp = nil
	e.buffer = nil
	e.destroyOSC2()
	if !e.hasParent {
		e.instrument.deregister(e)
	}
}

func (e *SynthEvent) Instrument() *Instrument { return e.instrument }

func (e *SynthEvent) Frequency() float32 { return e.frequency }
func (e *SynthEvent) Volume() float32    { return e.volume }
func (e *SynthEvent) Envelope() *ADSR    { return e.adsr }

func (e *SynthEvent) SetVolume(value float32) { e.volume = value }

func (e *SynthEvent) SampleStart() int  { return e.sampleStart }
func (e *SynthEvent) SampleEnd() int    { return e.sampleEnd }
func (e *SynthEvent) SampleLength() int { return e.sampleLength }

func (e *SynthEvent) CachingCompleted() bool { return e.cachingCompleted }

// SetAutoCache makes the event re-render its cache by itself whenever its
// geometry or instrument properties change. Initial caching still runs
// through the bulk cacher; the constructor invokes this after the first
// buffer calculation on purpose.
func (e *SynthEvent) SetAutoCache(value bool) { e.autoCache = value }

// SetBulkCacheable marks the event as managed by a bulk cache sweep; a
// completed render then re-arms auto caching for future reconfiguration.
func (e *SynthEvent) SetBulkCacheable(value bool) { e.bulkCacheable = value }

// SetFrequency updates the oscillation frequency. When storeAsBase is set
// the value also becomes the base frequency, the reference point pitch
// shifting modules return to. When allOscillators is set the secondary
// oscillator's frequency is scaled by the same ratio, preserving its
// relative detune.
func (e *SynthEvent) SetFrequency(value float32, allOscillators, storeAsBase bool) {
	current := e.frequency
	e.frequency = value
	// no phase reset: that would pop if another frequency was sounding
	e.phaseIncrement = value / float32(e.instrument.cfg.SampleRate)
	if storeAsBase {
		e.baseFrequency = value
	}
	if e.waveform == stepsynth.KarplusStrong {
		e.initKarplusStrong()
	}
	if allOscillators && e.osc2 != nil {
		multiplier := value / current
		e.osc2.SetFrequency(e.osc2.frequency*multiplier, true, storeAsBase)
	}
}

// UpdateProperties moves or resizes the event and re-reads the rendering
// properties from the instrument. A cache render in flight is cancelled
// rather than having its buffers swapped out from under it; the cancelled
// render restarts itself against the new geometry.
func (e *SynthEvent) UpdateProperties(position int, length float32, instr *Instrument, selector OscillatorSelector) {
	settings := instr.settings
	e.waveform = settings.Waveform
	e.position = position
	e.length = length
	e.adsr.CloneFrom(instr.adsr)

	if selector != PrimaryOscillator {
		if settings.Osc2.Enabled {
			e.createOSC2(position, length, settings)
		} else {
			e.destroyOSC2()
		}
	}

	e.applyModules(settings)

	if selector != SecondaryOscillator {
		if e.caching {
			if e.osc2 != nil {
				e.osc2.cancelRequested.Store(true)
			}
			e.cancelRequested.Store(true)
		} else {
			e.calculateBuffers()
		}
	}
}

// Lock marks the event's buffer as being read by a render frame; geometry
// recomputation is deferred until Unlock.
func (e *SynthEvent) Lock() { e.locked.Store(true) }

func (e *SynthEvent) Unlock() {
	e.locked.Store(false)
	if e.updateAfterUnlock {
		e.calculateBuffers()
	}
	e.updateAfterUnlock = false
}

// calculateBuffers derives the event's sample-domain window from its
// sequencer position and (re)allocates the owned buffer when the length
// changed. Called at construction and whenever position, length or
// instrument properties change.
func (e *SynthEvent) calculateBuffers() {
	if e.locked.Load() {
		e.updateAfterUnlock = true
		return
	}

	cfg := e.instrument.cfg
	var oldLength int
	if e.sequenced {
		if e.caching {
			e.cancelRequested.Store(true)
		}
		oldLength = e.sampleLength
		e.sampleLength = int(math.Round(float64(e.length) * cfg.SamplesPerStep()))
		e.sampleStart = int(math.Round(float64(e.position) * cfg.SamplesPerStep()))
		e.sampleEnd = e.sampleStart + e.sampleLength
	} else {
		e.minLength = cfg.SamplesPerBar() / liveMinLengthDivider
		e.sampleLength = cfg.SamplesPerBar() // supports swell-style amplitude envelopes
		oldLength = cfg.BufferSize           // buffer is as long as one callback
		e.hasMinLength = false
	}

	e.adsr.SetBufferLength(e.sampleLength)

	// sample length changed (f.i. tempo change) or buffer not yet created?
	if e.sampleLength != oldLength || e.buffer == nil {
		// a secondary oscillator writes into its parent's buffer and
		// allocates none of its own
		if !e.hasParent {
			if cfg.EventCaching && e.sequenced {
				e.buffer = e.instrument.pool.NewBuffer(cfg.Channels, e.sampleLength)
			} else {
				e.buffer = e.instrument.pool.NewBuffer(cfg.Channels, cfg.BufferSize)
			}
		}
	}

	if e.sequenced {
		if e.waveform == stepsynth.KarplusStrong {
			e.initKarplusStrong()
		}
		if cfg.EventCaching {
			// reset here, not in Cache: a cancel might otherwise remain
			// permanent when the bulk cacher retries the event
			e.resetCache()
			if e.autoCache && !e.hasParent {
				if !e.caching {
					e.Cache(nil)
				} else {
					e.cancelRequested.Store(true)
				}
			}
		}
	}
}

func (e *SynthEvent) resetCache() {
	e.caching = false
	e.cachingCompleted = false
	e.cacheWriteIndex = 0
	if e.osc2 != nil {
		e.osc2.resetCache()
	}
}

// SetDeletable marks the event for removal. Sequenced events and live
// events that already rang out their minimum length are removed right away;
// a freshly released live event is queued instead and keeps sounding until
// the minimum length is satisfied.
func (e *SynthEvent) SetDeletable(value bool) {
	if e.sequenced || e.hasMinLength {
		e.deleteNow = value
	} else {
		e.queuedForDeletion = value
	}
	if e.osc2 != nil {
		e.osc2.SetDeletable(value)
	}
}

func (e *SynthEvent) Deletable() bool { return e.deleteNow }

// initKarplusStrong (re)creates the ring buffer spanning one period of the
// fundamental and fills it with noise, the initial pluck of the string.
func (e *SynthEvent) initKarplusStrong() {
	previousSize := e.ringSize
	e.ringSize = int(math32.Round(float32(e.instrument.cfg.SampleRate) / e.frequency))
	if e.sequenced && e.ring != nil && e.ringSize != previousSize {
		e.ring = nil
	}
	if e.ring == nil {
		e.ring = NewRingBuffer(e.ringSize)
	} else {
		e.ring.Flush()
	}
	for i := 0; i < e.ringSize; i++ {
		e.ring.Enqueue(e.randFloat())
	}
}

// createOSC2 creates or updates the secondary oscillator. An existing
// instance is reused so its phase and envelope stay continuous across
// property updates.
func (e *SynthEvent) createOSC2(position int, length float32, settings stepsynth.Instrument) {
	if !settings.Osc2.Enabled {
		return
	}
	if e.osc2 == nil {
		// no auto caching for a sequenced secondary oscillator: its render
		// is invoked by this parent event
		e.osc2 = &SynthEvent{}
		if e.sequenced {
			e.osc2.init(e.instrument, e.frequency, position, length, true, true)
		} else {
			e.osc2.init(e.instrument, e.frequency, 0, 1, true, false)
		}
	}
	// verbose, but necessary when updating an existing instance
	e.osc2.waveform = settings.Osc2.Waveform
	e.osc2.position = position
	e.osc2.length = length

	detuned := e.frequency + e.frequency/1200*settings.Osc2.Detune // 1200 cents == octave
	freq := detuned

	// octave shift (-2 to +2)
	if shift := settings.Osc2.OctaveShift; shift != 0 {
		if shift < 0 {
			freq = detuned / math32.Abs(float32(shift*2))
		} else {
			freq += detuned * (math32.Abs(float32(shift*2)) - 1)
		}
	}
	// fine shift (-7 to +7)
	fineShift := detuned / 12 * math32.Abs(settings.Osc2.FineShift)
	if settings.Osc2.FineShift < 0 {
		freq -= fineShift
	} else {
		freq += fineShift
	}
	e.osc2.SetFrequency(freq, true, true)

	if e.osc2.caching {
		e.osc2.cancelRequested.Store(true)
	}
}

func (e *SynthEvent) destroyOSC2() {
	if e.osc2 == nil {
		return
	}
	if e.osc2.caching {
		e.osc2.cancelRequested.Store(true)
	}
	e.osc2.ring = nil
	e.osc2.arp = nil
	e.osc2 = nil
}

// applyModules rebuilds the arpeggiator clone from the instrument and
// recurses into the secondary oscillator. An active arpeggiator pins the
// frequency to its current step relative to the base frequency; on
// deactivation the base frequency is restored for both oscillators.
func (e *SynthEvent) applyModules(settings stepsynth.Instrument) {
	hasOSC2 := e.osc2 != nil
	osc2Base := e.baseFrequency
	if hasOSC2 {
		osc2Base = e.osc2.baseFrequency
	}

	e.arp = nil
	if settings.Arpeggio.Enabled {
		e.arp = NewArpeggiator(settings.Arpeggio, e.instrument.cfg.SamplesPerStep())
	}

	if hasOSC2 {
		e.osc2.applyModules(settings)
	}

	if settings.Arpeggio.Enabled {
		e.SetFrequency(e.arp.PitchForStep(e.arp.CurrentStep(), e.baseFrequency), true, false)
	} else {
		e.SetFrequency(e.baseFrequency, false, true)
		if hasOSC2 {
			e.osc2.SetFrequency(osc2Base, false, true)
		}
	}
}

func (e *SynthEvent) randFloat() float32 {
	e.randSeed *= 16007
	return float32(int32(e.randSeed)) / -2147483648.0
}
