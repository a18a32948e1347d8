package synth

import (
	"sync"

	"github.com/velora/stepsynth"
)

// Instrument binds an instrument descriptor to its runtime state: the
// envelope template events clone from, and the registries of live and
// sequenced events currently sounding for this instrument. Events register
// themselves at construction and deregister on Dispose; the registries are
// keyed by a monotonic id so removal never compares identities. The mutex
// only guards the registries — it is taken for registration, deregistration
// and iteration snapshots, all of which touch a handful of elements.
type Instrument struct {
	cfg      stepsynth.Config
	pool     *BufferPool
	settings stepsynth.Instrument

	adsr *ADSR // envelope template, cloned per event

	mu        sync.Mutex
	nextID    uint64
	live      map[uint64]*SynthEvent
	sequenced map[uint64]*SynthEvent
}

func NewInstrument(cfg stepsynth.Config, pool *BufferPool, settings stepsynth.Instrument) *Instrument {
	return &Instrument{
		cfg:       cfg,
		pool:      pool,
		settings:  settings.Copy(),
		adsr:      NewADSR(settings.ADSR),
		live:      make(map[uint64]*SynthEvent),
		sequenced: make(map[uint64]*SynthEvent),
	}
}

func (in *Instrument) Settings() stepsynth.Instrument { return in.settings.Copy() }

// UpdateSettings replaces the instrument descriptor and rebuilds the
// envelope template. Existing events keep playing with their old properties
// until UpdateProperties is called on them.
func (in *Instrument) UpdateSettings(settings stepsynth.Instrument) {
	in.settings = settings.Copy()
	in.adsr = NewADSR(settings.ADSR)
}

func (in *Instrument) register(e *SynthEvent) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.nextID++
	e.id = in.nextID
	if e.sequenced {
		in.sequenced[e.id] = e
	} else {
		in.live[e.id] = e
	}
}

func (in *Instrument) deregister(e *SynthEvent) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if e.sequenced {
		delete(in.sequenced, e.id)
	} else {
		delete(in.live, e.id)
	}
}

// AppendLiveEvents appends a snapshot of the currently registered live
// events to dst and returns it. Callers reuse dst across callbacks to avoid
// allocating on the mix path.
func (in *Instrument) AppendLiveEvents(dst []*SynthEvent) []*SynthEvent {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, e := range in.live {
		dst = append(dst, e)
	}
	return dst
}

// AppendSequencedEvents appends a snapshot of the currently registered
// sequenced events to dst and returns it.
func (in *Instrument) AppendSequencedEvents(dst []*SynthEvent) []*SynthEvent {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, e := range in.sequenced {
		dst = append(dst, e)
	}
	return dst
}
