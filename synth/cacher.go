package synth

import "sync"

// BulkCacher renders the caches of a batch of sequenced events one at a
// time. Events are appended to a queue and rendered sequentially on Start;
// the queue advances event by event rather than recursing, so arbitrarily
// large sequences cache without growing the stack.
type BulkCacher struct {
	mu    sync.Mutex
	queue []*SynthEvent
}

func NewBulkCacher() *BulkCacher {
	return &BulkCacher{}
}

// Add schedules the given events for caching. Events already holding a
// completed cache are skipped at render time, not here, as a property
// change may still invalidate them before the sweep runs.
func (b *BulkCacher) Add(events []*SynthEvent) {
	b.mu.Lock()
	for _, e := range events {
		e.SetBulkCacheable(true)
		b.queue = append(b.queue, e)
	}
	b.mu.Unlock()
}

// Pending returns the amount of events awaiting a cache render.
func (b *BulkCacher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Clear empties the queue without rendering.
func (b *BulkCacher) Clear() {
	b.mu.Lock()
	b.queue = b.queue[:0]
	b.mu.Unlock()
}

// Start renders the queued events caches in insertion order.
func (b *BulkCacher) Start() {
	b.OnCacheQueueAdvance()
}

// OnCacheQueueAdvance pops the next queued event and renders its cache.
// Implements CacheNotifier so an event may hand control back after its
// render completed; the loop drains the queue without recursion either way.
func (b *BulkCacher) OnCacheQueueAdvance() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		next := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		if next.CachingCompleted() {
			continue
		}
		next.Cache(nil)
	}
}
