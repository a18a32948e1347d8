package synth

// RingBuffer is a fixed-capacity FIFO float queue, used as the delay line of
// the Karplus-Strong plucked string generator. Enqueueing at capacity evicts
// the oldest sample.
type RingBuffer struct {
	buf   []float32
	first int
	count int
}

func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{buf: make([]float32, capacity)}
}

func (r *RingBuffer) Cap() int { return len(r.buf) }
func (r *RingBuffer) Len() int { return r.count }

// Enqueue pushes v at the tail, evicting the oldest sample if at capacity.
func (r *RingBuffer) Enqueue(v float32) {
	if r.count == len(r.buf) {
		r.buf[r.first] = v
		r.first = (r.first + 1) % len(r.buf)
		return
	}
	r.buf[(r.first+r.count)%len(r.buf)] = v
	r.count++
}

// Dequeue pops and returns the oldest sample, or 0 when empty.
func (r *RingBuffer) Dequeue() float32 {
	if r.count == 0 {
		return 0
	}
	v := r.buf[r.first]
	r.first = (r.first + 1) % len(r.buf)
	r.count--
	return v
}

// Peek returns the oldest sample without removing it, or 0 when empty.
func (r *RingBuffer) Peek() float32 {
	if r.count == 0 {
		return 0
	}
	return r.buf[r.first]
}

// Flush empties the queue; capacity is unchanged.
func (r *RingBuffer) Flush() {
	r.first = 0
	r.count = 0
}
