package synth_test

import (
	"testing"

	"github.com/velora/stepsynth/synth"
)

func TestRingBufferFIFO(t *testing.T) {
	r := synth.NewRingBuffer(3)
	if r.Cap() != 3 || r.Len() != 0 {
		t.Fatalf("new ring buffer got cap %d len %d, want 3 and 0", r.Cap(), r.Len())
	}
	r.Enqueue(1)
	r.Enqueue(2)
	r.Enqueue(3)
	if got := r.Peek(); got != 1 {
		t.Errorf("Peek() = %v, want 1", got)
	}
	if got := r.Dequeue(); got != 1 {
		t.Errorf("Dequeue() = %v, want 1", got)
	}
	if got := r.Dequeue(); got != 2 {
		t.Errorf("Dequeue() = %v, want 2", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRingBufferEvictsOldestAtCapacity(t *testing.T) {
	r := synth.NewRingBuffer(2)
	r.Enqueue(1)
	r.Enqueue(2)
	r.Enqueue(3) // evicts 1
	if got := r.Dequeue(); got != 2 {
		t.Errorf("Dequeue() = %v, want 2", got)
	}
	if got := r.Dequeue(); got != 3 {
		t.Errorf("Dequeue() = %v, want 3", got)
	}
}

func TestRingBufferEmptyYieldsZero(t *testing.T) {
	r := synth.NewRingBuffer(2)
	if got := r.Dequeue(); got != 0 {
		t.Errorf("Dequeue() on empty = %v, want 0", got)
	}
	if got := r.Peek(); got != 0 {
		t.Errorf("Peek() on empty = %v, want 0", got)
	}
	r.Enqueue(5)
	r.Flush()
	if r.Len() != 0 || r.Cap() != 2 {
		t.Errorf("after Flush got len %d cap %d, want 0 and 2", r.Len(), r.Cap())
	}
}

// the plucked string feedback loop should lose energy on every pass
func TestRingBufferEnergyDecay(t *testing.T) {
	r := synth.NewRingBuffer(8)
	for i := 0; i < 8; i++ {
		r.Enqueue(1)
	}
	for pass := 0; pass < 100; pass++ {
		for i := 0; i < 8; i++ {
			r.Enqueue(0.990 * ((r.Dequeue() + r.Peek()) / 2))
		}
	}
	if got := r.Peek(); got <= 0 || got >= 0.5 {
		t.Errorf("after 100 decay passes Peek() = %v, want between 0 and 0.5", got)
	}
}
