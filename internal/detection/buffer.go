package detection

import (
	"sync"
	"time"
)

// Buffer accumulates accepted detection timestamps. The first detection is
// always accepted; later ones only when at least minGap after the last
// accepted timestamp.
type Buffer struct {
	mu       sync.Mutex
	minGap   time.Duration
	accepted []time.Duration
}

// NewBuffer creates a buffer with the given debounce gap.
func NewBuffer(minGap time.Duration) *Buffer {
	if minGap < 0 {
		minGap = 0
	}
	return &Buffer{minGap: minGap}
}

// Offer applies the debounce rule and reports whether ts was accepted.
func (b *Buffer) Offer(ts time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.accepted); n > 0 && ts-b.accepted[n-1] < b.minGap {
		return false
	}
	b.accepted = append(b.accepted, ts)
	return true
}

// Snapshot returns a copy of the accepted timestamps in acceptance order.
func (b *Buffer) Snapshot() []time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]time.Duration(nil), b.accepted...)
}

// Len returns the number of accepted timestamps.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.accepted)
}

// Clear drops all accepted timestamps.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.accepted = nil
	b.mu.Unlock()
}
