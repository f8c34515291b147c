package nav

import "sync"

// RangeScanBuffer holds the latest full ranged-distance sample set: one
// distance in meters per angular increment, index 0 aligned with the robot's
// forward axis. Each update replaces the whole set; samples are never merged
// partially. An empty buffer is a first-class condition the driver must check
// before every decision.
type RangeScanBuffer struct {
	mu     sync.RWMutex
	ranges []float64
	seq    uint64
}

// NewRangeScanBuffer returns an empty buffer.
func NewRangeScanBuffer() *RangeScanBuffer {
	return &RangeScanBuffer{}
}

// Update replaces the sample set. The slice is copied so the feed can reuse
// its buffer without tearing a snapshot handed out by Current.
func (b *RangeScanBuffer) Update(samples []float64) {
	snapshot := make([]float64, len(samples))
	copy(snapshot, samples)

	b.mu.Lock()
	b.ranges = snapshot
	b.seq++
	b.mu.Unlock()
}

// Current returns the latest sample set, or an empty slice when no scan has
// arrived. The returned slice is the stored snapshot and must not be
// modified by the caller.
func (b *RangeScanBuffer) Current() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ranges
}

// Ready reports whether at least one scan has been received.
func (b *RangeScanBuffer) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ranges) > 0
}

// Seq returns the number of updates received, for feed liveness reporting.
func (b *RangeScanBuffer) Seq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}
