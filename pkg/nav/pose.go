package nav

import "sync"

// PoseTracker holds the latest pose reported by the rover bridge. It is a
// last-writer-wins cell: the feed goroutine writes, the control tick reads,
// and no timestamp ordering is enforced beyond trusting feed order.
type PoseTracker struct {
	mu   sync.RWMutex
	pose Pose
	set  bool
	seq  uint64
}

// NewPoseTracker returns an empty tracker. Current reports unset until the
// first update arrives.
func NewPoseTracker() *PoseTracker {
	return &PoseTracker{}
}

// Update overwrites the tracked pose unconditionally.
func (t *PoseTracker) Update(p Pose) {
	t.mu.Lock()
	t.pose = p
	t.set = true
	t.seq++
	t.mu.Unlock()
}

// Current returns the latest pose and whether any update has arrived yet.
func (t *PoseTracker) Current() (Pose, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pose, t.set
}

// Seq returns the number of updates received, for feed liveness reporting.
func (t *PoseTracker) Seq() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seq
}
