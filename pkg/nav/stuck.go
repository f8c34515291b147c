package nav

import (
	"math"
	"time"
)

// StuckDetector decides whether the robot has failed to make progress since
// the last checkpoint and should run the recovery maneuver. The check is
// sampled, not continuous: nothing is evaluated until the time window has
// elapsed, so sub-threshold jitter inside the window never triggers it.
type StuckDetector struct {
	// TimeWindow is how long progress may stall before the position is
	// re-examined.
	TimeWindow time.Duration
	// DistanceThreshold is the per-axis displacement below which the robot
	// counts as not having moved.
	DistanceThreshold float64
}

// Check evaluates progress against the checkpoint at time now.
//
// Inside the window it reports not-stuck and leaves the checkpoint alone.
// Once the window has elapsed: if the robot moved less than the threshold on
// BOTH axes it reports stuck and still leaves the checkpoint alone, so every
// later tick keeps reporting stuck until genuine movement shows up. Otherwise
// it advances the checkpoint to the current position and time.
func (d StuckDetector) Check(pose Pose, cp Checkpoint, now time.Time) (bool, Checkpoint) {
	if now.Sub(cp.LastCheck) <= d.TimeWindow {
		return false, cp
	}

	dx := math.Abs(pose.X - cp.X)
	dy := math.Abs(pose.Y - cp.Y)
	if dx < d.DistanceThreshold && dy < d.DistanceThreshold {
		return true, cp
	}

	return false, Checkpoint{X: pose.X, Y: pose.Y, LastCheck: now}
}
