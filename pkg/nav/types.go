// Package nav implements the reactive waypoint navigation loop: it fuses the
// latest pose and range scan into a velocity command once per control tick,
// walking a fixed waypoint list while avoiding obstacles and recovering from
// stalls.
package nav

import (
	"math"
	"time"
)

// Pose is the robot's planar position and heading.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"` // radians, (-pi, pi]
}

// DistanceTo returns the Euclidean distance from the pose to a waypoint.
func (p Pose) DistanceTo(w Waypoint) float64 {
	return math.Hypot(w.X-p.X, w.Y-p.Y)
}

// Waypoint is one navigation target. Waypoints are immutable once loaded and
// consumed in list order; duplicate entries are visited independently.
type Waypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VelocityCommand is one motion decision handed to the actuator sink.
// Linear is bounded by the policy's MaxLinear, Angular by MaxAngular, both
// signed.
type VelocityCommand struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// SectorDistances holds the nearest obstacle distance within each of the four
// directional sectors of a scan.
type SectorDistances struct {
	Forward  float64 `json:"forward"`
	Left     float64 `json:"left"`
	Right    float64 `json:"right"`
	Backward float64 `json:"backward"`
}

// Checkpoint records where and when forward progress was last evaluated.
type Checkpoint struct {
	X         float64
	Y         float64
	LastCheck time.Time
}

// CommandSink accepts the velocity commands produced by the driver.
type CommandSink interface {
	PublishVelocity(cmd VelocityCommand) error
}
