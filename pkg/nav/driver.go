package nav

import (
	"context"
	"errors"
	"fmt"
	"time"

	customlog "github.com/open-rover/navigator/pkg/log"
)

// DriverState enumerates the waypoint driver's control states.
type DriverState int

const (
	// StateAwaitingSensors means no scan has arrived yet for the current
	// waypoint; the driver defers every decision until one does.
	StateAwaitingSensors DriverState = iota
	// StateNavigating means the driver is issuing commands toward the
	// current waypoint.
	StateNavigating
	// StateArrived is the transient state in which the arrival stop command
	// is emitted and the list advances.
	StateArrived
	// StateComplete means every waypoint has been visited. The driver stays
	// alive but issues no further commands.
	StateComplete
)

// String returns the state name used in logs and telemetry.
func (s DriverState) String() string {
	switch s {
	case StateAwaitingSensors:
		return "AWAITING_SENSORS"
	case StateNavigating:
		return "NAVIGATING"
	case StateArrived:
		return "ARRIVED"
	case StateComplete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("DriverState(%d)", int(s))
	}
}

// Status is a point-in-time snapshot of the driver, reported after every
// control tick that observed a pose.
type Status struct {
	State            string          `json:"state"`
	WaypointIndex    int             `json:"waypoint_index"`
	WaypointCount    int             `json:"waypoint_count"`
	Target           Waypoint        `json:"target"`
	Pose             Pose            `json:"pose"`
	PoseKnown        bool            `json:"pose_known"`
	DistanceToTarget float64         `json:"distance_to_target"`
	Stuck            bool            `json:"stuck"`
	LastCommand      VelocityCommand `json:"last_command"`
	TimestampNs      int64           `json:"timestamp_ns"`
}

// StatusListener receives driver status snapshots. Listeners run on the
// driver goroutine and must not block.
type StatusListener func(Status)

// DriverConfig collects everything a WaypointDriver needs.
type DriverConfig struct {
	Waypoints    []Waypoint
	Tolerance    float64       // arrival distance, meters
	TickInterval time.Duration // control loop pacing

	Detector StuckDetector
	Analyzer ObstacleAnalyzer
	Policy   MotionPolicy

	Poses *PoseTracker
	Scans *RangeScanBuffer
	Sink  CommandSink

	Logger   customlog.Logger
	OnStatus StatusListener // optional
}

// WaypointDriver walks the waypoint list, turning pose and scan snapshots
// into velocity commands once per control tick. It is single-threaded: Run
// owns all mutable state and nothing here is safe for concurrent use.
type WaypointDriver struct {
	logger customlog.Logger

	poses *PoseTracker
	scans *RangeScanBuffer

	detector StuckDetector
	analyzer ObstacleAnalyzer
	policy   MotionPolicy
	sink     CommandSink

	tolerance    float64
	tickInterval time.Duration

	waypoints  []Waypoint
	index      int
	state      DriverState
	checkpoint Checkpoint
	stuck      bool
	lastCmd    VelocityCommand

	onStatus StatusListener
}

// NewWaypointDriver validates the configuration and builds a driver. The
// driver starts at the first waypoint, awaiting its first scan.
func NewWaypointDriver(cfg DriverConfig) (*WaypointDriver, error) {
	if len(cfg.Waypoints) == 0 {
		return nil, errors.New("waypoint driver requires at least one waypoint")
	}
	if cfg.Tolerance <= 0 {
		return nil, errors.New("waypoint driver requires a positive arrival tolerance")
	}
	if cfg.TickInterval <= 0 {
		return nil, errors.New("waypoint driver requires a positive tick interval")
	}
	if cfg.Poses == nil || cfg.Scans == nil {
		return nil, errors.New("waypoint driver requires pose and scan sources")
	}
	if cfg.Sink == nil {
		return nil, errors.New("waypoint driver requires a command sink")
	}
	if cfg.Logger == nil {
		return nil, errors.New("waypoint driver requires a logger")
	}

	waypoints := make([]Waypoint, len(cfg.Waypoints))
	copy(waypoints, cfg.Waypoints)

	return &WaypointDriver{
		logger:       cfg.Logger,
		poses:        cfg.Poses,
		scans:        cfg.Scans,
		detector:     cfg.Detector,
		analyzer:     cfg.Analyzer,
		policy:       cfg.Policy,
		sink:         cfg.Sink,
		tolerance:    cfg.Tolerance,
		tickInterval: cfg.TickInterval,
		waypoints:    waypoints,
		state:        StateAwaitingSensors,
		onStatus:     cfg.OnStatus,
	}, nil
}

// State returns the driver's current control state.
func (d *WaypointDriver) State() DriverState {
	return d.state
}

// Run paces the control loop with a ticker until ctx is canceled: feed
// updates land between ticks, and each tick reads one snapshot of pose and
// scan. After the last waypoint the loop keeps running so the process stays
// alive, but Tick stops producing commands. On cancellation a final zero
// command is sent best-effort.
func (d *WaypointDriver) Run(ctx context.Context) error {
	first := d.waypoints[0]
	d.logger.Infof("Waypoint driver started: %d waypoints, first target (%.3f, %.3f), tick every %v",
		len(d.waypoints), first.X, first.Y, d.tickInterval)

	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := d.sink.PublishVelocity(VelocityCommand{}); err != nil {
				d.logger.Warnf("Could not send final stop command: %v", err)
			}
			d.logger.Infof("Waypoint driver stopped in state %s", d.state)
			return ctx.Err()
		case now := <-ticker.C:
			d.Tick(now)
		}
	}
}

// Tick runs one sense-decide-act pass at time now. The run loop and the
// tests share this path.
func (d *WaypointDriver) Tick(now time.Time) {
	if d.state == StateComplete {
		return
	}

	pose, known := d.poses.Current()

	// The first tick anchors the progress checkpoint; before that there is
	// nothing to measure movement against.
	if d.checkpoint.LastCheck.IsZero() {
		d.checkpoint = Checkpoint{X: pose.X, Y: pose.Y, LastCheck: now}
	}

	if d.state == StateAwaitingSensors {
		if !d.scans.Ready() {
			d.report(now, pose, known, 0)
			return
		}
		d.setState(StateNavigating)
	}

	target := d.waypoints[d.index]
	distance := pose.DistanceTo(target)
	if distance <= d.tolerance {
		d.arrive(now, pose, known, target)
		return
	}

	stuck, checkpoint := d.detector.Check(pose, d.checkpoint, now)
	d.checkpoint = checkpoint
	if stuck != d.stuck {
		if stuck {
			d.logger.Warnf("No progress toward waypoint %d for %v, running recovery maneuver",
				d.index+1, d.detector.TimeWindow)
		} else {
			d.logger.Infof("Progress resumed toward waypoint %d", d.index+1)
		}
		d.stuck = stuck
	}

	sectors, err := d.analyzer.Analyze(d.scans.Current())
	if err != nil {
		// Same treatment as a missing scan: defer, never act on partial
		// coverage.
		d.logger.Warnf("Deferring motion decision: %v", err)
		d.report(now, pose, known, distance)
		return
	}

	d.emit(d.policy.Decide(stuck, sectors))
	d.report(now, pose, known, distance)
}

// arrive emits the single stop command for the reached waypoint and advances
// the list.
func (d *WaypointDriver) arrive(now time.Time, pose Pose, known bool, target Waypoint) {
	d.setState(StateArrived)
	d.emit(VelocityCommand{})
	d.logger.Infof("Reached waypoint %d/%d (%.3f, %.3f)", d.index+1, len(d.waypoints), target.X, target.Y)

	d.index++
	if d.index >= len(d.waypoints) {
		d.setState(StateComplete)
		d.logger.Infof("All %d waypoints visited, navigation complete", len(d.waypoints))
		d.report(now, pose, known, 0)
		return
	}

	next := d.waypoints[d.index]
	d.logger.Infof("Navigating to waypoint %d/%d (%.3f, %.3f)", d.index+1, len(d.waypoints), next.X, next.Y)
	if d.scans.Ready() {
		d.setState(StateNavigating)
	} else {
		d.setState(StateAwaitingSensors)
	}
	d.report(now, pose, known, pose.DistanceTo(next))
}

func (d *WaypointDriver) setState(next DriverState) {
	if d.state == next {
		return
	}
	d.logger.Debugf("Driver state %s -> %s", d.state, next)
	d.state = next
}

func (d *WaypointDriver) emit(cmd VelocityCommand) {
	d.lastCmd = cmd
	if err := d.sink.PublishVelocity(cmd); err != nil {
		// The bridge may be down; the next tick retries by construction.
		d.logger.Errorf("Failed to publish velocity command: %v", err)
	}
}

func (d *WaypointDriver) report(now time.Time, pose Pose, known bool, distance float64) {
	if d.onStatus == nil {
		return
	}

	var target Waypoint
	if d.index < len(d.waypoints) {
		target = d.waypoints[d.index]
	}

	d.onStatus(Status{
		State:            d.state.String(),
		WaypointIndex:    d.index,
		WaypointCount:    len(d.waypoints),
		Target:           target,
		Pose:             pose,
		PoseKnown:        known,
		DistanceToTarget: distance,
		Stuck:            d.stuck,
		LastCommand:      d.lastCmd,
		TimestampNs:      now.UnixNano(),
	})
}
