package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v3"
)

// Topic mapping directions, from the navigator's point of view.
const (
	DirectionInbound  = "INBOUND"  // robot bridge -> navigator (pose, scans)
	DirectionOutbound = "OUTBOUND" // navigator -> robot bridge (velocity commands)
)

// MissionConfig represents a navigation mission: the waypoint list, the
// navigation constants the decision loop runs with, and the topic mappings
// that bind the mission to the robot bridge.
type MissionConfig struct {
	Version       string           `yaml:"version" json:"version"`
	MissionID     string           `yaml:"mission_id" json:"mission_id"`
	LastUpdated   string           `yaml:"last_updated" json:"last_updated"`
	RobotID       string           `yaml:"robot_id" json:"robot_id"`
	Navigation    NavigationConfig `yaml:"navigation" json:"navigation"`
	Sectors       SectorsConfig    `yaml:"sectors" json:"sectors"`
	Waypoints     []WaypointConfig `yaml:"waypoints" json:"waypoints"`
	TopicMappings []TopicMapping   `yaml:"topic_mappings" json:"topic_mappings"`
	Defaults      DefaultsConfig   `yaml:"defaults" json:"defaults"`
}

// NavigationConfig holds the decision-loop constants. They are fixed for the
// lifetime of the process; a staged mission update only applies on restart.
type NavigationConfig struct {
	MaxLinearVelocity      float64 `yaml:"max_linear_velocity" json:"max_linear_velocity"`
	MaxAngularVelocity     float64 `yaml:"max_angular_velocity" json:"max_angular_velocity"`
	ObstacleThreshold      float64 `yaml:"obstacle_threshold" json:"obstacle_threshold"`
	WaypointTolerance      float64 `yaml:"waypoint_tolerance" json:"waypoint_tolerance"`
	StuckTimeThreshold     float64 `yaml:"stuck_time_threshold" json:"stuck_time_threshold"`
	StuckDistanceThreshold float64 `yaml:"stuck_distance_threshold" json:"stuck_distance_threshold"`
	ControlRateHz          int     `yaml:"control_rate_hz" json:"control_rate_hz"`
}

// StuckWindow returns the stuck time threshold as a duration.
func (n NavigationConfig) StuckWindow() time.Duration {
	return time.Duration(n.StuckTimeThreshold * float64(time.Second))
}

// TickInterval returns the pacing interval of the control loop.
func (n NavigationConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(n.ControlRateHz)
}

// SectorsConfig holds the four angular index ranges the obstacle analyzer
// reduces a scan into. Each range is a two-element [start, end) pair of scan
// indices, assuming one sample per degree.
type SectorsConfig struct {
	Forward  []int `yaml:"forward" json:"forward"`
	Left     []int `yaml:"left" json:"left"`
	Right    []int `yaml:"right" json:"right"`
	Backward []int `yaml:"backward" json:"backward"`
}

// WaypointConfig is one target coordinate in the mission list.
type WaypointConfig struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// TopicMapping represents a mapping between ROS topics and rover bridge topics
type TopicMapping struct {
	TopicID     string `yaml:"topic_id" json:"topic_id"`
	RosTopic    string `yaml:"ros_topic" json:"ros_topic"`
	RoverTopic  string `yaml:"rover" json:"rover"`
	MessageType string `yaml:"message_type" json:"message_type"`
	Priority    string `yaml:"priority" json:"priority"`
	Direction   string `yaml:"direction" json:"direction"`
}

// DefaultsConfig holds default values for topic mappings
type DefaultsConfig struct {
	Priority  string `yaml:"priority" json:"priority"`
	Direction string `yaml:"direction" json:"direction"`
}

// LoadMissionConfig loads and validates a mission from the specified file path.
func LoadMissionConfig(path string) (*MissionConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading mission config file: %w", err)
	}
	return ParseMissionConfig(data)
}

// ParseMissionConfig parses and validates mission YAML held in memory.
func ParseMissionConfig(data []byte) (*MissionConfig, error) {
	var mission MissionConfig
	if err := yaml.Unmarshal(data, &mission); err != nil {
		return nil, fmt.Errorf("error parsing mission config: %w", err)
	}
	if err := mission.Validate(); err != nil {
		return nil, err
	}
	return &mission, nil
}

// Validate checks the mission for values the decision loop cannot run with.
// It fills the control rate default when unset.
func (c *MissionConfig) Validate() error {
	nav := &c.Navigation
	if nav.MaxLinearVelocity <= 0 {
		return fmt.Errorf("invalid mission config: navigation.max_linear_velocity must be positive")
	}
	if nav.MaxAngularVelocity <= 0 {
		return fmt.Errorf("invalid mission config: navigation.max_angular_velocity must be positive")
	}
	if nav.ObstacleThreshold <= 0 {
		return fmt.Errorf("invalid mission config: navigation.obstacle_threshold must be positive")
	}
	if nav.WaypointTolerance <= 0 {
		return fmt.Errorf("invalid mission config: navigation.waypoint_tolerance must be positive")
	}
	if nav.StuckTimeThreshold <= 0 {
		return fmt.Errorf("invalid mission config: navigation.stuck_time_threshold must be positive")
	}
	if nav.StuckDistanceThreshold <= 0 {
		return fmt.Errorf("invalid mission config: navigation.stuck_distance_threshold must be positive")
	}
	if nav.ControlRateHz < 0 {
		return fmt.Errorf("invalid mission config: navigation.control_rate_hz must not be negative")
	}
	if nav.ControlRateHz == 0 {
		nav.ControlRateHz = 20
	}

	for name, r := range map[string][]int{
		"sectors.forward":  c.Sectors.Forward,
		"sectors.left":     c.Sectors.Left,
		"sectors.right":    c.Sectors.Right,
		"sectors.backward": c.Sectors.Backward,
	} {
		if len(r) != 2 {
			return fmt.Errorf("invalid mission config: %s must be a [start, end) index pair", name)
		}
		if r[0] < 0 || r[0] >= r[1] {
			return fmt.Errorf("invalid mission config: %s range [%d, %d) is not valid", name, r[0], r[1])
		}
	}

	if len(c.Waypoints) == 0 {
		return fmt.Errorf("invalid mission config: at least one waypoint is required")
	}

	for _, mapping := range c.TopicMappings {
		direction := mapping.Direction
		if direction == "" {
			direction = c.Defaults.Direction
		}
		if direction != DirectionInbound && direction != DirectionOutbound {
			return fmt.Errorf("invalid mission config: topic %q has unknown direction %q", mapping.RoverTopic, mapping.Direction)
		}
	}

	return nil
}

// GetTopicMappingsByDirection returns topic mappings filtered by direction
func (c *MissionConfig) GetTopicMappingsByDirection(direction string) []TopicMapping {
	var result []TopicMapping

	for _, mapping := range c.TopicMappings {
		// If mapping doesn't have direction, use default
		mappingDirection := mapping.Direction
		if mappingDirection == "" {
			mappingDirection = c.Defaults.Direction
		}

		if mappingDirection == direction {
			result = append(result, applyDefaults(mapping, c.Defaults))
		}
	}

	return result
}

// GetTopicMappingByRoverTopic returns the topic mapping for a rover bridge topic
func (c *MissionConfig) GetTopicMappingByRoverTopic(roverTopic string) (TopicMapping, bool) {
	for _, mapping := range c.TopicMappings {
		if mapping.RoverTopic == roverTopic {
			return applyDefaults(mapping, c.Defaults), true
		}
	}

	return TopicMapping{}, false
}

// applyDefaults merges default values into a topic mapping where fields are empty
func applyDefaults(mapping TopicMapping, defaults DefaultsConfig) TopicMapping {
	result := mapping

	if result.Priority == "" {
		result.Priority = defaults.Priority
	}

	if result.Direction == "" {
		result.Direction = defaults.Direction
	}

	return result
}
