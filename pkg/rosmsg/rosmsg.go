// Package rosmsg holds JSON mirrors of the ROS 2 messages exchanged with the
// rover bridge, plus the small geometry helpers needed to consume them.
package rosmsg

import (
	"encoding/json"
	"fmt"
	"math"
)

// Message type identifiers as they appear in mission topic mappings.
const (
	TypeOdometry  = "nav_msgs/msg/Odometry"
	TypePose      = "geometry_msgs/msg/Pose"
	TypeLaserScan = "sensor_msgs/msg/LaserScan"
	TypeTwist     = "geometry_msgs/msg/Twist"
)

// Vector3 represents a 3D vector
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Point represents a 3D position
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion represents a rotation
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose mirrors geometry_msgs/msg/Pose
type Pose struct {
	Position    Point      `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Odometry mirrors the pose part of nav_msgs/msg/Odometry as the bridge
// flattens it: the covariance arrays are dropped before transport.
type Odometry struct {
	Pose Pose `json:"pose"`
}

// LaserScan mirrors sensor_msgs/msg/LaserScan
type LaserScan struct {
	AngleMin       float64   `json:"angle_min"`
	AngleMax       float64   `json:"angle_max"`
	AngleIncrement float64   `json:"angle_increment"`
	RangeMin       float64   `json:"range_min"`
	RangeMax       float64   `json:"range_max"`
	Ranges         []float64 `json:"ranges"`
}

// Twist mirrors geometry_msgs/msg/Twist
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// DecodePose parses a pose payload. Both bare Pose payloads and Odometry
// payloads (pose nested one level down) are accepted.
func DecodePose(messageType string, data []byte) (Pose, error) {
	switch messageType {
	case TypeOdometry:
		var odom Odometry
		if err := json.Unmarshal(data, &odom); err != nil {
			return Pose{}, fmt.Errorf("error decoding odometry payload: %w", err)
		}
		return odom.Pose, nil
	case TypePose, "":
		var pose Pose
		if err := json.Unmarshal(data, &pose); err != nil {
			return Pose{}, fmt.Errorf("error decoding pose payload: %w", err)
		}
		return pose, nil
	default:
		return Pose{}, fmt.Errorf("unsupported pose message type: %s", messageType)
	}
}

// DecodeLaserScan parses a laser scan payload.
func DecodeLaserScan(data []byte) (LaserScan, error) {
	var scan LaserScan
	if err := json.Unmarshal(data, &scan); err != nil {
		return LaserScan{}, fmt.Errorf("error decoding laser scan payload: %w", err)
	}
	return scan, nil
}

// EncodeTwist serializes a twist for the command topic.
func EncodeTwist(twist Twist) ([]byte, error) {
	data, err := json.Marshal(twist)
	if err != nil {
		return nil, fmt.Errorf("error encoding twist payload: %w", err)
	}
	return data, nil
}

// Yaw extracts the Z-axis (yaw) Euler angle from a quaternion, in radians
// within (-pi, pi]. Roll and pitch are discarded; a planar robot only steers
// around Z.
func Yaw(q Quaternion) float64 {
	sinyCosp := 2 * (q.W*q.Z + q.X*q.Y)
	cosyCosp := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	return math.Atan2(sinyCosp, cosyCosp)
}
