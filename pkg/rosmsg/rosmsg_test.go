package rosmsg

import (
	"math"
	"testing"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestYaw(t *testing.T) {
	// Identity quaternion points along +X
	if yaw := Yaw(Quaternion{W: 1}); !floatEquals(yaw, 0) {
		t.Errorf("Expected yaw 0 for identity quaternion, got %f", yaw)
	}

	// 90 degrees about Z
	halfSqrt2 := math.Sqrt2 / 2
	if yaw := Yaw(Quaternion{Z: halfSqrt2, W: halfSqrt2}); !floatEquals(yaw, math.Pi/2) {
		t.Errorf("Expected yaw pi/2, got %f", yaw)
	}

	// 180 degrees about Z
	if yaw := Yaw(Quaternion{Z: 1}); !floatEquals(yaw, math.Pi) {
		t.Errorf("Expected yaw pi, got %f", yaw)
	}

	// -90 degrees about Z
	if yaw := Yaw(Quaternion{Z: -halfSqrt2, W: halfSqrt2}); !floatEquals(yaw, -math.Pi/2) {
		t.Errorf("Expected yaw -pi/2, got %f", yaw)
	}

	// Roll/pitch components must not leak into yaw for a pure Z rotation
	// composed with small X tilt
	q := Quaternion{X: 0.1, Y: 0, Z: 0, W: math.Sqrt(1 - 0.01)}
	if yaw := Yaw(q); !floatEquals(yaw, 0) {
		t.Errorf("Expected yaw 0 for pure roll quaternion, got %f", yaw)
	}
}

func TestDecodePose(t *testing.T) {
	odomPayload := []byte(`{"pose":{"position":{"x":1.5,"y":-2.25,"z":0.0},"orientation":{"x":0,"y":0,"z":0.7071067811865476,"w":0.7071067811865476}}}`)

	pose, err := DecodePose(TypeOdometry, odomPayload)
	if err != nil {
		t.Fatalf("DecodePose failed for odometry payload: %v", err)
	}
	if pose.Position.X != 1.5 || pose.Position.Y != -2.25 {
		t.Errorf("Expected position (1.5, -2.25), got (%f, %f)", pose.Position.X, pose.Position.Y)
	}
	if yaw := Yaw(pose.Orientation); !floatEquals(yaw, math.Pi/2) {
		t.Errorf("Expected yaw pi/2 from odometry orientation, got %f", yaw)
	}

	barePayload := []byte(`{"position":{"x":3,"y":4,"z":0},"orientation":{"x":0,"y":0,"z":0,"w":1}}`)
	pose, err = DecodePose(TypePose, barePayload)
	if err != nil {
		t.Fatalf("DecodePose failed for bare pose payload: %v", err)
	}
	if pose.Position.X != 3 || pose.Position.Y != 4 {
		t.Errorf("Expected position (3, 4), got (%f, %f)", pose.Position.X, pose.Position.Y)
	}

	if _, err := DecodePose(TypeOdometry, []byte(`{`)); err == nil {
		t.Errorf("Expected error for malformed pose payload, got nil")
	}

	if _, err := DecodePose("sensor_msgs/msg/Imu", barePayload); err == nil {
		t.Errorf("Expected error for unsupported pose message type, got nil")
	}
}

func TestDecodeLaserScan(t *testing.T) {
	payload := []byte(`{"angle_min":0,"angle_max":6.28318,"angle_increment":0.0174533,"range_min":0.12,"range_max":12.0,"ranges":[1.0,2.0,3.5]}`)

	scan, err := DecodeLaserScan(payload)
	if err != nil {
		t.Fatalf("DecodeLaserScan failed: %v", err)
	}
	if len(scan.Ranges) != 3 {
		t.Fatalf("Expected 3 ranges, got %d", len(scan.Ranges))
	}
	if scan.Ranges[2] != 3.5 {
		t.Errorf("Expected third range 3.5, got %f", scan.Ranges[2])
	}
	if !floatEquals(scan.AngleIncrement, 0.0174533) {
		t.Errorf("Expected angle_increment 0.0174533, got %f", scan.AngleIncrement)
	}

	if _, err := DecodeLaserScan([]byte(`not json`)); err == nil {
		t.Errorf("Expected error for malformed scan payload, got nil")
	}
}

func TestEncodeTwist(t *testing.T) {
	data, err := EncodeTwist(Twist{
		Linear:  Vector3{X: 0.2},
		Angular: Vector3{Z: -0.5},
	})
	if err != nil {
		t.Fatalf("EncodeTwist failed: %v", err)
	}

	expected := `{"linear":{"x":0.2,"y":0,"z":0},"angular":{"x":0,"y":0,"z":-0.5}}`
	if string(data) != expected {
		t.Errorf("Expected twist JSON %s, got %s", expected, string(data))
	}
}
