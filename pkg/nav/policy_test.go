package nav

import "testing"

func testPolicy() MotionPolicy {
	return MotionPolicy{
		MaxLinear:         0.2,
		MaxAngular:        0.5,
		ObstacleThreshold: 0.8,
	}
}

func TestMotionPolicyForwardClear(t *testing.T) {
	policy := testPolicy()

	// Forward wins regardless of how much room the sides have.
	cmd := policy.Decide(false, SectorDistances{Forward: 5.0, Left: 9.0, Right: 9.0, Backward: 5.0})
	if cmd != (VelocityCommand{Linear: 0.2}) {
		t.Errorf("Expected {0.2, 0}, got %+v", cmd)
	}
}

func TestMotionPolicyTurnsTowardRoomierSide(t *testing.T) {
	policy := testPolicy()

	// Scenario: forward blocked, clearly more room to the left.
	cmd := policy.Decide(false, SectorDistances{Forward: 0.3, Left: 0.9, Right: 0.5})
	if cmd != (VelocityCommand{Angular: 0.5}) {
		t.Errorf("Expected left turn {0, 0.5}, got %+v", cmd)
	}

	// Mirror image turns right.
	cmd = policy.Decide(false, SectorDistances{Forward: 0.3, Left: 0.5, Right: 0.9})
	if cmd != (VelocityCommand{Angular: -0.5}) {
		t.Errorf("Expected right turn {0, -0.5}, got %+v", cmd)
	}
}

func TestMotionPolicyBacksUpWithoutClearDirection(t *testing.T) {
	policy := testPolicy()

	// Scenario: equal cramped sides. No tie-break favors either side.
	cmd := policy.Decide(false, SectorDistances{Forward: 0.3, Left: 0.4, Right: 0.4})
	if cmd != (VelocityCommand{Linear: -0.2}) {
		t.Errorf("Expected back up {-0.2, 0}, got %+v", cmd)
	}

	// A side can have more room than the other yet still be below the
	// threshold: both turn rules require actual clearance.
	cmd = policy.Decide(false, SectorDistances{Forward: 0.3, Left: 0.7, Right: 0.5})
	if cmd != (VelocityCommand{Linear: -0.2}) {
		t.Errorf("Expected back up for sub-threshold left, got %+v", cmd)
	}

	// Threshold comparisons are strict.
	cmd = policy.Decide(false, SectorDistances{Forward: 0.8, Left: 0.8, Right: 0.8})
	if cmd != (VelocityCommand{Linear: -0.2}) {
		t.Errorf("Expected back up at exact threshold, got %+v", cmd)
	}
}

func TestMotionPolicyStuckOverridesEverything(t *testing.T) {
	policy := testPolicy()

	// Even a fully clear field yields the recovery maneuver while stuck.
	cmd := policy.Decide(true, SectorDistances{Forward: 9.0, Left: 9.0, Right: 9.0, Backward: 9.0})
	if cmd != (VelocityCommand{Linear: -0.2, Angular: 0.5}) {
		t.Errorf("Expected recovery {-0.2, 0.5}, got %+v", cmd)
	}

	cmd = policy.Decide(true, SectorDistances{})
	if cmd != (VelocityCommand{Linear: -0.2, Angular: 0.5}) {
		t.Errorf("Expected recovery {-0.2, 0.5} with zero sectors, got %+v", cmd)
	}
}
