package nav

// MotionPolicy turns the stuck flag and sector distances into one velocity
// command using a fixed priority order.
type MotionPolicy struct {
	MaxLinear         float64
	MaxAngular        float64
	ObstacleThreshold float64
}

// Decide returns the command for the current tick. First matching rule wins:
//
//  1. stuck: reverse while rotating, ignoring sector distances entirely
//  2. clear ahead: full speed forward
//  3. more room to the left (and actually clear there): rotate left in place
//  4. more room to the right (and actually clear there): rotate right in place
//  5. otherwise: back up straight; a left/right tie favors neither side
func (p MotionPolicy) Decide(stuck bool, sectors SectorDistances) VelocityCommand {
	switch {
	case stuck:
		return VelocityCommand{Linear: -p.MaxLinear, Angular: p.MaxAngular}
	case sectors.Forward > p.ObstacleThreshold:
		return VelocityCommand{Linear: p.MaxLinear}
	case sectors.Left > sectors.Right && sectors.Left > p.ObstacleThreshold:
		return VelocityCommand{Angular: p.MaxAngular}
	case sectors.Right > sectors.Left && sectors.Right > p.ObstacleThreshold:
		return VelocityCommand{Angular: -p.MaxAngular}
	default:
		return VelocityCommand{Linear: -p.MaxLinear}
	}
}
