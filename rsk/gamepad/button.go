package gamepad

// axisThreshold is how far an axis must move before it counts as pressed
const axisThreshold = 0.5

// Button is a logical on-screen button. It reads either a hardware button
// or one direction of a hardware axis.
type Button struct {
	UIIndex       int
	HardwareIndex int
	Direction     Direction

	// Desired is set by the ruleset to what the player should be doing
	Desired bool

	// pressed state seen by the previous compliance check
	last bool
}

// LastObserved returns the pressed state remembered by the last compliance check
func (b *Button) LastObserved() bool {
	return b.last
}

// IsAxis returns true for axis based buttons
func (b *Button) IsAxis() bool {
	return b.Direction != None
}

func (b *Button) pressedIn(state *State) bool {
	if b.Direction == None {
		return state.Pressed(b.HardwareIndex)
	}
	return state.Axis(b.HardwareIndex)*float64(b.Direction) > axisThreshold
}

// checkCompliance rates the pressed state against the desired state and
// remembers it for the next check. A fresh wrong state is Violated, a wrong
// state held since the last check is only Pending.
func (b *Button) checkCompliance(pressed bool) ComplianceStatus {
	status := Violated
	if pressed == b.Desired {
		status = Compliant
	} else if pressed == b.last {
		status = Pending
	}
	b.last = pressed
	return status
}

// isOppositeDirection - same hardware axis, pointing the other way
func (b *Button) isOppositeDirection(other *Button) bool {
	return b.IsAxis() && other.IsAxis() &&
		b.HardwareIndex == other.HardwareIndex && b.Direction == -other.Direction
}

// ResetDesiredStatus retires the target of this button
func (b *Button) ResetDesiredStatus() {
	b.Desired = false
	b.last = false
}
