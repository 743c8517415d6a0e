package gamepad

import "fmt"

// ComplianceStatus says how well the player follows the desired buttons.
// The values are ordered, a larger value is a worse status.
type ComplianceStatus int

const (
	// Compliant - every button is in its desired state
	Compliant ComplianceStatus = iota
	// Pending - some button is wrong but has not changed since the last check
	Pending
	// Violated - some button has just changed into a wrong state
	Violated
)

var statusNames = [...]string{"COMPLIANT", "PENDING", "VIOLATED"}

func (s ComplianceStatus) String() string {
	if s < Compliant || s > Violated {
		return fmt.Sprintf("ComplianceStatus(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler
func (s ComplianceStatus) MarshalText() ([]byte, error) {
	if s < Compliant || s > Violated {
		return nil, fmt.Errorf("invalid compliance status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *ComplianceStatus) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = ComplianceStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown compliance status %q", text)
}

// Worst returns the worse of the two statuses
func Worst(a, b ComplianceStatus) ComplianceStatus {
	if a > b {
		return a
	}
	return b
}

// WorstOf reduces statuses with Worst. No statuses is Compliant.
func WorstOf(statuses ...ComplianceStatus) ComplianceStatus {
	worst := Compliant
	for _, s := range statuses {
		worst = Worst(worst, s)
	}
	return worst
}
