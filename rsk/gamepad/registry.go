package gamepad

import (
	"github.com/ankurkotwal/remoshock/rsk/common"
)

// Registry holds the logical buttons of one gamepad and the hardware source
// they read from.
//
// A Registry is not safe for concurrent use. HasNewState has a side effect
// and must only be called by a single poller.
type Registry struct {
	mapping   Mapping
	buttons   []*Button
	byUIIndex map[int]*Button

	source              Source
	lastChangeTimestamp float64
	onReady             func(*Registry)

	log *common.Logger
}

// NewRegistry parses the mapping and creates the buttons. Hardware is
// attached later with Bind.
func NewRegistry(mapping string, maxButtons int, log *common.Logger) (*Registry, error) {
	parsed, err := ParseMapping(mapping, maxButtons)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		mapping:   parsed,
		buttons:   make([]*Button, 0, len(parsed.Bindings)),
		byUIIndex: make(map[int]*Button, len(parsed.Bindings)),
		log:       log,
	}
	for _, binding := range parsed.Bindings {
		button := &Button{
			UIIndex:       binding.UIIndex,
			HardwareIndex: binding.HardwareIndex,
			Direction:     binding.Direction,
		}
		r.buttons = append(r.buttons, button)
		r.byUIIndex[binding.UIIndex] = button
	}
	return r, nil
}

// OnReady registers the callback run each time hardware is bound
func (r *Registry) OnReady(fn func(*Registry)) {
	r.onReady = fn
}

// Bind attaches the hardware source and signals readiness once
func (r *Registry) Bind(source Source) {
	if source == nil {
		r.Unbind()
		return
	}
	r.source = source
	// A new connection brings its own timestamps
	r.lastChangeTimestamp = 0

	state := source.State()
	if r.log != nil {
		r.log.Msg("Gamepad connected: %s. %d buttons, %d axes.", state.ID,
			len(state.Buttons), len(state.Axes))
		for _, b := range r.buttons {
			if b.IsAxis() && b.HardwareIndex >= len(state.Axes) ||
				!b.IsAxis() && b.HardwareIndex >= len(state.Buttons) {
				r.log.Err("Mapping slot %d uses input %d%s which the gamepad does not have",
					b.UIIndex, b.HardwareIndex, b.Direction)
			}
		}
	}
	if r.onReady != nil {
		r.onReady(r)
	}
}

// Unbind detaches the hardware source
func (r *Registry) Unbind() {
	r.source = nil
}

// Bound returns true once hardware is attached
func (r *Registry) Bound() bool {
	return r.source != nil
}

// Mapping returns the parsed mapping
func (r *Registry) Mapping() Mapping {
	return r.mapping
}

// Buttons returns the buttons in mapping order
func (r *Registry) Buttons() []*Button {
	return r.buttons
}

// HasNewState reports whether the hardware changed since the last call.
// Without hardware it is always false.
func (r *Registry) HasNewState() bool {
	if r.source == nil {
		return false
	}
	timestamp := r.source.State().Timestamp
	changes := timestamp > r.lastChangeTimestamp
	r.lastChangeTimestamp = timestamp
	return changes
}

// ButtonByUIIndex looks up a button. Skipped and out of range indices are
// not found.
func (r *Registry) ButtonByUIIndex(index int) (*Button, bool) {
	b, found := r.byUIIndex[index]
	return b, found
}

// IsPressed returns whether the player currently presses the button
func (r *Registry) IsPressed(b *Button) bool {
	if r.source == nil {
		return false
	}
	state := r.source.State()
	return b.pressedIn(&state)
}

// CheckComplianceStatus checks every button against its desired state and
// returns the worst result. Without hardware nothing is checked.
func (r *Registry) CheckComplianceStatus() ComplianceStatus {
	if r.source == nil {
		return Compliant
	}
	state := r.source.State()
	status := Compliant
	for _, b := range r.buttons {
		status = Worst(status, b.checkCompliance(b.pressedIn(&state)))
	}
	return status
}

// IsButtonPossible returns false if the button can't be pressed together
// with the desired buttons, e.g. the opposite direction on the d-pad
func (r *Registry) IsButtonPossible(candidate *Button) bool {
	for _, b := range r.buttons {
		if b != candidate && b.Desired && b.isOppositeDirection(candidate) {
			return false
		}
	}
	return true
}

// DesiredButtons returns the buttons that currently have a target
func (r *Registry) DesiredButtons() []*Button {
	var desired []*Button
	for _, b := range r.buttons {
		if b.Desired {
			desired = append(desired, b)
		}
	}
	return desired
}

// ResetDesiredButtonStatus retires the targets of all buttons
func (r *Registry) ResetDesiredButtonStatus() {
	for _, b := range r.buttons {
		b.ResetDesiredStatus()
	}
}
