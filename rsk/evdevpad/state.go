// Package evdevpad reads a gamepad attached to the machine running the
// service and turns its events into gamepad snapshots.
package evdevpad

import (
	"errors"
	"sort"
	"time"

	"github.com/ankurkotwal/remoshock/rsk/gamepad"
)

// ErrUnsupported is returned where evdev is not available
var ErrUnsupported = errors.New("evdev not supported on this platform")

// AxisInfo describes one absolute axis of the device
type AxisInfo struct {
	Code     uint16
	Min, Max int32
}

// Layout lists the keys and axes of a device. Indexes are assigned in
// ascending code order.
type Layout struct {
	Keys []uint16
	Axes []AxisInfo
}

// Sort orders keys and axes by code
func (l *Layout) Sort() {
	sort.Slice(l.Keys, func(i, j int) bool { return l.Keys[i] < l.Keys[j] })
	sort.Slice(l.Axes, func(i, j int) bool { return l.Axes[i].Code < l.Axes[j].Code })
}

// Builder accumulates events until a sync event completes a snapshot
type Builder struct {
	id        string
	layout    Layout
	keyIndex  map[uint16]int
	axisIndex map[uint16]int

	buttons   []bool
	axes      []float64
	dirty     bool
	timestamp float64

	start time.Time
	now   func() time.Time
}

// NewBuilder creates a builder for the device layout
func NewBuilder(id string, layout Layout) *Builder {
	layout.Sort()
	b := &Builder{
		id:        id,
		layout:    layout,
		keyIndex:  make(map[uint16]int, len(layout.Keys)),
		axisIndex: make(map[uint16]int, len(layout.Axes)),
		buttons:   make([]bool, len(layout.Keys)),
		axes:      make([]float64, len(layout.Axes)),
		now:       time.Now,
	}
	for i, code := range layout.Keys {
		b.keyIndex[code] = i
	}
	for i, axis := range layout.Axes {
		b.axisIndex[axis.Code] = i
	}
	b.start = b.now()
	return b
}

// Key records a key event. Value 0 is released, 1 pressed, 2 autorepeat.
func (b *Builder) Key(code uint16, value int32) {
	i, found := b.keyIndex[code]
	if !found {
		return
	}
	pressed := value != 0
	if b.buttons[i] != pressed {
		b.buttons[i] = pressed
		b.dirty = true
	}
}

// Abs records an absolute axis event
func (b *Builder) Abs(code uint16, value int32) {
	i, found := b.axisIndex[code]
	if !found {
		return
	}
	info := b.layout.Axes[i]
	normalized := normalizeAxis(value, info.Min, info.Max)
	if b.axes[i] != normalized {
		b.axes[i] = normalized
		b.dirty = true
	}
}

// Sync completes a snapshot. Returns false if nothing changed since the
// previous one.
func (b *Builder) Sync() (gamepad.State, bool) {
	if !b.dirty {
		return gamepad.State{}, false
	}
	b.dirty = false
	// Milliseconds, strictly increasing
	elapsed := float64(b.now().Sub(b.start).Microseconds()) / 1000
	if elapsed <= b.timestamp {
		elapsed = b.timestamp + 0.001
	}
	b.timestamp = elapsed
	return b.State(), true
}

// State returns a copy of the current snapshot
func (b *Builder) State() gamepad.State {
	buttons := make([]bool, len(b.buttons))
	copy(buttons, b.buttons)
	axes := make([]float64, len(b.axes))
	copy(axes, b.axes)
	return gamepad.State{
		ID:        b.id,
		Buttons:   buttons,
		Axes:      axes,
		Timestamp: b.timestamp,
	}
}

// normalizeAxis maps min..max onto -1..1. Hat switches report -1..1 already.
func normalizeAxis(value, min, max int32) float64 {
	if max <= min {
		return 0
	}
	v := 2*float64(value-min)/float64(max-min) - 1
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	return v
}
