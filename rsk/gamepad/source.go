package gamepad

import "sync"

// State is a snapshot of the hardware. Timestamp grows whenever any input
// changes.
type State struct {
	ID        string    `json:"id,omitempty"`
	Buttons   []bool    `json:"buttons"`
	Axes      []float64 `json:"axes"`
	Timestamp float64   `json:"timestamp"`
}

// Pressed returns the button at index, false if there is none
func (s *State) Pressed(index int) bool {
	if index < 0 || index >= len(s.Buttons) {
		return false
	}
	return s.Buttons[index]
}

// Axis returns the axis at index, 0 if there is none
func (s *State) Axis(index int) float64 {
	if index < 0 || index >= len(s.Axes) {
		return 0
	}
	return s.Axes[index]
}

// Source provides the live hardware state
type Source interface {
	State() State
}

// LiveSource is a Source that transports write snapshots into. It is safe
// for concurrent use.
type LiveSource struct {
	mu    sync.RWMutex
	state State
}

// NewLiveSource creates a source holding the initial state
func NewLiveSource(initial State) *LiveSource {
	return &LiveSource{state: initial}
}

// Set replaces the current snapshot
func (s *LiveSource) Set(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// State returns the current snapshot
func (s *LiveSource) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
