// Package overlay hosts the on-screen gamepad: it owns the gamepad registry,
// runs the polling loop and publishes what the overlay should show.
package overlay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ankurkotwal/remoshock/rsk/common"
	"github.com/ankurkotwal/remoshock/rsk/gamepad"
	"github.com/ankurkotwal/remoshock/rsk/ruleset"
)

// ErrNotReady - a round can only start once a gamepad is connected
var ErrNotReady = errors.New("gamepad not connected")

// Display is everything the overlay page shows
type Display struct {
	Session   string                   `json:"session"`
	Connected bool                     `json:"connected"`
	Gamepad   string                   `json:"gamepad,omitempty"`
	Active    bool                     `json:"active"`
	Status    gamepad.ComplianceStatus `json:"status"`
	Round     string                   `json:"round,omitempty"`
	Stats     ruleset.Stats            `json:"stats"`
	Slots     []Slot                   `json:"slots"`
}

// Slot is one on-screen button
type Slot struct {
	UIIndex int  `json:"uiIndex"`
	Visible bool `json:"visible"`
	Pressed bool `json:"pressed"`
	Desired bool `json:"desired"`
}

// Session serialises all access to the registry and the ruleset. Transports
// write snapshots with Connect/Update, the polling loop runs Poll.
type Session struct {
	mu       sync.Mutex
	id       uuid.UUID
	slots    int
	registry *gamepad.Registry
	source   *gamepad.LiveSource
	stay     *ruleset.Stay

	connected  bool
	hardwareID string
	status     gamepad.ComplianceStatus

	subMu       sync.Mutex
	subscribers map[chan struct{}]struct{}

	log *common.Logger
}

// NewSession creates a session showing slots on-screen buttons
func NewSession(registry *gamepad.Registry, stay *ruleset.Stay, slots int,
	log *common.Logger) *Session {
	s := &Session{
		id:          uuid.New(),
		slots:       slots,
		registry:    registry,
		source:      gamepad.NewLiveSource(gamepad.State{}),
		stay:        stay,
		subscribers: make(map[chan struct{}]struct{}),
		log:         log,
	}
	// Runs inside Connect, the lock is already held
	registry.OnReady(func(r *gamepad.Registry) {
		s.connected = true
		s.status = gamepad.Compliant
		s.log.Msg("Session %s gamepad ready, %d buttons mapped", s.id, len(r.Buttons()))
	})
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id.String()
}

// Connect binds a newly connected gamepad
func (s *Session) Connect(state gamepad.State) {
	s.mu.Lock()
	s.connect(state)
	s.mu.Unlock()
	s.notify()
}

// Update stores a new snapshot, connecting first if needed
func (s *Session) Update(state gamepad.State) {
	s.mu.Lock()
	if s.connected {
		s.source.Set(state)
	} else {
		s.connect(state)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) connect(state gamepad.State) {
	s.hardwareID = state.ID
	s.source.Set(state)
	s.registry.Bind(s.source)
}

// Disconnect ends the round and detaches the gamepad
func (s *Session) Disconnect() {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.stay.Stop()
	s.registry.Unbind()
	s.connected = false
	s.log.Msg("Session %s gamepad %s disconnected", s.id, s.hardwareID)
	s.hardwareID = ""
	s.mu.Unlock()
	s.notify()
}

// Start begins a round
func (s *Session) Start(now time.Time) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.stay.Start(now)
	s.mu.Unlock()
	s.notify()
	return nil
}

// Stop ends the round
func (s *Session) Stop() {
	s.mu.Lock()
	s.stay.Stop()
	s.mu.Unlock()
	s.notify()
}

// Shutdown ends the round and waits for running punishments
func (s *Session) Shutdown() {
	s.Stop()
	s.stay.Wait()
}

// Timestamp returns the timestamp of the latest snapshot
func (s *Session) Timestamp() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source.State().Timestamp
}

// Poll is one pass of the game loop. Only the polling loop may call it.
// Returns true if the display changed.
func (s *Session) Poll(now time.Time) bool {
	s.mu.Lock()
	changed := s.stay.Advance(now)
	if s.registry.HasNewState() {
		s.status = s.registry.CheckComplianceStatus()
		s.stay.Observe(now, s.status)
		changed = true
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return changed
}

// Run polls every interval until ctx is done
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Poll(now)
		}
	}
}

// Display returns the current overlay state
func (s *Session) Display() Display {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Display{
		Session:   s.id.String(),
		Connected: s.connected,
		Gamepad:   s.hardwareID,
		Active:    s.stay.Active(),
		Status:    s.status,
		Round:     s.stay.Round(),
		Stats:     s.stay.Stats(),
		Slots:     make([]Slot, s.slots),
	}
	for i := range d.Slots {
		d.Slots[i].UIIndex = i
		if !s.connected {
			continue
		}
		if b, found := s.registry.ButtonByUIIndex(i); found {
			d.Slots[i].Visible = true
			d.Slots[i].Pressed = s.registry.IsPressed(b)
			d.Slots[i].Desired = b.Desired
		}
	}
	return d
}

// Subscribe returns a channel signalled whenever the display may have
// changed, and a func to unsubscribe
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()
	return ch, func() {
		s.subMu.Lock()
		delete(s.subscribers, ch)
		s.subMu.Unlock()
	}
}

func (s *Session) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
