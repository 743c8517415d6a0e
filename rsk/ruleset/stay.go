package ruleset

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ankurkotwal/remoshock/rsk/common"
	"github.com/ankurkotwal/remoshock/rsk/gamepad"
)

// Punisher is the consequence of a violation
type Punisher interface {
	Punish(ctx context.Context) error
}

// Stats counts the compliance results seen during a round
type Stats struct {
	Compliant   int `json:"compliant"`
	Pending     int `json:"pending"`
	Violated    int `json:"violated"`
	Punishments int `json:"punishments"`
	Targets     int `json:"targets"`
}

// Stay asks the player to hold a changing set of buttons. Every change
// interval the current targets are retired and new ones picked. Violations
// are punished, at most once per cooldown.
//
// Stay is driven by a single poller, like the registry it works on.
type Stay struct {
	registry *gamepad.Registry
	punisher Punisher
	cfg      common.RulesetData
	rand     *rand.Rand
	log      *common.Logger

	active     bool
	round      uuid.UUID
	nextChange time.Time
	lastPunish time.Time
	stats      Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStay creates the ruleset. rnd may be nil.
func NewStay(registry *gamepad.Registry, punisher Punisher, cfg *common.RulesetData,
	rnd *rand.Rand, log *common.Logger) *Stay {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Stay{
		registry: registry,
		punisher: punisher,
		cfg:      *cfg,
		rand:     rnd,
		log:      log,
	}
}

// Start begins a new round with fresh targets
func (s *Stay) Start(now time.Time) {
	if s.active {
		return
	}
	s.active = true
	s.round = uuid.New()
	s.stats = Stats{}
	s.lastPunish = time.Time{}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.log.Msg("Round %s started", s.round)
	s.retarget(now)
}

// Stop ends the round and retires every target
func (s *Stay) Stop() {
	if !s.active {
		return
	}
	s.active = false
	s.cancel()
	s.registry.ResetDesiredButtonStatus()
	s.log.Msg("Round %s stopped. %d violations, %d punishments", s.round,
		s.stats.Violated, s.stats.Punishments)
}

// Wait blocks until running punishments are done
func (s *Stay) Wait() {
	s.wg.Wait()
}

// Active returns true during a round
func (s *Stay) Active() bool {
	return s.active
}

// Round returns the id of the current or last round
func (s *Stay) Round() string {
	if s.round == uuid.Nil {
		return ""
	}
	return s.round.String()
}

// Stats returns the counters of the current or last round
func (s *Stay) Stats() Stats {
	return s.stats
}

// Advance picks new targets once the change interval passed. Returns true
// if the targets changed.
func (s *Stay) Advance(now time.Time) bool {
	if !s.active || now.Before(s.nextChange) {
		return false
	}
	s.retarget(now)
	return true
}

// Observe consumes a compliance result
func (s *Stay) Observe(now time.Time, status gamepad.ComplianceStatus) {
	if !s.active {
		return
	}
	switch status {
	case gamepad.Compliant:
		s.stats.Compliant++
	case gamepad.Pending:
		s.stats.Pending++
	case gamepad.Violated:
		s.stats.Violated++
		cooldown := time.Duration(s.cfg.Cooldown) * time.Millisecond
		if !s.lastPunish.IsZero() && now.Sub(s.lastPunish) < cooldown {
			return
		}
		s.lastPunish = now
		s.punish()
	}
}

func (s *Stay) punish() {
	s.stats.Punishments++
	s.log.Msg("Round %s violation, punishment %d", s.round, s.stats.Punishments)
	if s.punisher == nil {
		return
	}
	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.punisher.Punish(ctx); err != nil && ctx.Err() == nil {
			s.log.Err("Punishment failed %s", err)
		}
	}()
}

// retarget retires the current targets and picks new possible ones
func (s *Stay) retarget(now time.Time) {
	for _, b := range s.registry.DesiredButtons() {
		if b.LastObserved() {
			// Complied, keep the memory so letting go is not a violation
			b.Desired = false
		} else {
			b.ResetDesiredStatus()
		}
	}

	buttons := s.registry.Buttons()
	count := s.cfg.MinButtons
	if s.cfg.MaxButtons > s.cfg.MinButtons {
		count += s.rand.Intn(s.cfg.MaxButtons - s.cfg.MinButtons + 1)
	}
	picked := 0
	for _, i := range s.rand.Perm(len(buttons)) {
		if picked >= count {
			break
		}
		if s.registry.IsButtonPossible(buttons[i]) {
			buttons[i].Desired = true
			picked++
		}
	}
	s.stats.Targets++
	s.nextChange = now.Add(time.Duration(s.cfg.ChangeInterval) * time.Millisecond)
	s.log.Dbg("Round %s picked %d targets", s.round, picked)
}
