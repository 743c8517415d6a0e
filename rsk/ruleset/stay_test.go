package ruleset

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ankurkotwal/remoshock/rsk/common"
	"github.com/ankurkotwal/remoshock/rsk/gamepad"
)

type fakePunisher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakePunisher) Punish(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *fakePunisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestStay(t *testing.T, mapping string, cfg common.RulesetData) (*Stay,
	*gamepad.Registry, *fakePunisher) {
	t.Helper()
	log := common.NewLog()
	registry, err := gamepad.NewRegistry(mapping, 13, log)
	if err != nil {
		t.Fatal(err)
	}
	punisher := &fakePunisher{}
	stay := NewStay(registry, punisher, &cfg, rand.New(rand.NewSource(1)), log)
	return stay, registry, punisher
}

var start = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

func TestStay_StartPicksTargets(t *testing.T) {
	stay, registry, _ := newTestStay(t, "2 5- 1 4- * 4+ 3 5+ 0", common.RulesetData{
		ChangeInterval: 1000, MinButtons: 2, MaxButtons: 4})
	if stay.Active() || stay.Round() != "" {
		t.Error("Expected inactive ruleset")
	}
	stay.Start(start)
	if !stay.Active() || len(stay.Round()) == 0 {
		t.Error("Expected active round")
	}
	desired := registry.DesiredButtons()
	if len(desired) < 2 || len(desired) > 4 {
		t.Errorf("Expected 2-4 targets, got %d", len(desired))
	}
	assertPossible(t, registry)
}

func TestStay_NeverPicksOppositeDirections(t *testing.T) {
	// Only opposite pairs, at most one of each pair can be desired
	stay, registry, _ := newTestStay(t, "0- 0+ 1- 1+", common.RulesetData{
		ChangeInterval: 10, MinButtons: 4, MaxButtons: 4})
	stay.Start(start)
	now := start
	for i := 0; i < 50; i++ {
		now = now.Add(10 * time.Millisecond)
		if !stay.Advance(now) {
			t.Fatal("Expected targets to change")
		}
		if n := len(registry.DesiredButtons()); n != 2 {
			t.Fatalf("Expected 2 possible targets, got %d", n)
		}
		assertPossible(t, registry)
	}
}

func assertPossible(t *testing.T, registry *gamepad.Registry) {
	t.Helper()
	for _, b := range registry.DesiredButtons() {
		b.Desired = false
		if !registry.IsButtonPossible(b) {
			t.Errorf("Target %d conflicts with another target", b.UIIndex)
		}
		b.Desired = true
	}
}

func TestStay_Advance(t *testing.T) {
	stay, _, _ := newTestStay(t, "0 1 2", common.RulesetData{
		ChangeInterval: 1000, MinButtons: 1, MaxButtons: 1})
	if stay.Advance(start) {
		t.Error("Inactive ruleset must not change targets")
	}
	stay.Start(start)
	if stay.Advance(start.Add(999 * time.Millisecond)) {
		t.Error("Expected no change before the interval")
	}
	if !stay.Advance(start.Add(time.Second)) {
		t.Error("Expected change after the interval")
	}
	if stay.Stats().Targets != 2 {
		t.Errorf("Expected 2 target sets, got %d", stay.Stats().Targets)
	}
}

func TestStay_Stop(t *testing.T) {
	stay, registry, _ := newTestStay(t, "0 1 2", common.RulesetData{
		ChangeInterval: 1000, MinButtons: 3, MaxButtons: 3})
	stay.Start(start)
	if len(registry.DesiredButtons()) != 3 {
		t.Fatal("Expected 3 targets")
	}
	stay.Stop()
	if stay.Active() {
		t.Error("Expected inactive after stop")
	}
	if len(registry.DesiredButtons()) != 0 {
		t.Error("Expected targets retired on stop")
	}
	stay.Stop()
}

func TestStay_RetargetKeepsCompliedMemory(t *testing.T) {
	stay, registry, _ := newTestStay(t, "0", common.RulesetData{
		ChangeInterval: 1000, MinButtons: 1, MaxButtons: 1})
	source := gamepad.NewLiveSource(gamepad.State{Buttons: []bool{false}})
	registry.Bind(source)
	stay.Start(start)

	b, _ := registry.ButtonByUIIndex(0)
	source.Set(gamepad.State{Buttons: []bool{true}, Timestamp: 1})
	if registry.CheckComplianceStatus() != gamepad.Compliant {
		t.Fatal("Expected compliant")
	}
	// Retire by hand through retarget with no buttons picked
	stay.cfg.MinButtons = 0
	stay.cfg.MaxButtons = 0
	stay.Advance(start.Add(time.Second))
	if b.Desired {
		t.Fatal("Expected target retired")
	}
	if got := registry.CheckComplianceStatus(); got != gamepad.Pending {
		t.Errorf("Still holding a retired target should be pending, got %s", got)
	}
}

func TestStay_Observe(t *testing.T) {
	stay, _, punisher := newTestStay(t, "0", common.RulesetData{
		ChangeInterval: 1000, MinButtons: 1, MaxButtons: 1, Cooldown: 5000})
	stay.Observe(start, gamepad.Violated)
	if stay.Stats().Violated != 0 {
		t.Error("Inactive ruleset must ignore results")
	}

	stay.Start(start)
	stay.Observe(start, gamepad.Compliant)
	stay.Observe(start, gamepad.Pending)
	stay.Observe(start, gamepad.Violated)
	stay.Observe(start.Add(time.Second), gamepad.Violated)
	stay.Observe(start.Add(6*time.Second), gamepad.Violated)
	stay.Wait()

	stats := stay.Stats()
	if stats.Compliant != 1 || stats.Pending != 1 || stats.Violated != 3 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.Punishments != 2 || punisher.count() != 2 {
		t.Errorf("Expected 2 punishments within cooldown, got %d/%d", stats.Punishments,
			punisher.count())
	}
}

func TestStay_PunishmentError(t *testing.T) {
	stay, _, punisher := newTestStay(t, "0", common.RulesetData{
		ChangeInterval: 1000, MinButtons: 1, MaxButtons: 1})
	punisher.err = errors.New("device offline")
	stay.Start(start)
	stay.Observe(start, gamepad.Violated)
	stay.Wait()

	found := false
	for _, entry := range stay.log.Snapshot() {
		if entry.IsError {
			found = true
		}
	}
	if !found {
		t.Error("Expected failed punishment to be logged")
	}
}

func TestStay_NoPunisher(t *testing.T) {
	log := common.NewLog()
	registry, _ := gamepad.NewRegistry("0", 13, log)
	stay := NewStay(registry, nil, &common.RulesetData{MinButtons: 1, MaxButtons: 1}, nil, log)
	stay.Start(start)
	stay.Observe(start, gamepad.Violated)
	stay.Wait()
	if stay.Stats().Punishments != 1 {
		t.Error("Expected the punishment to be counted")
	}
}
