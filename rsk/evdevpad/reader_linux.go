//go:build linux
// +build linux

package evdevpad

import (
	"context"
	"fmt"

	"github.com/viamrobotics/evdev"

	"github.com/ankurkotwal/remoshock/rsk/common"
	"github.com/ankurkotwal/remoshock/rsk/gamepad"
)

// Reader reads one evdev device
type Reader struct {
	dev     *evdev.Evdev
	builder *Builder
	log     *common.Logger
}

// Open opens the device node, e.g. /dev/input/event5
func Open(path string, log *common.Logger) (*Reader, error) {
	dev, err := evdev.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var layout Layout
	for key := range dev.KeyTypes() {
		layout.Keys = append(layout.Keys, uint16(key))
	}
	for code, axis := range dev.AbsoluteTypes() {
		layout.Axes = append(layout.Axes, AxisInfo{Code: uint16(code), Min: axis.Min, Max: axis.Max})
	}
	name := dev.Name()
	log.Msg("Opened %s (%s). %d keys, %d axes", path, name, len(layout.Keys), len(layout.Axes))

	return &Reader{dev: dev, builder: NewBuilder(name, layout), log: log}, nil
}

// State returns the snapshot before any events are read
func (r *Reader) State() gamepad.State {
	return r.builder.State()
}

// Run feeds a snapshot to sink on every completed change until ctx is done
func (r *Reader) Run(ctx context.Context, sink func(gamepad.State)) error {
	events := r.dev.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("device %s closed", r.builder.id)
			}
			if ev == nil {
				continue
			}
			switch ev.Event.Type {
			case evdev.EventKey:
				r.builder.Key(ev.Event.Code, ev.Event.Value)
			case evdev.EventAbsolute:
				r.builder.Abs(ev.Event.Code, ev.Event.Value)
			case evdev.EventSync:
				if state, changed := r.builder.Sync(); changed {
					sink(state)
				}
			}
		}
	}
}

// Close closes the device
func (r *Reader) Close() error {
	return r.dev.Close()
}
