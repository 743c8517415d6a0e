//go:build !linux
// +build !linux

package evdevpad

import (
	"context"

	"github.com/ankurkotwal/remoshock/rsk/common"
	"github.com/ankurkotwal/remoshock/rsk/gamepad"
)

// Reader is not available on this platform
type Reader struct{}

// Open always fails with ErrUnsupported
func Open(path string, log *common.Logger) (*Reader, error) {
	return nil, ErrUnsupported
}

// State returns an empty snapshot
func (r *Reader) State() gamepad.State {
	return gamepad.State{}
}

// Run always fails with ErrUnsupported
func (r *Reader) Run(ctx context.Context, sink func(gamepad.State)) error {
	return ErrUnsupported
}

// Close does nothing
func (r *Reader) Close() error {
	return nil
}
