// Package editor holds what the 2D and 3D canvases share: the interaction
// state and the errors they return.
package editor

import (
	"errors"

	"github.com/google/uuid"
)

// State is the interaction state of a canvas.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateSelected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateSelected:
		return "selected"
	}
	return "unknown"
}

var (
	ErrUnknownObject = errors.New("unknown object")
	ErrUnknownField  = errors.New("unknown field")
	ErrNoSelection   = errors.New("no selection")
)

// NewID returns a fresh instance identifier.
func NewID() string {
	return uuid.NewString()
}
