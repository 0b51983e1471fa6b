package controller

import (
	"errors"
	"fmt"

	"github.com/rxkshit04/nightpulse/internal/models"
)

type State int

const (
	Uninitialized State = iota
	LocationPending
	LocationError
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case LocationPending:
		return "location_pending"
	case LocationError:
		return "location_error"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{Uninitialized, LocationPending, LocationError, Ready} {
		if string(b) == st.String() {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

var (
	ErrValidation          = errors.New("validation failed")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrNoPendingDelete     = errors.New("no delete pending")
	ErrAlreadyStarted      = errors.New("controller already started")
	ErrClosed              = errors.New("controller closed")
)

// ValidationError is returned by Submit when a precondition fails. No store
// call has been made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Version       uint64                    `json:"version"`
	State         State                     `json:"state"`
	Alerts        []models.Alert            `json:"alerts"`
	Position      *models.Position          `json:"position,omitempty"`
	LocationError string                    `json:"location_error,omitempty"`
	Delete        models.DeleteConfirmation `json:"delete"`
	Form          models.Form               `json:"form"`
	Notice        string                    `json:"notice,omitempty"`
	// Loaded is set once the list fetched after the first fix has returned,
	// successfully or not.
	Loaded bool `json:"loaded"`
}
