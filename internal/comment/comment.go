// Package comment defines the canonical Comment record that crosses every
// boundary of the system: the event bus, the relational store, and the
// prior-state lookup API.
package comment

import "fmt"

// State is the tagged variant carried by every Comment. It is stored on the
// wire as a signed 32-bit integer and exposed in string form over the client
// STOMP-like protocol (the MESSAGE frame's "action" header).
type State int32

const (
	Created State = 0
	Updated State = 1
	Deleted State = 2
)

// String renders the state the way the client protocol expects it: as the
// past-tense action name used in a MESSAGE frame's "action" header.
func (s State) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Updated:
		return "UPDATED"
	case Deleted:
		return "DELETED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(s))
	}
}

// Valid reports whether s is one of the three named states.
func (s State) Valid() bool {
	switch s {
	case Created, Updated, Deleted:
		return true
	default:
		return false
	}
}

// Comment is the canonical record. It is ephemeral end-to-end: built on the
// edge, encoded, produced, consumed, and discarded — except at the projector,
// which persists it.
type Comment struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	Text    string `json:"text"`
	State   State  `json:"state"`
}

// Valid checks the invariants required of a Comment about to be produced to
// the bus: a non-empty id and a recognized state.
func (c Comment) Valid() error {
	if c.ID == "" {
		return fmt.Errorf("comment: id must not be empty")
	}
	if !c.State.Valid() {
		return fmt.Errorf("comment: unrecognized state %d", int32(c.State))
	}
	return nil
}
