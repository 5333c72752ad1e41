package graph

import "fmt"

// Status is the lifecycle state of a relation. A relation is created
// pending and advances through at most two transitions before reaching a
// terminal state.
type Status uint8

const (
	// StatusInvalid is the zero value and never a legal relation state.
	StatusInvalid Status = iota

	// StatusPending is the initial state of every relation, set by the
	// source owner when the edge is added.
	StatusPending

	// StatusAccepted is set by the target owner to confirm a pending
	// relation. It is the only state that can still advance.
	StatusAccepted

	// StatusRejected is set by the target owner to decline a pending
	// relation. Terminal.
	StatusRejected

	// StatusDeleted is set by the source owner to retract a pending
	// relation before the target answers. Terminal.
	StatusDeleted

	// StatusFinished is set by either owner to close an accepted
	// relation. Terminal.
	StatusFinished
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusDeleted:
		return "deleted"
	case StatusFinished:
		return "finished"
	default:
		return "invalid"
	}
}

// Valid reports whether s is one of the defined relation states.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusFinished
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusDeleted, StatusFinished:
		return true
	default:
		return false
	}
}

// ParseStatus converts a status name, as produced by String, back to a
// Status. It is used when loading persisted relation records.
func ParseStatus(name string) (Status, error) {
	switch name {
	case "pending":
		return StatusPending, nil
	case "accepted":
		return StatusAccepted, nil
	case "rejected":
		return StatusRejected, nil
	case "deleted":
		return StatusDeleted, nil
	case "finished":
		return StatusFinished, nil
	default:
		return StatusInvalid, fmt.Errorf("unknown relation status %q", name)
	}
}
