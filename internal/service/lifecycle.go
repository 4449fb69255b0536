package service

import (
	"fmt"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
	"github.com/iliyamo/campus-room-booking/internal/model"
)

// transitions lists the legal status moves.  PENDING is the only state
// with outgoing edges; CONFIRMED and REJECTED are terminal.
var transitions = map[model.Status][]model.Status{
	model.StatusPending: {model.StatusConfirmed, model.StatusRejected},
}

// Transition validates a move from one status to another.  It has no side
// effects; callers persist the new status only when it returns nil.
// Authorization is the caller's concern.
func Transition(from, to model.Status) error {
	if !to.Valid() {
		return apperr.InvalidTransition(fmt.Sprintf("unknown status %q", to))
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return apperr.InvalidTransition(fmt.Sprintf("cannot move booking from %s to %s", from, to))
}
