package intervention

import (
	"errors"

	"esilogis/internal/errs"
)

var ErrInvalidTransition = errs.Mark(errors.New("status transition not allowed"), errs.ErrState)

// edges lists the legal status moves and the roles allowed to drive each one.
var edges = map[Status]map[Status][]Role{
	StatusPending: {
		StatusApproved:   {RoleAdmin},
		StatusInProgress: {RoleAdmin},
		StatusCancelled:  {RoleAdmin},
		StatusDenied:     {RoleAdmin, RoleTechnician},
	},
	StatusInProgress: {
		StatusPaused:    {RoleAdmin, RoleTechnician},
		StatusCompleted: {RoleAdmin, RoleTechnician},
	},
	StatusPaused: {
		StatusInProgress: {RoleAdmin, RoleTechnician},
	},
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from Status, to Status) bool {
	_, ok := edges[from][to]
	return ok
}

// IsTerminal reports whether no edge leaves status.
func IsTerminal(status Status) bool {
	return len(edges[status]) == 0
}

// Transition is the single guard every status write goes through. It returns
// the new status, a state error for an illegal edge, or a permission error
// when role may not drive the edge.
func Transition(from Status, to Status, role Role) (Status, error) {
	roles, ok := edges[from][to]
	if !ok {
		return from, errs.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
	}
	for _, allowed := range roles {
		if allowed == role {
			return to, nil
		}
	}
	return from, errs.Permission("role %s cannot move an intervention from %s to %s", role, from, to)
}

// TransitionManual guards status changes requested through a field patch.
// Pausing and resuming own their bookkeeping, so PAUSED is never a manual
// source or target.
func TransitionManual(from Status, to Status, role Role) (Status, error) {
	if from == StatusPaused || to == StatusPaused {
		return from, errs.Wrapf(ErrInvalidTransition, "%s -> %s must use pause/resume", from, to)
	}
	return Transition(from, to, role)
}
