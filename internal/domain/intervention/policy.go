package intervention

import "esilogis/internal/errs"

type Operation string

const (
	OpList         Operation = "list"
	OpView         Operation = "view"
	OpReport       Operation = "report"
	OpPlan         Operation = "plan"
	OpUpdate       Operation = "update"
	OpDeactivate   Operation = "deactivate"
	OpAssign       Operation = "assign"
	OpPause        Operation = "pause"
	OpResume       Operation = "resume"
	OpResolve      Operation = "resolve"
	OpViewAssigned Operation = "view_assigned"
	OpViewReported Operation = "view_reported"
	OpStats        Operation = "stats"
)

type rule struct {
	roles []Role
	// assignee grants access to a technician assigned to the intervention
	// even when the role alone is not enough.
	assignee bool
}

var everyone = []Role{RoleAdmin, RoleTechnician, RoleUser}

var policy = map[Operation]rule{
	OpList:         {roles: everyone},
	OpView:         {roles: everyone},
	OpReport:       {roles: everyone},
	OpPlan:         {roles: []Role{RoleAdmin}},
	OpUpdate:       {roles: []Role{RoleAdmin}},
	OpDeactivate:   {roles: []Role{RoleAdmin, RoleTechnician}},
	OpAssign:       {roles: []Role{RoleAdmin}},
	OpPause:        {roles: []Role{RoleAdmin}, assignee: true},
	OpResume:       {roles: []Role{RoleAdmin}, assignee: true},
	OpResolve:      {roles: []Role{RoleAdmin}, assignee: true},
	OpViewAssigned: {roles: []Role{RoleTechnician, RoleAdmin}},
	OpViewReported: {roles: everyone},
	OpStats:        {roles: []Role{RoleAdmin}},
}

// Authorize evaluates the policy table once for op. isAssignee tells whether
// the actor's person profile is assigned to the target intervention.
func Authorize(op Operation, role Role, isAssignee bool) error {
	r, ok := policy[op]
	if !ok {
		return errs.Permission("unknown operation %q", op)
	}
	for _, allowed := range r.roles {
		if allowed == role {
			return nil
		}
	}
	if r.assignee && isAssignee {
		return nil
	}
	return errs.Permission("role %s is not allowed to %s this intervention", role, op)
}

// RolesFor lists the roles that may invoke op regardless of assignment. The
// HTTP layer uses it for coarse route gating.
func RolesFor(op Operation) []Role {
	r := policy[op]
	out := make([]Role, 0, len(r.roles)+1)
	out = append(out, r.roles...)
	if r.assignee && !containsRole(out, RoleTechnician) {
		out = append(out, RoleTechnician)
	}
	return out
}

// NeedsAssignment reports whether op can be granted through assignment.
func NeedsAssignment(op Operation) bool {
	return policy[op].assignee
}

func containsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
