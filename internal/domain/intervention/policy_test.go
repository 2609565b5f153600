package intervention

import (
	"errors"
	"testing"

	"esilogis/internal/errs"
)

func TestAuthorize(t *testing.T) {
	if err := Authorize(OpAssign, RoleAdmin, false); err != nil {
		t.Fatalf("admin assign error = %v", err)
	}
	if err := Authorize(OpAssign, RoleTechnician, true); !errors.Is(err, errs.ErrPermission) {
		t.Fatalf("technician assign error = %v, want ErrPermission", err)
	}
	if err := Authorize(OpResolve, RoleTechnician, false); !errors.Is(err, errs.ErrPermission) {
		t.Fatalf("unassigned technician resolve error = %v, want ErrPermission", err)
	}
	if err := Authorize(OpResolve, RoleTechnician, true); err != nil {
		t.Fatalf("assigned technician resolve error = %v", err)
	}
	if err := Authorize(OpReport, RoleUser, false); err != nil {
		t.Fatalf("user report error = %v", err)
	}
	if err := Authorize(Operation("archive"), RoleAdmin, false); !errors.Is(err, errs.ErrPermission) {
		t.Fatalf("unknown operation error = %v", err)
	}
}

func TestRolesForIncludesTechnicianOnAssigneeRules(t *testing.T) {
	roles := RolesFor(OpPause)
	if len(roles) != 2 || roles[0] != RoleAdmin || roles[1] != RoleTechnician {
		t.Fatalf("RolesFor(pause) = %v", roles)
	}
	if !NeedsAssignment(OpResolve) || NeedsAssignment(OpPlan) {
		t.Fatalf("NeedsAssignment() mismatch")
	}
}
