package intervention

import (
	"context"
	"testing"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
)

func TestAssignMovesPendingToInProgress(t *testing.T) {
	h := setupHarness(t)
	item := h.report(t)

	items, err := h.svc.Assign(context.Background(), h.admin, AssignInput{
		InterventionIDs: []uint64{item.ID},
		TechnicianIDs:   []uint64{h.tech1P.ID},
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if len(items) != 1 || items[0].Status != domain.StatusInProgress {
		t.Fatalf("Assign() = %+v", items)
	}
	if got := h.countAssignments(t, item.ID); got != 1 {
		t.Fatalf("assignments = %d, want 1", got)
	}

	actions := historyActions(items[0])
	if len(actions) != 1 || actions[0] != domain.ActionAssigned {
		t.Fatalf("history = %v", actions)
	}
	entry := items[0].History[0]
	if entry.LoggedByID != h.adminP.ID || entry.UserAccountID != h.admin.UserAccountID {
		t.Fatalf("history attribution = %+v", entry)
	}

	if len(h.notifier.technicians) != 1 || h.notifier.technicians[0].person.ID != h.tech1P.ID {
		t.Fatalf("technician notifications = %+v", h.notifier.technicians)
	}
}

func TestAssignIsIdempotentPerPair(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.report(t)

	in := AssignInput{
		InterventionIDs: []uint64{item.ID, item.ID},
		TechnicianIDs:   []uint64{h.tech1P.ID, h.tech1P.ID},
	}
	items, err := h.svc.Assign(ctx, h.admin, in)
	if err != nil {
		t.Fatalf("first Assign() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != item.ID || items[1].ID != item.ID {
		t.Fatalf("first Assign() = %v, want one item per input id", ids(items))
	}
	if len(h.notifier.technicians) != 1 {
		t.Fatalf("notifications after first call = %d, want 1", len(h.notifier.technicians))
	}

	items, err = h.svc.Assign(ctx, h.admin, in)
	if err != nil {
		t.Fatalf("second Assign() error = %v", err)
	}
	if got := h.countAssignments(t, item.ID); got != 1 {
		t.Fatalf("assignments after second call = %d, want 1", got)
	}
	if len(h.notifier.technicians) != 1 {
		t.Fatalf("notifications after second call = %d, want 1", len(h.notifier.technicians))
	}
	actions := historyActions(items[0])
	if len(actions) != 1 || actions[0] != domain.ActionAssigned {
		t.Fatalf("history after second call = %v", actions)
	}
}

func TestAssignNotifiesOnlyNewLinks(t *testing.T) {
	h := setupHarness(t)
	item := h.inProgress(t)

	items, err := h.svc.Assign(context.Background(), h.admin, AssignInput{
		InterventionIDs: []uint64{item.ID},
		TechnicianIDs:   []uint64{h.tech1P.ID, h.tech2P.ID},
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if len(items[0].Assignees) != 2 || len(items[0].History) != 2 {
		t.Fatalf("assignees %d history %d", len(items[0].Assignees), len(items[0].History))
	}
	// tech1 was notified by the first assignment only.
	if len(h.notifier.technicians) != 2 || h.notifier.technicians[1].person.ID != h.tech2P.ID {
		t.Fatalf("technician notifications = %+v", h.notifier.technicians)
	}
}

func TestAssignReturnsInputOrder(t *testing.T) {
	h := setupHarness(t)
	first := h.report(t)
	second := h.report(t)

	items, err := h.svc.Assign(context.Background(), h.admin, AssignInput{
		InterventionIDs: []uint64{second.ID, first.ID},
		TechnicianIDs:   []uint64{h.tech1P.ID, h.tech2P.ID},
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("Assign() order = %v", ids(items))
	}
	for _, item := range items {
		if len(item.Assignees) != 2 || len(item.History) != 2 {
			t.Fatalf("intervention %d assignees %d history %d", item.ID, len(item.Assignees), len(item.History))
		}
	}
	if len(h.notifier.technicians) != 4 {
		t.Fatalf("notifications = %d, want 4", len(h.notifier.technicians))
	}
}

func TestAssignAddsTechnicianWithoutChangingStatus(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.inProgress(t)

	if _, err := h.svc.Pause(ctx, h.tech1, item.ID); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	items, err := h.svc.Assign(ctx, h.admin, AssignInput{
		InterventionIDs: []uint64{item.ID},
		TechnicianIDs:   []uint64{h.tech2P.ID},
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if items[0].Status != domain.StatusPaused || len(items[0].Assignees) != 2 {
		t.Fatalf("Assign() status %s assignees %d", items[0].Status, len(items[0].Assignees))
	}
}

func TestAssignValidation(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.report(t)

	_, err := h.svc.Assign(ctx, h.admin, AssignInput{TechnicianIDs: []uint64{h.tech1P.ID}})
	requireKind(t, err, errs.ErrValidation)

	_, err = h.svc.Assign(ctx, h.admin, AssignInput{InterventionIDs: []uint64{item.ID}})
	requireKind(t, err, errs.ErrValidation)

	_, err = h.svc.Assign(ctx, h.admin, AssignInput{InterventionIDs: []uint64{item.ID, 777}, TechnicianIDs: []uint64{h.tech1P.ID}})
	requireKind(t, err, errs.ErrValidation)

	_, err = h.svc.Assign(ctx, h.admin, AssignInput{InterventionIDs: []uint64{item.ID}, TechnicianIDs: []uint64{888}})
	requireKind(t, err, errs.ErrValidation)

	_, err = h.svc.Assign(ctx, h.tech1, AssignInput{InterventionIDs: []uint64{item.ID}, TechnicianIDs: []uint64{h.tech1P.ID}})
	requireKind(t, err, errs.ErrPermission)

	if got := h.countAssignments(t, item.ID); got != 0 {
		t.Fatalf("assignments after rejected calls = %d", got)
	}
}

func TestAssignRejectsTerminalAndRollsBack(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	open := h.report(t)
	cancelled := h.report(t)
	if _, err := h.svc.Deactivate(ctx, h.admin, cancelled.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	_, err := h.svc.Assign(ctx, h.admin, AssignInput{
		InterventionIDs: []uint64{open.ID, cancelled.ID},
		TechnicianIDs:   []uint64{h.tech1P.ID},
	})
	requireKind(t, err, errs.ErrState)

	reloaded, err := h.repo.GetIntervention(ctx, open.ID)
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if reloaded.Status != domain.StatusPending {
		t.Fatalf("open intervention status = %s, want PENDING after rollback", reloaded.Status)
	}
	if got := h.countAssignments(t, open.ID); got != 0 {
		t.Fatalf("assignments after rollback = %d", got)
	}
	if len(h.notifier.technicians) != 0 {
		t.Fatalf("notifications after rollback = %d", len(h.notifier.technicians))
	}
}

func TestAssignRejectsApproved(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.report(t)
	if _, err := h.svc.Update(ctx, h.admin, item.ID, UpdateInput{Status: ptr("APPROVED")}); err != nil {
		t.Fatalf("Update(APPROVED) error = %v", err)
	}

	_, err := h.svc.Assign(ctx, h.admin, AssignInput{
		InterventionIDs: []uint64{item.ID},
		TechnicianIDs:   []uint64{h.tech1P.ID},
	})
	requireKind(t, err, errs.ErrState)

	reloaded, err := h.repo.GetIntervention(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if reloaded.Status != domain.StatusApproved || h.countAssignments(t, item.ID) != 0 {
		t.Fatalf("approved intervention changed: status %s", reloaded.Status)
	}
}

func TestListAssignedAndReported(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	assigned := h.inProgress(t)
	h.report(t)

	items, err := h.svc.ListAssigned(ctx, h.tech1)
	if err != nil {
		t.Fatalf("ListAssigned() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != assigned.ID {
		t.Fatalf("ListAssigned() = %v", ids(items))
	}

	items, err = h.svc.ListReported(ctx, h.user)
	if err != nil {
		t.Fatalf("ListReported() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ListReported() = %v", ids(items))
	}

	items, err = h.svc.ListReported(ctx, h.admin)
	if err != nil || len(items) != 0 {
		t.Fatalf("ListReported(admin) = %v, err %v", ids(items), err)
	}

	_, err = h.svc.ListAssigned(ctx, h.user)
	requireKind(t, err, errs.ErrPermission)
}
