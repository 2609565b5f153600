package intervention

import (
	"context"
	"testing"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
)

func TestUpdateApprovalTakesEquipmentOutOfService(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.report(t)

	updated, err := h.svc.Update(ctx, h.admin, item.ID, UpdateInput{
		Description: ptr("Leaking pipe under sink"),
		Priority:    ptr("low"),
		Status:      ptr("approved"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != domain.StatusApproved || updated.ApprovedAt == nil {
		t.Fatalf("Update() status %s approvedAt %v", updated.Status, updated.ApprovedAt)
	}
	if updated.Description != "Leaking pipe under sink" || updated.Priority != domain.PriorityLow {
		t.Fatalf("Update() fields = %q %s", updated.Description, updated.Priority)
	}

	equipment, err := h.assets.GetEquipment(ctx, h.pump.ID)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	if equipment.Status != domain.EquipmentOutOfService {
		t.Fatalf("equipment status = %s", equipment.Status)
	}

	_, err = h.svc.Update(ctx, h.admin, item.ID, UpdateInput{Status: ptr("COMPLETED")})
	requireKind(t, err, errs.ErrState)
}

func TestUpdateCompletionReturnsEquipmentToService(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.inProgress(t)
	if err := h.assets.SetEquipmentStatus(ctx, h.pump.ID, domain.EquipmentUnderMaintenance, h.svc.now()); err != nil {
		t.Fatalf("SetEquipmentStatus() error = %v", err)
	}

	updated, err := h.svc.Update(ctx, h.admin, item.ID, UpdateInput{Status: ptr("COMPLETED")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("Update() status = %s", updated.Status)
	}
	equipment, err := h.assets.GetEquipment(ctx, h.pump.ID)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	if equipment.Status != domain.EquipmentInService {
		t.Fatalf("equipment status = %s", equipment.Status)
	}
}

func TestUpdateNeverDrivesPause(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.inProgress(t)

	_, err := h.svc.Update(ctx, h.admin, item.ID, UpdateInput{Status: ptr("PAUSED")})
	requireKind(t, err, errs.ErrState)

	if _, err := h.svc.Pause(ctx, h.admin, item.ID); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	_, err = h.svc.Update(ctx, h.admin, item.ID, UpdateInput{Status: ptr("IN_PROGRESS")})
	requireKind(t, err, errs.ErrState)

	reloaded, err := h.repo.GetIntervention(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if reloaded.Status != domain.StatusPaused {
		t.Fatalf("status = %s, want PAUSED", reloaded.Status)
	}
}

func TestUpdateValidationAndAccess(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.report(t)

	_, err := h.svc.Update(ctx, h.admin, item.ID, UpdateInput{Status: ptr("ARCHIVED")})
	requireKind(t, err, errs.ErrValidation)

	_, err = h.svc.Update(ctx, h.admin, item.ID, UpdateInput{Description: ptr("  ")})
	requireKind(t, err, errs.ErrValidation)

	_, err = h.svc.Update(ctx, h.admin, item.ID, UpdateInput{LocationID: ptr(uint64(5555))})
	requireKind(t, err, errs.ErrValidation)

	_, err = h.svc.Update(ctx, h.admin, 9999, UpdateInput{Priority: ptr("HIGH")})
	requireKind(t, err, errs.ErrNotFound)

	_, err = h.svc.Update(ctx, h.tech1, item.ID, UpdateInput{Priority: ptr("HIGH")})
	requireKind(t, err, errs.ErrPermission)
}

func TestDeactivateByRole(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	cancelled, err := h.svc.Deactivate(ctx, h.admin, h.report(t).ID)
	if err != nil {
		t.Fatalf("Deactivate(admin) error = %v", err)
	}
	if cancelled.Status != domain.StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("Deactivate(admin) status %s cancelledAt %v", cancelled.Status, cancelled.CancelledAt)
	}

	denied, err := h.svc.Deactivate(ctx, h.tech1, h.report(t).ID)
	if err != nil {
		t.Fatalf("Deactivate(technician) error = %v", err)
	}
	if denied.Status != domain.StatusDenied || denied.DeniedAt == nil {
		t.Fatalf("Deactivate(technician) status %s deniedAt %v", denied.Status, denied.DeniedAt)
	}

	_, err = h.svc.Deactivate(ctx, h.user, h.report(t).ID)
	requireKind(t, err, errs.ErrPermission)

	_, err = h.svc.Deactivate(ctx, h.admin, 9999)
	requireKind(t, err, errs.ErrNotFound)
}

func TestDeactivateRequiresPending(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	item := h.inProgress(t)

	_, err := h.svc.Deactivate(ctx, h.admin, item.ID)
	requireKind(t, err, errs.ErrState)

	_, err = h.svc.Deactivate(ctx, h.tech1, item.ID)
	requireKind(t, err, errs.ErrState)

	cancelled := h.report(t)
	if _, err := h.svc.Deactivate(ctx, h.admin, cancelled.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	_, err = h.svc.Deactivate(ctx, h.tech1, cancelled.ID)
	requireKind(t, err, errs.ErrState)
}

func TestStatsCountsEveryStatusAndInvalidates(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()
	h.report(t)
	h.inProgress(t)

	stats, err := h.svc.Stats(ctx, h.admin)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(stats) != len(domain.Statuses()) {
		t.Fatalf("Stats() has %d statuses", len(stats))
	}
	if stats[domain.StatusPending] != 1 || stats[domain.StatusInProgress] != 1 || stats[domain.StatusCompleted] != 0 {
		t.Fatalf("Stats() = %v", stats)
	}
	if _, ok := h.cache.data[cacheStatsKey]; !ok {
		t.Fatalf("Stats() did not populate the cache")
	}

	h.report(t)
	if _, ok := h.cache.data[cacheStatsKey]; ok {
		t.Fatalf("Report() did not invalidate the stats cache")
	}
	stats, err = h.svc.Stats(ctx, h.admin)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats[domain.StatusPending] != 2 {
		t.Fatalf("Stats() after report = %v", stats)
	}

	_, err = h.svc.Stats(ctx, h.user)
	requireKind(t, err, errs.ErrPermission)
}
