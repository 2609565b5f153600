package intervention

import (
	"context"
	"errors"
	"testing"
	"time"

	"esilogis/internal/errs"
	"esilogis/internal/infrastructure/persistence/model"
	"esilogis/internal/infrastructure/persistence/repository"
	"esilogis/internal/infrastructure/persistence/uow"
)

// flakyInterventionRepo lets the first okAssignments links through and fails
// the next one.
type flakyInterventionRepo struct {
	*repository.InterventionRepository
	okAssignments int
}

func (r *flakyInterventionRepo) UpsertAssignment(ctx context.Context, interventionID uint64, personID uint64, at time.Time) (bool, error) {
	if r.okAssignments == 0 {
		return false, errors.New("database is locked")
	}
	r.okAssignments--
	return r.InterventionRepository.UpsertAssignment(ctx, interventionID, personID, at)
}

type flakyAssetRepo struct {
	*repository.AssetRepository
}

func (r *flakyAssetRepo) SetNextMaintenance(context.Context, uint64, time.Time, time.Time) error {
	return errors.New("disk I/O error")
}

func TestPlanRollsBackPartialWrites(t *testing.T) {
	cases := []struct {
		name  string
		build func(h *harness) *Service
	}{
		{
			name: "second assignment fails",
			build: func(h *harness) *Service {
				repo := &flakyInterventionRepo{InterventionRepository: h.repo, okAssignments: 1}
				return NewService(repo, h.identity, h.assets, uow.NewUnitOfWork(h.db), h.notifier, h.cache, Config{PlanTxTimeout: 30 * time.Second})
			},
		},
		{
			name: "equipment maintenance date fails",
			build: func(h *harness) *Service {
				assets := &flakyAssetRepo{AssetRepository: h.assets}
				return NewService(h.repo, h.identity, assets, uow.NewUnitOfWork(h.db), h.notifier, h.cache, Config{PlanTxTimeout: 30 * time.Second})
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := setupHarness(t)
			svc := tc.build(h)

			plannedAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			recurring := true
			interval := 30
			_, err := svc.Plan(context.Background(), h.admin, PlanInput{
				Description:        "Monthly pump check",
				LocationID:         h.location.ID,
				PlannedAt:          &plannedAt,
				IsRecurring:        &recurring,
				RecurrenceInterval: &interval,
				Assignees:          []uint64{h.tech1P.ID, h.tech2P.ID},
				EquipmentID:        &h.pump.ID,
			})
			requireKind(t, err, errs.ErrPersistence)

			if got := h.countInterventions(t); got != 0 {
				t.Fatalf("interventions after rollback = %d", got)
			}
			var assignments int64
			if err := h.db.Model(&model.InterventionAssignment{}).Count(&assignments).Error; err != nil {
				t.Fatalf("count assignments: %v", err)
			}
			if assignments != 0 {
				t.Fatalf("assignments after rollback = %d", assignments)
			}
			pump, err := h.assets.GetEquipment(context.Background(), h.pump.ID)
			if err != nil {
				t.Fatalf("GetEquipment() error = %v", err)
			}
			if pump.NextScheduledMaintenance != nil {
				t.Fatalf("next maintenance = %v, want unset", pump.NextScheduledMaintenance)
			}
			if len(h.notifier.technicians) != 0 {
				t.Fatalf("notifications after rollback = %d", len(h.notifier.technicians))
			}
		})
	}
}
