package intervention

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/ports"
)

type ResolveInput struct {
	// EquipmentID overrides the intervention's own equipment when returning
	// it to service.
	EquipmentID *uint64
	// Action becomes the resolution summary and the history action.
	Action    string
	PartsUsed *string
	Notes     *string
}

type ResolveResult struct {
	Intervention ports.Intervention
	History      ports.HistoryEntry
	// Recurring is the next occurrence spawned by a recurring intervention.
	Recurring *ports.Intervention
}

// Resolve completes an IN_PROGRESS intervention. For a recurring one it also
// spawns the next PENDING occurrence, planned recurrenceInterval days after
// the original planned date.
func (s *Service) Resolve(ctx context.Context, actor Actor, id uint64, input ResolveInput) (res ResolveResult, err error) {
	defer func() { s.observe(ctx, domain.OpResolve, err) }()

	if err := s.checkReady(ctx); err != nil {
		return ResolveResult{}, err
	}

	action := strings.TrimSpace(input.Action)
	if action == "" {
		action = domain.ActionResolved
	}
	partsUsed := trimOptional(input.PartsUsed)
	notes := trimOptional(input.Notes)

	now := s.now()
	var spawnedID uint64
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, person, err := s.loadForAssignee(txCtx, domain.OpResolve, actor, id)
		if err != nil {
			return err
		}
		next, err := domain.Transition(current.Status, domain.StatusCompleted, actor.Role)
		if err != nil {
			return err
		}

		if err := s.repo.ChangeStatus(txCtx, id, ports.StatusChange{
			From:              current.Status,
			To:                next,
			At:                now,
			ResolvedAt:        &now,
			ResolutionSummary: &action,
			PartsUsed:         partsUsed,
		}); err != nil {
			return err
		}

		equipmentID := input.EquipmentID
		if equipmentID == nil {
			equipmentID = current.EquipmentID
		}
		if equipmentID != nil {
			if err := s.assets.SetEquipmentStatus(txCtx, *equipmentID, domain.EquipmentInService, now); err != nil {
				return err
			}
		}

		res.History, err = s.appendHistory(txCtx, id, action, person, actor, notes, partsUsed, now)
		if err != nil {
			return err
		}

		if !domain.Recurs(current.IsRecurring, current.RecurrenceInterval, current.PlannedAt) {
			return nil
		}
		spawnedID, err = s.spawnRecurring(txCtx, current, person, actor, now)
		return err
	}); err != nil {
		return ResolveResult{}, errs.Persistence(err, "resolve intervention")
	}

	metrics.RecordTransition(string(domain.StatusInProgress), string(domain.StatusCompleted))
	s.invalidateStatsBestEffort(ctx)

	res.Intervention, err = s.reload(ctx, id)
	if err != nil {
		return ResolveResult{}, err
	}
	if spawnedID != 0 {
		metrics.RecurringSpawnedTotal.Inc()
		spawned, err := s.reload(ctx, spawnedID)
		if err != nil {
			return ResolveResult{}, err
		}
		res.Recurring = &spawned
	}
	return res, nil
}

// spawnRecurring clones original into the next PENDING occurrence along with
// its assignees.
func (s *Service) spawnRecurring(ctx context.Context, original ports.Intervention, person ports.Person, actor Actor, now time.Time) (uint64, error) {
	nextPlanned := domain.NextPlannedDate(original.PlannedAt.UTC(), original.RecurrenceInterval)

	spawned, err := s.repo.CreateIntervention(ctx, ports.Intervention{
		Description:        original.Description,
		Type:               original.Type,
		Status:             domain.StatusPending,
		Priority:           original.Priority,
		IsRecurring:        original.IsRecurring,
		RecurrenceInterval: original.RecurrenceInterval,
		PlannedAt:          &nextPlanned,
		LocationID:         original.LocationID,
		EquipmentID:        original.EquipmentID,
		ReportedByID:       original.ReportedByID,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return 0, err
	}

	assignees, err := s.repo.ListAssigneeIDs(ctx, original.ID)
	if err != nil {
		return 0, err
	}
	for _, personID := range assignees {
		if _, err := s.repo.UpsertAssignment(ctx, spawned.ID, personID, now); err != nil {
			return 0, err
		}
	}

	if original.EquipmentID != nil {
		if err := s.assets.SetNextMaintenance(ctx, *original.EquipmentID, nextPlanned, now); err != nil {
			return 0, err
		}
	}

	notes := fmt.Sprintf("Generated from intervention #%d", original.ID)
	if _, err := s.appendHistory(ctx, spawned.ID, domain.ActionCreatedRecurring, person, actor, &notes, nil, now); err != nil {
		return 0, err
	}
	return spawned.ID, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
