package intervention

import (
	"context"
	"strings"
	"time"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/ports"
)

type PlanInput struct {
	Description string
	LocationID  uint64
	PlannedAt   *time.Time
	// IsRecurring must be given explicitly.
	IsRecurring        *bool
	RecurrenceInterval *int
	Assignees          []uint64
	EquipmentID        *uint64
	Priority           string
}

func (in PlanInput) validate() (string, domain.Priority, int, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return "", "", 0, errs.Validation("description is required")
	}
	if in.LocationID == 0 {
		return "", "", 0, errs.Validation("locationId is required")
	}
	if in.PlannedAt == nil || in.PlannedAt.IsZero() {
		return "", "", 0, errs.Validation("plannedAt is required")
	}
	if in.IsRecurring == nil {
		return "", "", 0, errs.Validation("isRecurring is required")
	}

	interval := 0
	if *in.IsRecurring {
		if in.RecurrenceInterval == nil || *in.RecurrenceInterval <= 0 {
			return "", "", 0, errs.Validation("recurrenceInterval must be a positive number of days for a recurring intervention")
		}
		interval = *in.RecurrenceInterval
	}
	if len(in.Assignees) == 0 {
		return "", "", 0, errs.Validation("at least one assignee is required")
	}

	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return "", "", 0, err
	}
	return description, priority, interval, nil
}

// Plan creates a PREVENTIVE intervention with its assignments in one bounded
// transaction, then notifies the assignees.
func (s *Service) Plan(ctx context.Context, actor Actor, input PlanInput) (item ports.Intervention, err error) {
	defer func() { s.observe(ctx, domain.OpPlan, err) }()

	if err := s.checkReady(ctx); err != nil {
		return ports.Intervention{}, err
	}
	if err := domain.Authorize(domain.OpPlan, actor.Role, false); err != nil {
		return ports.Intervention{}, err
	}

	description, priority, interval, err := input.validate()
	if err != nil {
		return ports.Intervention{}, err
	}
	assignees := uniqueIDs(input.Assignees)
	plannedAt := input.PlannedAt.UTC()
	now := s.now()

	var created ports.Intervention
	if err := ports.WithTxTimeout(ctx, s.uow, s.cfg.PlanTxTimeout, func(txCtx context.Context) error {
		if _, err := s.requireLocation(txCtx, input.LocationID); err != nil {
			return err
		}
		if err := s.requireEquipment(txCtx, input.EquipmentID); err != nil {
			return err
		}
		missing, err := s.identity.MissingPersonIDs(txCtx, assignees)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return errs.Validation("technicians not found: %v", missing)
		}

		created, err = s.repo.CreateIntervention(txCtx, ports.Intervention{
			Description:        description,
			Type:               domain.TypePreventive,
			Status:             domain.StatusPending,
			Priority:           priority,
			IsRecurring:        *input.IsRecurring,
			RecurrenceInterval: interval,
			PlannedAt:          &plannedAt,
			LocationID:         input.LocationID,
			EquipmentID:        input.EquipmentID,
			ReportedByID:       actor.UserAccountID,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return err
		}

		for _, personID := range assignees {
			if _, err := s.repo.UpsertAssignment(txCtx, created.ID, personID, now); err != nil {
				return err
			}
		}

		if input.EquipmentID != nil {
			if err := s.assets.SetNextMaintenance(txCtx, *input.EquipmentID, plannedAt, now); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return ports.Intervention{}, errs.Persistence(err, "plan intervention")
	}

	s.invalidateStatsBestEffort(ctx)

	detail, err := s.repo.GetInterventionDetail(ctx, created.ID)
	if err != nil {
		return ports.Intervention{}, errs.Persistence(err, "reload intervention")
	}

	nctx := s.notificationContext(ctx, ports.KindInterventionPlanned, detail, "")
	for _, technician := range detail.Assignees {
		s.notifyTechnicianBestEffort(ctx, technician, nctx)
	}
	return detail, nil
}
