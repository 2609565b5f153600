package intervention

import (
	"context"
	"strings"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/ports"
)

// UpdateInput is a partial patch. Nil fields are left untouched.
type UpdateInput struct {
	Description *string
	Priority    *string
	Status      *string
	LocationID  *uint64
	EquipmentID *uint64
}

// Update patches an intervention. A status change goes through the manual
// transition guard and drives the equipment: APPROVED takes it out of
// service, COMPLETED returns it.
func (s *Service) Update(ctx context.Context, actor Actor, id uint64, input UpdateInput) (item ports.Intervention, err error) {
	defer func() { s.observe(ctx, domain.OpUpdate, err) }()

	if err := s.checkReady(ctx); err != nil {
		return ports.Intervention{}, err
	}
	if err := domain.Authorize(domain.OpUpdate, actor.Role, false); err != nil {
		return ports.Intervention{}, err
	}

	patch := ports.InterventionPatch{
		LocationID:  input.LocationID,
		EquipmentID: input.EquipmentID,
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return ports.Intervention{}, errs.Validation("description cannot be empty")
		}
		patch.Description = &description
	}
	if input.Priority != nil {
		priority, err := domain.ParsePriority(*input.Priority)
		if err != nil {
			return ports.Intervention{}, err
		}
		patch.Priority = &priority
	}
	if input.LocationID != nil && *input.LocationID == 0 {
		return ports.Intervention{}, errs.Validation("locationId cannot be empty")
	}
	var target *domain.Status
	if input.Status != nil {
		status, err := domain.ParseStatus(*input.Status)
		if err != nil {
			return ports.Intervention{}, err
		}
		target = &status
	}

	now := s.now()
	patch.UpdatedAt = now
	var from domain.Status
	var moved bool

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetIntervention(txCtx, id)
		if err != nil {
			return err
		}
		from = current.Status

		if patch.LocationID != nil {
			if _, err := s.requireLocation(txCtx, *patch.LocationID); err != nil {
				return err
			}
		}
		if err := s.requireEquipment(txCtx, patch.EquipmentID); err != nil {
			return err
		}
		if err := s.repo.PatchIntervention(txCtx, id, patch); err != nil {
			return err
		}

		if target == nil || *target == current.Status {
			return nil
		}
		next, err := domain.TransitionManual(current.Status, *target, actor.Role)
		if err != nil {
			return err
		}

		change := ports.StatusChange{From: current.Status, To: next, At: now}
		stampFor(next, now, &change)
		if err := s.repo.ChangeStatus(txCtx, id, change); err != nil {
			return err
		}
		moved = true

		equipmentID := patch.EquipmentID
		if equipmentID == nil {
			equipmentID = current.EquipmentID
		}
		if equipmentID == nil {
			return nil
		}
		switch next {
		case domain.StatusApproved:
			return s.assets.SetEquipmentStatus(txCtx, *equipmentID, domain.EquipmentOutOfService, now)
		case domain.StatusCompleted:
			return s.assets.SetEquipmentStatus(txCtx, *equipmentID, domain.EquipmentInService, now)
		}
		return nil
	}); err != nil {
		return ports.Intervention{}, errs.Persistence(err, "update intervention")
	}

	if moved {
		metrics.RecordTransition(string(from), string(*target))
	}
	s.invalidateStatsBestEffort(ctx)

	return s.reload(ctx, id)
}
