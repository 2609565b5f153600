package intervention

import (
	"context"
	"fmt"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/ports"
)

type AssignInput struct {
	InterventionIDs []uint64
	TechnicianIDs   []uint64
}

type assignedPair struct {
	interventionID uint64
	technician     ports.Person
}

// Assign links technicians to interventions. A PENDING intervention moves to
// IN_PROGRESS; IN_PROGRESS and PAUSED ones only gain technicians. Status
// changes, assignment rows and ASSIGNED history entries commit together.
// Existing links are left alone: only newly created links get an ASSIGNED
// entry and a notification. The result holds one item per input id, in input
// order, duplicates included.
func (s *Service) Assign(ctx context.Context, actor Actor, input AssignInput) (items []ports.Intervention, err error) {
	defer func() { s.observe(ctx, domain.OpAssign, err) }()

	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.OpAssign, actor.Role, false); err != nil {
		return nil, err
	}

	interventionIDs := uniqueIDs(input.InterventionIDs)
	technicianIDs := uniqueIDs(input.TechnicianIDs)
	if len(interventionIDs) == 0 {
		return nil, errs.Validation("interventionIds must not be empty")
	}
	if len(technicianIDs) == 0 {
		return nil, errs.Validation("technicianIds must not be empty")
	}

	missing, err := s.repo.MissingInterventionIDs(ctx, interventionIDs)
	if err != nil {
		return nil, errs.Persistence(err, "check interventions")
	}
	if len(missing) > 0 {
		return nil, errs.Validation("interventions not found: %v", missing)
	}
	missing, err = s.identity.MissingPersonIDs(ctx, technicianIDs)
	if err != nil {
		return nil, errs.Persistence(err, "check technicians")
	}
	if len(missing) > 0 {
		return nil, errs.Validation("technicians not found: %v", missing)
	}

	admin, err := s.actorPerson(ctx, actor)
	if err != nil {
		return nil, err
	}
	technicians, err := s.identity.ListPersons(ctx, technicianIDs)
	if err != nil {
		return nil, errs.Persistence(err, "load technicians")
	}

	now := s.now()
	var moved []uint64
	var pairs []assignedPair

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, interventionID := range interventionIDs {
			current, err := s.repo.GetIntervention(txCtx, interventionID)
			if err != nil {
				return err
			}

			switch current.Status {
			case domain.StatusPending:
				next, err := domain.Transition(current.Status, domain.StatusInProgress, actor.Role)
				if err != nil {
					return err
				}
				if err := s.repo.ChangeStatus(txCtx, interventionID, ports.StatusChange{
					From: current.Status,
					To:   next,
					At:   now,
				}); err != nil {
					return err
				}
				moved = append(moved, interventionID)
			case domain.StatusInProgress, domain.StatusPaused:
			default:
				return errs.State("intervention %d is %s and cannot take assignments", interventionID, current.Status)
			}

			for _, technician := range technicians {
				inserted, err := s.repo.UpsertAssignment(txCtx, interventionID, technician.ID, now)
				if err != nil {
					return err
				}
				if !inserted {
					continue
				}
				notes := fmt.Sprintf("Assigned to %s", personLabel(technician))
				if _, err := s.appendHistory(txCtx, interventionID, domain.ActionAssigned, admin, actor, &notes, nil, now); err != nil {
					return err
				}
				pairs = append(pairs, assignedPair{interventionID: interventionID, technician: technician})
			}
		}
		return nil
	}); err != nil {
		return nil, errs.Persistence(err, "assign interventions")
	}

	for range moved {
		metrics.RecordTransition(string(domain.StatusPending), string(domain.StatusInProgress))
	}
	s.invalidateStatsBestEffort(ctx)

	byID := make(map[uint64]ports.Intervention, len(interventionIDs))
	for _, interventionID := range interventionIDs {
		detail, err := s.repo.GetInterventionDetail(ctx, interventionID)
		if err != nil {
			return nil, errs.Persistence(err, "reload intervention")
		}
		byID[interventionID] = detail
	}
	items = make([]ports.Intervention, 0, len(input.InterventionIDs))
	for _, interventionID := range input.InterventionIDs {
		items = append(items, byID[interventionID])
	}

	actorLabel := personLabel(admin)
	for _, pair := range pairs {
		nctx := s.notificationContext(ctx, ports.KindInterventionAssigned, byID[pair.interventionID], actorLabel)
		s.notifyTechnicianBestEffort(ctx, pair.technician, nctx)
	}
	return items, nil
}
