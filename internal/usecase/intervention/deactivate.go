package intervention

import (
	"context"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/ports"
)

// Deactivate is the only way to "delete" an intervention: a PENDING one is
// cancelled by an admin or denied by a technician.
func (s *Service) Deactivate(ctx context.Context, actor Actor, id uint64) (item ports.Intervention, err error) {
	defer func() { s.observe(ctx, domain.OpDeactivate, err) }()

	if err := s.checkReady(ctx); err != nil {
		return ports.Intervention{}, err
	}
	if err := domain.Authorize(domain.OpDeactivate, actor.Role, false); err != nil {
		return ports.Intervention{}, err
	}

	var target domain.Status
	switch actor.Role {
	case domain.RoleAdmin:
		target = domain.StatusCancelled
	case domain.RoleTechnician:
		target = domain.StatusDenied
	default:
		return ports.Intervention{}, errs.Permission("role %s cannot deactivate interventions", actor.Role)
	}

	now := s.now()
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetIntervention(txCtx, id)
		if err != nil {
			return err
		}
		if current.Status != domain.StatusPending {
			return errs.State("intervention %d is %s; only PENDING interventions can be deactivated", id, current.Status)
		}

		next, err := domain.Transition(current.Status, target, actor.Role)
		if err != nil {
			return err
		}
		change := ports.StatusChange{From: current.Status, To: next, At: now}
		stampFor(next, now, &change)
		return s.repo.ChangeStatus(txCtx, id, change)
	}); err != nil {
		return ports.Intervention{}, errs.Persistence(err, "deactivate intervention")
	}

	metrics.RecordTransition(string(domain.StatusPending), string(target))
	s.invalidateStatsBestEffort(ctx)

	return s.reload(ctx, id)
}
