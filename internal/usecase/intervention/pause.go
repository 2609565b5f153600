package intervention

import (
	"context"
	"errors"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/ports"
)

// Pause moves an IN_PROGRESS intervention to PAUSED and opens a pause record.
func (s *Service) Pause(ctx context.Context, actor Actor, id uint64) (item ports.Intervention, err error) {
	defer func() { s.observe(ctx, domain.OpPause, err) }()

	if err := s.checkReady(ctx); err != nil {
		return ports.Intervention{}, err
	}

	now := s.now()
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, person, err := s.loadForAssignee(txCtx, domain.OpPause, actor, id)
		if err != nil {
			return err
		}
		if current.Status != domain.StatusInProgress {
			return errs.State("intervention %d is %s; only IN_PROGRESS interventions can be paused", id, current.Status)
		}
		next, err := domain.Transition(current.Status, domain.StatusPaused, actor.Role)
		if err != nil {
			return err
		}

		if err := s.repo.ChangeStatus(txCtx, id, ports.StatusChange{From: current.Status, To: next, At: now}); err != nil {
			return err
		}
		if _, err := s.repo.CreatePause(txCtx, id, now); err != nil {
			return err
		}
		_, err = s.appendHistory(txCtx, id, domain.ActionPaused, person, actor, nil, nil, now)
		return err
	}); err != nil {
		return ports.Intervention{}, errs.Persistence(err, "pause intervention")
	}

	metrics.RecordTransition(string(domain.StatusInProgress), string(domain.StatusPaused))
	s.invalidateStatsBestEffort(ctx)
	return s.reload(ctx, id)
}

// Resume closes the active pause and moves the intervention back to
// IN_PROGRESS. A missing active pause is reported as not found before the
// status is looked at.
func (s *Service) Resume(ctx context.Context, actor Actor, id uint64) (item ports.Intervention, err error) {
	defer func() { s.observe(ctx, domain.OpResume, err) }()

	if err := s.checkReady(ctx); err != nil {
		return ports.Intervention{}, err
	}

	now := s.now()
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, person, err := s.loadForAssignee(txCtx, domain.OpResume, actor, id)
		if err != nil {
			return err
		}

		pause, err := s.repo.GetActivePause(txCtx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNoActivePause) {
				return errs.Wrapf(err, "intervention %d", id)
			}
			return err
		}
		if current.Status != domain.StatusPaused {
			return errs.State("intervention %d is %s; only PAUSED interventions can be resumed", id, current.Status)
		}
		next, err := domain.Transition(current.Status, domain.StatusInProgress, actor.Role)
		if err != nil {
			return err
		}

		if err := s.repo.ChangeStatus(txCtx, id, ports.StatusChange{From: current.Status, To: next, At: now}); err != nil {
			return err
		}
		if err := s.repo.ClosePause(txCtx, pause.ID, now); err != nil {
			return err
		}
		_, err = s.appendHistory(txCtx, id, domain.ActionResumed, person, actor, nil, nil, now)
		return err
	}); err != nil {
		return ports.Intervention{}, errs.Persistence(err, "resume intervention")
	}

	metrics.RecordTransition(string(domain.StatusPaused), string(domain.StatusInProgress))
	s.invalidateStatsBestEffort(ctx)
	return s.reload(ctx, id)
}

// loadForAssignee fetches the intervention and the actor's person, then runs
// the policy check for operations open to assigned technicians.
func (s *Service) loadForAssignee(ctx context.Context, op domain.Operation, actor Actor, id uint64) (ports.Intervention, ports.Person, error) {
	current, err := s.repo.GetIntervention(ctx, id)
	if err != nil {
		return ports.Intervention{}, ports.Person{}, err
	}
	person, err := s.actorPerson(ctx, actor)
	if err != nil {
		return ports.Intervention{}, ports.Person{}, err
	}

	assigned := false
	if domain.NeedsAssignment(op) {
		assigned, err = s.repo.IsAssignee(ctx, id, person.ID)
		if err != nil {
			return ports.Intervention{}, ports.Person{}, err
		}
	}
	if err := domain.Authorize(op, actor.Role, assigned); err != nil {
		return ports.Intervention{}, ports.Person{}, err
	}
	return current, person, nil
}

func (s *Service) reload(ctx context.Context, id uint64) (ports.Intervention, error) {
	detail, err := s.repo.GetInterventionDetail(ctx, id)
	if err != nil {
		return ports.Intervention{}, errs.Persistence(err, "reload intervention")
	}
	return detail, nil
}
