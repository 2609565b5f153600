package intervention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"esilogis/internal/bootstrap/logging"
	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/ports"
)

const cacheStatsKey = "stats:interventions:by_status"

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserAccountID uint64
	Role          domain.Role
}

type Config struct {
	// PlanTxTimeout bounds the plan transaction. Zero means no bound.
	PlanTxTimeout time.Duration
	// StatsTTL is how long dashboard counts stay cached.
	StatsTTL time.Duration
}

// Service is the intervention lifecycle manager. Every mutation runs in one
// unit of work; notifications and cache writes happen after commit and never
// fail the operation.
type Service struct {
	repo     ports.InterventionRepository
	identity ports.IdentityRepository
	assets   ports.AssetRepository
	uow      ports.UnitOfWork
	notifier ports.Notifier
	cache    ports.Cache
	cfg      Config
	now      func() time.Time
}

func NewService(
	repo ports.InterventionRepository,
	identity ports.IdentityRepository,
	assets ports.AssetRepository,
	uow ports.UnitOfWork,
	notifier ports.Notifier,
	cache ports.Cache,
	cfg Config,
) *Service {
	return &Service{
		repo:     repo,
		identity: identity,
		assets:   assets,
		uow:      uow,
		notifier: notifier,
		cache:    cache,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) checkReady(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil || s.identity == nil || s.assets == nil {
		return errors.New("intervention repositories are required")
	}
	if s.uow == nil {
		return errors.New("intervention unit of work is required")
	}
	return nil
}

// actorPerson resolves the person profile history entries are attributed to.
func (s *Service) actorPerson(ctx context.Context, actor Actor) (ports.Person, error) {
	person, err := s.identity.PersonForAccount(ctx, actor.UserAccountID)
	if err != nil {
		if errors.Is(err, ports.ErrPersonNotFound) {
			return ports.Person{}, errs.NotFound("no person profile for account %d", actor.UserAccountID)
		}
		return ports.Person{}, err
	}
	return person, nil
}

func (s *Service) appendHistory(ctx context.Context, interventionID uint64, action string, person ports.Person, actor Actor, notes *string, partsUsed *string, at time.Time) (ports.HistoryEntry, error) {
	return s.repo.AppendHistory(ctx, ports.HistoryCreate{
		InterventionID: interventionID,
		Action:         action,
		Notes:          notes,
		PartsUsed:      partsUsed,
		LoggedByID:     person.ID,
		UserAccountID:  actor.UserAccountID,
		LoggedAt:       at,
	})
}

// requireLocation and requireEquipment turn a dangling reference in the input
// into a validation error.
func (s *Service) requireLocation(ctx context.Context, id uint64) (ports.Location, error) {
	location, err := s.assets.GetLocation(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrLocationNotFound) {
			return ports.Location{}, errs.Validation("location %d not found", id)
		}
		return ports.Location{}, err
	}
	return location, nil
}

func (s *Service) requireEquipment(ctx context.Context, id *uint64) error {
	if id == nil {
		return nil
	}
	if _, err := s.assets.GetEquipment(ctx, *id); err != nil {
		if errors.Is(err, ports.ErrEquipmentNotFound) {
			return errs.Validation("equipment %d not found", *id)
		}
		return err
	}
	return nil
}

func (s *Service) invalidateStatsBestEffort(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheStatsKey); err != nil {
		logging.Warn(ctx, "invalidate stats cache", slog.Any("err", errs.Loggable(err)))
	}
}

// observe records the operation outcome and logs failures that are not the
// caller's fault.
func (s *Service) observe(ctx context.Context, op domain.Operation, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if kind := errs.KindOf(err); kind != nil {
			result = kind.Error()
		}
	}
	metrics.RecordOperation(string(op), result)

	if err == nil {
		return
	}
	switch errs.KindOf(err) {
	case errs.ErrValidation, errs.ErrNotFound, errs.ErrState, errs.ErrPermission, errs.ErrUnauthenticated:
		logging.Info(ctx, "intervention operation rejected", slog.String("operation", string(op)), slog.String("reason", err.Error()))
	default:
		logging.Error(ctx, "intervention operation failed", slog.String("operation", string(op)), slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) notificationContext(ctx context.Context, kind string, item ports.Intervention, actor string) ports.NotificationContext {
	nctx := ports.NotificationContext{
		Kind:           kind,
		InterventionID: item.ID,
		Description:    item.Description,
		Priority:       string(item.Priority),
		PlannedAt:      item.PlannedAt,
		Actor:          actor,
	}
	if item.Location != nil {
		nctx.LocationName = item.Location.Name
	} else if location, err := s.assets.GetLocation(ctx, item.LocationID); err == nil {
		nctx.LocationName = location.Name
	}
	return nctx
}

func (s *Service) notifyTechnicianBestEffort(ctx context.Context, technician ports.Person, nctx ports.NotificationContext) {
	if s.notifier == nil {
		return
	}
	result := s.notifier.NotifyTechnician(ctx, technician, nctx)
	if !result.Success {
		logging.Warn(ctx, "technician notification failed",
			slog.Uint64("person_id", technician.ID),
			slog.Uint64("intervention_id", nctx.InterventionID),
			slog.Any("err", errs.Loggable(result.Err)),
		)
	}
}

func (s *Service) notifyAdminsBestEffort(ctx context.Context, message string, nctx ports.NotificationContext) {
	if s.notifier == nil {
		return
	}
	result := s.notifier.NotifyAdmins(ctx, message, nctx)
	if !result.Success {
		logging.Warn(ctx, "admin notification failed",
			slog.Uint64("intervention_id", nctx.InterventionID),
			slog.Any("err", errs.Loggable(result.Err)),
		)
	}
}

func stampFor(status domain.Status, at time.Time, change *ports.StatusChange) {
	switch status {
	case domain.StatusApproved:
		change.ApprovedAt = &at
	case domain.StatusCancelled:
		change.CancelledAt = &at
	case domain.StatusDenied:
		change.DeniedAt = &at
	case domain.StatusCompleted:
		change.ResolvedAt = &at
	}
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func personLabel(p ports.Person) string {
	if name := p.FullName(); name != "" {
		return name
	}
	return fmt.Sprintf("person #%d", p.ID)
}
