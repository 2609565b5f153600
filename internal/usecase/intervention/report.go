package intervention

import (
	"context"
	"fmt"
	"strings"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/ports"
)

type ReportInput struct {
	Description string
	LocationID  uint64
	EquipmentID *uint64
	Priority    string
}

// Report files a CORRECTIVE intervention in PENDING and tells the admins.
func (s *Service) Report(ctx context.Context, actor Actor, input ReportInput) (item ports.Intervention, err error) {
	defer func() { s.observe(ctx, domain.OpReport, err) }()

	if err := s.checkReady(ctx); err != nil {
		return ports.Intervention{}, err
	}
	if err := domain.Authorize(domain.OpReport, actor.Role, false); err != nil {
		return ports.Intervention{}, err
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return ports.Intervention{}, errs.Validation("description is required")
	}
	if input.LocationID == 0 {
		return ports.Intervention{}, errs.Validation("locationId is required")
	}
	priority, err := domain.ParsePriority(input.Priority)
	if err != nil {
		return ports.Intervention{}, err
	}

	now := s.now()
	var created ports.Intervention
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.requireLocation(txCtx, input.LocationID); err != nil {
			return err
		}
		if err := s.requireEquipment(txCtx, input.EquipmentID); err != nil {
			return err
		}

		var err error
		created, err = s.repo.CreateIntervention(txCtx, ports.Intervention{
			Description:  description,
			Type:         domain.TypeCorrective,
			Status:       domain.StatusPending,
			Priority:     priority,
			LocationID:   input.LocationID,
			EquipmentID:  input.EquipmentID,
			ReportedByID: actor.UserAccountID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	}); err != nil {
		return ports.Intervention{}, errs.Persistence(err, "report intervention")
	}

	s.invalidateStatsBestEffort(ctx)

	detail, err := s.repo.GetInterventionDetail(ctx, created.ID)
	if err != nil {
		return ports.Intervention{}, errs.Persistence(err, "reload intervention")
	}

	reporter := ""
	if detail.ReportedBy != nil {
		reporter = detail.ReportedBy.Email
	}
	s.notifyAdminsBestEffort(ctx,
		fmt.Sprintf("New intervention reported: %s", detail.Description),
		s.notificationContext(ctx, ports.KindInterventionReported, detail, reporter),
	)
	return detail, nil
}
