package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/infrastructure/persistence/model"
	"esilogis/internal/ports"
)

type InterventionRepository struct {
	db *gorm.DB
}

var _ ports.InterventionRepository = (*InterventionRepository)(nil)

func NewInterventionRepository(db *gorm.DB) *InterventionRepository {
	return &InterventionRepository{db: db}
}

func (r *InterventionRepository) GetIntervention(ctx context.Context, id uint64) (ports.Intervention, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Intervention{}, err
	}

	var row model.Intervention
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Intervention{}, ports.ErrInterventionNotFound
		}
		return ports.Intervention{}, errs.Wrap(err, "query intervention")
	}
	return mapIntervention(row), nil
}

func (r *InterventionRepository) GetInterventionDetail(ctx context.Context, id uint64) (ports.Intervention, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Intervention{}, err
	}

	var row model.Intervention
	if err := withRelations(db).
		Preload("Pauses", func(db *gorm.DB) *gorm.DB { return db.Order("pauses.id asc") }).
		Where("id = ?", id).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Intervention{}, ports.ErrInterventionNotFound
		}
		return ports.Intervention{}, errs.Wrap(err, "query intervention detail")
	}
	return mapIntervention(row), nil
}

func (r *InterventionRepository) ListInterventions(ctx context.Context, filter ports.InterventionFilter) ([]ports.Intervention, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := withRelations(db).Model(&model.Intervention{})
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.ReportedByID != nil {
		query = query.Where("reported_by_id = ?", *filter.ReportedByID)
	}
	if filter.AssigneeID != nil {
		sub := db.Model(&model.InterventionAssignment{}).
			Select("intervention_id").
			Where("person_id = ?", *filter.AssigneeID)
		query = query.Where("id IN (?)", sub)
	}
	if filter.OrderByPlanned {
		query = query.Order("planned_at asc").Order("id asc")
	} else {
		query = query.Order("created_at desc").Order("id desc")
	}

	var rows []model.Intervention
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query interventions")
	}

	items := make([]ports.Intervention, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapIntervention(row))
	}
	return items, nil
}

func (r *InterventionRepository) MissingInterventionIDs(ctx context.Context, ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var found []uint64
	if err := db.Model(&model.Intervention{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, errs.Wrap(err, "query intervention ids")
	}
	return missingIDs(ids, found), nil
}

func (r *InterventionRepository) ListAssigneeIDs(ctx context.Context, interventionID uint64) ([]uint64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	if err := db.Model(&model.InterventionAssignment{}).
		Where("intervention_id = ?", interventionID).
		Order("person_id asc").
		Pluck("person_id", &ids).Error; err != nil {
		return nil, errs.Wrap(err, "query assignee ids")
	}
	return ids, nil
}

func (r *InterventionRepository) IsAssignee(ctx context.Context, interventionID uint64, personID uint64) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.InterventionAssignment{}).
		Where("intervention_id = ? AND person_id = ?", interventionID, personID).
		Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "count assignment")
	}
	return count > 0, nil
}

func (r *InterventionRepository) GetActivePause(ctx context.Context, interventionID uint64) (ports.Pause, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Pause{}, err
	}

	var row model.Pause
	if err := db.
		Where("intervention_id = ? AND resumed_at IS NULL", interventionID).
		Order("paused_at desc").
		Order("id desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Pause{}, ports.ErrNoActivePause
		}
		return ports.Pause{}, errs.Wrap(err, "query active pause")
	}
	return mapPause(row), nil
}

func (r *InterventionRepository) ListPauses(ctx context.Context, interventionID uint64) ([]ports.Pause, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Pause
	if err := db.Where("intervention_id = ?", interventionID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query pauses")
	}

	items := make([]ports.Pause, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapPause(row))
	}
	return items, nil
}

func (r *InterventionRepository) ListHistory(ctx context.Context, interventionID uint64) ([]ports.HistoryEntry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.InterventionHistory
	if err := db.Where("intervention_id = ?", interventionID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query history")
	}

	items := make([]ports.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapHistory(row))
	}
	return items, nil
}

func (r *InterventionRepository) CountByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&model.Intervention{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "count interventions by status")
	}

	counts := make(map[domain.Status]int64, len(rows))
	for _, row := range rows {
		counts[domain.Status(row.Status)] = row.Total
	}
	return counts, nil
}

func (r *InterventionRepository) CreateIntervention(ctx context.Context, in ports.Intervention) (ports.Intervention, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Intervention{}, err
	}

	row := model.Intervention{
		Description:        in.Description,
		Type:               string(in.Type),
		Status:             string(in.Status),
		Priority:           string(in.Priority),
		IsRecurring:        in.IsRecurring,
		RecurrenceInterval: in.RecurrenceInterval,
		PlannedAt:          in.PlannedAt,
		LocationID:         in.LocationID,
		EquipmentID:        in.EquipmentID,
		ReportedByID:       in.ReportedByID,
		CreatedAt:          in.CreatedAt,
		UpdatedAt:          in.UpdatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Intervention{}, errs.Wrap(err, "insert intervention")
	}
	return mapIntervention(row), nil
}

func (r *InterventionRepository) PatchIntervention(ctx context.Context, id uint64, patch ports.InterventionPatch) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updates := map[string]any{"updated_at": patch.UpdatedAt}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Priority != nil {
		updates["priority"] = string(*patch.Priority)
	}
	if patch.LocationID != nil {
		updates["location_id"] = *patch.LocationID
	}
	if patch.EquipmentID != nil {
		updates["equipment_id"] = *patch.EquipmentID
	}

	result := db.Model(&model.Intervention{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update intervention")
	}
	if result.RowsAffected == 0 {
		return ports.ErrInterventionNotFound
	}
	return nil
}

func (r *InterventionRepository) ChangeStatus(ctx context.Context, id uint64, change ports.StatusChange) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"status":     string(change.To),
		"updated_at": change.At,
	}
	setIfPresent(updates, "approved_at", change.ApprovedAt)
	setIfPresent(updates, "cancelled_at", change.CancelledAt)
	setIfPresent(updates, "denied_at", change.DeniedAt)
	setIfPresent(updates, "resolved_at", change.ResolvedAt)
	if change.ResolutionSummary != nil {
		updates["resolution_summary"] = *change.ResolutionSummary
	}
	if change.PartsUsed != nil {
		updates["parts_used"] = *change.PartsUsed
	}

	result := db.Model(&model.Intervention{}).
		Where("id = ? AND status = ?", id, string(change.From)).
		Updates(updates)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update intervention status")
	}
	if result.RowsAffected == 0 {
		return ports.ErrStatusChanged
	}
	return nil
}

func (r *InterventionRepository) UpsertAssignment(ctx context.Context, interventionID uint64, personID uint64, at time.Time) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.InterventionAssignment{
		InterventionID: interventionID,
		PersonID:       personID,
		AssignedAt:     at,
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert assignment")
	}
	return result.RowsAffected > 0, nil
}

func (r *InterventionRepository) CreatePause(ctx context.Context, interventionID uint64, at time.Time) (ports.Pause, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Pause{}, err
	}

	row := model.Pause{
		InterventionID: interventionID,
		PausedAt:       at,
	}
	if err := db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.Pause{}, ports.ErrStatusChanged
		}
		return ports.Pause{}, errs.Wrap(err, "insert pause")
	}
	return mapPause(row), nil
}

func (r *InterventionRepository) ClosePause(ctx context.Context, pauseID uint64, at time.Time) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Pause{}).
		Where("id = ? AND resumed_at IS NULL", pauseID).
		Update("resumed_at", at)
	if result.Error != nil {
		return errs.Wrap(result.Error, "close pause")
	}
	if result.RowsAffected == 0 {
		return ports.ErrNoActivePause
	}
	return nil
}

func (r *InterventionRepository) AppendHistory(ctx context.Context, in ports.HistoryCreate) (ports.HistoryEntry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.HistoryEntry{}, err
	}

	row := model.InterventionHistory{
		InterventionID: in.InterventionID,
		Action:         in.Action,
		Notes:          in.Notes,
		PartsUsed:      in.PartsUsed,
		LoggedByID:     in.LoggedByID,
		UserAccountID:  in.UserAccountID,
		LoggedAt:       in.LoggedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.HistoryEntry{}, errs.Wrap(err, "insert history")
	}
	return mapHistory(row), nil
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Location").
		Preload("Equipment").
		Preload("ReportedBy").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("intervention_assignments.person_id asc") }).
		Preload("Assignments.Person.UserAccount").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("intervention_histories.id asc") })
}

func setIfPresent(updates map[string]any, column string, value *time.Time) {
	if value != nil {
		updates[column] = *value
	}
}
