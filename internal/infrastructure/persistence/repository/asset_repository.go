package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/infrastructure/persistence/model"
	"esilogis/internal/ports"
)

type AssetRepository struct {
	db *gorm.DB
}

var _ ports.AssetRepository = (*AssetRepository)(nil)

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) GetLocation(ctx context.Context, id uint64) (ports.Location, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Location{}, err
	}

	var row model.Location
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Location{}, ports.ErrLocationNotFound
		}
		return ports.Location{}, errs.Wrap(err, "query location")
	}
	return mapLocation(row), nil
}

func (r *AssetRepository) CreateLocation(ctx context.Context, location ports.Location) (ports.Location, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Location{}, err
	}

	row := model.Location{
		Name:        location.Name,
		Description: location.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Location{}, errs.Wrap(err, "insert location")
	}
	return mapLocation(row), nil
}

func (r *AssetRepository) GetEquipment(ctx context.Context, id uint64) (ports.Equipment, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Equipment{}, err
	}

	var row model.Equipment
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Equipment{}, ports.ErrEquipmentNotFound
		}
		return ports.Equipment{}, errs.Wrap(err, "query equipment")
	}
	return mapEquipment(row), nil
}

func (r *AssetRepository) CreateEquipment(ctx context.Context, equipment ports.Equipment) (ports.Equipment, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Equipment{}, err
	}

	status := equipment.Status
	if status == "" {
		status = domain.EquipmentInService
	}
	now := time.Now().UTC()
	row := model.Equipment{
		Name:                     equipment.Name,
		InventoryCode:            equipment.InventoryCode,
		LocationID:               equipment.LocationID,
		Status:                   string(status),
		NextScheduledMaintenance: equipment.NextScheduledMaintenance,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Equipment{}, errs.Wrap(err, "insert equipment")
	}
	return mapEquipment(row), nil
}

func (r *AssetRepository) SetEquipmentStatus(ctx context.Context, id uint64, status domain.EquipmentStatus, at time.Time) error {
	return r.updateEquipment(ctx, id, map[string]any{
		"status":     string(status),
		"updated_at": at,
	})
}

func (r *AssetRepository) SetNextMaintenance(ctx context.Context, id uint64, next time.Time, at time.Time) error {
	return r.updateEquipment(ctx, id, map[string]any{
		"next_scheduled_maintenance": next,
		"updated_at":                 at,
	})
}

func (r *AssetRepository) updateEquipment(ctx context.Context, id uint64, updates map[string]any) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Equipment{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update equipment")
	}
	if result.RowsAffected == 0 {
		return ports.ErrEquipmentNotFound
	}
	return nil
}
