package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"esilogis/internal/errs"
	"esilogis/internal/infrastructure/persistence/model"
	"esilogis/internal/ports"
)

type NotificationRepository struct {
	db *gorm.DB
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n ports.Notification) (ports.Notification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Notification{}, err
	}

	row := model.Notification{
		RecipientAccountID: n.RecipientAccountID,
		InterventionID:     n.InterventionID,
		Kind:               n.Kind,
		Message:            n.Message,
		EmailStatus:        n.EmailStatus,
		CreatedAt:          n.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Notification{}, errs.Wrap(err, "insert notification")
	}
	return mapNotification(row), nil
}

func (r *NotificationRepository) SetEmailStatus(ctx context.Context, id uint64, status string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Model(&model.Notification{}).Where("id = ?", id).Update("email_status", status).Error; err != nil {
		return errs.Wrap(err, "update notification email status")
	}
	return nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, accountID uint64, unreadOnly bool) ([]ports.Notification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Where("recipient_account_id = ?", accountID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var rows []model.Notification
	if err := query.Order("created_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query notifications")
	}

	items := make([]ports.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, accountID uint64, id uint64, at time.Time) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Notification{}).
		Where("id = ? AND recipient_account_id = ?", id, accountID).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", at))
	if result.Error != nil {
		return errs.Wrap(result.Error, "mark notification read")
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotificationNotFound
	}
	return nil
}
