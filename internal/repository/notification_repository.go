package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

// NotificationRepository — журнал применённых уведомлений платёжного шлюза.
type NotificationRepository interface {
	Exists(ctx context.Context, dedupKey string) (bool, error)
	Create(ctx context.Context, n *model.PaymentNotification) error
}

type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Exists(ctx context.Context, dedupKey string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&model.PaymentNotification{}).
		Where("dedup_key = ?", dedupKey).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *model.PaymentNotification) error {
	return conn(ctx, r.db).Create(n).Error
}
