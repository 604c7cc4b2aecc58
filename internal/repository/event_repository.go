package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(ctx context.Context, e *model.Event) error {
	return conn(ctx, r.db).Create(e).Error
}

func (r *GormEventRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]model.Event, error) {
	var items []model.Event
	err := conn(ctx, r.db).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
