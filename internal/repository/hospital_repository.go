package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type HospitalRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
}

type GormHospitalRepository struct {
	db *gorm.DB
}

func NewGormHospitalRepository(db *gorm.DB) *GormHospitalRepository {
	return &GormHospitalRepository{db: db}
}

func (r *GormHospitalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	var h model.Hospital
	if err := conn(ctx, r.db).First(&h, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &h, nil
}
