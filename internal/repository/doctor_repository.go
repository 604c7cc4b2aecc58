package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type DoctorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	// Блокирует строку врача: через неё сериализуются записи к одному врачу.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
}

type GormDoctorRepository struct {
	db *gorm.DB
}

func NewGormDoctorRepository(db *gorm.DB) *GormDoctorRepository {
	return &GormDoctorRepository{db: db}
}

func (r *GormDoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var d model.Doctor
	if err := conn(ctx, r.db).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormDoctorRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var d model.Doctor
	if err := forUpdate(conn(ctx, r.db)).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormDoctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	var d model.Doctor
	if err := conn(ctx, r.db).First(&d, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
