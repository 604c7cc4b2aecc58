package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type FeeRepository interface {
	GetSpecialization(ctx context.Context, id uuid.UUID) (*model.DoctorSpecialization, error)
	// Стоимость специализации в больнице.
	FindByHospitalAndSpecialization(ctx context.Context, hospitalID, specializationID uuid.UUID) (*model.HospitalDoctorFee, error)
}

type GormFeeRepository struct {
	db *gorm.DB
}

func NewGormFeeRepository(db *gorm.DB) *GormFeeRepository {
	return &GormFeeRepository{db: db}
}

func (r *GormFeeRepository) GetSpecialization(ctx context.Context, id uuid.UUID) (*model.DoctorSpecialization, error) {
	var s model.DoctorSpecialization
	if err := conn(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormFeeRepository) FindByHospitalAndSpecialization(
	ctx context.Context,
	hospitalID, specializationID uuid.UUID,
) (*model.HospitalDoctorFee, error) {
	var f model.HospitalDoctorFee
	err := conn(ctx, r.db).
		Where("hospital_id = ? AND doctor_specialization_id = ?", hospitalID, specializationID).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}
